// brewtimer: a hands-free Aeropress timer.
//
// Usage:
//
//	brewtimer run [recipe-id] [--plain] [--no-speech] [--voice]
//	brewtimer list
//	brewtimer history
//	brewtimer config init|show
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Azure credentials may live in a .env next to the binary's working dir.
	_ = godotenv.Load()

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
