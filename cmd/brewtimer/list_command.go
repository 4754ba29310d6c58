package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/brewtimer/internal/domain"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, closeLog := ctx.openLogger(cfg, cmd.ErrOrStderr())
			defer closeLog()

			summaries, err := loadRecipes(cfg, log).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list recipes: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecipeTable(summaries))
			return nil
		},
	}
}

func renderRecipeTable(summaries []domain.RecipeSummary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		pin := ""
		if s.Favorite {
			pin = "★"
		}
		rows = append(rows, []string{pin, s.ID, s.Name, strconv.Itoa(s.StepCount), formatDuration(s.Total)})
	}
	return renderTable(
		[]string{"", "ID", "Name", "Steps", "Total"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}
