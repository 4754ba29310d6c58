package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/engine"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	green = "\033[32m"
	cyan  = "\033[36m"
	dim   = "\033[2m"
)

// PrintFunc prints one formatted line.
type PrintFunc func(format string, a ...any)

// CLINotifier prints replies and timer transitions as plain lines. It is
// the output path when stdout is not a terminal or the full-screen view
// is turned off.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc
	color   bool
}

// NewCLINotifier creates a line-based notifier. If printFn is nil,
// fmt.Printf is used. With color false no escape codes are written.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc, color bool) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...any) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn, color: color}
}

// Notify prints a normal message.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s", n.paint(cyan, message))
	return nil
}

// NotifyUrgent prints a message in bold red.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s", n.paint(red+bold, message))
	return nil
}

// Watch prints a line for every stage change and cancellation until the
// channel closes or ctx is done. Progress ticks are not printed.
func (n *CLINotifier) Watch(ctx context.Context, events <-chan engine.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if line := FormatEvent(ev); line != "" {
				n.printFn("%s", n.paintEvent(ev, line))
			}
		}
	}
}

// FormatEvent renders an engine event as one plain line, or "" for events
// that are not printed.
func FormatEvent(ev engine.Event) string {
	s := ev.Snapshot
	switch ev.Type {
	case engine.EventStage:
		switch s.Stage.Kind {
		case engine.StageStep:
			return fmt.Sprintf("[%d/%d] %s %s", s.Stage.Index+1, s.StepCount, s.Kind, formatSeconds(s.Duration))
		case engine.StageDone:
			return "Done"
		}
	case engine.EventCancelled:
		return "Cancelled"
	}
	return ""
}

func (n *CLINotifier) paintEvent(ev engine.Event, line string) string {
	switch {
	case ev.Type == engine.EventCancelled:
		return n.paint(dim, line)
	case ev.Snapshot.Stage.Kind == engine.StageDone:
		return n.paint(green+bold, line)
	default:
		return n.paint(bold, line)
	}
}

func (n *CLINotifier) paint(code, s string) string {
	if !n.color {
		return s
	}
	return code + s + reset
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%ds", int(d/time.Second))
}
