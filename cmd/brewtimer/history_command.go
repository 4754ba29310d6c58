package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/brewtimer/internal/domain"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently started brews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log, closeLog := ctx.openLogger(cfg, cmd.ErrOrStderr())
			defer closeLog()

			store, err := openHistory(cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			if limit <= 0 {
				limit = cfg.History.RecentLimit
			}
			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No brews recorded yet.")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of runs to show (default from history.recent_limit)")
	return cmd
}

func renderHistoryTable(runs []domain.RunStart) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.RecipeName,
			r.RecipeID,
			strconv.Itoa(r.StepCount),
			formatDuration(r.Total),
			shortRunID(r.RunID),
		})
	}
	return renderTable(
		[]string{"Started", "Recipe", "ID", "Steps", "Total", "Run"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
