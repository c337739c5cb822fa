package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taskgraph/internal/reporter"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored validation reports",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), format, entries, func() {
				reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd)).PrintHistory(entries, time.Now())
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports (0 for all)")
	addFormatFlag(cmd, &format)

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			e, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fr := reporter.FileReport{Source: e.Source, Report: e.Report}
			return writeResult(cmd.OutOrStdout(), format, e, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "report %s, saved %s\n", e.ID, e.CreatedAt.Format(time.RFC3339))
				reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd)).PrintReport(fr)
			})
		},
	}
	addFormatFlag(cmd, &format)

	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("keep") {
				keep = settings.History.Retain
			}
			ctx := context.Background()
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(ctx, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d reports\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 500, "number of newest reports to keep (0 keeps all)")

	return cmd
}
