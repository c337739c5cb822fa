package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taskgraph/internal/config"
	"github.com/ppiankov/taskgraph/internal/reporter"
	"github.com/ppiankov/taskgraph/internal/task"
)

func loadGraph(path string) (*task.Graph, error) {
	tf, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return task.BuildGraph(tf.Tasks), nil
}

// writeResult encodes v as json or yaml, or calls text for the text format.
func writeResult(w io.Writer, format string, v any, text func()) error {
	switch format {
	case "json":
		return reporter.EncodeJSON(w, v)
	case "yaml":
		return reporter.EncodeYAML(w, v)
	case "text":
		text()
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", "text", "output format: text, json or yaml")
}

func newCyclesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "cycles FILE",
		Short: "Report the first circular dependency in a task file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			res := g.DetectCycle()

			err = writeResult(cmd.OutOrStdout(), format, res, func() {
				reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd)).PrintCycle(res)
			})
			if err != nil {
				return err
			}
			if res.HasCycle {
				return &InvalidGraphError{Problems: []string{
					fmt.Sprintf("%s: %v", args[0], &task.CycleError{Cycle: res.Cycle}),
				}}
			}
			return nil
		},
	}
	addFormatFlag(cmd, &format)

	return cmd
}

func newCriticalPathCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "critical-path FILE",
		Short: "Compute the longest chain of dependent tasks by estimated hours",
		Long: "critical-path runs a CPM forward and backward pass. On a cyclic graph only " +
			"tasks outside and upstream of the cycle are scheduled, so the result is partial.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			res := g.CriticalPath()
			valid := !g.DetectCycle().HasCycle

			return writeResult(cmd.OutOrStdout(), format, res, func() {
				reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd)).PrintCriticalPath(res, valid)
			})
		},
	}
	addFormatFlag(cmd, &format)

	return cmd
}

func newLevelsCmd() *cobra.Command {
	var (
		format string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "levels FILE",
		Short: "Group tasks into levels that can run in parallel",
		Long: "levels performs a layered topological sort. Without --strict a cycle does not " +
			"fail the command: tasks that can never be scheduled are forced into one final level.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("strict") {
				strict = settings.Strict
			}
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			levels, err := g.Levels(strict)
			var cycleErr *task.CycleError
			if errors.As(err, &cycleErr) {
				return &InvalidGraphError{Problems: []string{fmt.Sprintf("%s: %v", args[0], cycleErr)}}
			}
			if err != nil {
				return err
			}
			valid := strict || !g.DetectCycle().HasCycle

			return writeResult(cmd.OutOrStdout(), format, levels, func() {
				reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd)).PrintLevels(levels, valid)
			})
		},
	}
	addFormatFlag(cmd, &format)
	cmd.Flags().BoolVar(&strict, "strict", false, "fail instead of force-leveling a cyclic graph")

	return cmd
}
