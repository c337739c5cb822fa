package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/taskgraph/internal/config"
	"github.com/ppiankov/taskgraph/internal/history"
	"github.com/ppiankov/taskgraph/internal/reporter"
	"github.com/ppiankov/taskgraph/internal/task"
)

type validateOptions struct {
	format string
	output string
	strict bool
	save   bool
	tui    bool
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check task files for cycles and report critical path and parallel levels",
		Long: "validate loads each task file (JSON, YAML or HCL by extension), checks it for " +
			"circular dependencies, computes its critical path and parallel levels, and " +
			"exits with status 2 if any graph is invalid.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				opts.format = settings.Format
			}
			if !cmd.Flags().Changed("strict") {
				opts.strict = settings.Strict
			}
			if !cmd.Flags().Changed("save") {
				opts.save = settings.History.Enabled
			}
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json, yaml or sarif")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "also fail on dependencies that reference unknown tasks")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store reports in the history database")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "browse the report in an interactive viewer")

	return cmd
}

func runValidate(cmd *cobra.Command, paths []string, opts validateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reports, err := analyzeFiles(ctx, paths)
	if err != nil {
		return err
	}

	if opts.save {
		if err := saveReports(ctx, cmd.ErrOrStderr(), reports); err != nil {
			return err
		}
	}

	if opts.tui {
		if len(reports) != 1 {
			return fmt.Errorf("--tui takes exactly one file, got %d", len(reports))
		}
		if err := reporter.RunTUI(reports[0], nil); err != nil {
			return err
		}
		return checkReports(reports, opts.strict)
	}

	if opts.output != "" {
		err = reporter.WriteFile(opts.output, func(w io.Writer) error {
			return writeReports(w, opts.format, reports, false)
		})
	} else {
		err = writeReports(cmd.OutOrStdout(), opts.format, reports, useColor(cmd))
	}
	if err != nil {
		return err
	}
	return checkReports(reports, opts.strict)
}

// analyzeFiles loads and validates every file concurrently. Reports keep
// the order of paths. The first load error cancels the rest.
func analyzeFiles(ctx context.Context, paths []string) ([]reporter.FileReport, error) {
	reports := make([]reporter.FileReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tf, err := config.Load(path)
			if err != nil {
				return err
			}
			reports[i] = reporter.FileReport{Source: path, Report: task.Validate(tf.Tasks)}
			slog.Debug("analyzed", "file", path, "tasks", len(tf.Tasks), "valid", reports[i].Report.IsValid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeReports(w io.Writer, format string, reports []reporter.FileReport, color bool) error {
	switch format {
	case "json":
		return reporter.WriteJSON(w, reports)
	case "yaml":
		return reporter.WriteYAML(w, reports)
	case "sarif":
		return reporter.WriteSARIF(w, reports, Version)
	case "text":
		r := reporter.NewTextReporter(w, color)
		for _, fr := range reports {
			r.PrintReport(fr)
		}
		if len(reports) > 1 {
			r.PrintSummary(reports)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or sarif)", format)
	}
}

// checkReports turns cycles, and in strict mode dangling references, into
// an *InvalidGraphError.
func checkReports(reports []reporter.FileReport, strict bool) error {
	var problems []string
	for _, fr := range reports {
		if !fr.Report.IsValid {
			cycle := &task.CycleError{Cycle: fr.Report.CircularDependencies.Cycle}
			problems = append(problems, fmt.Sprintf("%s: %v", fr.Source, cycle))
		}
		if strict {
			for _, d := range fr.Report.UnknownDependencies() {
				problems = append(problems, fmt.Sprintf("%s: %s", fr.Source, d))
			}
		}
	}
	if len(problems) > 0 {
		return &InvalidGraphError{Problems: problems}
	}
	return nil
}

func openHistory(ctx context.Context) (*history.Store, error) {
	path := settings.History.Path
	if path == "" {
		path = history.DefaultPath()
	}
	return history.Open(ctx, path)
}

func saveReports(ctx context.Context, w io.Writer, reports []reporter.FileReport) error {
	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, fr := range reports {
		id, err := store.Save(ctx, fr.Source, fr.Report)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "saved %s as %s\n", fr.Source, id)
	}

	removed, err := store.Prune(ctx, settings.History.Retain)
	if err != nil {
		return err
	}
	if removed > 0 {
		slog.Info("pruned history", "removed", removed, "retain", settings.History.Retain)
	}
	return nil
}
