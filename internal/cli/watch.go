package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taskgraph/internal/reporter"
	"github.com/ppiankov/taskgraph/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		pollMode bool
		debounce time.Duration
		tuiMode  bool
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-validate a task file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("debounce") {
				debounce = settings.WatchDebounce
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if tuiMode {
				return runWatchTUI(ctx, args[0], pollMode, debounce)
			}

			out := reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd))
			w, err := watch.New(watch.Config{
				Path:     args[0],
				Debounce: debounce,
				PollMode: pollMode,
				Handle: func(res watch.Result) {
					stamp := time.Now().Format(time.TimeOnly)
					if res.Err != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "[%s] %v\n\n", stamp, res.Err)
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] ", stamp)
					out.PrintReport(reporter.FileReport{Source: args[0], Report: res.Report})
				},
			})
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&pollMode, "poll", false, "use polling instead of fsnotify")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "wait this long after the last change before re-validating")
	cmd.Flags().BoolVar(&tuiMode, "tui", false, "show results in the interactive viewer")

	return cmd
}

// runWatchTUI feeds watcher results into the viewer until the user quits.
// Load errors are logged; the viewer keeps the last good report.
func runWatchTUI(ctx context.Context, path string, pollMode bool, debounce time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan watch.Result, 1)
	w, err := watch.New(watch.Config{
		Path:     path,
		Debounce: debounce,
		PollMode: pollMode,
		Handle: func(res watch.Result) {
			select {
			case results <- res:
			case <-ctx.Done():
			}
		},
	})
	if err != nil {
		return err
	}

	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Run(ctx) }()

	var first watch.Result
	select {
	case first = <-results:
	case err := <-watchErr:
		return err
	}
	if first.Err != nil {
		return first.Err
	}

	updates := make(chan reporter.FileReport)
	go func() {
		defer close(updates)
		for {
			select {
			case <-ctx.Done():
				return
			case res := <-results:
				if res.Err != nil {
					continue
				}
				select {
				case updates <- reporter.FileReport{Source: path, Report: res.Report}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	err = reporter.RunTUI(reporter.FileReport{Source: path, Report: first.Report}, updates)
	cancel()
	if werr := <-watchErr; err == nil {
		err = werr
	}
	return err
}
