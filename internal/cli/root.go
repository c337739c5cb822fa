package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taskgraph/internal/config"
)

// Version, Commit and BuildDate are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configFile string
	logFormat  string
	noColor    bool

	// settings is loaded once per invocation in PersistentPreRunE.
	settings *config.Settings
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskgraph",
		Short: "Dependency analysis for task lists",
		Long: "taskgraph checks task lists for circular dependencies, computes the critical path " +
			"and groups tasks into levels that can run in parallel.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("log-format") {
				s.LogFormat = logFormat
			}
			settings = s
			setupLogging(s.LogFormat)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configFile, "config", ".taskgraph.yml", "path to config file")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newCyclesCmd())
	root.AddCommand(newCriticalPathCmd())
	root.AddCommand(newLevelsCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func setupLogging(format string) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// useColor reports whether text output should carry ANSI codes.
func useColor(cmd *cobra.Command) bool {
	if noColor || !settings.Color {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isTerminal(f)
}

// isTerminal checks if f is a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
