package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryankumar/taskpool/internal/cli/profile"
	"github.com/aryankumar/taskpool/internal/config"
	"github.com/aryankumar/taskpool/internal/logger"
	"github.com/aryankumar/taskpool/internal/util"
)

// ExitError carries the process exit status for a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status for err: 0 for nil, the ExitError code, or 1
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// ErrorMessage returns the user-facing line for err
func ErrorMessage(err error) string {
	return util.FriendlyError(err)
}

// rootOptions is shared by every subcommand
type rootOptions struct {
	cfgFile string
	profile string
	manager *config.Manager
	log     *logger.AppLogger
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "taskpool",
		Short: "taskpool - bounded-concurrency task runner",
		Long: `taskpool runs a lazily generated stream of tasks with a fixed
concurrency limit, optional stop-on-error, cooperative cancellation and live
statistics. Workloads come from flags or YAML plan files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.taskpool.yaml)")
	flags.StringVar(&opts.profile, "profile", "", "named profile from the config file")
	flags.StringP("output", "o", "", "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output with debug logging")
	flags.String("log-level", "", "log level (silly, verbose, info, warn, error)")
	flags.Bool("log-json", false, "write logs as JSON")
	flags.Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(profile.NewProfileCmd(func() *config.Manager { return opts.manager }))

	return rootCmd
}

// initConfig loads configuration and sets up logging
func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	o.manager = config.NewManager(o.cfgFile)

	v := o.manager.Viper()
	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"defaults.outputFormat": "output",
		"defaults.noColor":      "no-color",
		"defaults.logLevel":     "log-level",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}

	if _, err := o.manager.Load(); err != nil {
		return err
	}

	return o.setupLogging(cmd)
}

// setupLogging configures the application logger and the default slog logger
func (o *rootOptions) setupLogging(cmd *cobra.Command) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonLogs, _ := cmd.Flags().GetBool("log-json")

	level, err := logger.ParseLevel(o.manager.GetConfig().Defaults.LogLevel)
	if err != nil {
		return err
	}
	if verbose && level > logger.LevelVerbose {
		level = logger.LevelVerbose
	}

	o.log = logger.New("taskpool", level, os.Stderr)
	o.log.SetPretty(!jsonLogs)
	slog.SetDefault(o.log.Slog())

	if verbose {
		slog.Debug("verbose logging enabled")
		if used := o.manager.Viper().ConfigFileUsed(); used != "" {
			slog.Debug("loaded configuration", "file", used)
		}
	}

	return nil
}
