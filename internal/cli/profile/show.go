package profile

import (
	"github.com/spf13/cobra"

	"github.com/aryankumar/taskpool/internal/config"
	"github.com/aryankumar/taskpool/internal/output"
)

// newShowCmd creates the profile show command
func newShowCmd(manager ManagerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show the effective settings of a profile",
		Long:  `Show a profile merged over the config defaults, as a run with --profile NAME would use it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, manager(), args[0])
		},
	}

	return cmd
}

func runShow(cmd *cobra.Command, m *config.Manager, name string) error {
	cfg, err := m.Profile(name)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(outputFormat(m))
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format, output.WithNoColor(m.GetConfig().Defaults.NoColor))

	if format != output.FormatTable {
		return formatter.Format(cmd.OutOrStdout(), cfg)
	}

	return formatter.Format(cmd.OutOrStdout(), map[string]any{
		"name":         name,
		"concurrency":  cfg.Concurrency,
		"stopOnError":  cfg.StopOnError,
		"taskTimeout":  cfg.TaskTimeout.String(),
		"rate":         cfg.Rate,
		"burst":        cfg.Burst,
		"plan":         cfg.Plan,
		"outputFormat": cfg.OutputFormat,
		"logLevel":     cfg.LogLevel,
		"metricsAddr":  cfg.MetricsAddr,
	})
}
