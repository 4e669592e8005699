package profile

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aryankumar/taskpool/internal/config"
)

// newSetCmd creates the profile set command
func newSetCmd(manager ManagerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Create or update a profile",
		Long: `Create or update a run profile in the config file.

Only the flags given on the command line change; other settings of an
existing profile are kept.`,
		Example: `  taskpool profile set fast --concurrency 32 --rate 200 --burst 10
  taskpool profile set strict --stop-on-error --task-timeout 2s`,
		Aliases: []string{"add"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, manager(), args[0])
		},
	}

	flags := cmd.Flags()
	flags.IntP("concurrency", "c", 0, "maximum number of tasks in flight")
	flags.Bool("stop-on-error", false, "stop dispatching after the first task failure")
	flags.Duration("task-timeout", 0, "per-task timeout")
	flags.Float64("rate", 0, "maximum task pulls per second")
	flags.Int("burst", 0, "rate limiter burst size")
	flags.String("plan", "", "workload plan file (YAML)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

func runSet(cmd *cobra.Command, m *config.Manager, name string) error {
	p := m.GetConfig().Profiles[name]

	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		p.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("stop-on-error") {
		p.StopOnError, _ = flags.GetBool("stop-on-error")
	}
	if flags.Changed("task-timeout") {
		p.TaskTimeout, _ = flags.GetDuration("task-timeout")
	}
	if flags.Changed("rate") {
		p.Rate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("burst") {
		p.Burst, _ = flags.GetInt("burst")
	}
	if flags.Changed("plan") {
		p.Plan, _ = flags.GetString("plan")
	}
	if flags.Changed("metrics-addr") {
		p.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	if err := m.GetConfig().Defaults.Merge(p).Validate(); err != nil {
		return err
	}

	m.SetProfile(name, p)
	if err := m.Save(); err != nil {
		return err
	}

	slog.Debug("profile saved", "profile", name)
	fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved\n", name)
	return nil
}
