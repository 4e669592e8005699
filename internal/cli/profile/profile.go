package profile

import (
	"github.com/spf13/cobra"

	"github.com/aryankumar/taskpool/internal/config"
)

// ManagerFunc returns the configuration manager loaded by the root command
type ManagerFunc func() *config.Manager

// NewProfileCmd creates the profile management command
func NewProfileCmd(manager ManagerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage run profiles",
		Long: `Manage named run profiles in the taskpool config file.

A profile is a set of overrides (concurrency, stop-on-error, timeouts, rate
limits, plan file) applied on top of the config defaults when a run is started
with --profile NAME.`,
	}

	cmd.AddCommand(newListCmd(manager))
	cmd.AddCommand(newShowCmd(manager))
	cmd.AddCommand(newSetCmd(manager))
	cmd.AddCommand(newRemoveCmd(manager))

	return cmd
}

// outputFormat returns the configured output format, --output included
func outputFormat(m *config.Manager) string {
	return m.GetConfig().Defaults.OutputFormat
}
