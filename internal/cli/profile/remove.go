package profile

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aryankumar/taskpool/internal/config"
	"github.com/aryankumar/taskpool/internal/util"
)

// newRemoveCmd creates the profile remove command
func newRemoveCmd(manager ManagerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove NAME",
		Short:   "Remove a profile",
		Long:    `Remove a run profile from the config file.`,
		Aliases: []string{"rm", "delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, manager(), args[0])
		},
	}

	return cmd
}

func runRemove(cmd *cobra.Command, m *config.Manager, name string) error {
	if _, ok := m.GetConfig().Profiles[name]; !ok {
		return fmt.Errorf("profile %q: %w", name, util.ErrNotFound)
	}

	m.RemoveProfile(name)
	if err := m.Save(); err != nil {
		return err
	}

	slog.Debug("profile removed", "profile", name)
	fmt.Fprintf(cmd.OutOrStdout(), "Profile %q removed\n", name)
	return nil
}
