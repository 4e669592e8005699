package profile

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/aryankumar/taskpool/internal/config"
	"github.com/aryankumar/taskpool/internal/output"
)

// newListCmd creates the profile list command
func newListCmd(manager ManagerFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List run profiles",
		Long:    `List the run profiles defined in the config file with their effective settings.`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, manager())
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, m *config.Manager) error {
	names := m.ProfileNames()
	slog.Debug("listing profiles", "count", len(names), "file", m.Viper().ConfigFileUsed())

	w := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No profiles found in config")
		return nil
	}

	format, err := output.ParseFormat(outputFormat(m))
	if err != nil {
		return err
	}

	if format != output.FormatTable {
		return output.NewFormatter(format).Format(w, m.GetConfig().Profiles)
	}

	return outputTable(w, m, names, m.GetConfig().Defaults.NoColor)
}

func outputTable(w io.Writer, m *config.Manager, names []string, noColor bool) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Concurrency", "Stop-On-Error", "Timeout", "Rate", "Plan"})

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	cyan := color.New(color.FgCyan)
	if noColor {
		cyan.DisableColor()
	}

	for _, name := range names {
		cfg, err := m.Profile(name)
		if err != nil {
			return err
		}

		timeout := "-"
		if cfg.TaskTimeout > 0 {
			timeout = cfg.TaskTimeout.String()
		}
		rate := "-"
		if cfg.Rate > 0 {
			rate = strconv.FormatFloat(cfg.Rate, 'f', -1, 64) + "/s"
		}
		plan := cfg.Plan
		if len(plan) > 50 {
			plan = "..." + plan[len(plan)-47:]
		}
		if plan == "" {
			plan = "-"
		}

		table.Append([]string{
			cyan.Sprint(name),
			strconv.Itoa(cfg.Concurrency),
			strconv.FormatBool(cfg.StopOnError),
			timeout,
			rate,
			plan,
		})
	}

	table.Render()

	fmt.Fprintf(w, "\nTotal profiles: %d\n", len(names))

	return nil
}
