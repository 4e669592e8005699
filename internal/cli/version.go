package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/taskpool/internal/output"
	"github.com/aryankumar/taskpool/pkg/version"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for taskpool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	w := cmd.OutOrStdout()

	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "" {
		// Default to human-readable format
		fmt.Fprintln(w, info.String())
		return nil
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatter := output.NewFormatter(format, output.WithNoColor(noColor))

	if format == output.FormatTable {
		return formatter.Format(w, info.Fields())
	}
	return formatter.Format(w, info)
}
