package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/aryankumar/taskpool/internal/pool"
)

// TableFormatter formats output as a table (kubectl-style)
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case map[string]any:
		return f.formatMap(f.createTable(w), v)
	case pool.Stats:
		return f.formatMap(f.createTable(w), map[string]any{
			"dispatched": v.Dispatched,
			"running":    v.Running,
			"succeeded":  v.Succeeded,
			"failed":     v.Failed,
		})
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatReport outputs one row per dispatched task followed by a summary
func (f *TableFormatter) FormatReport(w io.Writer, report *pool.Report) error {
	colors := NewColorScheme(w, f.options.NoColor)

	if len(report.Outcomes) == 0 {
		fmt.Fprintln(w, "No tasks dispatched")
	} else {
		table := f.createTable(w)

		headers := []string{"TASK", "STATUS", "DURATION"}
		if f.options.Wide {
			headers = append(headers, "VALUE")
		}

		if !f.options.NoHeaders {
			if colors.Disabled {
				table.SetHeader(headers)
			} else {
				coloredHeaders := make([]string, len(headers))
				for i, h := range headers {
					coloredHeaders[i] = colors.Header(h)
				}
				table.SetHeader(coloredHeaders)
			}
		}

		for _, o := range report.Outcomes {
			table.Append(f.formatOutcomeRow(o, colors))
		}

		table.Render()
	}

	f.printSummary(w, report, colors)
	return nil
}

// formatOutcomeRow formats a single outcome as a table row
func (f *TableFormatter) formatOutcomeRow(o pool.Outcome[any], colors *ColorScheme) []string {
	id := colors.TaskID("%s", strconv.Itoa(o.Index))

	status := "Success"
	if o.Err != nil {
		status = "Failed"
	}
	status = colors.StatusColor(o.Err != nil)("%s", status)

	duration := colors.Duration("%s", o.Duration.Round(time.Microsecond))

	row := []string{id, status, duration}

	if f.options.Wide {
		dataStr := ""
		if o.Err != nil {
			dataStr = o.Err.Error()
		} else if o.Value != nil {
			dataStr = fmt.Sprintf("%v", o.Value)
		}
		if len(dataStr) > 50 {
			dataStr = dataStr[:47] + "..."
		}
		row = append(row, dataStr)
	}

	return row
}

// formatMap formats a map as a two-column table, sorted by key
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]any) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// createTable creates a new table with kubectl-style configuration
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t") // Tab-separated like kubectl
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints the terminal state and counts
func (f *TableFormatter) printSummary(w io.Writer, report *pool.Report, colors *ColorScheme) {
	summary := pool.Summarize(report.Outcomes)

	fmt.Fprintln(w, "")

	state := colors.StateColor(report.State)("%s", strings.ToUpper(report.State.String()))
	fmt.Fprintf(w, "State: %s in %s\n", state, report.Elapsed.Round(time.Millisecond))

	successText := colors.Success("%d successful", report.Stats.Succeeded)

	failedText := fmt.Sprintf("%d failed", report.Stats.Failed)
	if report.Stats.Failed > 0 {
		failedText = colors.Error("%s", failedText)
	}

	durationText := colors.Duration("avg=%s", summary.AvgDuration.Round(time.Microsecond))

	fmt.Fprintf(w, "Summary: %d dispatched, %s, %s, %s\n", report.Stats.Dispatched, successText, failedText, durationText)

	if report.Err != nil {
		fmt.Fprintf(w, "Error: %s\n", colors.Error("%v", report.Err))
	}
}
