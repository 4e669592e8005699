// Package output provides formatters for displaying taskpool run reports.
//
// The package supports multiple output formats (table, JSON, YAML) behind a
// single Formatter interface, and a progress bar that follows a running pool.
//
// # Basic Usage
//
//	formatter := output.NewFormatter(output.FormatTable)
//
//	res, _ := p.Run(ctx)
//	formatter.FormatReport(os.Stdout, res.Report())
//
// # Options
//
// Formatters can be configured with functional options:
//
//	formatter := output.NewFormatter(
//	    output.FormatTable,
//	    output.WithNoColor(true),
//	    output.WithWide(true),
//	)
//
// # Formatters
//
// Table Formatter (kubectl-style):
//   - Borderless tables with tab-separated columns
//   - One row per dispatched task, ordered by generation index
//   - A state and summary footer, plus the run error if any
//   - Wide mode adds the task value or error
//
// JSON and YAML Formatters:
//   - The terminal state, elapsed time, final stats and every outcome
//   - Failed outcomes carry the error text and, for exceptions, the HTTP status
//
// # Progress
//
// Progress advances once per settled task and is meant to be passed to
// pool.WithOnSettle:
//
//	bar := output.NewProgress(os.Stderr, n, "running", false)
//	p, _ := pool.New(src, 4, pool.WithOnSettle(bar.OnSettle))
//
// # Color Support
//
// Colors are enabled for TTY outputs only and can be disabled with
// WithNoColor(true). States are green when completed, yellow when cancelled and
// red when failed.
package output
