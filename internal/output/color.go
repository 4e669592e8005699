package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/aryankumar/taskpool/internal/pool"
)

// ColorScheme provides color functions for different output elements
type ColorScheme struct {
	// TaskID colors task indices
	TaskID func(format string, a ...any) string

	// Success colors success status
	Success func(format string, a ...any) string

	// Error colors error messages
	Error func(format string, a ...any) string

	// Warning colors warning messages
	Warning func(format string, a ...any) string

	// Header colors table headers
	Header func(format string, a ...any) string

	// Duration colors duration values
	Duration func(format string, a ...any) string

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a new color scheme
// Colors are automatically disabled for non-TTY outputs or when noColor is true
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !isTTY(w) {
		plain := fmt.Sprintf
		return &ColorScheme{
			TaskID:   plain,
			Success:  plain,
			Error:    plain,
			Warning:  plain,
			Header:   plain,
			Duration: plain,
			Disabled: true,
		}
	}

	return &ColorScheme{
		TaskID:   color.New(color.FgCyan, color.Bold).Sprintf,
		Success:  color.New(color.FgGreen).Sprintf,
		Error:    color.New(color.FgRed, color.Bold).Sprintf,
		Warning:  color.New(color.FgYellow).Sprintf,
		Header:   color.New(color.FgWhite, color.Bold).Sprintf,
		Duration: color.New(color.FgBlue).Sprintf,
		Disabled: false,
	}
}

// isTTY checks if the writer is a terminal
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StatusColor returns an appropriate color function based on error status
func (cs *ColorScheme) StatusColor(hasError bool) func(format string, a ...any) string {
	if hasError {
		return cs.Error
	}
	return cs.Success
}

// StateColor colors a terminal state: green for completed, yellow for cancelled, red for failed
func (cs *ColorScheme) StateColor(s pool.State) func(format string, a ...any) string {
	switch s {
	case pool.StateCompleted:
		return cs.Success
	case pool.StateFailed:
		return cs.Error
	default:
		return cs.Warning
	}
}
