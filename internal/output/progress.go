package output

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/aryankumar/taskpool/internal/pool"
)

// Progress renders a progress bar advanced once per settled task
// A negative total renders a spinner for sources of unknown length
type Progress struct {
	bar         *progressbar.ProgressBar
	description string
}

// NewProgress creates a progress bar writing to w
func NewProgress(w io.Writer, total int, description string, noColor bool) *Progress {
	if total < 0 {
		total = -1
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("tasks"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(!noColor),
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)

	return &Progress{bar: bar, description: description}
}

// OnSettle matches pool.SettleFunc
func (p *Progress) OnSettle(_ int, _ error, stats pool.Stats) {
	if stats.Failed > 0 {
		p.bar.Describe(fmt.Sprintf("%s (%d failed)", p.description, stats.Failed))
	}
	_ = p.bar.Add(1)
}

// Finish completes the bar
func (p *Progress) Finish() error {
	return p.bar.Finish()
}

// Stop ends the bar for a run that reached state
// Only a completed run fills the bar; otherwise it stays where the run stopped
func (p *Progress) Stop(state pool.State) error {
	if state == pool.StateCompleted {
		return p.Finish()
	}
	p.bar.Describe(fmt.Sprintf("%s (%s)", p.description, state))
	return p.bar.Exit()
}
