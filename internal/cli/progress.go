package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/payroll-sentinel/internal/monitor"
)

// CheckProgress shows a progress bar while companies are checked.
type CheckProgress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	failed int
}

// NewCheckProgress creates a bar for total companies.
func NewCheckProgress(w io.Writer, total int) *CheckProgress {
	p := &CheckProgress{writer: w}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Checking companies...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Done advances the bar for a finished company. It matches the progress
// callback of monitor.Monitor.CheckAll.
func (p *CheckProgress) Done(r monitor.Result) {
	if r.Err != nil {
		p.failed++
		p.bar.Describe(fmt.Sprintf("[red]%d failed[reset]", p.failed))
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Failed returns how many companies failed so far.
func (p *CheckProgress) Failed() int {
	return p.failed
}
