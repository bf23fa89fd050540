package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/pharmassist/synthdata/internal/domain/simulation"
)

// progress advances a bar once per simulated day.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer, opts simulation.Options) *progress {
	days := len(simulation.Days(opts.Year))
	if opts.Mode == simulation.ModeCompact {
		days = simulation.CompactDays
	}
	bar := progressbar.NewOptions(days,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(opts.Pharmacy),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("days"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
	return &progress{bar: bar}
}

func (p *progress) OnDay(time.Time, bool, int) { _ = p.bar.Add(1) }

func (p *progress) OnRecord(string) {}
