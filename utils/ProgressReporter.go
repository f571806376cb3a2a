package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter defines methods for reporting progress.
type ProgressReporter interface {
	// SetTotal reinitializes the progress bar with the new total count.
	SetTotal(total int)
	// Increment increases the progress by one.
	Increment()
}

// BarProgressReporter is a concrete implementation using progressbar.
type BarProgressReporter struct {
	description string
	writer      io.Writer
	bar         *progressbar.ProgressBar
}

func NewBarProgressReporter(writer io.Writer, description string) *BarProgressReporter {
	p := &BarProgressReporter{description: description, writer: writer}
	p.SetTotal(-1)
	return p
}

func (p *BarProgressReporter) SetTotal(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(p.description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100e6),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// Increment is safe to call from several goroutines.
func (p *BarProgressReporter) Increment() {
	_ = p.bar.Add(1)
}

type NoopProgressReporter struct{}

func (NoopProgressReporter) SetTotal(int) {}

func (NoopProgressReporter) Increment() {}
