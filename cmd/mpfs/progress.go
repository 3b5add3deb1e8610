package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// barProgress shows upload progress on a terminal, one step per entry.
type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("uploading"),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.w, "\n") //nolint:errcheck // best-effort progress
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (p *barProgress) Advance(name string) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(name)
	_ = p.bar.Add(1)
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// lineProgress prints one line per uploaded entry when output is not a
// terminal.
type lineProgress struct {
	w     io.Writer
	total int
	done  int
}

func (p *lineProgress) Start(total int) { p.total, p.done = total, 0 }

func (p *lineProgress) Advance(name string) {
	p.done++
	fmt.Fprintf(p.w, "[%d/%d] %s\n", p.done, p.total, name) //nolint:errcheck // best-effort progress
}

func (p *lineProgress) Finish() {}
