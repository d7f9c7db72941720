package main

import (
	"fmt"
	"io"

	"github.com/gosuri/uilive"
)

// progressLine keeps a single live status line on a terminal.
// A nil *progressLine is valid and does nothing.
type progressLine struct {
	writer *uilive.Writer
	total  int
}

func startProgress(out io.Writer, enabled bool) *progressLine {
	if !enabled || !isTerminal(out) {
		return nil
	}
	writer := uilive.New()
	writer.Out = out
	writer.Start()
	return &progressLine{writer: writer}
}

// update matches the Inventory.Progress signature.
func (p *progressLine) update(done, total int, device string) {
	if p == nil {
		return
	}
	p.total = total
	_, _ = fmt.Fprintf(p.writer, "Inspecting %s (%d/%d)\n", device, done, total)
}

func (p *progressLine) stop() {
	if p == nil {
		return
	}
	_, _ = fmt.Fprintf(p.writer, "Inspected %d volumes\n", p.total)
	p.writer.Stop()
}
