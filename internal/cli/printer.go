// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/stream"
	"github.com/jeranaias/genscene-tui/internal/transcript"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// streamPrinter writes a reply to a line-oriented terminal as it arrives:
// text deltas verbatim (control bytes escaped), each image as a one-line
// description once it is complete.
type streamPrinter struct {
	w      io.Writer
	styles render.Styles
	label  string

	mu      sync.Mutex
	labeled bool
	midLine bool
	images  int
}

// newStreamPrinter prints replies from actor. An empty actor prints no label.
func newStreamPrinter(w io.Writer, styles render.Styles, actor string) *streamPrinter {
	p := &streamPrinter{w: w, styles: styles}
	if actor != "" {
		p.label = styles.AssistantLabel.Render(actor+":") + " "
	}
	return p
}

// observe is a transcript.Observer.
func (p *streamPrinter) observe(u transcript.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch u.Op.Type {
	case transcript.OpAppend:
		for _, m := range u.Op.Messages {
			if m.Role != transcript.RoleAssistant {
				continue
			}
			p.start()
			if m.IsImage() {
				p.images++
				p.endLine()
				fmt.Fprintln(p.w, p.styles.Image.Render(render.DescribeImage(m.Value)))
				continue
			}
			p.text(m.Value)
		}
	case transcript.OpUpdateLast:
		p.start()
		p.text(u.Op.Delta)
	}
}

// finish ends the current line. It is safe to call more than once.
func (p *streamPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endLine()
}

// imageCount returns how many images were printed.
func (p *streamPrinter) imageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.images
}

func (p *streamPrinter) start() {
	if p.labeled {
		return
	}
	p.labeled = true
	if p.label != "" {
		io.WriteString(p.w, p.label)
		p.midLine = true
	}
}

func (p *streamPrinter) text(s string) {
	if s == "" {
		return
	}
	io.WriteString(p.w, render.EscapeControl(s))
	p.midLine = !strings.HasSuffix(s, "\n")
}

func (p *streamPrinter) endLine() {
	if p.midLine {
		io.WriteString(p.w, "\n")
		p.midLine = false
	}
}

// printStats writes a one-line stream summary.
func printStats(w io.Writer, styles render.Styles, r stream.Result) {
	parts := []string{
		util.FormatBytes(r.Bytes),
		fmt.Sprintf("%d chunks", r.Chunks),
		util.FormatDuration(r.Duration),
	}
	if r.Images > 0 {
		parts = append(parts, fmt.Sprintf("%d images", r.Images))
	}
	if r.DroppedImageBytes > 0 {
		parts = append(parts, "dropped "+util.FormatBytes(r.DroppedImageBytes)+" of a partial image")
	}
	fmt.Fprintln(w, styles.Dim.Render("["+strings.Join(parts, " · ")+"]"))
}
