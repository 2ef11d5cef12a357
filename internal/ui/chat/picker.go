// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/ui/styles"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// =============================================================================
// PICKER
// =============================================================================

type pickerKind int

const (
	pickThread pickerKind = iota
	pickActor
)

type pickerItem struct {
	id     string
	title  string
	detail string
}

// picker is a modal list of threads or actors.
type picker struct {
	kind   pickerKind
	title  string
	items  []pickerItem
	cursor int
}

func newThreadPicker(threads []session.ThreadInfo, current string, offline bool) *picker {
	p := &picker{kind: pickThread, title: "Threads"}
	if offline {
		p.title += " (cached, backend unreachable)"
	}
	for i, t := range threads {
		detail := fmt.Sprintf("%d msgs", t.Messages)
		if !t.UpdatedAt.IsZero() {
			detail += ", " + t.UpdatedAt.Local().Format(time.DateTime)
		}
		p.items = append(p.items, pickerItem{id: t.ID, title: t.Title(), detail: detail})
		if t.ID == current {
			p.cursor = i
		}
	}
	return p
}

func newActorPicker(actors []api.Actor, current string) *picker {
	p := &picker{kind: pickActor, title: "Actors"}
	for i, a := range actors {
		p.items = append(p.items, pickerItem{id: a.Name, title: a.Name, detail: util.FirstLine(a.Description)})
		if a.Name == current {
			p.cursor = i
		}
	}
	return p
}

func (p *picker) move(delta int) {
	if len(p.items) == 0 {
		return
	}
	p.cursor = (p.cursor + delta + len(p.items)) % len(p.items)
}

func (p *picker) selected() (pickerItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return pickerItem{}, false
	}
	return p.items[p.cursor], true
}

// remove drops the item with id, keeping the cursor in range.
func (p *picker) remove(id string) {
	for i, it := range p.items {
		if it.id == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	if p.cursor >= len(p.items) {
		p.cursor = len(p.items) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// view renders at most height rows, scrolled to keep the cursor visible.
func (p *picker) view(theme *styles.Theme, width, height int) string {
	var b strings.Builder
	b.WriteString(theme.PickerTitle.Render(p.title))
	b.WriteString("\n")

	if len(p.items) == 0 {
		b.WriteString(theme.Empty.Render("nothing here yet"))
		return theme.PickerBox.Width(width - 2).Render(b.String())
	}

	rows := height - 4
	if rows < 1 {
		rows = 1
	}
	start := 0
	if p.cursor >= rows {
		start = p.cursor - rows + 1
	}
	end := start + rows
	if end > len(p.items) {
		end = len(p.items)
	}

	inner := width - 8
	for i := start; i < end; i++ {
		it := p.items[i]
		line := util.TruncateWidth(it.title, inner/2)
		if it.detail != "" {
			line = util.PadRight(line, inner/2) + " " + theme.PickerMeta.Render(util.TruncateWidth(it.detail, inner/2-1))
		}
		if i == p.cursor {
			b.WriteString(theme.PickerItemSelected.Render(line))
		} else {
			b.WriteString(theme.PickerItem.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return theme.PickerBox.Width(width - 2).Render(b.String())
}
