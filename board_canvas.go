package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"kanban/internal/board"
	"kanban/internal/drag"
	"kanban/internal/geom"
	"kanban/internal/grid"
)

type ink int

const (
	inkPlain ink = iota
	inkMuted
	inkTitle
	inkLane
	inkBorder
	inkAccent
	inkSelected
	inkDim
	inkGhost
	inkDanger
	inkAddable
)

// wideTail marks the second column of a double-width rune.
const wideTail rune = -1

// canvas is a fixed grid of runes, each painted with one ink. Drawing clips
// silently at the edges.
type canvas struct {
	w, h   int
	runes  [][]rune
	inks   [][]ink
	colors map[ink]string
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: max(0, w), h: max(0, h), colors: make(map[ink]string)}
	c.runes = make([][]rune, c.h)
	c.inks = make([][]ink, c.h)
	for y := range c.runes {
		c.runes[y] = []rune(strings.Repeat(" ", c.w))
		c.inks[y] = make([]ink, c.w)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, k ink) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.runes[y][x] = r
	c.inks[y][x] = k
}

// text writes s from (x, y), truncated to width columns.
func (c *canvas) text(x, y int, s string, width int, k ink) {
	if width <= 0 {
		return
	}
	s = runewidth.Truncate(s, width, "…")
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		c.set(x, y, r, k)
		if rw == 2 {
			c.set(x+1, y, wideTail, k)
		}
		x += rw
	}
}

type borderRunes struct {
	tl, tr, bl, br, h, v rune
}

var (
	roundBorder  = borderRunes{'╭', '╮', '╰', '╯', '─', '│'}
	squareBorder = borderRunes{'┌', '┐', '└', '┘', '─', '│'}
	dashedBorder = borderRunes{'╭', '╮', '╰', '╯', '┄', '┆'}
)

func (c *canvas) box(r geom.Rect, b borderRunes, k ink) {
	x0, y0 := int(math.Round(r.Left)), int(math.Round(r.Top))
	x1, y1 := x0+int(r.Width())-1, y0+int(r.Height())-1
	if x1 <= x0 || y1 <= y0 {
		return
	}
	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, b.h, k)
		c.set(x, y1, b.h, k)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, b.v, k)
		c.set(x1, y, b.v, k)
	}
	c.set(x0, y0, b.tl, k)
	c.set(x1, y0, b.tr, k)
	c.set(x0, y1, b.bl, k)
	c.set(x1, y1, b.br, k)
}

// colorInk returns an ink drawing in the given list color.
func (c *canvas) colorInk(color string) ink {
	for k, v := range c.colors {
		if v == color {
			return k
		}
	}
	k := inkAddable + 1 + ink(len(c.colors))
	c.colors[k] = color
	return k
}

// fill blanks the inside of r so an overlay hides what is underneath.
func (c *canvas) fill(r geom.Rect) {
	x0, y0 := int(math.Round(r.Left)), int(math.Round(r.Top))
	for y := y0; y < y0+int(r.Height()); y++ {
		for x := x0; x < x0+int(r.Width()); x++ {
			c.set(x, y, ' ', inkPlain)
		}
	}
}

// render joins runs of equal ink into styled strings.
func (c *canvas) render(styles map[ink]lipgloss.Style) string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= c.w; x++ {
			if x < c.w && c.inks[y][x] == c.inks[y][start] {
				continue
			}
			var run strings.Builder
			for _, r := range c.runes[y][start:x] {
				if r != wideTail {
					run.WriteRune(r)
				}
			}
			k := c.inks[y][start]
			if color, ok := c.colors[k]; ok {
				b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(run.String()))
			} else if st, ok := styles[k]; ok {
				b.WriteString(st.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			start = x
		}
	}
	return b.String()
}

// tiltGlyph draws the ghost's slant: direction by sign, strength by size.
func tiltGlyph(tilt float64) string {
	a := math.Abs(tilt)
	if a < 1 {
		return ""
	}
	g := "╱"
	if tilt < 0 {
		g = "╲"
	}
	if a >= drag.MaxTilt/2 {
		return g + g
	}
	return g
}

// paintOptions carries the per-frame decorations on top of the board.
type paintOptions struct {
	selected    grid.Coord
	cursor      int
	placeholder int64
	highlighted *grid.Coord
	ghost       *drag.Ghost
	// extras appends assignee and due date to card text.
	extras      bool
}

func cardExtras(c board.Card) string {
	var parts []string
	if c.Assignee != "" {
		parts = append(parts, "@"+c.Assignee)
	}
	if c.DueDate != "" {
		parts = append(parts, "due "+c.DueDate)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// paintBoard draws geometry g onto c, whose top-left is screen point origin.
func paintBoard(c *canvas, g *boardGeometry, st *board.State, origin geom.Point, opt paintOptions) {
	shift := func(r geom.Rect) geom.Rect {
		return geom.Rect{Left: r.Left - origin.X, Top: r.Top - origin.Y, Right: r.Right - origin.X, Bottom: r.Bottom - origin.Y}
	}

	for _, row := range g.rows {
		label := "── " + row.title + " "
		c.text(int(g.origin.X-origin.X), row.top-int(origin.Y), label+strings.Repeat("─", max(0, g.width-runewidth.StringWidth(label)-2)), g.width, inkLane)
	}

	for _, cell := range g.layout.Cells() {
		lb, ok := g.lists[cell.Coord]
		if !ok {
			continue
		}
		r := shift(lb.rect)
		border := inkBorder
		switch {
		case opt.highlighted != nil && *opt.highlighted == cell.Coord:
			border = inkAccent
		case cell.Coord == opt.selected:
			border = inkSelected
		}
		if cell.Kind == grid.Addable {
			if border == inkBorder {
				border = inkAddable
			}
			c.box(r, dashedBorder, border)
			c.text(int(r.Left)+2, int(r.Top)+1, "+ Add List", listWidth-4, inkAddable)
			continue
		}

		c.box(r, roundBorder, border)
		loc := grid.Location{ColumnID: cell.ColumnID, SwimlaneID: cell.SwimlaneID}
		title := st.ListTitle(loc)
		if cat, locked := st.LockedCategory(loc); locked {
			title += " 🔒" + cat
		}
		titleInk := inkTitle
		if lc, ok := st.ListConfig(loc); ok && lc.Color != "" {
			titleInk = c.colorInk(lc.Color)
		}
		c.text(int(r.Left)+2, int(r.Top)+1, title, listWidth-4, titleInk)

		for i, cb := range lb.cards {
			cr := shift(cb.rect)
			k := inkPlain
			b := squareBorder
			switch {
			case cb.card.ID == opt.placeholder:
				k = inkDim
			case cell.Coord == opt.selected && i == opt.cursor:
				k = inkSelected
			}
			c.box(cr, b, k)
			text := cb.card.Text
			if cb.card.Category != "" {
				text = "[" + cb.card.Category + "] " + text
			}
			if opt.extras {
				text += cardExtras(cb.card)
			}
			c.text(int(cr.Left)+1, int(cr.Top)+1, text, int(cr.Width())-5, k)
			del := shift(cb.del)
			c.set(int(del.Left), int(del.Top), '×', inkDanger)
		}
		add := shift(lb.addRow)
		c.text(int(add.Left)+1, int(add.Top), "+ Add a card", int(add.Width())-2, inkMuted)
	}

	if opt.ghost != nil {
		gr := shift(opt.ghost.Rect())
		c.fill(gr)
		c.box(gr, roundBorder, inkGhost)
		c.text(int(math.Round(gr.Left))+1, int(math.Round(gr.Top))+1, opt.ghost.Text, int(gr.Width())-2, inkGhost)
		if glyph := tiltGlyph(opt.ghost.Tilt); glyph != "" {
			c.text(int(math.Round(gr.Right))-1-runewidth.StringWidth(glyph)-1, int(math.Round(gr.Top)), glyph, 2, inkGhost)
		}
	}
}
