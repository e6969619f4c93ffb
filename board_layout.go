package main

import (
	"kanban/internal/board"
	"kanban/internal/drag"
	"kanban/internal/geom"
	"kanban/internal/grid"
)

// Board metrics in terminal cells.
const (
	listWidth  = 26
	cellPitch  = listWidth + 2
	cardHeight = 3
	// border, title, add row, border
	listChrome = 4
	laneLabel  = 1
	rowGap     = 1
)

type hitKind int

const (
	hitNothing hitKind = iota
	hitCard
	hitCardDelete
	hitListTitle
	hitAddCard
	hitAddList
	hitList
)

// element maps what was hit to the drag controller's element classes.
func (k hitKind) element() drag.Element {
	switch k {
	case hitCard:
		return drag.ElementCard
	case hitCardDelete, hitAddCard, hitAddList:
		return drag.ElementButton
	case hitListTitle, hitList:
		return drag.ElementOther
	default:
		return drag.ElementNone
	}
}

type cardBox struct {
	card board.Card
	rect geom.Rect
	del  geom.Rect
}

type listBox struct {
	cell   grid.Cell
	rect   geom.Rect
	title  geom.Rect
	addRow geom.Rect
	cards  []cardBox
}

type laneRow struct {
	top    int
	height int
	title  string
}

// boardGeometry is the screen placement of every list and card for one frame.
type boardGeometry struct {
	layout *grid.Layout
	origin geom.Point
	rows   []laneRow
	lists  map[grid.Coord]*listBox
	width  int
	height int
}

type hit struct {
	kind  hitKind
	coord grid.Coord
	list  *listBox
	card  *cardBox
}

// measureBoard lays the grid out from origin. visible filters the cards drawn
// in each cell; hidden cards take no space.
func measureBoard(st *board.State, origin geom.Point, visible func(board.Card) bool) *boardGeometry {
	layout := st.Layout()
	g := &boardGeometry{
		layout: layout,
		origin: origin,
		lists:  make(map[grid.Coord]*listBox),
		width:  layout.Width() * cellPitch,
	}

	swimlanes := st.Swimlanes()
	cells := layout.Cells()
	y := int(origin.Y)
	for row := 0; row < layout.Height(); row++ {
		h := listChrome
		for _, cell := range cells {
			if cell.Swim != row || cell.Kind != grid.Active {
				continue
			}
			n := 0
			for _, c := range st.CardsAt(grid.Location{ColumnID: cell.ColumnID, SwimlaneID: cell.SwimlaneID}) {
				if visible == nil || visible(c) {
					n++
				}
			}
			if lh := listChrome + n*cardHeight; lh > h {
				h = lh
			}
		}
		title := board.DefaultSwimlaneTitle
		if row < len(swimlanes) {
			title = swimlanes[row].Title
		}
		g.rows = append(g.rows, laneRow{top: y, height: h, title: title})
		y += laneLabel + h + rowGap
	}
	g.height = y - int(origin.Y)

	for i := range cells {
		cell := cells[i]
		if cell.Kind == grid.Dead {
			continue
		}
		row := g.rows[cell.Swim]
		left := origin.X + float64(cell.Col*cellPitch)
		top := float64(row.top + laneLabel)
		lb := &listBox{cell: cell}
		if cell.Kind == grid.Addable {
			lb.rect = geom.RectAt(geom.Point{X: left, Y: top}, listWidth, listChrome)
			lb.title = geom.RectAt(geom.Point{X: left + 1, Y: top + 1}, listWidth-2, 1)
			g.lists[cell.Coord] = lb
			continue
		}
		lb.rect = geom.RectAt(geom.Point{X: left, Y: top}, listWidth, float64(row.height))
		lb.title = geom.RectAt(geom.Point{X: left + 1, Y: top + 1}, listWidth-2, 1)
		cy := top + 2
		for _, c := range st.CardsAt(grid.Location{ColumnID: cell.ColumnID, SwimlaneID: cell.SwimlaneID}) {
			if visible != nil && !visible(c) {
				continue
			}
			r := geom.RectAt(geom.Point{X: left + 1, Y: cy}, listWidth-2, cardHeight)
			lb.cards = append(lb.cards, cardBox{
				card: c,
				rect: r,
				del:  geom.RectAt(geom.Point{X: r.Right - 3, Y: cy + 1}, 1, 1),
			})
			cy += cardHeight
		}
		lb.addRow = geom.RectAt(geom.Point{X: left + 1, Y: cy}, listWidth-2, 1)
		g.lists[cell.Coord] = lb
	}
	return g
}

// hitTest resolves a pointer position to the element under it and, for
// cards, the card via its containing list.
func (g *boardGeometry) hitTest(p geom.Point) hit {
	for coord, lb := range g.lists {
		if !lb.rect.Contains(p) {
			continue
		}
		h := hit{coord: coord, list: lb, kind: hitList}
		if lb.cell.Kind == grid.Addable {
			h.kind = hitAddList
			return h
		}
		if lb.title.Contains(p) {
			h.kind = hitListTitle
			return h
		}
		if lb.addRow.Contains(p) {
			h.kind = hitAddCard
			return h
		}
		for i := range lb.cards {
			cb := &lb.cards[i]
			if !cb.rect.Contains(p) {
				continue
			}
			h.card = cb
			h.kind = hitCard
			if cb.del.Contains(p) {
				h.kind = hitCardDelete
			}
			return h
		}
		return h
	}
	return hit{kind: hitNothing}
}

// source is the drag source for a hit on a card.
func (h hit) source() *drag.Source {
	if h.card == nil {
		return nil
	}
	return &drag.Source{
		CardID:   h.card.card.ID,
		Text:     h.card.card.Text,
		Location: h.card.card.Location(),
		Rect:     h.card.rect,
	}
}

// zones lists every active list and addable cell as a drop zone, in row-major
// order so ties resolve the same way every time.
func (g *boardGeometry) zones() []drag.Zone {
	var out []drag.Zone
	for _, cell := range g.layout.Cells() {
		lb, ok := g.lists[cell.Coord]
		if !ok {
			continue
		}
		target, ok := g.layout.Target(cell.Coord)
		if !ok {
			continue
		}
		out = append(out, drag.Zone{Rect: lb.rect, Target: target})
	}
	return out
}

// cardAt returns the box of the index-th visible card of a list.
func (g *boardGeometry) cardAt(c grid.Coord, index int) (*cardBox, bool) {
	lb, ok := g.lists[c]
	if !ok || index < 0 || index >= len(lb.cards) {
		return nil, false
	}
	return &lb.cards[index], true
}
