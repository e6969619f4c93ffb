// Package grid computes the sparse column x swimlane layout of a board.
//
// The grid always reserves one extra column and one extra swimlane for growth.
// A cell is Active when it holds a list, Addable when it shares an edge with an
// Active cell, and Dead otherwise. The classification is rebuilt from scratch on
// every call to Build; nothing is maintained incrementally.
package grid

import "fmt"

// Kind classifies a grid cell.
type Kind int

const (
	Dead Kind = iota
	Addable
	Active
)

func (k Kind) String() string {
	switch k {
	case Active:
		return "active"
	case Addable:
		return "addable"
	default:
		return "dead"
	}
}

// Coord is a (column index, swimlane index) position in the grid.
type Coord struct {
	Col  int
	Swim int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Swim)
}

// Location is the (column id, swimlane id) placement key of a list.
type Location struct {
	ColumnID   int64
	SwimlaneID int64
}

// Target describes where a dropped card should land. A Ghost target refers to
// an addable cell; its ids are zero on any axis that lies beyond the current
// columns or swimlanes and must be created before the card can move there.
type Target struct {
	Coord      Coord
	ColumnID   int64
	SwimlaneID int64
	Ghost      bool
}

// Location returns the placement key. Only meaningful when Resolved.
func (t Target) Location() Location {
	return Location{ColumnID: t.ColumnID, SwimlaneID: t.SwimlaneID}
}

// Resolved reports whether both ids of the target exist.
func (t Target) Resolved() bool {
	return t.ColumnID != 0 && t.SwimlaneID != 0
}

// NeedsColumn reports whether the target column has to be created.
func (t Target) NeedsColumn() bool { return t.ColumnID == 0 }

// NeedsSwimlane reports whether the target swimlane has to be created.
func (t Target) NeedsSwimlane() bool { return t.SwimlaneID == 0 }

// Cell is one grid position with its classification.
type Cell struct {
	Coord
	Kind       Kind
	ColumnID   int64
	SwimlaneID int64
}

// Layout is the classified (N+1) x (M+1) grid for N columns and M swimlanes.
type Layout struct {
	columns   []int64
	swimlanes []int64
	width     int
	height    int
	cells     []Cell
}

// Build classifies every cell. occupied reports whether a (column, swimlane)
// pair holds at least one card or an explicit list; the canonical first cell
// is active whenever at least one column and one swimlane exist. When no cell
// is active the origin is offered as the only addable cell so an empty board
// can grow its first list.
func Build(columns, swimlanes []int64, occupied func(Location) bool) *Layout {
	l := &Layout{
		columns:   append([]int64(nil), columns...),
		swimlanes: append([]int64(nil), swimlanes...),
		width:     len(columns) + 1,
		height:    len(swimlanes) + 1,
	}
	l.cells = make([]Cell, l.width*l.height)

	active := make(map[Coord]bool)
	for y, swim := range swimlanes {
		for x, col := range columns {
			if (x == 0 && y == 0) || (occupied != nil && occupied(Location{ColumnID: col, SwimlaneID: swim})) {
				active[Coord{Col: x, Swim: y}] = true
			}
		}
	}

	for y := 0; y < l.height; y++ {
		for x := 0; x < l.width; x++ {
			c := Coord{Col: x, Swim: y}
			cell := Cell{Coord: c, ColumnID: l.columnAt(x), SwimlaneID: l.swimlaneAt(y)}
			switch {
			case active[c]:
				cell.Kind = Active
			case adjacent(active, c):
				cell.Kind = Addable
			case len(active) == 0 && x == 0 && y == 0:
				cell.Kind = Addable
			default:
				cell.Kind = Dead
			}
			l.cells[y*l.width+x] = cell
		}
	}
	return l
}

// adjacent checks the four edge neighbours; diagonals never count.
func adjacent(active map[Coord]bool, c Coord) bool {
	return active[Coord{Col: c.Col - 1, Swim: c.Swim}] ||
		active[Coord{Col: c.Col + 1, Swim: c.Swim}] ||
		active[Coord{Col: c.Col, Swim: c.Swim - 1}] ||
		active[Coord{Col: c.Col, Swim: c.Swim + 1}]
}

func (l *Layout) columnAt(x int) int64 {
	if x < 0 || x >= len(l.columns) {
		return 0
	}
	return l.columns[x]
}

func (l *Layout) swimlaneAt(y int) int64 {
	if y < 0 || y >= len(l.swimlanes) {
		return 0
	}
	return l.swimlanes[y]
}

// Width is the number of grid columns, including the growth column.
func (l *Layout) Width() int { return l.width }

// Height is the number of grid rows, including the growth swimlane.
func (l *Layout) Height() int { return l.height }

// At returns the cell at c. Out-of-range coordinates are Dead.
func (l *Layout) At(c Coord) Cell {
	if c.Col < 0 || c.Swim < 0 || c.Col >= l.width || c.Swim >= l.height {
		return Cell{Coord: c, Kind: Dead}
	}
	return l.cells[c.Swim*l.width+c.Col]
}

// Cells returns every cell in row-major order.
func (l *Layout) Cells() []Cell {
	out := make([]Cell, len(l.cells))
	copy(out, l.cells)
	return out
}

// Kinds returns the cells of the given kind in row-major order.
func (l *Layout) Kinds(k Kind) []Cell {
	var out []Cell
	for _, c := range l.cells {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Find maps a placement key back to its grid coordinate.
func (l *Layout) Find(loc Location) (Coord, bool) {
	x, y := -1, -1
	for i, id := range l.columns {
		if id == loc.ColumnID {
			x = i
			break
		}
	}
	for i, id := range l.swimlanes {
		if id == loc.SwimlaneID {
			y = i
			break
		}
	}
	if x < 0 || y < 0 {
		return Coord{}, false
	}
	return Coord{Col: x, Swim: y}, true
}

// Target builds the drop target for the cell at c. Non-active cells are ghost
// targets. Dead cells are not valid targets.
func (l *Layout) Target(c Coord) (Target, bool) {
	cell := l.At(c)
	if cell.Kind == Dead {
		return Target{}, false
	}
	return Target{
		Coord:      c,
		ColumnID:   cell.ColumnID,
		SwimlaneID: cell.SwimlaneID,
		Ghost:      cell.Kind != Active,
	}, true
}
