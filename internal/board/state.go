package board

import (
	"sort"

	"kanban/internal/grid"
)

// State is the client's copy of the board. It is owned by the UI loop and
// is not safe for concurrent use; every change goes through a named
// operation below or through Dispatch.
type State struct {
	columns   []Column
	swimlanes []Swimlane
	cards     []Card
	lists     map[grid.Location]ListConfig
	users     []User

	version uint64
	stale   bool
}

// NewState returns an empty board.
func NewState() *State {
	return &State{lists: make(map[grid.Location]ListConfig)}
}

// Load replaces everything with snap and clears the stale mark.
func (s *State) Load(snap Snapshot) {
	s.columns = append([]Column(nil), snap.Columns...)
	s.swimlanes = append([]Swimlane(nil), snap.Swimlanes...)
	s.cards = append([]Card(nil), snap.Tasks...)
	s.users = append([]User(nil), snap.Users...)
	s.lists = make(map[grid.Location]ListConfig, len(snap.ListConfigs))
	for _, lc := range snap.ListConfigs {
		s.lists[lc.Location()] = lc
	}
	s.stale = false
	s.touch()
}

// Snapshot returns a copy of the whole board. List configs are sorted by
// (column, swimlane) id.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Columns:   append([]Column(nil), s.columns...),
		Swimlanes: append([]Swimlane(nil), s.swimlanes...),
		Tasks:     append([]Card(nil), s.cards...),
		Users:     append([]User(nil), s.users...),
	}
	for _, lc := range s.lists {
		snap.ListConfigs = append(snap.ListConfigs, lc)
	}
	sort.Slice(snap.ListConfigs, func(i, j int) bool {
		a, b := snap.ListConfigs[i], snap.ListConfigs[j]
		if a.ColumnID != b.ColumnID {
			return a.ColumnID < b.ColumnID
		}
		return a.SwimlaneID < b.SwimlaneID
	})
	return snap
}

// Version increases on every change. Renderers compare it to skip work.
func (s *State) Version() uint64 { return s.version }

func (s *State) touch() { s.version++ }

// MarkStale records that local state may disagree with the store.
func (s *State) MarkStale() { s.stale = true }

// Stale reports whether a refetch is due.
func (s *State) Stale() bool { return s.stale }

func (s *State) Columns() []Column     { return append([]Column(nil), s.columns...) }
func (s *State) Swimlanes() []Swimlane { return append([]Swimlane(nil), s.swimlanes...) }
func (s *State) Users() []User         { return append([]User(nil), s.users...) }

// ColumnIDs returns column ids in display order.
func (s *State) ColumnIDs() []int64 {
	ids := make([]int64, len(s.columns))
	for i, c := range s.columns {
		ids[i] = c.ID
	}
	return ids
}

// SwimlaneIDs returns swimlane ids in display order.
func (s *State) SwimlaneIDs() []int64 {
	ids := make([]int64, len(s.swimlanes))
	for i, sw := range s.swimlanes {
		ids[i] = sw.ID
	}
	return ids
}

func (s *State) Column(id int64) (Column, bool) {
	for _, c := range s.columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

func (s *State) Swimlane(id int64) (Swimlane, bool) {
	for _, sw := range s.swimlanes {
		if sw.ID == id {
			return sw, true
		}
	}
	return Swimlane{}, false
}

func (s *State) cardIndex(id int64) int {
	for i := range s.cards {
		if s.cards[i].ID == id {
			return i
		}
	}
	return -1
}

// Card returns a copy of the card with the given id.
func (s *State) Card(id int64) (Card, bool) {
	if i := s.cardIndex(id); i >= 0 {
		return s.cards[i], true
	}
	return Card{}, false
}

// Cards returns every card in insertion order.
func (s *State) Cards() []Card { return append([]Card(nil), s.cards...) }

// CardsAt returns the cards of one cell in insertion order.
func (s *State) CardsAt(loc grid.Location) []Card {
	var out []Card
	for _, c := range s.cards {
		if c.Location() == loc {
			out = append(out, c)
		}
	}
	return out
}

// ListConfig returns the override for a cell, if any.
func (s *State) ListConfig(loc grid.Location) (ListConfig, bool) {
	lc, ok := s.lists[loc]
	return lc, ok
}

// ListTitle is the config title, falling back to the column title.
func (s *State) ListTitle(loc grid.Location) string {
	if lc, ok := s.lists[loc]; ok && lc.Title != "" {
		return lc.Title
	}
	if c, ok := s.Column(loc.ColumnID); ok {
		return c.Title
	}
	return ""
}

// LockedCategory returns the category forced on cards entering loc.
func (s *State) LockedCategory(loc grid.Location) (string, bool) {
	lc, ok := s.lists[loc]
	if !ok || !lc.Locked || lc.Category == "" {
		return "", false
	}
	return lc.Category, true
}

// Occupied reports whether a cell holds a card or an explicit list.
func (s *State) Occupied(loc grid.Location) bool {
	if _, ok := s.lists[loc]; ok {
		return true
	}
	for _, c := range s.cards {
		if c.Location() == loc {
			return true
		}
	}
	return false
}

// Layout classifies the grid for the current columns, swimlanes and cards.
func (s *State) Layout() *grid.Layout {
	return grid.Build(s.ColumnIDs(), s.SwimlaneIDs(), s.Occupied)
}

// ApplyMove relocates a card and returns where it was.
func (s *State) ApplyMove(id int64, to grid.Location) (grid.Location, bool) {
	i := s.cardIndex(id)
	if i < 0 {
		return grid.Location{}, false
	}
	prev := s.cards[i].Location()
	s.cards[i].ColumnID = to.ColumnID
	s.cards[i].SwimlaneID = to.SwimlaneID
	s.touch()
	return prev, true
}

// RestoreMove puts a card back at prev, but only while it still sits at
// expect. A card that has moved again since keeps its newer location.
func (s *State) RestoreMove(id int64, expect, prev grid.Location) bool {
	i := s.cardIndex(id)
	if i < 0 || s.cards[i].Location() != expect {
		return false
	}
	s.cards[i].ColumnID = prev.ColumnID
	s.cards[i].SwimlaneID = prev.SwimlaneID
	s.touch()
	return true
}

// ApplyRename sets a card's text.
func (s *State) ApplyRename(id int64, text string) bool {
	i := s.cardIndex(id)
	if i < 0 {
		return false
	}
	s.cards[i].Text = text
	s.touch()
	return true
}

// ApplyCategory sets a card's category.
func (s *State) ApplyCategory(id int64, category string) bool {
	i := s.cardIndex(id)
	if i < 0 {
		return false
	}
	s.cards[i].Category = category
	s.touch()
	return true
}

// ApplyUpdate replaces a card with the server's copy.
func (s *State) ApplyUpdate(c Card) bool {
	i := s.cardIndex(c.ID)
	if i < 0 {
		return false
	}
	s.cards[i] = c
	s.touch()
	return true
}

// ApplyAdd appends a card. A card with a known id replaces the old copy.
func (s *State) ApplyAdd(c Card) {
	if i := s.cardIndex(c.ID); i >= 0 {
		s.cards[i] = c
	} else {
		s.cards = append(s.cards, c)
	}
	s.touch()
}

// ApplyDelete removes a card and returns it.
func (s *State) ApplyDelete(id int64) (Card, bool) {
	i := s.cardIndex(id)
	if i < 0 {
		return Card{}, false
	}
	c := s.cards[i]
	s.cards = append(s.cards[:i], s.cards[i+1:]...)
	s.touch()
	return c, true
}

// AddColumn appends a column unless its id is already known.
func (s *State) AddColumn(c Column) {
	if _, ok := s.Column(c.ID); ok {
		return
	}
	s.columns = append(s.columns, c)
	s.touch()
}

// RenameColumn sets a column title.
func (s *State) RenameColumn(id int64, title string) bool {
	for i := range s.columns {
		if s.columns[i].ID == id {
			s.columns[i].Title = title
			s.touch()
			return true
		}
	}
	return false
}

// AddSwimlane appends a swimlane unless its id is already known.
func (s *State) AddSwimlane(sw Swimlane) {
	if _, ok := s.Swimlane(sw.ID); ok {
		return
	}
	s.swimlanes = append(s.swimlanes, sw)
	s.touch()
}

// ApplyListConfig upserts the override for a cell.
func (s *State) ApplyListConfig(lc ListConfig) {
	s.lists[lc.Location()] = lc
	s.touch()
}

// ApplyListDelete drops a cell's config and every card in it, returning how
// many cards were removed.
func (s *State) ApplyListDelete(loc grid.Location) int {
	delete(s.lists, loc)
	kept := s.cards[:0]
	removed := 0
	for _, c := range s.cards {
		if c.Location() == loc {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.cards = kept
	s.touch()
	return removed
}
