package board

import (
	"kanban/internal/grid"
	"kanban/internal/logger"
)

// Intent is a typed request to change the board. Views send intents instead
// of touching State, and Dispatch is the single place that applies them.
type Intent interface {
	intent()
}

type BoardLoaded struct{ Snapshot Snapshot }

type TaskAdded struct{ Card Card }

type TaskMoved struct {
	CardID int64
	To     grid.Location
}

type TaskRenamed struct {
	CardID int64
	Text   string
}

// TaskUpdated carries the server's copy of a card after a patch.
type TaskUpdated struct{ Card Card }

type TaskDeleted struct{ CardID int64 }

type TaskCategoryChanged struct {
	CardID   int64
	Category string
}

type ColumnAdded struct{ Column Column }

type ColumnRenamed struct {
	ColumnID int64
	Title    string
}

type SwimlaneAdded struct{ Swimlane Swimlane }

// ListConfigured carries the stored config of a cell after an upsert.
type ListConfigured struct{ Config ListConfig }

type ListColorChanged struct {
	Location grid.Location
	Color    string
}

type ListDeleted struct{ Location grid.Location }

func (BoardLoaded) intent()         {}
func (TaskAdded) intent()           {}
func (TaskMoved) intent()           {}
func (TaskRenamed) intent()         {}
func (TaskUpdated) intent()         {}
func (TaskDeleted) intent()         {}
func (TaskCategoryChanged) intent() {}
func (ColumnAdded) intent()         {}
func (ColumnRenamed) intent()       {}
func (SwimlaneAdded) intent()       {}
func (ListConfigured) intent()      {}
func (ListColorChanged) intent()    {}
func (ListDeleted) intent()         {}

// Dispatch applies one intent and reports whether the board changed.
func (s *State) Dispatch(in Intent) bool {
	switch in := in.(type) {
	case BoardLoaded:
		s.Load(in.Snapshot)
		return true
	case TaskAdded:
		s.ApplyAdd(in.Card)
		return true
	case TaskMoved:
		_, ok := s.ApplyMove(in.CardID, in.To)
		return ok
	case TaskRenamed:
		return s.ApplyRename(in.CardID, in.Text)
	case TaskUpdated:
		return s.ApplyUpdate(in.Card)
	case TaskDeleted:
		_, ok := s.ApplyDelete(in.CardID)
		return ok
	case TaskCategoryChanged:
		return s.ApplyCategory(in.CardID, in.Category)
	case ColumnAdded:
		s.AddColumn(in.Column)
		return true
	case ColumnRenamed:
		return s.RenameColumn(in.ColumnID, in.Title)
	case SwimlaneAdded:
		s.AddSwimlane(in.Swimlane)
		return true
	case ListConfigured:
		s.ApplyListConfig(in.Config)
		return true
	case ListColorChanged:
		lc, ok := s.ListConfig(in.Location)
		if !ok {
			lc = ListConfig{ColumnID: in.Location.ColumnID, SwimlaneID: in.Location.SwimlaneID}
		}
		lc.Color = in.Color
		s.ApplyListConfig(lc)
		return true
	case ListDeleted:
		n := s.ApplyListDelete(in.Location)
		logger.Debug("list (%d,%d) deleted with %d cards", in.Location.ColumnID, in.Location.SwimlaneID, n)
		return true
	default:
		logger.Warn("unhandled board intent %T", in)
		return false
	}
}
