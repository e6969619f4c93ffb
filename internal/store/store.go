// Package store is the volatile board database behind the HTTP server:
// columns, swimlanes, cards, per-cell list configs and user accounts. Nothing
// survives a restart. Concurrent writers are serialised; the last write wins.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kanban/internal/board"
	"kanban/internal/grid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid request")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("invalid username or password")
)

var lastID int64

// nextID returns a wall-clock millisecond id, bumped past the previous one
// when two are issued in the same millisecond.
func nextID() int64 {
	for {
		now := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastID)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastID, last, now) {
			return now
		}
	}
}

type account struct {
	board.User
	Email    string
	Password string
}

// Store holds one board.
type Store struct {
	mu        sync.RWMutex
	columns   []board.Column
	swimlanes []board.Swimlane
	tasks     []board.Card
	lists     []board.ListConfig
	users     []account
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Seeded returns a store with the starter board: three columns, one
// swimlane and two cards.
func Seeded() *Store {
	s := New()
	todo, _ := s.CreateColumn("To Do")
	doing, _ := s.CreateColumn("Doing")
	_, _ = s.CreateColumn("Done")
	lane, _ := s.CreateSwimlane(board.DefaultSwimlaneTitle)
	_, _ = s.CreateTask(board.NewTask{ColumnID: todo.ID, SwimlaneID: lane.ID, Text: "Design CSS"})
	_, _ = s.CreateTask(board.NewTask{ColumnID: doing.ID, SwimlaneID: lane.ID, Text: "Build API"})
	return s
}

// Board returns a copy of everything.
func (s *Store) Board() board.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := board.Snapshot{
		Columns:     append([]board.Column{}, s.columns...),
		Swimlanes:   append([]board.Swimlane{}, s.swimlanes...),
		Tasks:       make([]board.Card, len(s.tasks)),
		ListConfigs: append([]board.ListConfig{}, s.lists...),
		Users:       make([]board.User, len(s.users)),
	}
	for i, t := range s.tasks {
		snap.Tasks[i] = cloneCard(t)
	}
	for i, u := range s.users {
		snap.Users[i] = u.User
	}
	return snap
}

func cloneCard(c board.Card) board.Card {
	c.Checklist = append([]board.ChecklistItem(nil), c.Checklist...)
	return c
}

func (s *Store) columnIndex(id int64) int {
	for i := range s.columns {
		if s.columns[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) hasSwimlane(id int64) bool {
	for _, sw := range s.swimlanes {
		if sw.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) taskIndex(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) listIndex(loc grid.Location) int {
	for i := range s.lists {
		if s.lists[i].Location() == loc {
			return i
		}
	}
	return -1
}

// checkCell requires both axes of loc to exist.
func (s *Store) checkCell(loc grid.Location) error {
	if s.columnIndex(loc.ColumnID) < 0 {
		return fmt.Errorf("%w: column %d", ErrNotFound, loc.ColumnID)
	}
	if !s.hasSwimlane(loc.SwimlaneID) {
		return fmt.Errorf("%w: swimlane %d", ErrNotFound, loc.SwimlaneID)
	}
	return nil
}

func (s *Store) CreateColumn(title string) (board.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return board.Column{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col := board.Column{ID: nextID(), Title: title}
	s.columns = append(s.columns, col)
	return col, nil
}

func (s *Store) RenameColumn(id int64, title string) (board.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return board.Column{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.columnIndex(id)
	if i < 0 {
		return board.Column{}, fmt.Errorf("%w: column %d", ErrNotFound, id)
	}
	s.columns[i].Title = title
	return s.columns[i], nil
}

func (s *Store) CreateSwimlane(title string) (board.Swimlane, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return board.Swimlane{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sw := board.Swimlane{ID: nextID(), Title: title}
	s.swimlanes = append(s.swimlanes, sw)
	return sw, nil
}

// CreateTask adds a card. A card created in a locked list takes the list's
// category.
func (s *Store) CreateTask(t board.NewTask) (board.Card, error) {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return board.Card{}, fmt.Errorf("%w: text is required", ErrInvalid)
	}
	loc := grid.Location{ColumnID: t.ColumnID, SwimlaneID: t.SwimlaneID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCell(loc); err != nil {
		return board.Card{}, err
	}
	card := board.Card{ID: nextID(), Text: text, ColumnID: loc.ColumnID, SwimlaneID: loc.SwimlaneID, Owner: t.Owner}
	if i := s.listIndex(loc); i >= 0 && s.lists[i].Locked {
		card.Category = s.lists[i].Category
	}
	s.tasks = append(s.tasks, card)
	return cloneCard(card), nil
}

func (s *Store) Task(id int64) (board.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.taskIndex(id)
	if i < 0 {
		return board.Card{}, fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	return cloneCard(s.tasks[i]), nil
}

// UpdateTask applies a partial update. A relocation must name both axes and
// both must exist.
func (s *Store) UpdateTask(id int64, patch board.TaskPatch) (board.Card, error) {
	if patch.Moves() && (patch.ColumnID == nil || patch.SwimlaneID == nil) {
		return board.Card{}, fmt.Errorf("%w: columnId and swimlaneId must be set together", ErrInvalid)
	}
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return board.Card{}, fmt.Errorf("%w: text must not be empty", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		return board.Card{}, fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	if patch.Moves() {
		if err := s.checkCell(grid.Location{ColumnID: *patch.ColumnID, SwimlaneID: *patch.SwimlaneID}); err != nil {
			return board.Card{}, err
		}
	}
	patch.Apply(&s.tasks[i])
	return cloneCard(s.tasks[i]), nil
}

func (s *Store) DeleteTask(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// ConfigureList upserts the config of one cell.
func (s *Store) ConfigureList(loc grid.Location, patch board.ListConfigPatch) (board.ListConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCell(loc); err != nil {
		return board.ListConfig{}, err
	}
	i := s.listIndex(loc)
	if i < 0 {
		s.lists = append(s.lists, board.ListConfig{ColumnID: loc.ColumnID, SwimlaneID: loc.SwimlaneID})
		i = len(s.lists) - 1
	}
	patch.Apply(&s.lists[i])
	return s.lists[i], nil
}

// DeleteList removes a cell's config and every card in the cell.
func (s *Store) DeleteList(loc grid.Location) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.listIndex(loc); i >= 0 {
		s.lists = append(s.lists[:i], s.lists[i+1:]...)
	}
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Location() != loc {
			kept = append(kept, t)
		}
	}
	deleted := len(s.tasks) - len(kept)
	s.tasks = kept
	return deleted
}
