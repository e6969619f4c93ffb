package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/grid"
)

func TestState_LayoutCountsListConfigsAsActive(t *testing.T) {
	st := twoColumnBoard()
	st.Dispatch(ListConfigured{Config: ListConfig{ColumnID: 2, SwimlaneID: 10, Title: "Review"}})

	layout := st.Layout()
	assert.Equal(t, grid.Active, layout.At(grid.Coord{Col: 0, Swim: 0}).Kind)
	assert.Equal(t, grid.Active, layout.At(grid.Coord{Col: 1, Swim: 0}).Kind)
	assert.Equal(t, grid.Addable, layout.At(grid.Coord{Col: 2, Swim: 0}).Kind)
	assert.Equal(t, "Review", st.ListTitle(grid.Location{ColumnID: 2, SwimlaneID: 10}))
	assert.Equal(t, "A", st.ListTitle(grid.Location{ColumnID: 1, SwimlaneID: 10}))
}

func TestState_DispatchCardLifecycle(t *testing.T) {
	st := twoColumnBoard()
	loc := grid.Location{ColumnID: 2, SwimlaneID: 10}

	assert.True(t, st.Dispatch(TaskAdded{Card: Card{ID: 101, Text: "new", ColumnID: 2, SwimlaneID: 10}}))
	assert.Len(t, st.CardsAt(loc), 1)

	assert.True(t, st.Dispatch(TaskRenamed{CardID: 101, Text: "renamed"}))
	c, _ := st.Card(101)
	assert.Equal(t, "renamed", c.Text)

	assert.True(t, st.Dispatch(TaskCategoryChanged{CardID: 101, Category: "ops"}))
	c, _ = st.Card(101)
	assert.Equal(t, "ops", c.Category)

	assert.True(t, st.Dispatch(TaskDeleted{CardID: 101}))
	assert.Empty(t, st.CardsAt(loc))
	assert.False(t, st.Dispatch(TaskDeleted{CardID: 101}))
	assert.False(t, st.Dispatch(TaskRenamed{CardID: 101, Text: "x"}))
}

func TestState_ListColorAndDelete(t *testing.T) {
	st := twoColumnBoard()
	loc := grid.Location{ColumnID: 1, SwimlaneID: 10}

	st.Dispatch(ListColorChanged{Location: loc, Color: "#ff0000"})
	lc, ok := st.ListConfig(loc)
	require.True(t, ok)
	assert.Equal(t, "#ff0000", lc.Color)

	st.Dispatch(ListDeleted{Location: loc})
	_, ok = st.ListConfig(loc)
	assert.False(t, ok)
	assert.Empty(t, st.Cards())
}

func TestState_LockedCategory(t *testing.T) {
	st := twoColumnBoard()
	loc := grid.Location{ColumnID: 2, SwimlaneID: 10}

	st.ApplyListConfig(ListConfig{ColumnID: 2, SwimlaneID: 10, Category: "bug"})
	_, locked := st.LockedCategory(loc)
	assert.False(t, locked, "category without lock")

	st.ApplyListConfig(ListConfig{ColumnID: 2, SwimlaneID: 10, Category: "bug", Locked: true})
	cat, locked := st.LockedCategory(loc)
	assert.True(t, locked)
	assert.Equal(t, "bug", cat)
}

func TestState_RestoreMoveComparesLocation(t *testing.T) {
	st := twoColumnBoard()
	a := grid.Location{ColumnID: 1, SwimlaneID: 10}
	b := grid.Location{ColumnID: 2, SwimlaneID: 10}

	prev, ok := st.ApplyMove(100, b)
	require.True(t, ok)
	assert.Equal(t, a, prev)

	assert.False(t, st.RestoreMove(100, a, a), "card is not at the expected location")
	assert.True(t, st.RestoreMove(100, b, a))
	c, _ := st.Card(100)
	assert.Equal(t, a, c.Location())
}

func TestState_LoadClearsStaleAndSnapshotRoundTrips(t *testing.T) {
	st := twoColumnBoard()
	st.ApplyListConfig(ListConfig{ColumnID: 2, SwimlaneID: 10, Title: "z"})
	st.ApplyListConfig(ListConfig{ColumnID: 1, SwimlaneID: 10, Title: "a"})
	st.MarkStale()

	snap := st.Snapshot()
	require.Len(t, snap.ListConfigs, 2)
	assert.Equal(t, int64(1), snap.ListConfigs[0].ColumnID)

	other := NewState()
	other.Dispatch(BoardLoaded{Snapshot: snap})
	assert.False(t, other.Stale())
	assert.Equal(t, snap, other.Snapshot())
}

func TestTaskPatch_Apply(t *testing.T) {
	c := Card{ID: 1, Text: "old", ColumnID: 1, SwimlaneID: 1}
	text := "new"
	items := []ChecklistItem{{Text: "a", Done: true}}
	p := MovePatch(grid.Location{ColumnID: 5, SwimlaneID: 6})
	p.Text = &text
	p.Checklist = &items

	assert.True(t, p.Moves())
	p.Apply(&c)
	assert.Equal(t, grid.Location{ColumnID: 5, SwimlaneID: 6}, c.Location())
	assert.Equal(t, "new", c.Text)
	assert.Equal(t, items, c.Checklist)
	assert.False(t, TaskPatch{Text: &text}.Moves())
}
