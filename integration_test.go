package main

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"kanban/internal/api"
	"kanban/internal/board"
	"kanban/internal/grid"
	"kanban/internal/server"
	"kanban/internal/store"
)

// startTestServer serves the starter board over HTTP and returns a model
// pointed at it with the board already loaded.
func startTestServer(t *testing.T) (*httptest.Server, boardModel) {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	ts := httptest.NewServer(server.New(store.Seeded(), quiet))
	t.Cleanup(ts.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("KANBAN_IGNORE_UI_PREFS", "1")
	cfg := testConfig()
	cfg.ServerURL = ts.URL + "/api"
	m := initialBoardModel(cfg, api.New(cfg.ServerURL, cfg.Timeout()))
	m.width, m.height = 140, 40

	msg := m.loadBoardCmd()()
	if e, ok := msg.(errMsg); ok {
		t.Fatalf("load board: %v", e.err)
	}
	m, _ = update(t, m, msg)
	return ts, m
}

// runCmd executes cmd and feeds its message back into the model, following
// chained commands until a commit or mutation settles.
func runCmd(t *testing.T, m boardModel, cmd tea.Cmd) boardModel {
	t.Helper()
	for depth := 0; cmd != nil && depth < 4; depth++ {
		msg := cmd()
		m, cmd = update(t, m, msg)
		switch msg.(type) {
		case syncedMsg, mutationMsg:
			return m
		}
	}
	return m
}

func cardByText(t *testing.T, st *board.State, text string) board.Card {
	t.Helper()
	for _, c := range st.Cards() {
		if c.Text == text {
			return c
		}
	}
	t.Fatalf("no card %q", text)
	return board.Card{}
}

func selectCard(t *testing.T, m boardModel, id int64) boardModel {
	t.Helper()
	card, ok := m.state.Card(id)
	if !ok {
		t.Fatalf("card %d missing", id)
	}
	coord, ok := m.state.Layout().Find(card.Location())
	if !ok {
		t.Fatalf("card %d has no cell", id)
	}
	m.selected, m.cursor = coord, 0
	return m
}

func TestIntegration_LoadStarterBoard(t *testing.T) {
	_, m := startTestServer(t)

	if m.loading {
		t.Error("loading should clear after the board arrives")
	}
	if got := len(m.state.Columns()); got != 3 {
		t.Errorf("columns = %d, want 3", got)
	}
	if got := len(m.state.Cards()); got != 2 {
		t.Errorf("cards = %d, want 2", got)
	}
	// To Do and Doing hold cards, Done is empty and therefore addable.
	if got := len(m.state.Layout().Kinds(grid.Active)); got != 2 {
		t.Errorf("active lists = %d, want 2", got)
	}
}

func TestIntegration_MoveIntoExistingColumn(t *testing.T) {
	_, m := startTestServer(t)
	card := cardByText(t, m.state, "Build API")
	m = selectCard(t, m, card.ID)

	m, cmd := update(t, m, key(">"))
	if cmd == nil {
		t.Fatal("nudge should sync")
	}
	m = runCmd(t, m, cmd)

	if m.inflight != 0 {
		t.Errorf("inflight = %d after settle", m.inflight)
	}
	if m.statusErr {
		t.Fatalf("unexpected error: %s", m.status)
	}

	stored, err := m.client.GetTask(context.Background(), card.ID)
	if err != nil {
		t.Fatal(err)
	}
	done := m.state.Columns()[2]
	if stored.ColumnID != done.ID {
		t.Errorf("stored column = %d, want Done (%d)", stored.ColumnID, done.ID)
	}
}

func TestIntegration_DropBeyondGridCreatesColumn(t *testing.T) {
	_, m := startTestServer(t)
	card := cardByText(t, m.state, "Build API")
	m = selectCard(t, m, card.ID)

	// Doing -> Done -> a new column past Done.
	for i := 0; i < 2; i++ {
		next, cmd := update(t, m, key(">"))
		if cmd == nil {
			t.Fatalf("nudge %d returned no command", i)
		}
		m = runCmd(t, next, cmd)
		if m.statusErr {
			t.Fatalf("nudge %d failed: %s", i, m.status)
		}
		m = selectCard(t, m, card.ID)
	}

	cols := m.state.Columns()
	if len(cols) != 4 {
		t.Fatalf("columns = %d, want 4", len(cols))
	}
	if cols[3].Title != board.DefaultColumnTitle {
		t.Errorf("new column title = %q", cols[3].Title)
	}
	moved, _ := m.state.Card(card.ID)
	if moved.ColumnID != cols[3].ID {
		t.Error("card should sit in the new column")
	}

	snap, err := m.client.GetBoard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Columns) != 4 {
		t.Errorf("server columns = %d, want 4", len(snap.Columns))
	}
}

func TestIntegration_RollbackWhenCardGone(t *testing.T) {
	_, m := startTestServer(t)
	card := cardByText(t, m.state, "Design CSS")
	m = selectCard(t, m, card.ID)

	// Someone else deletes the card before our move lands.
	if err := m.client.DeleteTask(context.Background(), card.ID); err != nil {
		t.Fatal(err)
	}

	m, cmd := update(t, m, key(">"))
	if cmd == nil {
		t.Fatal("nudge should sync")
	}
	msg := cmd()
	m, refetch := update(t, m, msg)

	back, _ := m.state.Card(card.ID)
	if back.ColumnID != card.ColumnID {
		t.Error("failed move should be rolled back")
	}
	if !m.statusErr {
		t.Error("failed move should report an error")
	}
	if refetch == nil {
		t.Fatal("stale board should be refetched")
	}

	m, _ = update(t, m, refetch())
	if _, ok := m.state.Card(card.ID); ok {
		t.Error("refetch should drop the deleted card")
	}
}

func TestIntegration_LockedListSetsCategory(t *testing.T) {
	_, m := startTestServer(t)
	doing := m.state.Columns()[1]
	lane := m.state.Swimlanes()[0]
	cat, locked := "backend", true

	if _, err := m.client.ConfigureList(context.Background(), doing.ID, lane.ID, board.ListConfigPatch{Category: &cat, Locked: &locked}); err != nil {
		t.Fatal(err)
	}
	m, _ = update(t, m, m.loadBoardCmd()())

	card := cardByText(t, m.state, "Design CSS")
	m = selectCard(t, m, card.ID)
	m, cmd := update(t, m, key(">"))
	m = runCmd(t, m, cmd)

	moved, _ := m.state.Card(card.ID)
	if moved.Category != "backend" {
		t.Errorf("category = %q, want backend", moved.Category)
	}
	stored, err := m.client.GetTask(context.Background(), card.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Category != "backend" {
		t.Errorf("stored category = %q, want backend", stored.Category)
	}
}

func TestIntegration_AddCardAndList(t *testing.T) {
	_, m := startTestServer(t)

	m, _ = update(t, m, key("a"))
	for _, r := range "Write docs" {
		m, _ = update(t, m, key(string(r)))
	}
	m, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("submitting the prompt should add a card")
	}
	m = runCmd(t, m, cmd)
	added := cardByText(t, m.state, "Write docs")
	if added.Owner != "ann" {
		t.Errorf("owner = %q, want ann", added.Owner)
	}

	// The row under the lane is addable: create a list there.
	m.selected = grid.Coord{Col: 0, Swim: 1}
	m, cmd = update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("enter on an addable cell should create a list")
	}
	m = runCmd(t, m, cmd)
	if got := len(m.state.Swimlanes()); got != 2 {
		t.Errorf("swimlanes = %d, want 2", got)
	}
	if m.state.Layout().At(grid.Coord{Col: 0, Swim: 1}).Kind != grid.Active {
		t.Error("new list should be active")
	}
}

func TestIntegration_RenameAndDeleteList(t *testing.T) {
	_, m := startTestServer(t)

	m, _ = update(t, m, key("t"))
	m.input.SetValue("Backlog")
	m, cmd := update(t, m, key("enter"))
	m = runCmd(t, m, cmd)

	loc := grid.Location{ColumnID: m.state.Columns()[0].ID, SwimlaneID: m.state.Swimlanes()[0].ID}
	if got := m.state.ListTitle(loc); got != "Backlog" {
		t.Errorf("list title = %q, want Backlog", got)
	}

	m, _ = update(t, m, key("x"))
	m, cmd = update(t, m, key("y"))
	if cmd == nil {
		t.Fatal("confirmed delete should issue a command")
	}
	m = runCmd(t, m, cmd)
	if len(m.state.CardsAt(loc)) != 0 {
		t.Error("deleting a list removes its cards")
	}
}
