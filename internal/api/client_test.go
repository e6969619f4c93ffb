package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/board"
	"kanban/internal/errors"
	"kanban/internal/grid"
	"kanban/internal/server"
	"kanban/internal/store"
)

func newTestServer(t *testing.T, s *store.Store) *Client {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)
	ts := httptest.NewServer(server.New(s, logger))
	t.Cleanup(ts.Close)
	return New(ts.URL+"/api", 5*time.Second)
}

func TestClient_BoardAndMove(t *testing.T) {
	s := store.Seeded()
	c := newTestServer(t, s)
	ctx := context.Background()

	snap, err := c.GetBoard(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)

	card := snap.Tasks[0]
	done := snap.Columns[2].ID
	require.NoError(t, c.MoveTask(ctx, card.ID, done, card.SwimlaneID))

	stored, err := c.GetTask(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, done, stored.ColumnID)

	err = c.MoveTask(ctx, card.ID, 1, card.SwimlaneID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
}

func TestClient_StructureAndTasks(t *testing.T) {
	c := newTestServer(t, store.New())
	ctx := context.Background()

	col, err := c.CreateColumn(ctx, board.DefaultColumnTitle)
	require.NoError(t, err)
	sw, err := c.CreateSwimlane(ctx, board.DefaultSwimlaneTitle)
	require.NoError(t, err)

	card, err := c.CreateTask(ctx, board.NewTask{ColumnID: col.ID, SwimlaneID: sw.ID, Text: "write tests"})
	require.NoError(t, err)
	assert.Equal(t, "write tests", card.Text)

	require.NoError(t, c.UpdateTaskCategory(ctx, card.ID, "qa"))
	text := "write more tests"
	updated, err := c.UpdateTask(ctx, card.ID, board.TaskPatch{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "qa", updated.Category)
	assert.Equal(t, text, updated.Text)

	renamed, err := c.RenameColumn(ctx, col.ID, "Inbox")
	require.NoError(t, err)
	assert.Equal(t, "Inbox", renamed.Title)

	locked := true
	lc, err := c.ConfigureList(ctx, col.ID, sw.ID, board.ListConfigPatch{Locked: &locked})
	require.NoError(t, err)
	assert.Equal(t, grid.Location{ColumnID: col.ID, SwimlaneID: sw.ID}, lc.Location())

	res, err := c.DeleteList(ctx, col.ID, sw.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TasksDeleted)

	require.Error(t, c.DeleteTask(ctx, card.ID))
	require.NoError(t, c.Health(ctx))
}

func TestClient_Users(t *testing.T) {
	c := newTestServer(t, store.Seeded())
	ctx := context.Background()

	u, err := c.Register(ctx, Registration{Username: "ann", Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)

	_, err = c.Login(ctx, "ann", "nope")
	assert.Equal(t, http.StatusUnauthorized, errors.StatusOf(err))

	u, err = c.Login(ctx, "ann", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", u.Country)

	res, err := c.DeleteUser(ctx, "ann")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestClient_CommitThroughServer(t *testing.T) {
	s := store.Seeded()
	c := newTestServer(t, s)
	ctx := context.Background()

	snap, err := c.GetBoard(ctx)
	require.NoError(t, err)
	st := board.NewState()
	st.Load(snap)
	committer := board.NewCommitter(st, c)

	card := snap.Tasks[0]
	ghost := grid.Target{Coord: grid.Coord{Col: 3, Swim: 0}, SwimlaneID: card.SwimlaneID, Ghost: true}
	res := committer.Run(ctx, card.ID, ghost)
	require.NoError(t, res.Err)

	fresh, err := c.GetBoard(ctx)
	require.NoError(t, err)
	require.Len(t, fresh.Columns, 4)
	assert.Equal(t, board.DefaultColumnTitle, fresh.Columns[3].Title)
	local, _ := st.Card(card.ID)
	for _, t2 := range fresh.Tasks {
		if t2.ID == card.ID {
			assert.Equal(t, t2.Location(), local.Location())
		}
	}
}

func TestClient_URLs(t *testing.T) {
	c := New("http://localhost:8080/api/", 0)
	assert.Equal(t, "http://localhost:8080/api/board", c.BoardURL())
	assert.Equal(t, "http://localhost:8080/api/tasks/42", c.TaskURL(42))
}

func TestClient_ZeroTimeoutUsesDefaults(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	ts := httptest.NewServer(server.New(store.Seeded(), logger))
	t.Cleanup(ts.Close)

	c := New(ts.URL+"/api", 0)
	snap, err := c.GetBoard(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Columns, 3)
}
