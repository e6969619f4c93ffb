package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/board"
	"kanban/internal/store"
)

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func do(t *testing.T, s *store.Store, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := New(s, quietLogger())
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestGetBoard(t *testing.T) {
	rec := do(t, store.Seeded(), http.MethodGet, "/api/board", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap board.Snapshot
	decodeBody(t, rec, &snap)
	assert.Len(t, snap.Columns, 3)
	assert.Len(t, snap.Tasks, 2)
	assert.Contains(t, rec.Body.String(), `"listConfigs":[]`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthz(t *testing.T) {
	rec := do(t, store.New(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostColumnAndSwimlane(t *testing.T) {
	s := store.New()

	rec := do(t, s, http.MethodPost, "/api/columns", `{"title":"New List"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var col board.Column
	decodeBody(t, rec, &col)
	assert.Equal(t, "New List", col.Title)
	assert.NotZero(t, col.ID)

	rec = do(t, s, http.MethodPost, "/api/swimlanes", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = do(t, s, http.MethodPut, "/api/columns/"+strconv.FormatInt(col.ID, 10), `{"title":"Review"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Review", s.Board().Columns[0].Title)
}

func TestPostTaskRejectsUnknownFields(t *testing.T) {
	s := store.Seeded()
	snap := s.Board()
	body := `{"columnId":` + strconv.FormatInt(snap.Columns[0].ID, 10) +
		`,"swimlaneId":` + strconv.FormatInt(snap.Swimlanes[0].ID, 10) + `,"taskText":"x"}`

	rec := do(t, s, http.MethodPost, "/api/tasks", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "invalid body", resp.Error)
}

func TestPutTaskMove(t *testing.T) {
	s := store.Seeded()
	snap := s.Board()
	task := snap.Tasks[0]
	path := "/api/tasks/" + strconv.FormatInt(task.ID, 10)
	done := snap.Columns[2].ID
	lane := snap.Swimlanes[0].ID

	body := `{"columnId":` + strconv.FormatInt(done, 10) + `,"swimlaneId":` + strconv.FormatInt(lane, 10) + `}`
	rec := do(t, s, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var card board.Card
	decodeBody(t, rec, &card)
	assert.Equal(t, done, card.ColumnID)

	rec = do(t, s, http.MethodPut, path, `{"columnId":1,"swimlaneId":`+strconv.FormatInt(lane, 10)+`}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/tasks/1", `{"text":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/tasks/abc", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndDeleteTask(t *testing.T) {
	s := store.Seeded()
	path := "/api/tasks/" + strconv.FormatInt(s.Board().Tasks[1].ID, 10)

	rec := do(t, s, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Build API")

	rec = do(t, s, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListConfigAndDelete(t *testing.T) {
	s := store.Seeded()
	snap := s.Board()
	cell := "/api/lists/" + strconv.FormatInt(snap.Columns[0].ID, 10) + "/" + strconv.FormatInt(snap.Swimlanes[0].ID, 10)

	rec := do(t, s, http.MethodPut, cell+"/config", `{"color":"#123456","category":"design","locked":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var lc board.ListConfig
	decodeBody(t, rec, &lc)
	assert.True(t, lc.Locked)
	assert.Equal(t, "design", lc.Category)

	rec = do(t, s, http.MethodDelete, cell, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res board.DeleteResult
	decodeBody(t, rec, &res)
	assert.Equal(t, board.DeleteResult{Success: true, TasksDeleted: 1}, res)
}

func TestUsers(t *testing.T) {
	s := store.New()

	rec := do(t, s, http.MethodPost, "/api/users/register", `{"username":"ann","email":"a@x.io","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, s, http.MethodPost, "/api/users/register", `{"username":"ann","email":"b@x.io","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/users/login", `{"username":"ann","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/users/login", `{"username":"ann","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login loginResponse
	decodeBody(t, rec, &login)
	assert.True(t, login.Success)
	assert.Equal(t, "Unknown", login.User.Country)

	rec = do(t, s, http.MethodDelete, "/api/users/ann", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/users/ann", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
