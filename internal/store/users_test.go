package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanban/internal/board"
)

func TestHashPasswordIsReversedBase64(t *testing.T) {
	assert.Equal(t, "Y2Jh", hashPassword("abc")) // base64("cba")
	assert.NotEqual(t, "abc", hashPassword("abc"))
}

func TestRegister(t *testing.T) {
	s := New()

	u, err := s.Register("ann", "ann@example.com", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
	assert.Equal(t, DefaultCountry, u.Country)
	assert.NotZero(t, u.ID)

	_, err = s.Register("ann", "other@example.com", "pw", "NZ")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.Register("bob", "ANN@example.com", "pw", "NZ")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Register("bob", "", "pw", "")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Register("bob", "bob@example.com", "", "")
	assert.ErrorIs(t, err, ErrInvalid)

	users := s.Board().Users
	require.Len(t, users, 1)
	assert.Equal(t, board.User{ID: u.ID, Username: "ann", Country: DefaultCountry}, users[0])
}

func TestLogin(t *testing.T) {
	s := New()
	_, err := s.Register("ann", "ann@example.com", "secret", "NZ")
	require.NoError(t, err)

	u, err := s.Login("ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, "NZ", u.Country)

	_, err = s.Login("ann", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Login("nobody", "secret")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeleteUserRemovesOwnedCardsAndUnassigns(t *testing.T) {
	s := Seeded()
	snap := s.Board()
	col, lane := snap.Columns[0].ID, snap.Swimlanes[0].ID
	_, err := s.Register("ann", "ann@example.com", "pw", "")
	require.NoError(t, err)

	_, err = s.CreateTask(board.NewTask{ColumnID: col, SwimlaneID: lane, Text: "mine", Owner: "ann"})
	require.NoError(t, err)
	assignee := "ann"
	_, err = s.UpdateTask(snap.Tasks[1].ID, board.TaskPatch{Assignee: &assignee})
	require.NoError(t, err)

	deleted, err := s.DeleteUser("ann")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	after := s.Board()
	assert.Empty(t, after.Users)
	require.Len(t, after.Tasks, 2)
	for _, c := range after.Tasks {
		assert.Empty(t, c.Assignee)
		assert.NotEqual(t, "ann", c.Owner)
	}

	_, err = s.DeleteUser("ann")
	assert.ErrorIs(t, err, ErrNotFound)
}
