package store

import (
	"encoding/base64"
	"fmt"
	"strings"

	"kanban/internal/board"
)

// DefaultCountry is recorded when a registration leaves country empty.
const DefaultCountry = "Unknown"

// hashPassword obscures a password. It is reversible and offers no real
// protection.
func hashPassword(password string) string {
	r := []rune(password)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return base64.StdEncoding.EncodeToString([]byte(string(r)))
}

// Register creates an account. Username, email and password are required;
// a username or email already in use is a conflict.
func (s *Store) Register(username, email, password, country string) (board.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return board.User{}, fmt.Errorf("%w: username, email, and password are required", ErrInvalid)
	}
	if country == "" {
		country = DefaultCountry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return board.User{}, fmt.Errorf("%w: username or email", ErrConflict)
		}
	}
	acct := account{
		User:     board.User{ID: nextID(), Username: username, Country: country},
		Email:    email,
		Password: hashPassword(password),
	}
	s.users = append(s.users, acct)
	return acct.User, nil
}

// Login returns the account summary when the credentials match.
func (s *Store) Login(username, password string) (board.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username && u.Password == hashPassword(password) {
			return u.User, nil
		}
	}
	return board.User{}, ErrUnauthorized
}

// DeleteUser removes an account, deletes the cards it owns and unassigns it
// from the rest. It returns how many cards were deleted.
func (s *Store) DeleteUser(username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, u := range s.users {
		if u.Username == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	s.users = append(s.users[:idx], s.users[idx+1:]...)

	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Owner == username {
			continue
		}
		if t.Assignee == username {
			t.Assignee = ""
		}
		kept = append(kept, t)
	}
	deleted := len(s.tasks) - len(kept)
	s.tasks = kept
	return deleted, nil
}
