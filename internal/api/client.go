// Package api is the REST client for the board server. Client implements
// board.Remote so the commit protocol can persist drops through it.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kanban/internal/board"
	"kanban/internal/grid"
	"kanban/internal/httputil"
)

// Client talks to one board server.
type Client struct {
	baseURL string
	http    *httputil.RetryableClient
}

// New returns a client for baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, timeout time.Duration) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	if timeout <= 0 {
		c.http = httputil.NewDefaultClient()
	} else {
		c.http = httputil.NewRetryableClient(timeout, 2)
	}
	return c
}

var _ board.Remote = (*Client)(nil)

func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func id(v int64) string { return fmt.Sprint(v) }

// BoardURL is the server's board endpoint, for opening in a browser.
func (c *Client) BoardURL() string { return c.url("board") }

// TaskURL is the REST resource of one card.
func (c *Client) TaskURL(cardID int64) string { return c.url("tasks", id(cardID)) }

func (c *Client) GetBoard(ctx context.Context) (board.Snapshot, error) {
	var snap board.Snapshot
	err := c.http.DoJSON(ctx, http.MethodGet, c.url("board"), nil, &snap)
	return snap, err
}

func (c *Client) Health(ctx context.Context) error {
	return c.http.DoJSON(ctx, http.MethodGet, strings.TrimSuffix(c.baseURL, "/api")+"/healthz", nil, nil)
}

func (c *Client) CreateColumn(ctx context.Context, title string) (board.Column, error) {
	var col board.Column
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("columns"), map[string]string{"title": title}, &col)
	return col, err
}

func (c *Client) RenameColumn(ctx context.Context, columnID int64, title string) (board.Column, error) {
	var col board.Column
	err := c.http.DoJSON(ctx, http.MethodPut, c.url("columns", id(columnID)), map[string]string{"title": title}, &col)
	return col, err
}

func (c *Client) CreateSwimlane(ctx context.Context, title string) (board.Swimlane, error) {
	var sw board.Swimlane
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("swimlanes"), map[string]string{"title": title}, &sw)
	return sw, err
}

func (c *Client) CreateTask(ctx context.Context, t board.NewTask) (board.Card, error) {
	var card board.Card
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("tasks"), t, &card)
	return card, err
}

func (c *Client) GetTask(ctx context.Context, cardID int64) (board.Card, error) {
	var card board.Card
	err := c.http.DoJSON(ctx, http.MethodGet, c.url("tasks", id(cardID)), nil, &card)
	return card, err
}

// UpdateTask sends a partial update and returns the stored card.
func (c *Client) UpdateTask(ctx context.Context, cardID int64, patch board.TaskPatch) (board.Card, error) {
	var card board.Card
	err := c.http.DoJSON(ctx, http.MethodPut, c.url("tasks", id(cardID)), patch, &card)
	return card, err
}

func (c *Client) MoveTask(ctx context.Context, cardID, columnID, swimlaneID int64) error {
	loc := grid.Location{ColumnID: columnID, SwimlaneID: swimlaneID}
	_, err := c.UpdateTask(ctx, cardID, board.MovePatch(loc))
	return err
}

func (c *Client) UpdateTaskCategory(ctx context.Context, cardID int64, category string) error {
	_, err := c.UpdateTask(ctx, cardID, board.TaskPatch{Category: &category})
	return err
}

func (c *Client) DeleteTask(ctx context.Context, cardID int64) error {
	return c.http.DoJSON(ctx, http.MethodDelete, c.url("tasks", id(cardID)), nil, nil)
}

// ConfigureList upserts the override for one cell.
func (c *Client) ConfigureList(ctx context.Context, columnID, swimlaneID int64, patch board.ListConfigPatch) (board.ListConfig, error) {
	var lc board.ListConfig
	err := c.http.DoJSON(ctx, http.MethodPut, c.url("lists", id(columnID), id(swimlaneID), "config"), patch, &lc)
	return lc, err
}

// DeleteList removes a cell's config and its cards.
func (c *Client) DeleteList(ctx context.Context, columnID, swimlaneID int64) (board.DeleteResult, error) {
	var res board.DeleteResult
	err := c.http.DoJSON(ctx, http.MethodDelete, c.url("lists", id(columnID), id(swimlaneID)), nil, &res)
	return res, err
}

// Registration is the body of POST /users/register.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country,omitempty"`
}

func (c *Client) Register(ctx context.Context, r Registration) (board.User, error) {
	var u board.User
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("users", "register"), r, &u)
	return u, err
}

// Login checks credentials and returns the account summary.
func (c *Client) Login(ctx context.Context, username, password string) (board.User, error) {
	var resp struct {
		Success bool       `json:"success"`
		User    board.User `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.http.DoJSON(ctx, http.MethodPost, c.url("users", "login"), body, &resp); err != nil {
		return board.User{}, err
	}
	return resp.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, username string) (board.DeleteResult, error) {
	var res board.DeleteResult
	err := c.http.DoJSON(ctx, http.MethodDelete, c.url("users", username), nil, &res)
	return res, err
}
