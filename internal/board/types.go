// Package board holds the client-side board model: the wire types shared with
// the server, the owned State every handler mutates through named operations,
// and the Committer that turns a drop into an optimistic move plus a remote
// update.
package board

import "kanban/internal/grid"

// Titles used when a drop or click needs new structure.
const (
	DefaultColumnTitle   = "New List"
	DefaultSwimlaneTitle = "Main Lane"
)

// ChecklistItem is one line of a card's checklist.
type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Card is a task placed in one (column, swimlane) cell.
type Card struct {
	ID          int64           `json:"id"`
	Text        string          `json:"text"`
	ColumnID    int64           `json:"columnId"`
	SwimlaneID  int64           `json:"swimlaneId"`
	Owner       string          `json:"owner,omitempty"`
	Category    string          `json:"category,omitempty"`
	Assignee    string          `json:"assignee,omitempty"`
	DueDate     string          `json:"dueDate,omitempty"`
	Description string          `json:"description,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
}

// Location is the card's placement key.
func (c Card) Location() grid.Location {
	return grid.Location{ColumnID: c.ColumnID, SwimlaneID: c.SwimlaneID}
}

type Column struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type Swimlane struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ListConfig overrides the defaults of one cell. At most one exists per cell.
type ListConfig struct {
	ColumnID   int64  `json:"columnId"`
	SwimlaneID int64  `json:"swimlaneId"`
	Title      string `json:"title,omitempty"`
	Color      string `json:"color,omitempty"`
	Category   string `json:"category,omitempty"`
	Locked     bool   `json:"locked"`
}

func (lc ListConfig) Location() grid.Location {
	return grid.Location{ColumnID: lc.ColumnID, SwimlaneID: lc.SwimlaneID}
}

// User is the public summary of an account. The password hash never leaves
// the store.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Country  string `json:"country,omitempty"`
}

// Snapshot is the full board as returned by GET /board.
type Snapshot struct {
	Columns     []Column     `json:"columns"`
	Swimlanes   []Swimlane   `json:"swimlanes"`
	Tasks       []Card       `json:"tasks"`
	ListConfigs []ListConfig `json:"listConfigs"`
	Users       []User       `json:"users"`
}

// NewTask is the body of POST /tasks.
type NewTask struct {
	ColumnID   int64  `json:"columnId"`
	SwimlaneID int64  `json:"swimlaneId"`
	Text       string `json:"text"`
	Owner      string `json:"owner,omitempty"`
}

// TaskPatch is the body of PUT /tasks/:id. Nil fields are left alone. The
// location fields travel together.
type TaskPatch struct {
	ColumnID    *int64           `json:"columnId,omitempty"`
	SwimlaneID  *int64           `json:"swimlaneId,omitempty"`
	Text        *string          `json:"text,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Assignee    *string          `json:"assignee,omitempty"`
	DueDate     *string          `json:"dueDate,omitempty"`
	Description *string          `json:"description,omitempty"`
	Checklist   *[]ChecklistItem `json:"checklist,omitempty"`
}

// MovePatch builds the patch for a relocation.
func MovePatch(loc grid.Location) TaskPatch {
	col, swim := loc.ColumnID, loc.SwimlaneID
	return TaskPatch{ColumnID: &col, SwimlaneID: &swim}
}

// Moves reports whether the patch relocates the card.
func (p TaskPatch) Moves() bool {
	return p.ColumnID != nil || p.SwimlaneID != nil
}

// Apply copies the set fields onto c.
func (p TaskPatch) Apply(c *Card) {
	if p.ColumnID != nil {
		c.ColumnID = *p.ColumnID
	}
	if p.SwimlaneID != nil {
		c.SwimlaneID = *p.SwimlaneID
	}
	if p.Text != nil {
		c.Text = *p.Text
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Assignee != nil {
		c.Assignee = *p.Assignee
	}
	if p.DueDate != nil {
		c.DueDate = *p.DueDate
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Checklist != nil {
		c.Checklist = append([]ChecklistItem(nil), (*p.Checklist)...)
	}
}

// ListConfigPatch is the body of PUT /lists/:colId/:swimId/config.
type ListConfigPatch struct {
	Title    *string `json:"title,omitempty"`
	Color    *string `json:"color,omitempty"`
	Category *string `json:"category,omitempty"`
	Locked   *bool   `json:"locked,omitempty"`
}

func (p ListConfigPatch) Apply(lc *ListConfig) {
	if p.Title != nil {
		lc.Title = *p.Title
	}
	if p.Color != nil {
		lc.Color = *p.Color
	}
	if p.Category != nil {
		lc.Category = *p.Category
	}
	if p.Locked != nil {
		lc.Locked = *p.Locked
	}
}

// DeleteResult is returned by the list and user delete endpoints.
type DeleteResult struct {
	Success      bool `json:"success"`
	TasksDeleted int  `json:"tasksDeleted"`
}
