package board

import (
	"context"
	"fmt"

	"kanban/internal/errors"
	"kanban/internal/grid"
	"kanban/internal/logger"
)

// UnreachableAfter is the number of consecutive failed commits after which
// the store is reported unreachable.
const UnreachableAfter = 3

// Remote is the store boundary the commit protocol talks to. Any error is a
// failure signal.
type Remote interface {
	MoveTask(ctx context.Context, cardID, columnID, swimlaneID int64) error
	CreateColumn(ctx context.Context, title string) (Column, error)
	CreateSwimlane(ctx context.Context, title string) (Swimlane, error)
	UpdateTaskCategory(ctx context.Context, cardID int64, category string) error
}

// Plan is a drop that will change the board.
type Plan struct {
	CardID int64
	From   grid.Location
	Target grid.Target
}

// Structure is what CreateStructure produced: the new column and swimlane,
// if any, and the concrete destination.
type Structure struct {
	Column   *Column
	Swimlane *Swimlane
	To       grid.Location
}

// Pending is an applied but unconfirmed move. Category is set when the
// destination is locked; PrevCategory is what it replaced.
type Pending struct {
	CardID       int64
	From         grid.Location
	To           grid.Location
	Category     string
	PrevCategory string
}

// Outcome is the store's answer to a pending move.
type Outcome struct {
	Pending
	Err         error
	CategoryErr error
}

// Result is the settled commit.
type Result struct {
	CardID     int64
	From       grid.Location
	To         grid.Location
	Err        error
	RolledBack bool
	Noop       bool
}

// Committer runs the commit protocol against one State.
//
// The steps split by thread: Plan, Apply and Settle read or write State and
// belong on the UI loop; CreateStructure and Sync only talk to the Remote and
// may run anywhere.
type Committer struct {
	state    *State
	remote   Remote
	failures int
}

func NewCommitter(state *State, remote Remote) *Committer {
	return &Committer{state: state, remote: remote}
}

// Plan decides whether dropping cardID on target changes anything. Dropping
// a card back on its own cell is not a plan.
func (c *Committer) Plan(cardID int64, target grid.Target) (Plan, bool) {
	card, ok := c.state.Card(cardID)
	if !ok {
		return Plan{}, false
	}
	if target.Resolved() && target.Location() == card.Location() {
		return Plan{}, false
	}
	return Plan{CardID: cardID, From: card.Location(), Target: target}, true
}

// CreateStructure creates the column and/or swimlane a ghost target beyond the
// grid needs. It never touches State, so a failure leaves nothing to undo.
func (c *Committer) CreateStructure(ctx context.Context, p Plan) (Structure, error) {
	st := Structure{To: p.Target.Location()}
	if p.Target.NeedsColumn() {
		col, err := c.remote.CreateColumn(ctx, DefaultColumnTitle)
		if err != nil {
			return st, fmt.Errorf("create column: %w", err)
		}
		st.Column = &col
		st.To.ColumnID = col.ID
	}
	if p.Target.NeedsSwimlane() {
		sw, err := c.remote.CreateSwimlane(ctx, DefaultSwimlaneTitle)
		if err != nil {
			return st, fmt.Errorf("create swimlane: %w", err)
		}
		st.Swimlane = &sw
		st.To.SwimlaneID = sw.ID
	}
	return st, nil
}

// Apply records the pre-move location and moves the card locally, taking
// on the destination's category when that list is locked. It reports false
// when the card is gone or already at the destination.
func (c *Committer) Apply(p Plan, st Structure) (Pending, bool) {
	if st.Column != nil {
		c.state.AddColumn(*st.Column)
	}
	if st.Swimlane != nil {
		c.state.AddSwimlane(*st.Swimlane)
	}
	card, ok := c.state.Card(p.CardID)
	if !ok || card.Location() == st.To {
		return Pending{}, false
	}
	prev, _ := c.state.ApplyMove(p.CardID, st.To)
	pending := Pending{CardID: p.CardID, From: prev, To: st.To}
	if cat, locked := c.state.LockedCategory(st.To); locked && cat != card.Category {
		pending.Category, pending.PrevCategory = cat, card.Category
		c.state.ApplyCategory(p.CardID, cat)
	}
	logger.Commit("applied card=%d (%d,%d)->(%d,%d)", p.CardID,
		prev.ColumnID, prev.SwimlaneID, st.To.ColumnID, st.To.SwimlaneID)
	return pending, true
}

// Sync persists the move. The locked-category update is sent only once the
// move is stored; its failure is reported but never undoes the move.
func (c *Committer) Sync(ctx context.Context, p Pending) Outcome {
	out := Outcome{Pending: p}
	if err := c.remote.MoveTask(ctx, p.CardID, p.To.ColumnID, p.To.SwimlaneID); err != nil {
		out.Err = err
		return out
	}
	if p.Category != "" {
		out.CategoryErr = c.remote.UpdateTaskCategory(ctx, p.CardID, p.Category)
	}
	return out
}

// Settle resolves an outcome on the UI loop. A failed move is rolled back if
// the card still sits where the optimistic step put it, category included,
// and the board is marked stale either way. A failed category update keeps
// the local category.
func (c *Committer) Settle(o Outcome) Result {
	res := Result{CardID: o.CardID, From: o.From, To: o.To}
	if o.Err != nil {
		c.failures++
		res.Err = errors.NewCommitError(o.CardID, o.Err)
		res.RolledBack = c.state.RestoreMove(o.CardID, o.To, o.From)
		if res.RolledBack && o.Category != "" {
			if card, ok := c.state.Card(o.CardID); ok && card.Category == o.Category {
				c.state.ApplyCategory(o.CardID, o.PrevCategory)
			}
		}
		c.state.MarkStale()
		logger.Warn("move of card %d failed, rolled back=%v: %v", o.CardID, res.RolledBack, o.Err)
		return res
	}
	c.failures = 0
	if o.CategoryErr != nil {
		logger.Warn("category update for card %d failed: %v", o.CardID, o.CategoryErr)
	}
	logger.Commit("confirmed card=%d", o.CardID)
	return res
}

// Fail settles a commit that never reached the optimistic step, such as a
// failed column creation. Nothing is rolled back.
func (c *Committer) Fail(p Plan, err error) Result {
	c.failures++
	c.state.MarkStale()
	logger.Warn("commit of card %d abandoned: %v", p.CardID, err)
	return Result{CardID: p.CardID, From: p.From, To: p.Target.Location(), Err: errors.NewCommitError(p.CardID, err)}
}

// Unreachable reports whether enough commits in a row have failed to treat
// the store as down.
func (c *Committer) Unreachable() bool { return c.failures >= UnreachableAfter }

// Run executes every step on the calling goroutine.
func (c *Committer) Run(ctx context.Context, cardID int64, target grid.Target) Result {
	plan, ok := c.Plan(cardID, target)
	if !ok {
		return Result{CardID: cardID, Noop: true}
	}
	st, err := c.CreateStructure(ctx, plan)
	if err != nil {
		return c.Fail(plan, err)
	}
	pending, ok := c.Apply(plan, st)
	if !ok {
		return Result{CardID: cardID, From: plan.From, To: st.To, Noop: true}
	}
	return c.Settle(c.Sync(ctx, pending))
}
