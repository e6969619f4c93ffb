// Package drag implements the pointer-driven card drag: capture, eased ghost
// motion, collision against a snapshot of drop zones, and the drop decision.
//
// The controller is single-threaded. All methods, including frame callbacks,
// must be called from the same goroutine (the UI event loop).
package drag

import (
	"kanban/internal/geom"
	"kanban/internal/grid"
	"kanban/internal/logger"
)

// Phase is the lifecycle state of the controller.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Resolving
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Resolving:
		return "resolving"
	default:
		return "idle"
	}
}

// Element is the kind of element directly under the pointer.
type Element int

const (
	ElementNone Element = iota
	ElementCard
	ElementButton
	ElementInput
	ElementTextArea
	ElementOther
)

// interactive elements keep the pointer for themselves.
func (e Element) interactive() bool {
	return e == ElementButton || e == ElementInput || e == ElementTextArea
}

// FrameID identifies a scheduled frame callback.
type FrameID uint64

// Scheduler runs a callback once before the next repaint.
type Scheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// Source is the card under the pointer at press time.
type Source struct {
	CardID   int64
	Text     string
	Location grid.Location
	Rect     geom.Rect
}

// Ghost is the floating clone that follows the pointer.
type Ghost struct {
	CardID   int64
	Text     string
	Position geom.Point
	Tilt     float64
	Width    float64
	Height   float64
}

// Rect is the ghost's rendered rectangle.
func (g Ghost) Rect() geom.Rect {
	return geom.RectAt(g.Position, g.Width, g.Height)
}

// Drop is a resolved gesture that changes a card's placement.
type Drop struct {
	CardID int64
	From   grid.Location
	Target grid.Target
}

type session struct {
	source  Source
	ghost   *Ghost
	motion  Motion
	offset  geom.Point
	lastX   float64
	zones   *Registry
	frame   FrameID
	pending bool
}

// Controller owns at most one drag session at a time.
type Controller struct {
	phase  Phase
	s      *session
	frames Scheduler
	onDrop func(Drop)
}

// New returns an idle controller. onDrop may be nil.
func New(frames Scheduler, onDrop func(Drop)) *Controller {
	if onDrop == nil {
		onDrop = func(Drop) {}
	}
	return &Controller{frames: frames, onDrop: onDrop}
}

// Phase reports the current lifecycle state.
func (c *Controller) Phase() Phase { return c.phase }

// Dragging is shorthand for Phase() == Dragging.
func (c *Controller) Dragging() bool { return c.phase == Dragging }

// PointerDown starts a session when the press landed on a card and not on one
// of the card's interactive controls. direct is the element the pointer hit;
// card is the card containing it, or nil. zones is measured now and kept for
// the whole gesture. It reports whether a session started.
func (c *Controller) PointerDown(p geom.Point, direct Element, card *Source, zones []Zone) bool {
	if c.phase != Idle || card == nil || direct.interactive() {
		return false
	}

	s := &session{
		source: *card,
		offset: p.Sub(card.Rect.Origin()),
		lastX:  p.X,
		zones:  Snapshot(zones),
	}
	origin := p.Sub(s.offset)
	s.motion.Reset(origin)
	s.ghost = &Ghost{
		CardID:   card.CardID,
		Text:     card.Text,
		Position: origin,
		Width:    card.Rect.Width(),
		Height:   card.Rect.Height(),
	}

	c.s = s
	c.phase = Dragging
	c.schedule()
	logger.Drag("start card=%d zones=%d", card.CardID, s.zones.Len())
	return true
}

// PointerMove retargets the ghost. Ignored unless dragging.
func (c *Controller) PointerMove(p geom.Point) {
	if c.phase != Dragging || c.s.ghost == nil {
		return
	}
	s := c.s
	s.motion.Target = p.Sub(s.offset)
	speedX := p.X - s.lastX
	s.lastX = p.X
	s.motion.TargetTilt = TiltFor(speedX)
}

// tick is the per-frame update. It eases the ghost, re-runs collision using
// the eased position and reschedules itself while the session lasts.
func (c *Controller) tick() {
	if c.phase != Dragging {
		return
	}
	s := c.s
	s.pending = false
	if s.ghost == nil {
		return
	}
	s.motion.Step()
	s.ghost.Position = s.motion.Current
	s.ghost.Tilt = s.motion.Tilt
	s.zones.Detect(s.ghost.Rect())
	c.schedule()
}

func (c *Controller) schedule() {
	s := c.s
	s.frame = c.frames.RequestFrame(c.tick)
	s.pending = true
}

// PointerUp ends the session. If a zone is highlighted and its target differs
// from the card's current cell, onDrop receives the drop before cleanup. The
// controller is Idle again on return regardless of outcome.
func (c *Controller) PointerUp() (Drop, bool) {
	if c.phase != Dragging {
		return Drop{}, false
	}
	c.phase = Resolving
	s := c.s
	if s.pending {
		c.frames.CancelFrame(s.frame)
		s.pending = false
	}

	var (
		drop Drop
		ok   bool
	)
	if zone, found := s.zones.Active(); found {
		if zone.Target.Ghost || zone.Target.Location() != s.source.Location {
			drop = Drop{CardID: s.source.CardID, From: s.source.Location, Target: zone.Target}
			ok = true
		}
	}
	if ok {
		logger.Drag("drop card=%d target=%s ghost=%v", drop.CardID, drop.Target.Coord, drop.Target.Ghost)
		c.onDrop(drop)
	} else {
		logger.Drag("release card=%d without target", s.source.CardID)
	}

	c.teardown()
	return drop, ok
}

// Close abandons any session without committing. Safe to call at any time.
func (c *Controller) Close() {
	if c.s == nil {
		c.phase = Idle
		return
	}
	if c.s.pending {
		c.frames.CancelFrame(c.s.frame)
	}
	c.teardown()
}

func (c *Controller) teardown() {
	if c.s != nil {
		c.s.zones.Clear()
		c.s.ghost = nil
	}
	c.s = nil
	c.phase = Idle
}

// Ghost returns the floating clone while dragging.
func (c *Controller) Ghost() (Ghost, bool) {
	if c.phase != Dragging || c.s.ghost == nil {
		return Ghost{}, false
	}
	return *c.s.ghost, true
}

// Placeholder returns the id of the dimmed source card while dragging.
func (c *Controller) Placeholder() (int64, bool) {
	if c.phase != Dragging {
		return 0, false
	}
	return c.s.source.CardID, true
}

// Highlighted returns the zone currently marked as the drop match.
func (c *Controller) Highlighted() (Zone, bool) {
	if c.phase != Dragging {
		return Zone{}, false
	}
	return c.s.zones.Active()
}
