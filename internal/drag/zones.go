package drag

import (
	"kanban/internal/geom"
	"kanban/internal/grid"
)

// MinOverlap is the smallest fraction of the ghost's area that must lie over a
// zone for the zone to be eligible. Grazing a neighbour's edge does not count.
const MinOverlap = 0.08

// Zone is a candidate drop target: an existing list or an addable ghost cell.
type Zone struct {
	Rect        geom.Rect
	Target      grid.Target
	Highlighted bool
}

// BestMatch returns the index of the zone with the strictly greatest overlap
// ratio among those at or above MinOverlap, or -1. Ties keep the earliest zone.
func BestMatch(ghost geom.Rect, zones []Zone) int {
	best := -1
	bestRatio := 0.0
	for i := range zones {
		ratio := geom.OverlapRatio(ghost, zones[i].Rect)
		if ratio >= MinOverlap && ratio > bestRatio {
			best, bestRatio = i, ratio
		}
	}
	return best
}

// Registry is the per-session snapshot of drop zones. Rectangles are captured
// once when the drag starts and never re-measured.
type Registry struct {
	zones  []Zone
	active int
}

// Snapshot copies zones into a fresh registry with no highlight.
func Snapshot(zones []Zone) *Registry {
	r := &Registry{zones: make([]Zone, len(zones)), active: -1}
	copy(r.zones, zones)
	for i := range r.zones {
		r.zones[i].Highlighted = false
	}
	return r
}

// Detect resets every highlight, then marks the best match for ghost.
func (r *Registry) Detect(ghost geom.Rect) {
	r.Clear()
	if i := BestMatch(ghost, r.zones); i >= 0 {
		r.zones[i].Highlighted = true
		r.active = i
	}
}

// Clear removes every highlight.
func (r *Registry) Clear() {
	for i := range r.zones {
		r.zones[i].Highlighted = false
	}
	r.active = -1
}

// Active returns the highlighted zone, if any.
func (r *Registry) Active() (Zone, bool) {
	if r.active < 0 {
		return Zone{}, false
	}
	return r.zones[r.active], true
}

// Len is the number of zones in the snapshot.
func (r *Registry) Len() int { return len(r.zones) }
