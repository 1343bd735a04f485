// Package history holds the bounded per-track sample rings that feed the
// activity classifier: a motion history of centroid positions (§4.F) and a
// pose history of full 17-keypoint skeletons (§4.G).
package history

import (
	"math"

	"github.com/sentrycore/ghosttrack"
)

// motionSample is one (centroid, timestamp) observation.
type motionSample struct {
	x, y float64
	t    float64
}

// MotionStore is a per-track bounded ring of centroid samples, used to
// compute a smoothed speed for the legacy bbox-only classifier and for
// loitering/erratic-movement refinement (§4.F).
type MotionStore struct {
	capacity int
	samples  map[ghosttrack.TrackId][]motionSample
}

// NewMotionStore constructs a store with the given per-track ring
// capacity (default 15 per §4.F).
func NewMotionStore(capacity int) *MotionStore {
	return &MotionStore{capacity: capacity, samples: make(map[ghosttrack.TrackId][]motionSample)}
}

// Add records a new centroid sample for id, evicting the oldest sample if
// the ring is at capacity.
func (m *MotionStore) Add(id ghosttrack.TrackId, x, y, t float64) {
	s := append(m.samples[id], motionSample{x: x, y: y, t: t})
	if len(s) > m.capacity {
		s = s[len(s)-m.capacity:]
	}
	m.samples[id] = s
}

// SmoothedSpeed averages the per-consecutive-pair pixel velocities over
// the most recent 4 intervals, in pixels per second. Returns 0 when fewer
// than 3 samples exist for id.
func (m *MotionStore) SmoothedSpeed(id ghosttrack.TrackId) float64 {
	s := m.samples[id]
	if len(s) < 3 {
		return 0
	}
	const maxIntervals = 4
	start := len(s) - 1 - maxIntervals
	if start < 0 {
		start = 0
	}
	var total float64
	var n int
	for i := len(s) - 1; i > start; i-- {
		dt := s[i].t - s[i-1].t
		if dt <= 0 {
			continue
		}
		dx := s[i].x - s[i-1].x
		dy := s[i].y - s[i-1].y
		dist := math.Sqrt(dx*dx + dy*dy)
		total += dist / dt
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// RecentPositions returns up to the last n centroid positions for id,
// oldest first. Used by the legacy classifier's loitering refinement.
func (m *MotionStore) RecentPositions(id ghosttrack.TrackId, n int) []struct{ X, Y float64 } {
	s := m.samples[id]
	if len(s) == 0 {
		return nil
	}
	start := len(s) - n
	if start < 0 {
		start = 0
	}
	out := make([]struct{ X, Y float64 }, 0, len(s)-start)
	for _, sample := range s[start:] {
		out = append(out, struct{ X, Y float64 }{X: sample.x, Y: sample.y})
	}
	return out
}

// Forget removes id's history entirely. Called once an ID leaves both the
// active and ghost sets (§4.H state: "Deleting a TrackId ... removes its
// history rings").
func (m *MotionStore) Forget(id ghosttrack.TrackId) {
	delete(m.samples, id)
}

