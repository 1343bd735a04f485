package ghosttrack

import (
	"math"

	"github.com/sentrycore/ghosttrack/internal/geometry"
)

// GhostRecord is a lost track kept in memory for potential re-matching.
// Immutable except by wholesale replacement, matching the Python original's
// GhostTrack: once a ghost is created from a lost ActiveTrack's last known
// bbox, it is never mutated in place, only reclaimed (removed) or expired
// (removed).
type GhostRecord struct {
	ID            TrackId
	Bbox          Bbox
	CenterX       float64
	CenterY       float64
	LastSeenFrame int
}

// NewGhostRecord captures a lost track's last known position.
func NewGhostRecord(id TrackId, bbox Bbox, lastSeenFrame int) GhostRecord {
	cx, cy := bbox.Center()
	return GhostRecord{ID: id, Bbox: bbox, CenterX: cx, CenterY: cy, LastSeenFrame: lastSeenFrame}
}

// IoU returns the intersection-over-union between the ghost's last known
// bbox and a candidate bbox.
func (g GhostRecord) IoU(candidate Bbox) float64 {
	return geometry.IoU(
		geometry.Bbox{X1: g.Bbox.X1, Y1: g.Bbox.Y1, X2: g.Bbox.X2, Y2: g.Bbox.Y2},
		geometry.Bbox{X1: candidate.X1, Y1: candidate.Y1, X2: candidate.X2, Y2: candidate.Y2},
	)
}

// Distance returns the Euclidean distance between the ghost's center and a
// candidate bbox's center.
func (g GhostRecord) Distance(candidate Bbox) float64 {
	cx, cy := candidate.Center()
	dx := cx - g.CenterX
	dy := cy - g.CenterY
	return math.Sqrt(dx*dx + dy*dy)
}
