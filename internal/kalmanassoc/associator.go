package kalmanassoc

import (
	"gonum.org/v1/gonum/mat"

	"github.com/sentrycore/ghosttrack/internal/geometry"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

// Config tunes the base associator. These knobs are surfaced but opaque
// to the ghost-buffer layer that wraps this package (§4.C: "implementation
// detail").
type Config struct {
	// ActivationThreshold is the minimum confidence for an unmatched
	// detection to spawn a new tentative track. Detections below it can
	// still match an existing track.
	ActivationThreshold float64

	// LostTrackBuffer is how far below zero an unmatched track's hit
	// counter may decay (one per unmatched frame) before this package
	// permanently drops it; confirmed tracks dropped this way are reported
	// through LostSince. The counter gains one per matched frame and has no
	// upper cap, so a track survives LostTrackBuffer unmatched frames plus
	// its hit count at its last match.
	LostTrackBuffer int

	// MinimumMatchingThreshold is the minimum IoU for a track/detection
	// pair to be considered a match at all.
	MinimumMatchingThreshold float64

	// MinimumConsecutiveFrames is the hit-counter level a tentative track
	// must reach before it is confirmed (assigned a real TrackId).
	MinimumConsecutiveFrames int

	// Match selects the strategy used to pair this frame's detections
	// against predicted track positions. Defaults to GreedyMatch.
	Match MatchStrategy
}

// DefaultConfig mirrors the thresholds the ghost-buffer prototype this
// associator generalizes was tuned against.
func DefaultConfig() Config {
	return Config{
		ActivationThreshold:      0.4,
		LostTrackBuffer:          90,
		MinimumMatchingThreshold: 0.3,
		MinimumConsecutiveFrames: 3,
		Match:                    GreedyMatch,
	}
}

// track is the internal per-object state: a constant-velocity Kalman
// filter over the bbox center plus a hit-counter confirmation/decay
// lifecycle, adapted from the teacher's TrackedObject.
type track struct {
	id          ghosttrack.TrackId
	filter      *KalmanFilter
	bbox        ghosttrack.Bbox
	hitCounter  int
	confirmed   bool
	framesAlive int
}

// Associator is a Kalman-filter-predicted, IoU-matched base associator
// satisfying the ghosttrack.Associator contract (§4.C).
type Associator struct {
	cfg    Config
	tracks []*track

	lost []ghosttrack.GhostRecord
}

// New constructs a base associator. Returns a *ghosttrack.ConfigError via
// the error return if cfg is invalid.
func New(cfg Config) (*Associator, error) {
	if cfg.LostTrackBuffer <= 0 {
		return nil, &ghosttrack.ConfigError{Field: "LostTrackBuffer", Reason: "must be positive"}
	}
	if cfg.MinimumConsecutiveFrames <= 0 {
		return nil, &ghosttrack.ConfigError{Field: "MinimumConsecutiveFrames", Reason: "must be positive"}
	}
	if cfg.Match == nil {
		cfg.Match = GreedyMatch
	}
	return &Associator{cfg: cfg}, nil
}

// newFilter builds a constant-velocity Kalman filter over (cx, cy) with
// velocity components, initialized at the detection's center. The
// filter's default H (observe position, not velocity) is kept; F gets the
// velocity coupling, and Q, R and the initial covariance are set here.
func newFilter(bbox ghosttrack.Bbox) *KalmanFilter {
	kf := NewKalmanFilter(4, 2)
	cx, cy := bbox.Center()
	kf.SetState(mat.NewDense(4, 1, []float64{cx, cy, 0, 0}))
	kf.SetCovariance(diag(4, 10, 10, 100, 100))
	kf.F.Set(0, 2, 1)
	kf.F.Set(1, 3, 1)
	kf.Q.Set(2, 2, 4)
	kf.Q.Set(3, 3, 4)
	kf.R.Set(0, 0, 4)
	kf.R.Set(1, 1, 4)
	return kf
}

func diag(n int, values ...float64) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i, v := range values {
		d.Set(i, i, v)
	}
	return d
}

// predictedBbox reports where the filter currently believes the tracked
// object's bbox sits, keeping the original width/height and recentering
// on the predicted center.
func predictedBbox(bbox ghosttrack.Bbox, filter *KalmanFilter) ghosttrack.Bbox {
	w := bbox.X2 - bbox.X1
	h := bbox.Y2 - bbox.Y1
	x := filter.GetState()
	cx := x.At(0, 0)
	cy := x.At(1, 0)
	return ghosttrack.Bbox{X1: cx - w/2, Y1: cy - h/2, X2: cx + w/2, Y2: cy + h/2}
}

// Update implements ghosttrack.Associator.
func (a *Associator) Update(detections []ghosttrack.Detection) ([]ghosttrack.TrackId, error) {
	a.lost = nil

	for _, t := range a.tracks {
		t.filter.Predict()
	}

	n := len(detections)
	m := len(a.tracks)
	cost := mat.NewDense(maxInt(n, 1), maxInt(m, 1), nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			iou := geometry.IoU(toGeomBbox(detections[i].Bbox), toGeomBbox(predictedBbox(a.tracks[j].bbox, a.tracks[j].filter)))
			cost.Set(i, j, 1-iou)
		}
	}

	var detIdx, trackIdx []int
	if n > 0 && m > 0 {
		detIdx, trackIdx = a.cfg.Match(cost, 1-a.cfg.MinimumMatchingThreshold)
	}

	matchedDet := make(map[int]bool, len(detIdx))
	matchedTrack := make(map[int]bool, len(trackIdx))
	for k := range detIdx {
		matchedDet[detIdx[k]] = true
		matchedTrack[trackIdx[k]] = true
	}

	out := make([]ghosttrack.TrackId, n)
	for i := range out {
		out[i] = ghosttrack.SentinelTrackId
	}

	for k := range detIdx {
		di, ti := detIdx[k], trackIdx[k]
		tr := a.tracks[ti]
		cx, cy := detections[di].Bbox.Center()
		z := mat.NewDense(2, 1, []float64{cx, cy})
		tr.filter.Update(z, nil, nil)
		tr.bbox = detections[di].Bbox
		tr.hitCounter++
		tr.framesAlive++
		if !tr.confirmed && tr.hitCounter >= a.cfg.MinimumConsecutiveFrames {
			tr.confirmed = true
			tr.id = ghosttrack.IssueTrackID()
		}
		if tr.confirmed {
			out[di] = tr.id
		}
	}

	// Decay and cull unmatched tracks.
	survivors := a.tracks[:0]
	for j, tr := range a.tracks {
		if matchedTrack[j] {
			survivors = append(survivors, tr)
			continue
		}
		tr.hitCounter--
		if tr.hitCounter < -a.cfg.LostTrackBuffer {
			if tr.confirmed {
				a.lost = append(a.lost, ghosttrack.NewGhostRecord(tr.id, tr.bbox, tr.framesAlive))
			}
			continue
		}
		survivors = append(survivors, tr)
	}
	a.tracks = survivors

	// Spawn tentative tracks for unmatched detections above the
	// activation threshold.
	for i, det := range detections {
		if matchedDet[i] {
			continue
		}
		if det.Confidence < a.cfg.ActivationThreshold {
			continue
		}
		a.tracks = append(a.tracks, &track{
			filter:     newFilter(det.Bbox),
			bbox:       det.Bbox,
			hitCounter: 1,
		})
	}

	return out, nil
}

// Active implements ghosttrack.Associator.
func (a *Associator) Active() []ghosttrack.ActiveTrack {
	out := make([]ghosttrack.ActiveTrack, 0, len(a.tracks))
	for _, tr := range a.tracks {
		if !tr.confirmed {
			continue
		}
		out = append(out, ghosttrack.ActiveTrack{ID: tr.id, Bbox: tr.bbox, LastUpdateFrame: tr.framesAlive})
	}
	return out
}

// LostSince implements ghosttrack.Associator.
func (a *Associator) LostSince() []ghosttrack.GhostRecord {
	return a.lost
}

func toGeomBbox(b ghosttrack.Bbox) geometry.Bbox {
	return geometry.Bbox{X1: b.X1, Y1: b.Y1, X2: b.X2, Y2: b.Y2}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
