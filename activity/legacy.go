package activity

import (
	"math"

	"github.com/sentrycore/ghosttrack/history"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

// LegacyConfig tunes the bbox-only fallback classifier, ported from
// activity_detector.py with its per-frame thresholds converted to
// pixels/sec (Open Question a).
type LegacyConfig struct {
	StandingSpeedThreshold float64
	WalkingSlowThreshold   float64
	WalkingThreshold       float64
}

// DefaultLegacyConfig mirrors the original tuning.
func DefaultLegacyConfig() LegacyConfig {
	return LegacyConfig{
		StandingSpeedThreshold: 20,
		WalkingSlowThreshold:   100,
		WalkingThreshold:       300,
	}
}

// LegacyClassifier is the bbox-only fallback: no pose required, driven
// entirely by centroid motion history and aspect ratio. Selectable at
// construction; never silently substituted for PoseClassifier (§4.H).
type LegacyClassifier struct {
	cfg    LegacyConfig
	motion *history.MotionStore
	labels *labelRing
}

// NewLegacyClassifier constructs a bbox-only classifier backed by the
// given motion history store.
func NewLegacyClassifier(cfg LegacyConfig, motion *history.MotionStore) *LegacyClassifier {
	return &LegacyClassifier{cfg: cfg, motion: motion, labels: newLabelRing(20)}
}

// Classify implements Classifier.
func (c *LegacyClassifier) Classify(trackID ghosttrack.TrackId, bbox ghosttrack.Bbox, timestamp float64) Label {
	cx, cy := bbox.Center()
	c.motion.Add(trackID, cx, cy, timestamp)

	speed := c.motion.SmoothedSpeed(trackID)
	aspect := aspectRatio(bbox)

	var base Label
	switch {
	case speed < c.cfg.StandingSpeedThreshold:
		switch {
		case aspect > 2.0:
			base = LabelStanding
		case aspect < 1.5:
			base = LabelSittingCrouching
		default:
			base = LabelStanding
		}
	case speed < c.cfg.WalkingSlowThreshold:
		base = LabelWalkingSlow
	case speed < c.cfg.WalkingThreshold:
		base = LabelWalking
	default:
		base = LabelRunning
	}

	refined := c.refine(trackID, base, aspect, speed)
	return c.emit(trackID, refined)
}

// refine applies the loitering, erratic-movement, and potential-fall
// overrides from activity_detector.py's _refine_activity_classification.
func (c *LegacyClassifier) refine(trackID ghosttrack.TrackId, base Label, aspect, speed float64) Label {
	positions := c.motion.RecentPositions(trackID, 5)
	if len(positions) >= 2 && (base == LabelStanding || base == LabelWalkingSlow) {
		var total float64
		for i := 1; i < len(positions); i++ {
			dx := positions[i].X - positions[i-1].X
			dy := positions[i].Y - positions[i-1].Y
			total += math.Sqrt(dx*dx + dy*dy)
		}
		avgMovement := total / float64(len(positions)-1)
		if avgMovement < 5.0 {
			return LabelLoitering
		}
	}

	if recent, ok := c.recentLabels(trackID, 10); ok {
		unique := make(map[Label]struct{})
		for _, l := range recent {
			unique[l] = struct{}{}
		}
		_, hasRunning := unique[LabelRunning]
		_, hasStanding := unique[LabelStanding]
		if len(unique) >= 4 && hasRunning && hasStanding && speed > 20 {
			return LabelErraticMovement
		}
	}

	if aspect < 1.0 && speed > 0 {
		return LabelPotentialFall
	}

	return base
}

func (c *LegacyClassifier) recentLabels(trackID ghosttrack.TrackId, n int) ([]Label, bool) {
	s := c.labels.labels[trackID]
	if len(s) < n {
		return nil, false
	}
	return s[len(s)-n:], true
}

func (c *LegacyClassifier) emit(trackID ghosttrack.TrackId, label Label) Label {
	c.labels.add(trackID, label)
	return label
}

// DominantActivity returns the modal label over the last window entries.
func (c *LegacyClassifier) DominantActivity(trackID ghosttrack.TrackId, window int) (Label, bool) {
	return c.labels.dominant(trackID, window)
}

// Forget drops all per-track state for trackID.
func (c *LegacyClassifier) Forget(trackID ghosttrack.TrackId) {
	c.motion.Forget(trackID)
	c.labels.forget(trackID)
}

func aspectRatio(b ghosttrack.Bbox) float64 {
	width := b.X2 - b.X1
	height := b.Y2 - b.Y1
	if width <= 0 {
		return 1.0
	}
	return height / width
}
