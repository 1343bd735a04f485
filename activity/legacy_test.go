package activity

import (
	"testing"

	"github.com/sentrycore/ghosttrack/history"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

// boxAt returns a bbox of fixed size (so aspectRatio == height/width is
// constant) centered at (cx, cy), with the requested aspect ratio.
func boxAt(cx, cy, aspect float64) ghosttrack.Bbox {
	const width = 50.0
	height := width * aspect
	return ghosttrack.Bbox{X1: cx - width/2, Y1: cy - height/2, X2: cx + width/2, Y2: cy + height/2}
}

// TestLegacyRefineLoitering pins the loitering threshold: a standing-base
// track whose last 5 centroid positions average under 5px of inter-frame
// movement is reclassified as loitering (spec.md:180).
func TestLegacyRefineLoitering(t *testing.T) {
	c := NewLegacyClassifier(DefaultLegacyConfig(), history.NewMotionStore(15))

	cx := 100.0
	var got Label
	for i := 0; i < 6; i++ {
		// aspect=3.0 -> standing base at low speed. Timestamps 1s apart so
		// SmoothedSpeed (px/s) equals the raw per-frame pixel movement.
		got = c.Classify(1, boxAt(cx, 100, 3.0), float64(i))
		cx += 0.5 // avg inter-frame movement well under the 5px threshold
	}
	if got != LabelLoitering {
		t.Errorf("expected loitering after near-stationary standing frames, got %s", got)
	}
}

// TestLegacyRefineNotLoiteringAboveThreshold checks the boundary: movement
// clearly above the 5px average while still standing-base must not be
// flagged loitering.
func TestLegacyRefineNotLoiteringAboveThreshold(t *testing.T) {
	c := NewLegacyClassifier(DefaultLegacyConfig(), history.NewMotionStore(15))

	cx := 100.0
	var got Label
	for i := 0; i < 6; i++ {
		got = c.Classify(1, boxAt(cx, 100, 3.0), float64(i))
		cx += 10 // 10px/s average movement, above the 5px loitering threshold
	}
	if got == LabelLoitering {
		t.Errorf("did not expect loitering when inter-frame movement exceeds 5px, got %s", got)
	}
}

// TestLegacyRefineErraticMovement pins spec.md's literal thresholds: at
// least 4 distinct labels among the last 10, including both running and
// standing, with current speed over 20 px/s.
func TestLegacyRefineErraticMovement(t *testing.T) {
	c := NewLegacyClassifier(DefaultLegacyConfig(), history.NewMotionStore(15))

	// Seed 10 prior labels directly: 4 distinct labels including running
	// and standing, satisfying refine()'s history check without needing 10
	// real Classify() calls to land on exactly those labels.
	seed := []Label{
		LabelStanding, LabelWalking, LabelRunning, LabelWalkingSlow,
		LabelStanding, LabelWalking, LabelRunning, LabelWalkingSlow,
		LabelStanding, LabelWalking,
	}
	for _, l := range seed {
		c.labels.add(1, l)
	}

	// 30px/s keeps the base label at walking_slow (below the 100px/s
	// walking threshold) while clearing the 20px/s erratic-movement floor,
	// and the 30px average inter-frame movement clears the 5px loitering
	// ceiling so loitering does not pre-empt the erratic check.
	cx := 100.0
	var got Label
	for i := 0; i < 3; i++ {
		got = c.Classify(1, boxAt(cx, 100, 3.0), float64(i))
		cx += 30
	}
	if got != LabelErraticMovement {
		t.Errorf("expected erratic_movement, got %s", got)
	}
}

// TestLegacyRefineErraticMovementRequiresFourDistinctLabels checks that a
// history holding both running and standing but fewer than 4 distinct
// labels does not trigger erratic_movement even at qualifying speed.
func TestLegacyRefineErraticMovementRequiresFourDistinctLabels(t *testing.T) {
	c := NewLegacyClassifier(DefaultLegacyConfig(), history.NewMotionStore(15))

	// The seed holds only running and walking. The first two Classify calls
	// below run at zero speed and add standing, so the last 10 labels seen
	// by the third call are running, walking and standing: 3 distinct.
	seed := []Label{
		LabelRunning, LabelWalking, LabelRunning, LabelWalking,
		LabelRunning, LabelWalking, LabelRunning, LabelWalking,
		LabelRunning, LabelWalking,
	}
	for _, l := range seed {
		c.labels.add(1, l)
	}

	cx := 100.0
	var got Label
	for i := 0; i < 3; i++ {
		got = c.Classify(1, boxAt(cx, 100, 3.0), float64(i))
		cx += 30
	}
	if got == LabelErraticMovement {
		t.Errorf("did not expect erratic_movement with fewer than 4 distinct labels, got %s", got)
	}
}

// TestLegacyRefinePotentialFall pins the fall threshold: aspect_ratio < 1.0
// (wider than tall) with any nonzero movement, no magnitude floor beyond
// nonzero (spec.md:180).
func TestLegacyRefinePotentialFall(t *testing.T) {
	c := NewLegacyClassifier(DefaultLegacyConfig(), history.NewMotionStore(15))

	cx := 100.0
	var got Label
	for i := 0; i < 3; i++ {
		got = c.Classify(1, boxAt(cx, 100, 0.4), float64(i)) // wide bbox, aspect < 1.0
		cx += 2                                              // small nonzero movement
	}
	if got != LabelPotentialFall {
		t.Errorf("expected potential_fall for wide bbox with nonzero movement, got %s", got)
	}
}

// TestLegacyRefineNoFallWhenStationary checks potential_fall requires
// nonzero movement: a perfectly stationary wide bbox must not be flagged.
func TestLegacyRefineNoFallWhenStationary(t *testing.T) {
	c := NewLegacyClassifier(DefaultLegacyConfig(), history.NewMotionStore(15))

	box := boxAt(100, 100, 0.4)
	var got Label
	for i := 0; i < 3; i++ {
		got = c.Classify(1, box, float64(i))
	}
	if got == LabelPotentialFall {
		t.Errorf("did not expect potential_fall with zero movement, got %s", got)
	}
}
