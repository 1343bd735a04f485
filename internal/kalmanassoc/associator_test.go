package kalmanassoc

import (
	"testing"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

func bboxAt(x float64) ghosttrack.Bbox {
	return ghosttrack.Bbox{X1: x, Y1: 100, X2: x + 100, Y2: 300}
}

func TestStableTrackConfirmsAfterMinimumFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinimumConsecutiveFrames = 3
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var lastIDs []ghosttrack.TrackId
	for i := 0; i < 5; i++ {
		ids, err := a.Update([]ghosttrack.Detection{{Bbox: bboxAt(float64(i) * 2), Confidence: 0.9}})
		if err != nil {
			t.Fatalf("Update frame %d: %v", i, err)
		}
		lastIDs = ids
	}
	if len(lastIDs) != 1 || lastIDs[0] == ghosttrack.SentinelTrackId {
		t.Fatalf("expected a confirmed id after warmup, got %v", lastIDs)
	}
}

func TestUnmatchedDetectionStartsTentative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinimumConsecutiveFrames = 3
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ids, err := a.Update([]ghosttrack.Detection{{Bbox: bboxAt(0), Confidence: 0.9}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ids[0] != ghosttrack.SentinelTrackId {
		t.Errorf("expected sentinel on first frame, got %v", ids[0])
	}
}

func TestLowConfidenceDetectionNeverSpawnsTrack(t *testing.T) {
	cfg := DefaultConfig()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := a.Update([]ghosttrack.Detection{{Bbox: bboxAt(0), Confidence: 0.01}}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := len(a.Active()); got != 0 {
		t.Errorf("expected no active tracks from sub-threshold confidence, got %d", got)
	}
}

func TestLostTrackEventuallyReportedAsGhost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinimumConsecutiveFrames = 2
	cfg.LostTrackBuffer = 2
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := a.Update([]ghosttrack.Detection{{Bbox: bboxAt(0), Confidence: 0.9}}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	var gotLost bool
	for i := 0; i < 20; i++ {
		_, err := a.Update(nil)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if len(a.LostSince()) > 0 {
			gotLost = true
		}
	}
	if !gotLost {
		t.Error("expected the confirmed track to eventually surface as lost")
	}
}
