package main

import (
	"github.com/sentrycore/ghosttrack/history"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

// frameRecord is one line of the input detections stream: a pre-recorded
// stand-in for the live Detector + Pose adapters (§6). Each detection
// carries its own pose rather than a separate pose stream, since the pose
// adapter is itself defined per-bbox.
type frameRecord struct {
	Frame        int               `json:"frame"`
	TimestampSec float64           `json:"timestamp_sec"`
	Detections   []detectionRecord `json:"detections"`
}

type detectionRecord struct {
	Bbox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
	ClassID    int        `json:"class_id"`
	// Pose is null when the pose adapter was skipped or failed for this
	// detection (§7 PoseUnavailable).
	Pose *poseRecord `json:"pose"`
}

// poseRecord is a 17-joint COCO skeleton, each joint an [x, y, valid] triple.
type poseRecord [history.NumJoints][3]float64

func (p poseRecord) toPose() history.Pose {
	var out history.Pose
	for i, j := range p {
		out[i] = history.Joint{X: j[0], Y: j[1], Valid: j[2] != 0}
	}
	return out
}

// decisionLogEntry is the on-disk shape of one tracker decision record (§6).
type decisionLogEntry struct {
	Frame            int                `json:"frame"`
	Event            string             `json:"event"`
	ProvisionalID    ghosttrack.TrackId `json:"provisional_id"`
	FinalID          ghosttrack.TrackId `json:"final_id"`
	GhostComparisons []ghostComparison  `json:"ghost_comparisons,omitempty"`
}

type ghostComparison struct {
	GhostID  ghosttrack.TrackId `json:"ghost_id"`
	IoU      float64            `json:"iou"`
	Distance float64            `json:"distance"`
	Score    float64            `json:"score"`
}

func toDecisionLogEntry(r ghosttrack.DecisionRecord) decisionLogEntry {
	e := decisionLogEntry{
		Frame:         r.Frame,
		Event:         r.Event.String(),
		ProvisionalID: r.ProvisionalID,
		FinalID:       r.FinalID,
	}
	for _, c := range r.Candidates {
		e.GhostComparisons = append(e.GhostComparisons, ghostComparison{
			GhostID:  c.GhostID,
			IoU:      c.IoU,
			Distance: c.Distance,
			Score:    c.Score,
		})
	}
	return e
}

// zoneEventEntry is the on-disk shape of one ZoneEvent (§6).
type zoneEventEntry struct {
	TimestampSec float64            `json:"timestamp_sec"`
	Frame        int                `json:"frame"`
	PersonID     ghosttrack.TrackId `json:"person_id"`
	ZoneID       int                `json:"zone_id"`
	Event        string             `json:"event"`
	DurationSec  *float64           `json:"duration_sec"`
}

// activityEntry is the on-disk shape of one per-detection-in-zone activity
// analytics record (§6).
type activityEntry struct {
	Frame     int                `json:"frame"`
	Timestamp float64            `json:"timestamp"`
	PersonID  ghosttrack.TrackId `json:"person_id"`
	ZoneID    int                `json:"zone_id"`
	Activity  string             `json:"activity"`
	Bbox      [4]float64         `json:"bbox"`
}

func bboxArray(b ghosttrack.Bbox) [4]float64 {
	return [4]float64{b.X1, b.Y1, b.X2, b.Y2}
}
