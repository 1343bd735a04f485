// Package activity classifies a tracked person's current behavior from
// pose and motion history (§4.H), with a selectable bbox-only fallback
// for streams without a pose adapter.
package activity

import (
	"math"

	"github.com/sentrycore/ghosttrack/history"
	"github.com/sentrycore/ghosttrack/internal/geometry"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

// Label is one activity classification.
type Label string

const (
	LabelInitializing    Label = "initializing"
	LabelNoPose          Label = "no_pose"
	LabelReading         Label = "reading"
	LabelSitting         Label = "sitting"
	LabelReadingStanding Label = "reading_standing"
	LabelStanding        Label = "standing"
	LabelWalking         Label = "walking"

	// Legacy (bbox-only) labels.
	LabelWalkingSlow      Label = "walking_slow"
	LabelRunning          Label = "running"
	LabelSittingCrouching Label = "sitting/crouching"
	LabelLoitering        Label = "loitering"
	LabelErraticMovement  Label = "erratic_movement"
	LabelPotentialFall    Label = "potential_fall"
	LabelUnknown          Label = "unknown"
)

// Classifier produces one activity Label per call, given everything
// known about a track up to and including the current frame.
type Classifier interface {
	// Classify returns the label for trackID at the given timestamp. For
	// PoseClassifier the caller records this frame's pose (if any) with
	// RecordPose before calling; LegacyClassifier records the bbox centroid
	// into its motion store itself, inside Classify.
	Classify(trackID ghosttrack.TrackId, bbox ghosttrack.Bbox, timestamp float64) Label
}

// Config tunes the pose-based classifier's decision thresholds (§4.H).
type Config struct {
	SittingHipAngleMax      float64
	SittingKneeAngleMax     float64
	ReadingHeadTiltMin      float64
	ReadingHeadTiltMax      float64
	StandingSpeedThreshold  float64
	WalkingThreshold        float64
	MinPoseSamplesForWarmup int
}

// DefaultConfig mirrors the thresholds calibrated in the prototype this
// classifier generalizes.
func DefaultConfig() Config {
	return Config{
		SittingHipAngleMax:      110,
		SittingKneeAngleMax:     130,
		ReadingHeadTiltMin:      20,
		ReadingHeadTiltMax:      70,
		StandingSpeedThreshold:  25,
		WalkingThreshold:        100,
		MinPoseSamplesForWarmup: 5,
	}
}

// PoseClassifier implements the primary, pose-based decision tree.
type PoseClassifier struct {
	cfg    Config
	poses  *history.PoseStore
	labels *labelRing
}

// NewPoseClassifier constructs a pose-based classifier backed by the
// given pose history store.
func NewPoseClassifier(cfg Config, poses *history.PoseStore) *PoseClassifier {
	return &PoseClassifier{cfg: cfg, poses: poses, labels: newLabelRing(30)}
}

// RecordPose stores this frame's pose sample for trackID, if a pose was
// available. Call once per frame before Classify; skip when the pose
// adapter returned null (§7 PoseUnavailable).
func (c *PoseClassifier) RecordPose(trackID ghosttrack.TrackId, pose history.Pose, timestamp float64) {
	c.poses.Add(trackID, pose, timestamp)
}

// Classify implements Classifier.
func (c *PoseClassifier) Classify(trackID ghosttrack.TrackId, bbox ghosttrack.Bbox, timestamp float64) Label {
	if c.poses.Len(trackID) == 0 {
		return c.emit(trackID, LabelNoPose)
	}
	// This frame's sample is already recorded, so the first
	// MinPoseSamplesForWarmup frames of a track all return initializing.
	if c.poses.Len(trackID) <= c.cfg.MinPoseSamplesForWarmup {
		return c.emit(trackID, LabelInitializing)
	}

	pose, _ := c.poses.Latest(trackID)
	hipVelocity := smoothedHipVelocity(c.poses, trackID)
	headTilt := headTiltDegrees(pose)
	sitting := isSitting(pose, c.cfg)

	switch {
	case sitting && headTilt >= c.cfg.ReadingHeadTiltMin:
		return c.emit(trackID, LabelReading)
	case sitting:
		return c.emit(trackID, LabelSitting)
	case hipVelocity < c.cfg.StandingSpeedThreshold && headTilt >= 30:
		return c.emit(trackID, LabelReadingStanding)
	case hipVelocity < c.cfg.StandingSpeedThreshold:
		return c.emit(trackID, LabelStanding)
	default:
		return c.emit(trackID, LabelWalking)
	}
}

// DominantActivity returns the modal label over the last window entries
// for trackID, ties resolved by most-recent-occurrence.
func (c *PoseClassifier) DominantActivity(trackID ghosttrack.TrackId, window int) (Label, bool) {
	return c.labels.dominant(trackID, window)
}

// Forget drops all per-track state for trackID (pose history and label
// ring), per §4.H state: IDs are never reused across different people.
func (c *PoseClassifier) Forget(trackID ghosttrack.TrackId) {
	c.poses.Forget(trackID)
	c.labels.forget(trackID)
}

func (c *PoseClassifier) emit(trackID ghosttrack.TrackId, label Label) Label {
	c.labels.add(trackID, label)
	return label
}

func smoothedHipVelocity(poses *history.PoseStore, id ghosttrack.TrackId) float64 {
	left := poses.AverageJointVelocity(id, history.LeftHip, 5)
	right := poses.AverageJointVelocity(id, history.RightHip, 5)
	if left == 0 {
		return right
	}
	if right == 0 {
		return left
	}
	return (left + right) / 2
}

// headTiltDegrees returns the angle between the shoulder-midpoint→nose
// vector and the downward vertical. 0 if nose or either shoulder is
// invalid, or if the head is not tilted toward the chest at all.
func headTiltDegrees(pose history.Pose) float64 {
	nose := pose[history.Nose]
	ls := pose[history.LeftShoulder]
	rs := pose[history.RightShoulder]
	if !nose.Valid || !ls.Valid || !rs.Valid {
		return 0
	}
	shoulderX := (ls.X + rs.X) / 2
	shoulderY := (ls.Y + rs.Y) / 2
	vx := nose.X - shoulderX
	vy := nose.Y - shoulderY
	if vy <= 0 {
		return 0
	}
	mag := math.Sqrt(vx*vx + vy*vy)
	if mag == 0 {
		return 0
	}
	cos := vy / mag
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	angle := math.Acos(cos) * 180 / math.Pi
	return 90 - angle
}

func isSitting(pose history.Pose, cfg Config) bool {
	if sideIsSitting(pose, history.LeftShoulder, history.LeftHip, history.LeftKnee, history.LeftAnkle, cfg) {
		return true
	}
	return sideIsSitting(pose, history.RightShoulder, history.RightHip, history.RightKnee, history.RightAnkle, cfg)
}

func sideIsSitting(pose history.Pose, shoulder, hip, knee, ankle int, cfg Config) bool {
	sh, hi, kn, an := pose[shoulder], pose[hip], pose[knee], pose[ankle]
	if !hi.Valid || !kn.Valid || !an.Valid {
		return false
	}
	hipAngle := angleAtVertex(sh, hi, kn)
	kneeAngle := angleAtVertex(hi, kn, an)
	return hipAngle < cfg.SittingHipAngleMax && kneeAngle < cfg.SittingKneeAngleMax
}

// angleAtVertex adapts a history.Joint triple to the shared geometry
// primitive (§4.A): the angle at p2 formed by p1-p2-p3, in degrees, 180 if
// any point is invalid.
func angleAtVertex(p1, p2, p3 history.Joint) float64 {
	return geometry.AngleAtVertex(
		geometry.Point{X: p1.X, Y: p1.Y},
		geometry.Point{X: p2.X, Y: p2.Y},
		geometry.Point{X: p3.X, Y: p3.Y},
		p1.Valid, p2.Valid, p3.Valid,
	)
}
