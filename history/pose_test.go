package history

import (
	"testing"

	"github.com/sentrycore/ghosttrack/internal/testutil"
)

func validPose(hipX, hipY float64) Pose {
	var p Pose
	p[LeftHip] = Joint{X: hipX, Y: hipY, Valid: true}
	p[RightHip] = Joint{X: hipX + 20, Y: hipY, Valid: true}
	return p
}

func TestJointVelocityZeroWithFewerThanTwoSamples(t *testing.T) {
	p := NewPoseStore(10)
	p.Add(1, validPose(0, 0), 0)
	if got := p.JointVelocity(1, LeftHip); got != 0 {
		t.Errorf("expected 0 with one sample, got %f", got)
	}
}

func TestJointVelocityKnownMotion(t *testing.T) {
	p := NewPoseStore(10)
	p.Add(1, validPose(0, 0), 0)
	p.Add(1, validPose(30, 40), 1)
	testutil.AssertAlmostEqual(t, p.JointVelocity(1, LeftHip), 50, 1e-9, "joint velocity")
}

func TestJointVelocitySkipsInvalidJoint(t *testing.T) {
	p := NewPoseStore(10)
	a := validPose(0, 0)
	a[LeftHip] = Joint{Valid: false}
	p.Add(1, a, 0)
	p.Add(1, validPose(30, 40), 1)
	if got := p.JointVelocity(1, LeftHip); got != 0 {
		t.Errorf("expected 0 when a joint is invalid, got %f", got)
	}
}

func TestAverageJointVelocitySmooths(t *testing.T) {
	p := NewPoseStore(10)
	p.Add(1, validPose(0, 0), 0)
	p.Add(1, validPose(10, 0), 1)
	p.Add(1, validPose(20, 0), 2)
	p.Add(1, validPose(30, 0), 3)
	testutil.AssertAlmostEqual(t, p.AverageJointVelocity(1, LeftHip, 5), 10, 1e-9, "average joint velocity")
}

func TestPoseStoreForget(t *testing.T) {
	p := NewPoseStore(10)
	p.Add(1, validPose(0, 0), 0)
	p.Forget(1)
	if p.Len(1) != 0 {
		t.Errorf("expected history cleared after Forget")
	}
}
