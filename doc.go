/*
Package ghosttrack provides identity-stable multi-person tracking for indoor
video analytics.

ghosttrack wraps a conventional short-memory detection-to-track associator
with a longer-lived ghost buffer that repairs the two failure modes such
associators exhibit under occlusion and crowding: assigning a fresh ID to a
track that only briefly disappeared, and occasionally swapping IDs between
two people who pass close to one another.

# Basic usage

	assoc, _ := kalmanassoc.New(kalmanassoc.DefaultConfig())
	tracker, _ := ghosttrack.NewGhostBufferTracker(assoc, ghosttrack.DefaultTrackerConfig())

	for _, detections := range detectionFrames {
		ids, _, _ := tracker.Update(detections)
		for i, id := range ids {
			fmt.Printf("id=%d bbox=%v\n", id, detections[i].Bbox)
		}
	}

# Core types

Detection is one per-frame person box from an upstream detector. Bbox is an
axis-aligned rectangle in pixel space. TrackId is a process-wide unique,
monotonically issued identifier; the sentinel value means "unassigned".

# Companion packages

internal/kalmanassoc implements the base associator contract (a Kalman-filter
motion model plus pluggable greedy or Hungarian matching). zone implements
polygon occupancy accounting. history and activity implement the temporal
motion/pose stores and the pose-based activity classifier with majority-vote
smoothing. cmd/trackreplay wires all of these into a batch-replay CLI over a
pre-recorded detections stream.
*/
package ghosttrack
