package ghosttrack

import "sync"

// Adapted from the teacher's tracker_factory.go: TrackedObjectFactory's
// instance/global counter split. ghosttrack only needs one counter (TrackId
// is process-wide unique per §3), so the instance/global distinction
// collapses into a single package-level monotonic counter, but the
// mutex-protected increment-and-return shape is kept as-is.

var (
	nextTrackID   int64
	nextTrackIDMu sync.Mutex
)

// IssueTrackID returns a fresh, never-before-issued TrackId. IDs are never
// reused, even after their track is fully retired (§3: "IDs once retired
// are never reissued"). Concrete Associator implementations call this
// instead of keeping their own counter, so that TrackId stays globally
// unique even across associators wrapped by the same process.
func IssueTrackID() TrackId {
	nextTrackIDMu.Lock()
	defer nextTrackIDMu.Unlock()
	nextTrackID++
	return TrackId(nextTrackID)
}

// ResetTrackIDSequence resets the global TrackId counter to zero. Intended
// for tests only: production code creates one process per stream and never
// needs to reset.
func ResetTrackIDSequence() {
	nextTrackIDMu.Lock()
	defer nextTrackIDMu.Unlock()
	nextTrackID = 0
}
