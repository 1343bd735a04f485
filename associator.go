package ghosttrack

// Associator is the base frame-to-frame association strategy that
// GhostBufferTracker wraps. It knows nothing about ghosts, zones, or
// activity — only about matching this frame's detections against whatever
// motion model it keeps internally (§4.C: "an implementation detail").
//
// Update is called once per frame with that frame's detections. It returns
// a slice of the same length whose i-th element is either a committed
// TrackId for the i-th detection, or SentinelTrackId if the detection
// could not be associated with any track the associator is prepared to
// confirm yet (e.g. still within its hit-counter warm-up period).
//
// Implementations own their own track lifecycle (creation, confirmation,
// loss) below the ghost layer; GhostBufferTracker only reads Update's
// return value and derives losses itself from the IDs that stop appearing
// in it. It does not call Active or LostSince.
type Associator interface {
	// Update advances the associator by one frame and returns, for each
	// input detection, either a committed TrackId or SentinelTrackId.
	Update(detections []Detection) ([]TrackId, error)

	// Active returns the associator's current best estimate of all
	// confirmed tracks' bounding boxes, each tagged with its TrackId, regardless of
	// whether they were matched this frame.
	Active() []ActiveTrack

	// LostSince returns the TrackIds the associator dropped this frame
	// (tracks whose internal retention window expired, i.e. it will
	// never again emit that TrackId), along with their last known bbox.
	// GhostBufferTracker does not consult it; its ghost buffer is fed from
	// the IDs that Update stops returning.
	LostSince() []GhostRecord
}
