package ghosttrack

import "log"

// TrackerConfig tunes the ghost-buffer layer. The base associator's own
// knobs are surfaced through whatever concrete Associator implementation
// the caller constructs (e.g. kalmanassoc.Config) and are opaque here.
type TrackerConfig struct {
	// GhostBufferFrames is how long a lost track is retained for reclaim,
	// in frames (default ~150 at 30fps, i.e. ~5s).
	GhostBufferFrames int

	// GhostIoUThreshold is the minimum IoU with a ghost's last bbox for a
	// candidate match (default 0.2).
	GhostIoUThreshold float64

	// GhostDistanceThreshold is the maximum centroid distance, in pixels,
	// for a candidate match (default 200).
	GhostDistanceThreshold float64

	// GhostScoreIoUWeight and GhostScoreDistanceWeight combine to score
	// candidate ghost matches. Tunable, not contractual (Open Question b).
	GhostScoreIoUWeight      float64
	GhostScoreDistanceWeight float64

	// Logger receives one line per decision event in addition to the
	// returned DecisionRecord. Defaults to log.Default() if nil.
	Logger *log.Logger
}

// DefaultTrackerConfig returns the thresholds used throughout development
// and the test suite, ported from the ghost-buffer prototype this tracker
// generalizes.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		GhostBufferFrames:        150,
		GhostIoUThreshold:        0.2,
		GhostDistanceThreshold:   200.0,
		GhostScoreIoUWeight:      0.6,
		GhostScoreDistanceWeight: 0.4,
	}
}

func (c TrackerConfig) validate() error {
	if c.GhostBufferFrames <= 0 {
		return &ConfigError{Field: "GhostBufferFrames", Reason: "must be positive"}
	}
	if c.GhostIoUThreshold < 0 || c.GhostIoUThreshold > 1 {
		return &ConfigError{Field: "GhostIoUThreshold", Reason: "must be in [0, 1]"}
	}
	if c.GhostDistanceThreshold <= 0 {
		return &ConfigError{Field: "GhostDistanceThreshold", Reason: "must be positive"}
	}
	return nil
}

// GhostBufferTracker wraps a base Associator to repair two of its failure
// modes: a transient loss-then-reacquire that the base associator assigns
// a fresh ID, and an outright erroneous reassignment of a lost ID to an
// unrelated detection (§4.D).
type GhostBufferTracker struct {
	cfg    TrackerConfig
	base   Associator
	ghosts map[TrackId]GhostRecord
	active map[TrackId]Bbox

	lastActiveIDs map[TrackId]struct{}
	frameIndex    int

	retired []TrackId
}

// NewGhostBufferTracker constructs a tracker wrapping the given base
// associator. Returns a *ConfigError if cfg fails validation.
func NewGhostBufferTracker(base Associator, cfg TrackerConfig) (*GhostBufferTracker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &GhostBufferTracker{
		cfg:           cfg,
		base:          base,
		ghosts:        make(map[TrackId]GhostRecord),
		active:        make(map[TrackId]Bbox),
		lastActiveIDs: make(map[TrackId]struct{}),
	}, nil
}

// Update advances the tracker by one frame, returning the corrected
// TrackId for each input detection (same order, same length) plus the
// decision record for every detection that was actually assigned an ID
// (sentinel-valued detections are passed through silently and do not
// appear in the record slice).
func (t *GhostBufferTracker) Update(detections []Detection) ([]TrackId, []DecisionRecord, error) {
	t.frameIndex++
	t.retired = nil

	provisional, err := t.base.Update(detections)
	if err != nil {
		return nil, nil, err
	}
	if len(provisional) != len(detections) {
		return nil, nil, newInputError("associator returned a different number of ids than detections")
	}

	currentActiveIDs := make(map[TrackId]struct{})
	for i, id := range provisional {
		if id == SentinelTrackId {
			continue
		}
		currentActiveIDs[id] = struct{}{}
		t.active[id] = detections[i].Bbox
	}

	// Step 3: promote losses to ghosts.
	for id := range t.lastActiveIDs {
		if _, stillActive := currentActiveIDs[id]; stillActive {
			continue
		}
		bbox, known := t.active[id]
		if !known {
			continue
		}
		if _, isGhost := t.ghosts[id]; isGhost {
			continue
		}
		t.ghosts[id] = NewGhostRecord(id, bbox, t.frameIndex-1)
	}

	// Step 4: expire ghosts past their retention window. A ghost that
	// expires here will never be reclaimed, so its TrackId is retired:
	// callers should free any per-track state keyed by it (§4.H state,
	// §5 bounded memory).
	for id, ghost := range t.ghosts {
		if t.frameIndex-ghost.LastSeenFrame > t.cfg.GhostBufferFrames {
			delete(t.ghosts, id)
			t.retired = append(t.retired, id)
		}
	}

	// Step 5: reclaim or repair IDs, one detection at a time, in order.
	final := make([]TrackId, len(detections))
	var records []DecisionRecord
	usedGhosts := make(map[TrackId]struct{})

	for i, provID := range provisional {
		if provID == SentinelTrackId {
			final[i] = SentinelTrackId
			continue
		}

		bbox := detections[i].Bbox
		_, wasActiveLastFrame := t.lastActiveIDs[provID]

		suspicious := false
		if ghost, isGhost := t.ghosts[provID]; isGhost {
			iou := ghost.IoU(bbox)
			dist := ghost.Distance(bbox)
			if iou < t.cfg.GhostIoUThreshold && dist > t.cfg.GhostDistanceThreshold {
				suspicious = true
				t.logAndRecord(&records, DecisionRecord{
					Frame:         t.frameIndex,
					Event:         EventSuspiciousReassignmentDetected,
					ProvisionalID: provID,
					FinalID:       SentinelTrackId,
					Candidates:    []GhostCandidate{{GhostID: provID, IoU: iou, Distance: dist}},
				})
			}
		}

		if wasActiveLastFrame && !suspicious {
			final[i] = provID
			t.logAndRecord(&records, DecisionRecord{
				Frame:         t.frameIndex,
				Event:         EventIDContinued,
				ProvisionalID: provID,
				FinalID:       provID,
			})
			continue
		}

		// Candidate match: scan ghosts for the best eligible, unused match.
		var (
			bestID     TrackId = SentinelTrackId
			bestScore          = 0.0
			candidates []GhostCandidate
		)
		for ghostID, ghost := range t.ghosts {
			if _, used := usedGhosts[ghostID]; used {
				continue
			}
			iou := ghost.IoU(bbox)
			dist := ghost.Distance(bbox)
			if iou < t.cfg.GhostIoUThreshold || dist > t.cfg.GhostDistanceThreshold {
				continue
			}
			distScore := 1 - dist/t.cfg.GhostDistanceThreshold
			if distScore < 0 {
				distScore = 0
			}
			score := t.cfg.GhostScoreIoUWeight*iou + t.cfg.GhostScoreDistanceWeight*distScore
			candidates = append(candidates, GhostCandidate{GhostID: ghostID, IoU: iou, Distance: dist, Score: score})
			if bestID == SentinelTrackId || score > bestScore || (score == bestScore && ghostID < bestID) {
				bestScore = score
				bestID = ghostID
			}
		}

		t.logAndRecord(&records, DecisionRecord{
			Frame:         t.frameIndex,
			Event:         EventGhostMatchingAttempt,
			ProvisionalID: provID,
			FinalID:       bestID,
			Candidates:    candidates,
		})

		if bestID != SentinelTrackId {
			final[i] = bestID
			usedGhosts[bestID] = struct{}{}
			delete(t.ghosts, bestID)
			t.active[bestID] = bbox
			t.logAndRecord(&records, DecisionRecord{
				Frame:         t.frameIndex,
				Event:         EventIDRestoredFromGhost,
				ProvisionalID: provID,
				FinalID:       bestID,
			})
		} else {
			final[i] = provID
			t.logAndRecord(&records, DecisionRecord{
				Frame:         t.frameIndex,
				Event:         EventNewIDAssigned,
				ProvisionalID: provID,
				FinalID:       provID,
			})
		}
	}

	// Step 6: garbage-collect active, advance lastActiveIDs.
	finalActiveIDs := make(map[TrackId]struct{}, len(final))
	for _, id := range final {
		if id != SentinelTrackId {
			finalActiveIDs[id] = struct{}{}
		}
	}
	for id := range t.active {
		_, stillFinal := finalActiveIDs[id]
		_, stillGhost := t.ghosts[id]
		if !stillFinal && !stillGhost {
			delete(t.active, id)
		}
	}
	t.lastActiveIDs = finalActiveIDs

	return final, records, nil
}

func (t *GhostBufferTracker) logAndRecord(records *[]DecisionRecord, r DecisionRecord) {
	t.cfg.Logger.Printf("tracker: frame=%d event=%s provisional=%d final=%d", r.Frame, r.Event, r.ProvisionalID, r.FinalID)
	*records = append(*records, r)
}

// GhostCount returns the number of tracks currently retained in the ghost
// buffer, awaiting possible reclaim.
func (t *GhostBufferTracker) GhostCount() int { return len(t.ghosts) }

// ActiveCount returns the number of tracks this tracker currently
// considers active (confirmed this frame or still within the ghost
// buffer).
func (t *GhostBufferTracker) ActiveCount() int { return len(t.active) }

// RetiredIDs returns the TrackIds whose ghost expired during the most
// recent Update call, i.e. ids this tracker will never again emit.
// Callers own per-track state (history rings, label rings) keyed by
// TrackId and should free it for every id in this slice.
func (t *GhostBufferTracker) RetiredIDs() []TrackId {
	return t.retired
}
