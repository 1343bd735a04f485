// Command trackreplay batch-replays a pre-recorded detections stream
// through the ghost-buffer tracker, the zone occupancy engine, and the
// activity classifier, emitting the four analytics logs from §6 as it
// goes. It performs no video demuxing: the detector and pose adapters are
// expected to have already run, and their output is read line-by-line
// from a JSONL file, one object per frame.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/sentrycore/ghosttrack/activity"
	"github.com/sentrycore/ghosttrack/history"
	"github.com/sentrycore/ghosttrack/internal/kalmanassoc"
	"github.com/sentrycore/ghosttrack/zone"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

var (
	detectionsPath string
	zonesPath      string
	outPrefix      string
	legacyActivity bool
	matchStrategy  string

	ghostBufferFrames      int
	ghostIoUThreshold      float64
	ghostDistanceThreshold float64

	activationThreshold  float64
	minMatchThreshold    float64
	minConsecutiveFrames int
	lostTrackBuffer      int
)

func init() {
	flag.StringVar(&detectionsPath, "detections", "", "Path to a JSONL stream of per-frame detections and poses")
	flag.StringVar(&zonesPath, "zones", "", "Path to the zone-config JSON file")
	flag.StringVar(&outPrefix, "out", "trackreplay", "Prefix for the four analytics output files")
	flag.BoolVar(&legacyActivity, "legacy-activity", false, "Use the bbox-only activity classifier instead of the pose-based one")
	flag.StringVar(&matchStrategy, "match", "greedy", "Base associator matching strategy: greedy or hungarian")

	defTracker := ghosttrack.DefaultTrackerConfig()
	flag.IntVar(&ghostBufferFrames, "ghost-buffer-frames", defTracker.GhostBufferFrames, "Frames a lost track is retained for reclaim")
	flag.Float64Var(&ghostIoUThreshold, "ghost-iou-threshold", defTracker.GhostIoUThreshold, "Minimum IoU against a ghost's last bbox")
	flag.Float64Var(&ghostDistanceThreshold, "ghost-distance-threshold", defTracker.GhostDistanceThreshold, "Maximum centroid distance, in pixels, against a ghost")

	defBase := kalmanassoc.DefaultConfig()
	flag.Float64Var(&activationThreshold, "activation-threshold", defBase.ActivationThreshold, "Minimum confidence for a detection to spawn a tentative track")
	flag.Float64Var(&minMatchThreshold, "min-match-threshold", defBase.MinimumMatchingThreshold, "Minimum IoU for a track/detection match")
	flag.IntVar(&minConsecutiveFrames, "min-consecutive-frames", defBase.MinimumConsecutiveFrames, "Consecutive hits before a tentative track is confirmed")
	flag.IntVar(&lostTrackBuffer, "lost-track-buffer", defBase.LostTrackBuffer, "How far below zero an unmatched base-associator track's hit counter may decay before it is dropped")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trackreplay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if detectionsPath == "" {
		return fmt.Errorf("-detections is required")
	}
	if zonesPath == "" {
		return fmt.Errorf("-zones is required")
	}

	zoneData, err := os.ReadFile(zonesPath)
	if err != nil {
		return fmt.Errorf("read zones: %w", err)
	}
	polygons, err := zone.LoadPolygons(zoneData)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}
	zoneEngine := zone.NewEngine(polygons)

	tracker, err := newTracker()
	if err != nil {
		return err
	}

	poseStore := history.NewPoseStore(30)
	motionStore := history.NewMotionStore(15)
	var poseClassifier *activity.PoseClassifier
	var classifier activity.Classifier
	if legacyActivity {
		classifier = activity.NewLegacyClassifier(activity.DefaultLegacyConfig(), motionStore)
	} else {
		poseClassifier = activity.NewPoseClassifier(activity.DefaultConfig(), poseStore)
		classifier = poseClassifier
	}

	lineCount, err := countLines(detectionsPath)
	if err != nil {
		return fmt.Errorf("scan detections: %w", err)
	}

	in, err := os.Open(detectionsPath)
	if err != nil {
		return fmt.Errorf("open detections: %w", err)
	}
	defer in.Close()

	outs, err := newOutputFiles(outPrefix)
	if err != nil {
		return err
	}
	defer outs.Close()

	bar := progressbar.NewOptions(lineCount,
		progressbar.OptionSetDescription(detectionsPath),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		bar.Add(1)
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := processFrame(line, tracker, zoneEngine, classifier, poseClassifier, outs); err != nil {
			log.Printf("trackreplay: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read detections: %w", err)
	}

	return outs.WriteZoneSummary(zoneEngine.Summaries())
}

func newTracker() (*ghosttrack.GhostBufferTracker, error) {
	matchFn := kalmanassoc.GreedyMatch
	if matchStrategy == "hungarian" {
		matchFn = kalmanassoc.HungarianMatch
	}

	baseCfg := kalmanassoc.DefaultConfig()
	baseCfg.Match = matchFn
	baseCfg.ActivationThreshold = activationThreshold
	baseCfg.MinimumMatchingThreshold = minMatchThreshold
	baseCfg.MinimumConsecutiveFrames = minConsecutiveFrames
	baseCfg.LostTrackBuffer = lostTrackBuffer
	base, err := kalmanassoc.New(baseCfg)
	if err != nil {
		return nil, fmt.Errorf("construct base associator: %w", err)
	}

	trackerCfg := ghosttrack.DefaultTrackerConfig()
	trackerCfg.GhostBufferFrames = ghostBufferFrames
	trackerCfg.GhostIoUThreshold = ghostIoUThreshold
	trackerCfg.GhostDistanceThreshold = ghostDistanceThreshold
	tracker, err := ghosttrack.NewGhostBufferTracker(base, trackerCfg)
	if err != nil {
		return nil, fmt.Errorf("construct tracker: %w", err)
	}
	return tracker, nil
}

// processFrame decodes one line of the detections stream and pushes it
// through the tracker, the zone engine, and the activity classifier,
// writing every resulting analytics record.
func processFrame(line []byte, tracker *ghosttrack.GhostBufferTracker, zoneEngine *zone.Engine, classifier activity.Classifier, poseClassifier *activity.PoseClassifier, outs *outputFiles) error {
	var rec frameRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return fmt.Errorf("malformed frame record: %w", err)
	}

	detections := make([]ghosttrack.Detection, 0, len(rec.Detections))
	poses := make([]*poseRecord, 0, len(rec.Detections))
	for _, d := range rec.Detections {
		bbox := ghosttrack.Bbox{X1: d.Bbox[0], Y1: d.Bbox[1], X2: d.Bbox[2], Y2: d.Bbox[3]}
		if !bbox.Valid() {
			log.Printf("trackreplay: frame %d: dropping detection with invalid bbox %s", rec.Frame, bbox)
			continue
		}
		detections = append(detections, ghosttrack.Detection{Bbox: bbox, Confidence: d.Confidence, ClassID: ghosttrack.ClassID(d.ClassID)})
		poses = append(poses, d.Pose)
	}

	finalIDs, decisions, err := tracker.Update(detections)
	if err != nil {
		return fmt.Errorf("frame %d: tracker update: %w", rec.Frame, err)
	}
	for _, d := range decisions {
		if err := outs.decisions.Encode(toDecisionLogEntry(d)); err != nil {
			return fmt.Errorf("write decision log: %w", err)
		}
	}
	for _, id := range tracker.RetiredIDs() {
		if poseClassifier != nil {
			poseClassifier.Forget(id)
		}
		if legacy, ok := classifier.(*activity.LegacyClassifier); ok {
			legacy.Forget(id)
		}
	}

	var tracked []zone.Tracked
	labels := make(map[ghosttrack.TrackId]activity.Label, len(finalIDs))
	for i, id := range finalIDs {
		if id == ghosttrack.SentinelTrackId {
			continue
		}
		tracked = append(tracked, zone.Tracked{ID: id, Bbox: detections[i].Bbox})
		if poseClassifier != nil && poses[i] != nil {
			poseClassifier.RecordPose(id, poses[i].toPose(), rec.TimestampSec)
		}
		labels[id] = classifier.Classify(id, detections[i].Bbox, rec.TimestampSec)
	}

	events := zoneEngine.Update(rec.Frame, rec.TimestampSec, tracked)
	for _, e := range events {
		entry := zoneEventEntry{
			TimestampSec: e.TimeSec,
			Frame:        e.Frame,
			PersonID:     e.PersonID,
			ZoneID:       e.ZoneID,
			Event:        e.Kind.String(),
		}
		if e.Kind == zone.EventExit {
			dwell := e.DwellSec
			entry.DurationSec = &dwell
		}
		if err := outs.zoneEvents.Encode(entry); err != nil {
			return fmt.Errorf("write zone event log: %w", err)
		}
	}

	memberships := zoneEngine.Memberships()
	for i, id := range finalIDs {
		if id == ghosttrack.SentinelTrackId {
			continue
		}
		for _, zoneID := range memberships[id] {
			entry := activityEntry{
				Frame:     rec.Frame,
				Timestamp: rec.TimestampSec,
				PersonID:  id,
				ZoneID:    zoneID,
				Activity:  string(labels[id]),
				Bbox:      bboxArray(detections[i].Bbox),
			}
			if err := outs.activity.Encode(entry); err != nil {
				return fmt.Errorf("write activity log: %w", err)
			}
		}
	}

	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
