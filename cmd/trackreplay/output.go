package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sentrycore/ghosttrack/zone"
)

// outputFiles owns the three streaming JSONL logs plus the final zone
// summary document, all derived from the -out prefix (§6 Analytics outputs).
type outputFiles struct {
	decisionsFile  *os.File
	zoneEventsFile *os.File
	activityFile   *os.File
	summaryPath    string

	decisions  *json.Encoder
	zoneEvents *json.Encoder
	activity   *json.Encoder
}

func newOutputFiles(prefix string) (*outputFiles, error) {
	decisionsFile, err := os.Create(prefix + ".decisions.jsonl")
	if err != nil {
		return nil, fmt.Errorf("create decision log: %w", err)
	}
	zoneEventsFile, err := os.Create(prefix + ".zone_events.jsonl")
	if err != nil {
		decisionsFile.Close()
		return nil, fmt.Errorf("create zone event log: %w", err)
	}
	activityFile, err := os.Create(prefix + ".activity.jsonl")
	if err != nil {
		decisionsFile.Close()
		zoneEventsFile.Close()
		return nil, fmt.Errorf("create activity log: %w", err)
	}

	return &outputFiles{
		decisionsFile:  decisionsFile,
		zoneEventsFile: zoneEventsFile,
		activityFile:   activityFile,
		summaryPath:    prefix + ".zone_summary.json",
		decisions:      json.NewEncoder(decisionsFile),
		zoneEvents:     json.NewEncoder(zoneEventsFile),
		activity:       json.NewEncoder(activityFile),
	}, nil
}

// WriteZoneSummary writes the final per-zone snapshot as a single JSON
// document, produced once at the end of the replay rather than streamed.
func (o *outputFiles) WriteZoneSummary(summaries []zone.Summary) error {
	f, err := os.Create(o.summaryPath)
	if err != nil {
		return fmt.Errorf("create zone summary: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}

func (o *outputFiles) Close() {
	o.decisionsFile.Close()
	o.zoneEventsFile.Close()
	o.activityFile.Close()
}
