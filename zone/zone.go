// Package zone maintains polygonal-region occupancy accounting: which
// tracked people are inside each configured zone, and the entry/exit/dwell
// events that occupancy change produces (§4.E).
package zone

import (
	"encoding/json"
	"fmt"

	"github.com/sentrycore/ghosttrack/internal/geometry"

	ghosttrack "github.com/sentrycore/ghosttrack"
)

// Polygon is a configured region, named for analytics output. Vertices are
// in the same coordinate space as tracked bboxes.
type Polygon struct {
	ID       int              `json:"zone_id"`
	Name     string           `json:"name"`
	Vertices []geometry.Point `json:"vertices"`
}

// polygonConfig mirrors the on-disk JSON shape; vertices are pairs rather
// than objects, matching the original zone-config format.
type polygonConfig struct {
	ID       int          `json:"zone_id"`
	Name     string       `json:"name"`
	Vertices [][2]float64 `json:"vertices"`
}

// LoadPolygons parses a zone-config JSON document (§6) into Polygons. It
// accepts either a list of objects with zone_id, name and vertices, or a
// bare list of polygons each given as [x, y] pairs, whose zone IDs are then
// their indices in the list.
func LoadPolygons(data []byte) ([]Polygon, error) {
	var raw []polygonConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		var bare [][][2]float64
		if bareErr := json.Unmarshal(data, &bare); bareErr != nil {
			return nil, fmt.Errorf("zone: parse config: %w", err)
		}
		raw = make([]polygonConfig, len(bare))
		for i, verts := range bare {
			raw[i] = polygonConfig{ID: i, Vertices: verts}
		}
	}
	polys := make([]Polygon, 0, len(raw))
	for idx, r := range raw {
		if len(r.Vertices) < 3 {
			return nil, &ghosttrack.ConfigError{Field: fmt.Sprintf("polygon %d (zone %d) vertices", idx, r.ID), Reason: "polygon needs at least 3 vertices"}
		}
		verts := make([]geometry.Point, len(r.Vertices))
		for i, v := range r.Vertices {
			verts[i] = geometry.Point{X: v[0], Y: v[1]}
		}
		polys = append(polys, Polygon{ID: r.ID, Name: r.Name, Vertices: verts})
	}
	return polys, nil
}

// EventKind distinguishes ENTRY from EXIT (§4.E).
type EventKind int

const (
	EventEntry EventKind = iota
	EventExit
)

func (k EventKind) String() string {
	if k == EventEntry {
		return "entry"
	}
	return "exit"
}

// Event is emitted whenever a person's presence in a zone changes.
type Event struct {
	Frame    int
	TimeSec  float64
	PersonID ghosttrack.TrackId
	ZoneID   int
	Kind     EventKind
	// DwellSec is populated only on EXIT events: the duration between the
	// matching ENTRY and this EXIT.
	DwellSec float64
}

type zoneState struct {
	poly            Polygon
	present         map[ghosttrack.TrackId]struct{}
	entryTime       map[ghosttrack.TrackId]float64
	cumulativeDwell map[ghosttrack.TrackId]float64
	totalEntries    int
	totalExits      int
}

// Engine tracks occupancy for a fixed set of zones across successive
// frames. Not safe for concurrent use; callers run one Engine per stream.
type Engine struct {
	zones   map[int]*zoneState
	order   []int
	current map[ghosttrack.TrackId][]int
}

// NewEngine constructs an Engine for the given zones.
func NewEngine(polygons []Polygon) *Engine {
	e := &Engine{zones: make(map[int]*zoneState, len(polygons))}
	for _, p := range polygons {
		e.zones[p.ID] = &zoneState{
			poly:            p,
			present:         make(map[ghosttrack.TrackId]struct{}),
			entryTime:       make(map[ghosttrack.TrackId]float64),
			cumulativeDwell: make(map[ghosttrack.TrackId]float64),
		}
		e.order = append(e.order, p.ID)
	}
	return e
}

// Tracked is one person's current position, as seen by the tracker.
type Tracked struct {
	ID   ghosttrack.TrackId
	Bbox ghosttrack.Bbox
}

// Update advances every zone by one frame given the current frame's
// tracked people, emitting ENTRY/EXIT events for whichever zones changed
// occupancy this frame (§4.E per-frame protocol). Calling Update twice
// with identical input produces no events the second time (idempotence).
func (e *Engine) Update(frame int, timeSec float64, tracked []Tracked) []Event {
	var events []Event
	current := make(map[ghosttrack.TrackId][]int)
	for _, zoneID := range e.order {
		zs := e.zones[zoneID]
		presentNow := make(map[ghosttrack.TrackId]struct{})
		for _, tr := range tracked {
			cx, cy := tr.Bbox.Center()
			if geometry.PointInPolygon(zs.poly.Vertices, geometry.Point{X: cx, Y: cy}) {
				presentNow[tr.ID] = struct{}{}
			}
		}

		for id := range presentNow {
			if _, wasPresent := zs.present[id]; wasPresent {
				continue
			}
			zs.entryTime[id] = timeSec
			zs.totalEntries++
			events = append(events, Event{Frame: frame, TimeSec: timeSec, PersonID: id, ZoneID: zoneID, Kind: EventEntry})
		}

		for id := range zs.present {
			if _, stillPresent := presentNow[id]; stillPresent {
				continue
			}
			dwell := timeSec - zs.entryTime[id]
			zs.cumulativeDwell[id] += dwell
			zs.totalExits++
			events = append(events, Event{Frame: frame, TimeSec: timeSec, PersonID: id, ZoneID: zoneID, Kind: EventExit, DwellSec: dwell})
			delete(zs.entryTime, id)
		}

		zs.present = presentNow
		for id := range presentNow {
			current[id] = append(current[id], zoneID)
		}
	}
	e.current = current
	return events
}

// Memberships returns the zone IDs each tracked person was inside as of
// the most recent Update call, keyed by TrackId. A person absent from
// every zone has no entry.
func (e *Engine) Memberships() map[ghosttrack.TrackId][]int {
	return e.current
}

// Summary is the per-zone analytics snapshot (§6).
type Summary struct {
	ZoneID            int                            `json:"zone_id"`
	Name              string                         `json:"name"`
	CurrentOccupancy  int                            `json:"current_occupancy"`
	CurrentPeople     []ghosttrack.TrackId           `json:"current_people"`
	TotalEntries      int                            `json:"total_entries"`
	TotalExits        int                            `json:"total_exits"`
	AverageDuration   float64                        `json:"average_duration"`
	DurationsByPerson map[ghosttrack.TrackId]float64 `json:"durations_by_person"`
}

// Summaries returns the current analytics snapshot for every zone, in the
// order the zones were configured.
func (e *Engine) Summaries() []Summary {
	out := make([]Summary, 0, len(e.order))
	for _, zoneID := range e.order {
		zs := e.zones[zoneID]
		out = append(out, zs.summary(zoneID))
	}
	return out
}

func (zs *zoneState) summary(zoneID int) Summary {
	people := make([]ghosttrack.TrackId, 0, len(zs.present))
	for id := range zs.present {
		people = append(people, id)
	}
	dwell := make(map[ghosttrack.TrackId]float64, len(zs.cumulativeDwell))
	var total float64
	for id, d := range zs.cumulativeDwell {
		dwell[id] = d
		total += d
	}
	// Mean is over distinct persons who have dwelled in this zone, not
	// over the number of completed visits, matching zone_tracker.py's
	// get_zone_analytics: np.mean(list(zone_durations[zone_id].values())).
	var avg float64
	if len(dwell) > 0 {
		avg = total / float64(len(dwell))
	}
	return Summary{
		ZoneID:            zoneID,
		Name:              zs.poly.Name,
		CurrentOccupancy:  len(zs.present),
		CurrentPeople:     people,
		TotalEntries:      zs.totalEntries,
		TotalExits:        zs.totalExits,
		AverageDuration:   avg,
		DurationsByPerson: dwell,
	}
}

// ReplayEvents reconstructs the final per-zone Summary from a previously
// recorded Event log, without needing the original per-frame tracked
// positions. Used to satisfy the §6 round-trip requirement: a written
// ZoneEvent log, re-read and replayed, reconstructs the same zone summary
// the live Engine would have produced.
func ReplayEvents(polygons []Polygon, events []Event) []Summary {
	e := NewEngine(polygons)
	for _, ev := range events {
		zs, ok := e.zones[ev.ZoneID]
		if !ok {
			continue
		}
		switch ev.Kind {
		case EventEntry:
			zs.present[ev.PersonID] = struct{}{}
			zs.entryTime[ev.PersonID] = ev.TimeSec
			zs.totalEntries++
		case EventExit:
			delete(zs.present, ev.PersonID)
			delete(zs.entryTime, ev.PersonID)
			zs.cumulativeDwell[ev.PersonID] += ev.DwellSec
			zs.totalExits++
		}
	}
	return e.Summaries()
}
