package transit

import (
	"time"

	"github.com/antigravity/kraken-worker/internal/streetgraph"
)

// ProductionPeriod is the [Begin, End] date range over which validity
// patterns are indexed ("base.beginning_date ==
// production_date.begin()").
type ProductionPeriod struct {
	Begin time.Time
	End   time.Time
}

// Days returns the number of days spanned by the production period,
// inclusive.
func (p ProductionPeriod) Days() int {
	return int(p.End.Truncate(24*time.Hour).Sub(p.Begin.Truncate(24*time.Hour)).Hours()/24) + 1
}

// Dataset is the full read-only transit + street-network snapshot the
// worker queries against. It is built offline (or by
// internal/datasetload) and never mutated from the query path; the
// disruption engine is the sole writer, and only under DataManager's
// write lock
type Dataset struct {
	ProductionPeriod ProductionPeriod
	PublicationDate  time.Time

	StopPoints []StopPoint
	StopAreas  []StopArea
	Admins     []Admin

	Routes          []Route
	JourneyPatterns []JourneyPattern
	VehicleJourneys []VehicleJourney
	MetaVJs         []MetaVehicleJourney

	Calendars []Calendar
	TimeZone  *TimeZoneHandler

	// Transfers maps a stop point to the foot-transfers reachable from
	// it, including the implicit identity transfer handled separately
	// by the RAPTOR core
	Transfers map[StopPointID][]Transfer

	StreetGraph *streetgraph.Graph

	// StopPointVertex maps a stop point to its street-graph vertex, for
	// street-network access/egress
	StopPointVertex map[StopPointID]streetgraph.VertexID

	// URI indexes, built once by BuildIndexes, used by the disruption
	// engine and PTRef-shaped lookups to resolve the textual ids carried
	// on the wire (trip_id, stop_id, ...) into dataset indices.
	VJByURI        map[string]VehicleJourneyID
	StopPointByURI map[string]StopPointID
	MetaVJByVJ     map[VehicleJourneyID]MetaVehicleJourneyID
}

// BuildIndexes (re)computes the URI lookup maps. Call once after the
// dataset is fully populated (by internal/datasetload, or by tests that
// build a Dataset by hand).
func (d *Dataset) BuildIndexes() {
	d.VJByURI = make(map[string]VehicleJourneyID, len(d.VehicleJourneys))
	for _, vj := range d.VehicleJourneys {
		d.VJByURI[vj.URI] = vj.ID
	}
	d.StopPointByURI = make(map[string]StopPointID, len(d.StopPoints))
	for _, sp := range d.StopPoints {
		d.StopPointByURI[sp.URI] = sp.ID
	}
	d.MetaVJByVJ = make(map[VehicleJourneyID]MetaVehicleJourneyID, len(d.VehicleJourneys))
	for _, meta := range d.MetaVJs {
		d.MetaVJByVJ[meta.BaseVJ] = meta.ID
		for _, rt := range meta.Realtime {
			d.MetaVJByVJ[rt] = meta.ID
		}
	}
}

// Admin is a thin domain-local mirror of streetgraph.Admin, kept here so
// transit types (StopArea.Admins) don't need to import
// streetgraph just to spell the id out.
type Admin struct {
	ID   AdminID
	URI  string
	Name string
}

// Transfer is a foot-transfer between two stop points
type Transfer struct {
	To       StopPointID
	Duration time.Duration
}

// Route, JourneyPattern, VehicleJourney etc. are small index helpers kept
// next to Dataset so callers don't need slice indexing sprinkled
// everywhere. They do not check bounds: an out-of-range id panics.

func (d *Dataset) Route(id RouteID) *Route                       { return &d.Routes[id] }
func (d *Dataset) JourneyPattern(id JourneyPatternID) *JourneyPattern { return &d.JourneyPatterns[id] }
func (d *Dataset) VehicleJourney(id VehicleJourneyID) *VehicleJourney {
	return &d.VehicleJourneys[id]
}
func (d *Dataset) StopPoint(id StopPointID) *StopPoint { return &d.StopPoints[id] }
func (d *Dataset) StopArea(id StopAreaID) *StopArea    { return &d.StopAreas[id] }
func (d *Dataset) MetaVJ(id MetaVehicleJourneyID) *MetaVehicleJourney {
	return &d.MetaVJs[id]
}

// BaseVJCirculatingAt returns the base VJ of meta if it circulates at
// date d, per MetaVehicleJourney::base_vj_circulating_at_date.
func (d *Dataset) BaseVJCirculatingAt(meta MetaVehicleJourneyID, date time.Time) (VehicleJourneyID, bool) {
	m := d.MetaVJ(meta)
	base := d.VehicleJourney(m.BaseVJ)
	if base.Base != nil && base.Base.IsActive(date) {
		return m.BaseVJ, true
	}
	return 0, false
}

// CorrespondingBase returns the base VJ that a realtime VJ amends.
func (d *Dataset) CorrespondingBase(rt VehicleJourneyID) (VehicleJourneyID, bool) {
	vj := d.VehicleJourney(rt)
	if !vj.IsRealtime {
		return rt, true
	}
	return d.MetaVJ(vj.Meta).BaseVJ, true
}
