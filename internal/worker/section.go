package worker

import (
	"time"

	"github.com/twpayne/go-geom"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// SectionType enumerates a journey leg's kind. This generalizes the
// plain "leg" (Type/FromStop/ToStop/Geometry) the round-based search
// alone would produce into the richer section lattice a full
// trip-planner response needs, grounded on the Navitia client's
// Section/SectionType vocabulary.
type SectionType int

const (
	SectionPublicTransport SectionType = iota
	SectionStreetNetwork
	SectionWaiting
	SectionStayIn
	SectionTransfer
	SectionCrowFly
	SectionOnDemandTransport
	SectionBssRent
	SectionBssPutBack
)

func (s SectionType) String() string {
	switch s {
	case SectionPublicTransport:
		return "public_transport"
	case SectionStreetNetwork:
		return "street_network"
	case SectionWaiting:
		return "waiting"
	case SectionStayIn:
		return "stay_in"
	case SectionTransfer:
		return "transfer"
	case SectionCrowFly:
		return "crow_fly"
	case SectionOnDemandTransport:
		return "on_demand_transport"
	case SectionBssRent:
		return "bss_rent"
	case SectionBssPutBack:
		return "bss_put_back"
	default:
		return "unknown"
	}
}

// Section is one typed leg of a finalized Journey.
type Section struct {
	Type SectionType

	FromStop, ToStop transit.StopPointID
	HasStops         bool

	Departure time.Time
	Arrival   time.Time

	VehicleJourney transit.VehicleJourneyID
	HasVJ          bool

	Geometry *geom.LineString
}

func (s Section) Duration() time.Duration { return s.Arrival.Sub(s.Departure) }

// Flatten renders Geometry as the [lon,lat] pairs the wire protocol's
// GeoJSON-shaped Section.Geometry field expects. Returns nil if no
// geometry was set.
func (s Section) Flatten() [][2]float64 {
	if s.Geometry == nil {
		return nil
	}
	flat := s.Geometry.FlatCoords()
	out := make([][2]float64, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, [2]float64{flat[i], flat[i+1]})
	}
	return out
}

// PTMethod classifies how a journey-pattern-point resolves to boardable
// stop points: a regular scheduled stop, one with an estimated time, or
// one of the on-demand-transport variants.
type PTMethod int

const (
	PTMethodRegular PTMethod = iota
	PTMethodHadDateTimeEstimated
	PTMethodODTWithStopTime
	PTMethodODTWithStopPoint
	PTMethodODTWithZone
)

// ClassifyPTMethod derives a PTMethod from a stop time's date/ODT bits,
// matching the `pt_display_informations` method vocabulary.
func ClassifyPTMethod(st transit.StopTime) PTMethod {
	switch {
	case st.ODT && st.DateTimeEstimated:
		return PTMethodODTWithStopTime
	case st.ODT:
		return PTMethodODTWithStopPoint
	case st.DateTimeEstimated:
		return PTMethodHadDateTimeEstimated
	default:
		return PTMethodRegular
	}
}

func (m PTMethod) String() string {
	switch m {
	case PTMethodHadDateTimeEstimated:
		return "had_date_time_estimated"
	case PTMethodODTWithStopTime:
		return "odt_with_stop_time"
	case PTMethodODTWithStopPoint:
		return "odt_with_stop_point"
	case PTMethodODTWithZone:
		return "odt_with_zone"
	default:
		return "regular"
	}
}
