package raptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// buildLineNetwork builds a tiny network used across several tests:
// stop A(0) - B(1) - C(2), one route/pattern, one VJ departing A at
// 08:00, B at 08:10, C at 08:20. wheelchair controls the VJ's
// accessibility flag.
func buildLineNetwork(t *testing.T, wheelchair bool) (*transit.Dataset, time.Time) {
	t.Helper()
	begin := time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC)
	numDays := 7

	full := transit.NewValidityPattern(begin, numDays)
	full.AddPeriod(begin, begin.AddDate(0, 0, numDays-1), [7]bool{true, true, true, true, true, true, true})

	stops := []transit.StopPoint{
		{ID: 0, URI: "stop:A"},
		{ID: 1, URI: "stop:B"},
		{ID: 2, URI: "stop:C"},
	}

	pattern := transit.JourneyPattern{
		ID:    0,
		Route: 0,
		Points: []transit.JourneyPatternPoint{
			{Order: 0, StopPoint: 0, PickupAllowed: true, DropOffAllowed: false},
			{Order: 1, StopPoint: 1, PickupAllowed: true, DropOffAllowed: true},
			{Order: 2, StopPoint: 2, PickupAllowed: false, DropOffAllowed: true},
		},
		VehicleJourneys: []transit.VehicleJourneyID{0},
	}

	vj := transit.VehicleJourney{
		ID:             0,
		URI:            "vj1",
		JourneyPattern: 0,
		Wheelchair:     wheelchair,
		StopTimes: []transit.StopTime{
			{JourneyPatternPoint: 0, StopPoint: 0, Arrival: 8 * 3600, Departure: 8 * 3600, PickupAllowed: true},
			{JourneyPatternPoint: 1, StopPoint: 1, Arrival: 8*3600 + 600, Departure: 8*3600 + 600, PickupAllowed: true, DropOffAllowed: true},
			{JourneyPatternPoint: 2, StopPoint: 2, Arrival: 8*3600 + 1200, Departure: 8*3600 + 1200, DropOffAllowed: true},
		},
		Base:     full,
		Realtime: full,
	}

	for i := range stops {
		stops[i].JourneyPatternPoints = append(stops[i].JourneyPatternPoints, transit.JourneyPatternPointRef{Pattern: 0, Order: i})
	}

	route := transit.Route{ID: 0, URI: "route:1", Line: transit.LineInfo{URI: "line:1", Mode: "bus"}, JourneyPatterns: []transit.JourneyPatternID{0}}

	ds := &transit.Dataset{
		ProductionPeriod: transit.ProductionPeriod{Begin: begin, End: begin.AddDate(0, 0, numDays-1)},
		StopPoints:       stops,
		Routes:           []transit.Route{route},
		JourneyPatterns:  []transit.JourneyPattern{pattern},
		VehicleJourneys:  []transit.VehicleJourney{vj},
		MetaVJs:          []transit.MetaVehicleJourney{{ID: 0, URI: "meta:vj1", BaseVJ: 0}},
		Transfers:        map[transit.StopPointID][]transit.Transfer{},
	}
	ds.BuildIndexes()
	return ds, begin
}

func TestSearchFindsDirectJourney(t *testing.T) {
	ds, begin := buildLineNetwork(t, true)
	in := Input{
		Dataset:      ds,
		Departures:   map[transit.StopPointID]time.Duration{0: 0},
		Arrivals:     map[transit.StopPointID]time.Duration{2: 0},
		InitDT:       begin.Add(7*time.Hour + 55*time.Minute),
		Clockwise:    true,
		MaxTransfers: 2,
	}
	res := Search(in)
	require.NotEmpty(t, res.Journeys)

	j := res.Journeys[0]
	assert.Equal(t, 0, j.Rounds)
	require.Len(t, j.Legs, 1)
	assert.Equal(t, LegTransit, j.Legs[0].Kind)
	assert.Equal(t, transit.StopPointID(0), j.Legs[0].From)
	assert.Equal(t, transit.StopPointID(2), j.Legs[0].To)
}

func TestSearchWheelchairFiltersInaccessibleVJ(t *testing.T) {
	ds, begin := buildLineNetwork(t, false) // VJ is NOT wheelchair-accessible

	in := Input{
		Dataset:       ds,
		Departures:    map[transit.StopPointID]time.Duration{0: 0},
		Arrivals:      map[transit.StopPointID]time.Duration{2: 0},
		InitDT:        begin.Add(7*time.Hour + 55*time.Minute),
		Clockwise:     true,
		MaxTransfers:  2,
		Accessibility: AccessibilityParams{Wheelchair: true},
	}
	res := Search(in)
	assert.Empty(t, res.Journeys, "a wheelchair request must not board an inaccessible vehicle journey")
}

func TestSearchForbiddenLineExcludesRoute(t *testing.T) {
	ds, begin := buildLineNetwork(t, true)

	in := Input{
		Dataset:      ds,
		Departures:   map[transit.StopPointID]time.Duration{0: 0},
		Arrivals:     map[transit.StopPointID]time.Duration{2: 0},
		InitDT:       begin.Add(7*time.Hour + 55*time.Minute),
		Clockwise:    true,
		MaxTransfers: 2,
		Forbidden:    map[string]bool{"line:1": true},
	}
	res := Search(in)
	assert.Empty(t, res.Journeys)
}

func TestSearchMonotonicityInMaxTransfers(t *testing.T) {
	ds, begin := buildLineNetwork(t, true)

	var prevArrival DateTime
	havePrev := false
	for _, maxTransfers := range []int{0, 1, 2, 5} {
		in := Input{
			Dataset:      ds,
			Departures:   map[transit.StopPointID]time.Duration{0: 0},
			Arrivals:     map[transit.StopPointID]time.Duration{2: 0},
			InitDT:       begin.Add(7*time.Hour + 55*time.Minute),
			Clockwise:    true,
			MaxTransfers: maxTransfers,
		}
		res := Search(in)
		require.NotEmpty(t, res.Journeys)
		arrival := res.Journeys[0].Arrival
		for _, j := range res.Journeys[1:] {
			if j.Arrival < arrival {
				arrival = j.Arrival
			}
		}
		if havePrev {
			assert.LessOrEqual(t, int64(arrival), int64(prevArrival),
				"allowing more transfers must never worsen the best arrival")
		}
		prevArrival = arrival
		havePrev = true
	}
}

func TestSearchDirectPathPruningRejectsSlowerTransitJourney(t *testing.T) {
	ds, begin := buildLineNetwork(t, true)

	tight := 5 * time.Minute
	in := Input{
		Dataset:            ds,
		Departures:         map[transit.StopPointID]time.Duration{0: 0},
		Arrivals:           map[transit.StopPointID]time.Duration{2: 0},
		InitDT:             begin.Add(7*time.Hour + 55*time.Minute),
		Clockwise:          true,
		MaxTransfers:       2,
		DirectPathDuration: &tight,
	}
	res := Search(in)
	assert.Empty(t, res.Journeys, "a journey slower than the direct path bound must be pruned")
}
