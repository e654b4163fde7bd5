package stopschedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// buildPartialTerminusDataset builds stop area network A, B, C with
// route "routeA" having two vehicle journeys: vj1 (A->B) and vj2
// (A->B->C), matching scenario 2.
func buildPartialTerminusDataset(t *testing.T) *transit.Dataset {
	t.Helper()
	begin := time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)
	full := transit.NewValidityPattern(begin, 7)
	full.AddPeriod(begin, begin.AddDate(0, 0, 6), [7]bool{true, true, true, true, true, true, true})

	areas := []transit.StopArea{
		{ID: 0, URI: "area:A", StopPoints: []transit.StopPointID{0}},
		{ID: 1, URI: "area:B", StopPoints: []transit.StopPointID{1}},
		{ID: 2, URI: "area:C", StopPoints: []transit.StopPointID{2}},
	}
	stops := []transit.StopPoint{
		{ID: 0, URI: "stop:A", StopArea: 0},
		{ID: 1, URI: "stop:B", StopArea: 1},
		{ID: 2, URI: "stop:C", StopArea: 2},
	}

	patAB := transit.JourneyPattern{
		ID:    0,
		Route: 0,
		Points: []transit.JourneyPatternPoint{
			{Order: 0, StopPoint: 0, PickupAllowed: true},
			{Order: 1, StopPoint: 1, DropOffAllowed: true},
		},
		VehicleJourneys: []transit.VehicleJourneyID{0},
	}
	patABC := transit.JourneyPattern{
		ID:    1,
		Route: 0,
		Points: []transit.JourneyPatternPoint{
			{Order: 0, StopPoint: 0, PickupAllowed: true},
			{Order: 1, StopPoint: 1, PickupAllowed: true, DropOffAllowed: true},
			{Order: 2, StopPoint: 2, DropOffAllowed: true},
		},
		VehicleJourneys: []transit.VehicleJourneyID{1},
	}

	vj1 := transit.VehicleJourney{
		ID: 0, URI: "vj1", JourneyPattern: 0,
		StopTimes: []transit.StopTime{
			{Arrival: 8 * 3600, Departure: 8 * 3600},
			{Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
		},
		Base: full, Realtime: full,
	}
	vj2 := transit.VehicleJourney{
		ID: 1, URI: "vj2", JourneyPattern: 1,
		StopTimes: []transit.StopTime{
			{Arrival: 9 * 3600, Departure: 9 * 3600},
			{Arrival: 9*3600 + 600, Departure: 9*3600 + 600},
			{Arrival: 9*3600 + 1200, Departure: 9*3600 + 1200},
		},
		Base: full, Realtime: full,
	}

	stops[0].JourneyPatternPoints = []transit.JourneyPatternPointRef{{Pattern: 0, Order: 0}, {Pattern: 1, Order: 0}}
	stops[1].JourneyPatternPoints = []transit.JourneyPatternPointRef{{Pattern: 0, Order: 1}, {Pattern: 1, Order: 1}}
	stops[2].JourneyPatternPoints = []transit.JourneyPatternPointRef{{Pattern: 1, Order: 2}}

	route := transit.Route{ID: 0, URI: "route:A", Destination: 2}

	ds := &transit.Dataset{
		ProductionPeriod: transit.ProductionPeriod{Begin: begin, End: begin.AddDate(0, 0, 6)},
		StopAreas:        areas,
		StopPoints:       stops,
		Routes:           []transit.Route{route},
		JourneyPatterns:  []transit.JourneyPattern{patAB, patABC},
		VehicleJourneys:  []transit.VehicleJourney{vj1, vj2},
	}
	ds.BuildIndexes()
	return ds
}

func TestBoardClassifiesPartialTerminusAndTerminus(t *testing.T) {
	ds := buildPartialTerminusDataset(t)
	begin := ds.ProductionPeriod.Begin

	groupsAtB := Board(Request{
		Dataset:    ds,
		RTLevel:    transit.RTLevelBase,
		StopPoints: []transit.StopPointID{1},
		From:       begin.Add(7 * time.Hour),
		Duration:   3 * time.Hour,
	})
	require.Len(t, groupsAtB, 1)
	assert.Equal(t, StatusPartialTerminus, groupsAtB[0].Status)

	groupsAtC := Board(Request{
		Dataset:    ds,
		RTLevel:    transit.RTLevelBase,
		StopPoints: []transit.StopPointID{2},
		From:       begin.Add(7 * time.Hour),
		Duration:   3 * time.Hour,
	})
	require.Len(t, groupsAtC, 1)
	assert.Equal(t, StatusTerminus, groupsAtC[0].Status)
}

func TestBoardNoDepartureThisDayOutsideValidity(t *testing.T) {
	ds := buildPartialTerminusDataset(t)
	begin := ds.ProductionPeriod.Begin

	farFuture := begin.AddDate(0, 1, 0)
	groups := Board(Request{
		Dataset:    ds,
		RTLevel:    transit.RTLevelBase,
		StopPoints: []transit.StopPointID{0},
		From:       farFuture.Add(7 * time.Hour),
		Duration:   3 * time.Hour,
	})
	require.NotEmpty(t, groups)
	for _, g := range groups {
		assert.Equal(t, StatusNoDepartureThisDay, g.Status)
		assert.Empty(t, g.Departures)
	}
}

func TestBoardCalendarModeWrapsToNextDay(t *testing.T) {
	begin := time.Date(2016, time.January, 4, 0, 0, 0, 0, time.UTC) // Monday
	full := transit.NewValidityPattern(begin, 7)
	full.AddPeriod(begin, begin.AddDate(0, 0, 4), [7]bool{false, true, true, true, true, true, false}) // Mon-Fri

	stops := []transit.StopPoint{{ID: 0, URI: "stop:A"}, {ID: 1, URI: "stop:B"}}
	pattern := transit.JourneyPattern{
		ID: 0, Route: 0,
		Points: []transit.JourneyPatternPoint{
			{Order: 0, StopPoint: 0, PickupAllowed: true},
			{Order: 1, StopPoint: 1, DropOffAllowed: true},
		},
		VehicleJourneys: []transit.VehicleJourneyID{0},
	}
	stops[0].JourneyPatternPoints = []transit.JourneyPatternPointRef{{Pattern: 0, Order: 0}}
	stops[1].JourneyPatternPoints = []transit.JourneyPatternPointRef{{Pattern: 0, Order: 1}}

	vj := transit.VehicleJourney{
		ID: 0, URI: "vj:freq", JourneyPattern: 0,
		StopTimes: []transit.StopTime{
			{Arrival: 10 * 60, Departure: 10 * 60},
			{Arrival: 20 * 60, Departure: 20 * 60},
		},
		Base: full, Realtime: full,
	}
	route := transit.Route{ID: 0, URI: "route:freq", Destination: 0}

	ds := &transit.Dataset{
		ProductionPeriod: transit.ProductionPeriod{Begin: begin, End: begin.AddDate(0, 0, 6)},
		StopAreas:        []transit.StopArea{{ID: 0}},
		StopPoints:       stops,
		Routes:           []transit.Route{route},
		JourneyPatterns:  []transit.JourneyPattern{pattern},
		VehicleJourneys:  []transit.VehicleJourney{vj},
	}
	ds.BuildIndexes()

	groups := Board(Request{
		Dataset:      ds,
		RTLevel:      transit.RTLevelBase,
		StopPoints:   []transit.StopPointID{0},
		From:         begin.Add(8 * time.Hour),
		MaxDateTimes: 1,
	})
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Departures, 1)
	assert.True(t, groups[0].Departures[0].At.Hour() >= 8 || groups[0].Departures[0].At.Before(begin.Add(8*time.Hour)))
}
