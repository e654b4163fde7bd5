package disruption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/kraken-worker/internal/transit"
)

func buildTestDataset(t *testing.T) (*transit.Dataset, time.Time) {
	t.Helper()
	begin := time.Date(2015, time.March, 1, 0, 0, 0, 0, time.UTC)
	numDays := 31

	base := transit.NewValidityPattern(begin, numDays)
	base.AddPeriod(begin, begin.AddDate(0, 0, numDays-1), [7]bool{true, true, true, true, true, true, true})
	rt := transit.NewValidityPattern(begin, numDays)
	rt.AddPeriod(begin, begin.AddDate(0, 0, numDays-1), [7]bool{true, true, true, true, true, true, true})

	sp1 := transit.StopPoint{ID: 0, URI: "stop:A"}
	sp2 := transit.StopPoint{ID: 1, URI: "stop:B"}

	vj := transit.VehicleJourney{
		ID:  0,
		URI: "vj1",
		StopTimes: []transit.StopTime{
			{StopPoint: 0, Arrival: 8 * 3600, Departure: 8 * 3600, PickupAllowed: true, DropOffAllowed: true},
			{StopPoint: 1, Arrival: 9 * 3600, Departure: 9 * 3600, PickupAllowed: true, DropOffAllowed: true},
		},
		Base:     base,
		Realtime: rt,
		Meta:     0,
	}

	meta := transit.MetaVehicleJourney{ID: 0, URI: "meta:vj1", BaseVJ: 0}

	pattern := transit.JourneyPattern{
		ID: 0,
		Points: []transit.JourneyPatternPoint{
			{Order: 0, StopPoint: 0, PickupAllowed: true, DropOffAllowed: true},
			{Order: 1, StopPoint: 1, PickupAllowed: true, DropOffAllowed: true},
		},
		VehicleJourneys: []transit.VehicleJourneyID{0},
	}

	ds := &transit.Dataset{
		ProductionPeriod: transit.ProductionPeriod{Begin: begin, End: begin.AddDate(0, 0, numDays-1)},
		StopPoints:       []transit.StopPoint{sp1, sp2},
		JourneyPatterns:  []transit.JourneyPattern{pattern},
		VehicleJourneys:  []transit.VehicleJourney{vj},
		MetaVJs:          []transit.MetaVehicleJourney{meta},
	}
	ds.BuildIndexes()
	return ds, begin
}

func TestApplyTripUpdateCancellationMasksRealtimeOnly(t *testing.T) {
	ds, begin := buildTestDataset(t)
	dm := transit.NewDataManager(ds)
	eng := NewEngine(dm, nil)

	target := begin.AddDate(0, 0, 13) // 2015-03-14

	tu := TripUpdate{
		ID: "disruption:1",
		Trip: Trip{
			TripID:               "vj1",
			StartDate:            transit.FormatUndelimitedDate(target),
			ScheduleRelationship: Canceled,
		},
	}
	require.NoError(t, eng.ApplyTripUpdate(tu))

	vj := dm.Acquire().VehicleJourney(0)
	assert.False(t, vj.CirculatesOn(target, transit.RTLevelRealTime))
	assert.True(t, vj.CirculatesOn(target, transit.RTLevelBase))
}

func TestApplyTripUpdateDelayRepairsMissingArrival(t *testing.T) {
	ds, begin := buildTestDataset(t)
	dm := transit.NewDataManager(ds)
	eng := NewEngine(dm, nil)

	target := begin.AddDate(0, 0, 13)
	dayStart := target.Unix()

	tu := TripUpdate{
		ID: "disruption:2",
		Trip: Trip{
			TripID:               "vj1",
			StartDate:            transit.FormatUndelimitedDate(target),
			ScheduleRelationship: Scheduled,
		},
		StopTimeUpdates: []StopTimeUpdate{
			{StopID: "stop:A", Arrival: TimeField{HasTime: true, Time: dayStart + 8*3600}, Departure: TimeField{HasTime: true, Time: dayStart + 8*3600}},
			{StopID: "stop:B", Arrival: TimeField{HasTime: false}, Departure: TimeField{HasTime: true, Time: dayStart + 9*3600 + 300}},
		},
	}
	require.NoError(t, eng.ApplyTripUpdate(tu))

	dataset := dm.Acquire()
	rtID, ok := dataset.VJByURI["vj1:realtime:"+transit.FormatUndelimitedDate(target)]
	require.True(t, ok)
	rtVJ := dataset.VehicleJourney(rtID)

	require.Len(t, rtVJ.StopTimes, 2)
	second := rtVJ.StopTimes[1]
	assert.Equal(t, second.Departure, second.Arrival)
	assert.False(t, second.DropOffAllowed)
	assert.True(t, second.PickupAllowed)
}

func TestApplyTripUpdateRejectsUnknownStop(t *testing.T) {
	ds, begin := buildTestDataset(t)
	dm := transit.NewDataManager(ds)
	eng := NewEngine(dm, nil)
	target := begin.AddDate(0, 0, 13)
	dayStart := target.Unix()

	tu := TripUpdate{
		ID: "disruption:3",
		Trip: Trip{
			TripID:               "vj1",
			StartDate:            transit.FormatUndelimitedDate(target),
			ScheduleRelationship: Scheduled,
		},
		StopTimeUpdates: []StopTimeUpdate{
			{StopID: "stop:unknown", Arrival: TimeField{HasTime: true, Time: dayStart + 8*3600}, Departure: TimeField{HasTime: true, Time: dayStart + 8*3600}},
		},
	}
	err := eng.ApplyTripUpdate(tu)
	assert.ErrorIs(t, err, ErrUnknownStop)
}

func TestApplyTripUpdateRejectsBackwardsTimes(t *testing.T) {
	ds, begin := buildTestDataset(t)
	dm := transit.NewDataManager(ds)
	eng := NewEngine(dm, nil)
	target := begin.AddDate(0, 0, 13)
	dayStart := target.Unix()

	tu := TripUpdate{
		ID: "disruption:4",
		Trip: Trip{
			TripID:               "vj1",
			StartDate:            transit.FormatUndelimitedDate(target),
			ScheduleRelationship: Scheduled,
		},
		StopTimeUpdates: []StopTimeUpdate{
			{StopID: "stop:A", Arrival: TimeField{HasTime: true, Time: dayStart + 9*3600}, Departure: TimeField{HasTime: true, Time: dayStart + 9*3600}},
			{StopID: "stop:B", Arrival: TimeField{HasTime: true, Time: dayStart + 8*3600}, Departure: TimeField{HasTime: true, Time: dayStart + 8*3600}},
		},
	}
	err := eng.ApplyTripUpdate(tu)
	assert.Error(t, err)
}

func TestHandleabilityGateRejectsTooEarlyTimes(t *testing.T) {
	begin := time.Date(2015, time.March, 14, 0, 0, 0, 0, time.UTC)
	tu := TripUpdate{
		Trip: Trip{
			TripID:               "vj1",
			StartDate:            transit.FormatUndelimitedDate(begin),
			ScheduleRelationship: Scheduled,
		},
		StopTimeUpdates: []StopTimeUpdate{
			{StopID: "stop:A", Arrival: TimeField{HasTime: true, Time: begin.Unix() - 10}},
		},
	}
	assert.False(t, handleable(tu))
}

func TestSeverityRegistryInterns(t *testing.T) {
	reg := NewSeverityRegistry()
	a := reg.Intern(Severity{ID: "sev:1", Wording: "trip canceled"})
	b := reg.Intern(Severity{ID: "sev:1", Wording: "something else, ignored"})
	assert.Same(t, a, b)
	assert.Equal(t, "trip canceled", b.Wording)
}
