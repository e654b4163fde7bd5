package disruption

import (
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// Errors returned by Engine.ApplyTripUpdate. Per these are
// "Realtime" kind errors: the disruption is rejected whole and the
// previous state is preserved.
var (
	ErrUnhandleable  = errors.New("disruption: trip update is not handleable")
	ErrInvalidTimes  = errors.New("disruption: stop times are not monotonic")
	ErrUnknownStop   = errors.New("disruption: unknown stop point")
	ErrUnknownTrip   = errors.New("disruption: unknown trip")
)

// Engine ingests trip updates and materializes them into the dataset's
// realtime overlay
type Engine struct {
	DM         *transit.DataManager
	Severities *SeverityRegistry
	Logger     *log.Logger

	byID map[string]*Disruption // disruption id -> live disruption, for CANCELED-then-delete semantics
}

// NewEngine builds an Engine over dm, logging rejected disruptions to
// logger.
func NewEngine(dm *transit.DataManager, logger *log.Logger) *Engine {
	return &Engine{
		DM:         dm,
		Severities: NewSeverityRegistry(),
		Logger:     logger,
		byID:       make(map[string]*Disruption),
	}
}

// startOfDay returns the UTC midnight instant for an undelimited
// YYYYMMDD date string.
func startOfDay(startDate string) (time.Time, error) {
	return transit.ParseUndelimitedDate(startDate)
}

// handleable implements "Handleability gate": accept CANCELED
// unconditionally; accept SCHEDULED only if it carries at least one
// stop-time update, all of whose arrival/departure times that are
// present are >= the start of the service day.
func handleable(tu TripUpdate) bool {
	if tu.Trip.ScheduleRelationship == Canceled {
		return true
	}
	if tu.Trip.ScheduleRelationship != Scheduled || len(tu.StopTimeUpdates) == 0 {
		return false
	}
	day, err := startOfDay(tu.Trip.StartDate)
	if err != nil {
		return false
	}
	dayStart := day.Unix()
	for _, stu := range tu.StopTimeUpdates {
		if stu.Arrival.HasTime && stu.Arrival.Time < dayStart {
			return false
		}
		if stu.Departure.HasTime && stu.Departure.Time < dayStart {
			return false
		}
	}
	return true
}

// validateOrdering implements "Validity check": stop times
// must not regress departure->arrival between consecutive stops, nor
// have arrival > departure at any one stop.
func validateOrdering(stus []StopTimeUpdate, dayStart int64) error {
	var prevDeparture int64
	havePrev := false
	for _, stu := range stus {
		arr := stu.Arrival.Time
		dep := stu.Departure.Time
		if stu.Arrival.HasTime && stu.Departure.HasTime && arr > dep {
			return errors.WithStack(ErrInvalidTimes)
		}
		if stu.Arrival.HasTime && havePrev && arr < prevDeparture {
			return errors.WithStack(ErrInvalidTimes)
		}
		if stu.Departure.HasTime {
			prevDeparture = dep
			havePrev = true
		}
	}
	return nil
}

// ApplyTripUpdate runs the full pipeline of against tu:
// handleability, validation, materialization and apply. On any rejection
// the previous dataset state is left untouched and a descriptive error
// is returned; validation and materialization rejections are also
// logged.
func (e *Engine) ApplyTripUpdate(tu TripUpdate) error {
	if !handleable(tu) {
		return errors.WithStack(ErrUnhandleable)
	}

	if tu.Trip.ScheduleRelationship == Scheduled {
		day, err := startOfDay(tu.Trip.StartDate)
		if err != nil {
			return errors.Wrap(err, "disruption: bad start_date")
		}
		if err := validateOrdering(tu.StopTimeUpdates, day.Unix()); err != nil {
			e.logf("rejecting trip update %s: %v", tu.ID, err)
			return err
		}
	}

	dataset := e.DM.Acquire()
	baseVJID, ok := dataset.VJByURI[tu.Trip.TripID]
	if !ok {
		return errors.WithStack(ErrUnknownTrip)
	}

	day, err := startOfDay(tu.Trip.StartDate)
	if err != nil {
		return errors.Wrap(err, "disruption: bad start_date")
	}

	var d *Disruption
	switch tu.Trip.ScheduleRelationship {
	case Canceled:
		d, err = e.materializeCancellation(dataset, tu, baseVJID, day)
	case Scheduled:
		d, err = e.materializeDelay(dataset, tu, baseVJID, day)
	default:
		return errors.WithStack(ErrUnhandleable)
	}
	if err != nil {
		e.logf("rejecting trip update %s: %v", tu.ID, err)
		return err
	}

	return e.apply(tu, baseVJID, day, d)
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// materializeCancellation implements CANCELED materialization.
func (e *Engine) materializeCancellation(dataset *transit.Dataset, tu TripUpdate, baseVJID transit.VehicleJourneyID, day time.Time) (*Disruption, error) {
	meta := dataset.MetaVJByVJ[baseVJID]
	baseVJ := dataset.VehicleJourney(baseVJID)

	var start, end time.Time
	if _, circulates := dataset.BaseVJCirculatingAt(meta, day); circulates {
		startS, endS := baseVJ.ExecutionPeriod(day.Unix())
		start = time.Unix(startS, 0).UTC()
		end = time.Unix(endS, 0).UTC()
	} else {
		start, end = day, day
	}

	sev := e.Severities.Intern(Severity{ID: "severity:trip_canceled", Wording: "trip canceled", Effect: EffectNoService})
	return &Disruption{
		URI: tu.ID,
		Impacts: []Impact{{
			ApplicationPeriods: []ApplicationPeriod{{Start: start, End: end}},
			InformedEntities:   []InformedEntity{{Kind: "trip", URI: tu.Trip.TripID}},
			Severity:           sev,
		}},
	}, nil
}

// materializeDelay implements SCHEDULED materialization,
// including the "repair missing fields" rule.
func (e *Engine) materializeDelay(dataset *transit.Dataset, tu TripUpdate, baseVJID transit.VehicleJourneyID, day time.Time) (*Disruption, error) {
	dayStart := day.Unix()

	amended := make([]AmendedStopTime, 0, len(tu.StopTimeUpdates))
	for _, stu := range tu.StopTimeUpdates {
		if _, ok := dataset.StopPointByURI[stu.StopID]; !ok {
			return nil, errors.Wrapf(ErrUnknownStop, "stop %q", stu.StopID)
		}

		arrival := stu.Arrival
		departure := stu.Departure

		arrivalTime := int(arrival.Time - dayStart)
		departureTime := int(departure.Time - dayStart)

		if (!arrival.HasTime || arrivalTime == 0) && departure.HasTime {
			arrivalTime = departureTime
		} else if (!departure.HasTime || departureTime == 0) && arrival.HasTime {
			departureTime = arrivalTime
		}

		amended = append(amended, AmendedStopTime{
			StopPointURI:   stu.StopID,
			Arrival:        arrivalTime,
			Departure:      departureTime,
			PickupAllowed:  departure.HasTime,
			DropOffAllowed: arrival.HasTime,
		})
	}

	sev := e.Severities.Intern(Severity{ID: "severity:trip_delayed", Wording: "trip delayed", Effect: EffectSignificantDelays})
	return &Disruption{
		URI: tu.ID,
		Impacts: []Impact{{
			InformedEntities: []InformedEntity{{Kind: "trip", URI: tu.Trip.TripID}},
			Severity:         sev,
			AmendedStopTimes: amended,
		}},
	}, nil
}

// apply implements "Apply" step: re-validate the assembled
// disruption, then mutate the dataset under the DataManager's write
// lock.
func (e *Engine) apply(tu TripUpdate, baseVJID transit.VehicleJourneyID, day time.Time, d *Disruption) error {
	impact := d.Impacts[0]

	if len(impact.AmendedStopTimes) > 0 {
		if err := validateAmendedStopTimes(impact.AmendedStopTimes); err != nil {
			e.logf("not applying disruption %s: %v", d.URI, err)
			return err
		}
	}

	d.BaseVJURI = tu.Trip.TripID
	d.ServiceDay = day

	var applyErr error
	e.DM.WithWriteLock(func(dataset *transit.Dataset) {
		if existing, ok := e.byID[d.URI]; ok {
			undoDisruption(dataset, existing)
		}

		baseVJ := dataset.VehicleJourney(baseVJID)
		if baseVJ.Realtime == nil {
			applyErr = errors.New("disruption: base vj has no realtime validity pattern")
			return
		}

		switch tu.Trip.ScheduleRelationship {
		case Canceled:
			baseVJ.Realtime.Set(day, false)
		case Scheduled:
			baseVJ.Realtime.Set(day, false)

			rtVJ := transit.VehicleJourney{
				ID:             transit.VehicleJourneyID(len(dataset.VehicleJourneys)),
				URI:            fmt.Sprintf("%s:realtime:%s", baseVJ.URI, transit.FormatUndelimitedDate(day)),
				JourneyPattern: baseVJ.JourneyPattern,
				Meta:           dataset.MetaVJByVJ[baseVJID],
				IsRealtime:     true,
				Wheelchair:     baseVJ.Wheelchair,
				Base:           baseVJ.Base,
			}
			rtVJ.Realtime = transit.NewValidityPattern(baseVJ.Realtime.BeginningDate, dataset.ProductionPeriod.Days())
			rtVJ.Realtime.Set(day, true)

			rtVJ.StopTimes = make([]transit.StopTime, 0, len(impact.AmendedStopTimes))
			for i, ast := range impact.AmendedStopTimes {
				spID := dataset.StopPointByURI[ast.StopPointURI]
				rtVJ.StopTimes = append(rtVJ.StopTimes, transit.StopTime{
					JourneyPatternPoint: i,
					StopPoint:           spID,
					Arrival:             ast.Arrival,
					Departure:           ast.Departure,
					PickupAllowed:       ast.PickupAllowed,
					DropOffAllowed:      ast.DropOffAllowed,
				})
			}

			dataset.VehicleJourneys = append(dataset.VehicleJourneys, rtVJ)
			dataset.VJByURI[rtVJ.URI] = rtVJ.ID
			dataset.MetaVJByVJ[rtVJ.ID] = rtVJ.Meta

			pattern := dataset.JourneyPattern(baseVJ.JourneyPattern)
			pattern.VehicleJourneys = append(pattern.VehicleJourneys, rtVJ.ID)

			meta := dataset.MetaVJ(rtVJ.Meta)
			meta.Realtime = append(meta.Realtime, rtVJ.ID)

			d.RealtimeVJURI = rtVJ.URI
		}

		e.byID[d.URI] = d
	})

	return applyErr
}

// undoDisruption retracts a previously applied disruption with the same
// id before its replacement is applied: re-enables the base VJ's
// realtime circulation on the amended day and masks out any synthetic
// realtime VJ created for the amendment, since vehicle journeys are
// append-only and never removed from the dataset in place.
func undoDisruption(dataset *transit.Dataset, prev *Disruption) {
	if baseVJID, ok := dataset.VJByURI[prev.BaseVJURI]; ok {
		baseVJ := dataset.VehicleJourney(baseVJID)
		if baseVJ.Realtime != nil {
			baseVJ.Realtime.Set(prev.ServiceDay, true)
		}
	}
	if prev.RealtimeVJURI == "" {
		return
	}
	if rtVJID, ok := dataset.VJByURI[prev.RealtimeVJURI]; ok {
		rtVJ := dataset.VehicleJourney(rtVJID)
		if rtVJ.Realtime != nil {
			rtVJ.Realtime.Set(prev.ServiceDay, false)
		}
	}
}

// validateAmendedStopTimes re-checks the monotonicity and arrival<=departure
// invariants across the fully assembled amended stop-time list before it
// is allowed to replace a vehicle journey's realtime schedule.
func validateAmendedStopTimes(sts []AmendedStopTime) error {
	prevDeparture := -1 << 62
	for _, st := range sts {
		if st.Arrival > st.Departure {
			return errors.WithStack(ErrInvalidTimes)
		}
		if st.Arrival < prevDeparture {
			return errors.WithStack(ErrInvalidTimes)
		}
		prevDeparture = st.Departure
	}
	return nil
}
