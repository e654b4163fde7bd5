// Package raptor implements the round-based transit search (C6):
// multi-round route/transfer expansion producing Pareto-optimal
// (arrival, transfers) journeys, with realtime-level selection,
// accessibility filtering, forbidden-line filtering, direct-path
// pruning and a bounded second pass
package raptor

import (
	"time"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// DateTime is an absolute instant expressed as a day offset (from the
// dataset's production period begin) plus seconds-since-midnight,
// matching "label records pt_arrival ... as a DateTime (day
// * 86400 + seconds)". Using a plain time.Time would work just as well;
// this form is kept because StopTime.Arrival/Departure may exceed 86400
// for next-day roll-over and the search needs to reason in that same
// unit without repeatedly converting to/from time.Time.
type DateTime int64

// Seconds returns the raw day*86400+seconds value.
func (dt DateTime) Seconds() int64 { return int64(dt) }

// ToTime converts dt back to an absolute time.Time given the production
// period's begin date.
func (dt DateTime) ToTime(begin time.Time) time.Time {
	return begin.Add(time.Duration(dt) * time.Second)
}

// FromTime converts an absolute time.Time into a DateTime relative to
// begin.
func FromTime(t, begin time.Time) DateTime {
	return DateTime(t.Sub(begin) / time.Second)
}

// PosInf / NegInf stand in for the "best label not yet found" sentinel,
// in the direction appropriate to the search (arrival search: +inf is
// worse-than-everything; departure search: -inf is worse-than-everything).
const (
	PosInf DateTime = 1 << 62
	NegInf DateTime = -(1 << 62)
)

// label records the best known way to reach (clockwise) or leave
// (reverse) a stop point in a given round.
type label struct {
	dt DateTime

	// boarding/alighting bookkeeping for journey reconstruction.
	hasTransit  bool
	boardStop   transit.StopPointID
	boardTime   DateTime
	alightStop  transit.StopPointID
	vj          transit.VehicleJourneyID
	patternFrom int // order-in-pattern of boardStop
	patternTo   int // order-in-pattern of alightStop

	viaTransfer   bool
	transferFrom  transit.StopPointID
}
