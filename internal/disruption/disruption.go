package disruption

import "time"

// Effect is the disruption-wide severity effect
type Effect string

const (
	EffectNoService          Effect = "NO_SERVICE"
	EffectSignificantDelays  Effect = "SIGNIFICANT_DELAYS"
)

// Severity is interned by id via the weak-reference registry described
// in "Disruption severity de-duplication": the first creator
// seeds it, subsequent identical severities reuse the live instance.
type Severity struct {
	ID       string
	Wording  string
	Effect   Effect
	Color    string
	Priority int
}

// Message is free-text information attached to an Impact.
type Message struct {
	Text     string
	Channel  string
}

// ApplicationPeriod is the [Start, End] instant range (UTC) over which
// an Impact is in effect.
type ApplicationPeriod struct {
	Start, End time.Time
}

// InformedEntity names one object (trip, route, line, ...) a disruption
// impacts.
type InformedEntity struct {
	Kind string // "trip", "route", "line", "stop_point", ...
	URI  string
}

// Impact is one effect of a Disruption on a set of informed entities,
// optionally amending stop times
type Impact struct {
	ApplicationPeriods []ApplicationPeriod
	InformedEntities   []InformedEntity
	Messages           []Message
	Severity           *Severity

	// AmendedStopTimes holds the realtime stop times materialized for a
	// SCHEDULED update with stop-time updates; nil for a CANCELED
	// disruption.
	AmendedStopTimes []AmendedStopTime
}

// AmendedStopTime is one resolved, validated stop-time amendment ready
// to be written onto a realtime VehicleJourney.
type AmendedStopTime struct {
	StopPointURI   string
	Arrival        int
	Departure      int
	PickupAllowed  bool
	DropOffAllowed bool
}

// Disruption is the top-level realtime object keyed by the trip update's
// id
type Disruption struct {
	URI               string
	PublicationPeriod ApplicationPeriod
	Cause             string
	Impacts           []Impact

	// BaseVJURI and ServiceDay identify the base vehicle journey and
	// service day this disruption amends, so a later update carrying
	// the same URI can undo it before applying its own change.
	BaseVJURI string
	ServiceDay time.Time

	// RealtimeVJURI is the synthetic realtime vehicle journey created
	// for a SCHEDULED update with amended stop times; empty for a
	// CANCELED disruption (nothing to un-board from).
	RealtimeVJURI string
}
