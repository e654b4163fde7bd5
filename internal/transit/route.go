package transit

// Route groups the JourneyPatterns operated under one commercial line
// direction (Route ⊃ JourneyPattern ⊃ ordered JourneyPatternPoint).
type Route struct {
	ID    RouteID
	URI   string
	Name  string
	Line  LineInfo

	JourneyPatterns []JourneyPatternID

	// Destination is the stop area this route's journey patterns head
	// towards; used by the stop-schedule terminus/partial_terminus
	// classification
	Destination StopAreaID

	Forbidden bool // convenience flag used by forbidden_uris filtering
}

// LineInfo carries the commercial-line display attributes shown to
// clients (code, color, mode, ...).
type LineInfo struct {
	URI   string
	Code  string
	Name  string
	Mode  string // e.g. "bus", "tram", "rail"
	Color string
}

// JourneyPatternPoint is one ordered stop of a JourneyPattern.
type JourneyPatternPoint struct {
	Order     int
	StopPoint StopPointID

	PickupAllowed  bool
	DropOffAllowed bool
}

// JourneyPattern is a canonical ordered stop sequence shared by one or
// more vehicle journeys.
type JourneyPattern struct {
	ID     JourneyPatternID
	Route  RouteID
	Points []JourneyPatternPoint

	VehicleJourneys []VehicleJourneyID
}
