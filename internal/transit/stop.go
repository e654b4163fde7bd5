package transit

import "github.com/antigravity/kraken-worker/internal/geo"

// StopPoint is a single boardable point
type StopPoint struct {
	ID       StopPointID
	URI      string
	Name     string
	Coord    geo.Coordinate
	StopArea StopAreaID

	Accessible bool // wheelchair-accessible boarding

	// JourneyPatternPoints lists every (JourneyPattern, order) this
	// stop point appears at, i.e. the weak back-reference from
	// pattern-points to stop-points.
	JourneyPatternPoints []JourneyPatternPointRef
}

// JourneyPatternPointRef is a weak reference from a StopPoint back to
// one of its journey-pattern memberships.
type JourneyPatternPointRef struct {
	Pattern JourneyPatternID
	Order   int
}

// StopArea groups StopPoints that share a physical location
type StopArea struct {
	ID         StopAreaID
	URI        string
	Name       string
	Coord      geo.Coordinate // centroid
	StopPoints []StopPointID
	Admins     []AdminID
}
