// Package transit implements the read-only multimodal transit data
// model: stops, routes, journey patterns, vehicle journeys, stop
// times, validity patterns, calendars and the time-zone handler, plus
// the swappable DataManager.
package transit

// StopPointID indexes Dataset.StopPoints.
type StopPointID int32

// StopAreaID indexes Dataset.StopAreas.
type StopAreaID int32

// RouteID indexes Dataset.Routes.
type RouteID int32

// JourneyPatternID indexes Dataset.JourneyPatterns.
type JourneyPatternID int32

// VehicleJourneyID indexes Dataset.VehicleJourneys.
type VehicleJourneyID int32

// MetaVehicleJourneyID indexes Dataset.MetaVJs.
type MetaVehicleJourneyID int32

// AdminID indexes Dataset.Admins (a thin domain-local registry; the
// street-network admin polygons are looked up through
// internal/streetgraph.AdminIndex instead).
type AdminID int32
