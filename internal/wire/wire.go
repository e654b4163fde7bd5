// Package wire defines the worker's request/response message shapes: a
// tagged union of payload kinds, carried as plain Go structs. Wire
// framing itself is out of scope here; internal/transport/httpbind is
// the one concrete binding exercising these shapes.
package wire

import "time"

// RequestedAPI selects the payload kind carried on a Request
type RequestedAPI int

const (
	APIPlanner RequestedAPI = iota
	APIIsochrone
	APIGraphicalIsochrone
	APIHeatMap
	APINextDepartures
	APIStopSchedules
	APIPlacesNearby
	APIPlaceURI
	APIAutocomplete
	APIPtRef
	APITrafficReports
	APICalendars
	APIPtObject
	APIPlaceCode
	APINearestStopPoints
	APIDirectPath
	APIRoutingMatrix
	APIODTStopPoints
	APIStatus
	APIMetadatas
)

// ErrorID enumerates the wire-level error ids.
type ErrorID int

const (
	ErrNone ErrorID = iota
	ErrInvalidProtobufRequest
	ErrUnableToParse
	ErrBadFilter
	ErrDateOutOfBounds
	ErrNoOriginPoint
	ErrNoDestinationPoint
	ErrNoOriginNorDestination
	ErrNoSolution
	ErrInternalError
)

func (e ErrorID) String() string {
	switch e {
	case ErrInvalidProtobufRequest:
		return "invalid_protobuf_request"
	case ErrUnableToParse:
		return "unable_to_parse"
	case ErrBadFilter:
		return "bad_filter"
	case ErrDateOutOfBounds:
		return "date_out_of_bounds"
	case ErrNoOriginPoint:
		return "no_origin_point"
	case ErrNoDestinationPoint:
		return "no_destination_point"
	case ErrNoOriginNorDestination:
		return "no_origin_nor_destination"
	case ErrNoSolution:
		return "no_solution"
	case ErrInternalError:
		return "internal_error"
	default:
		return ""
	}
}

// Error is the wire-level {id, message} pair
type Error struct {
	ID      ErrorID `json:"id"`
	Message string  `json:"message,omitempty"`
}

// PlaceRef identifies an EntryPoint by one of its tagged kinds: exactly
// one of these fields is set.
type PlaceRef struct {
	Coord     *Coord `json:"coord,omitempty"`
	Address   string `json:"address,omitempty"`
	StopArea  string `json:"stop_area,omitempty"`
	StopPoint string `json:"stop_point,omitempty"`
	Admin     string `json:"admin,omitempty"`
	POI       string `json:"poi,omitempty"`
}

// Coord is a wire-level (lon, lat) pair.
type Coord struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// StreetNetworkParams configures the first/last-mile street legs of a
// journey request
type StreetNetworkParams struct {
	OriginMode        string        `json:"origin_mode"`
	DestinationMode   string        `json:"destination_mode"`
	SpeedFactor        float64       `json:"speed_factor"`
	MaxDuration        time.Duration `json:"max_duration"`
	EnableDirectPath   bool          `json:"enable_direct_path"`
}

// EntryPointCost pairs a PlaceRef with its user-supplied access-duration
// override ("origin[] { place, access_duration }").
type EntryPointCost struct {
	Place          PlaceRef      `json:"place"`
	AccessDuration time.Duration `json:"access_duration"`
}

// JourneyRequest carries the user-visible journey-query fields.
type JourneyRequest struct {
	Clockwise          bool                `json:"clockwise"`
	Wheelchair         bool                `json:"wheelchair"`
	DisruptionActive   bool                `json:"disruption_active"`
	MaxDuration        time.Duration       `json:"max_duration"`
	MaxTransfers        int                 `json:"max_transfers"`
	Datetimes          []time.Time         `json:"datetimes"`
	StreetNetwork      StreetNetworkParams `json:"streetnetwork_params"`
	Origin             []EntryPointCost    `json:"origin"`
	Destination        []EntryPointCost    `json:"destination"`
	ForbiddenURIs       []string            `json:"forbidden_uris"`
	MaxExtraSecondPass  int                 `json:"max_extra_second_pass"`
}

// Request is the top-level envelope
type Request struct {
	RequestedAPI RequestedAPI    `json:"requested_api"`
	RequestID    string          `json:"request_id"`
	Journey      *JourneyRequest `json:"journey,omitempty"`
}

// Response is the top-level reply envelope. PublicationDate is -1 when
// the dataset is not loaded
type Response struct {
	RequestedAPI    RequestedAPI `json:"requested_api"`
	Error           *Error       `json:"error,omitempty"`
	PublicationDate int64        `json:"publication_date"`

	Journeys []Journey `json:"journeys,omitempty"`
}

// Journey is the wire-level shape of one worker.Journey, flattened to
// plain fields + GeoJSON-ish section geometries (filled by
// internal/worker).
type Journey struct {
	Departure       time.Time `json:"departure_date_time"`
	Arrival         time.Time `json:"arrival_date_time"`
	Duration        int64     `json:"duration"`
	WalkingDuration int64     `json:"walking_duration,omitempty"`
	NbTransfers     int       `json:"nb_transfers"`
	CO2Grams        float64   `json:"co2_emission,omitempty"`
	MostSeriousEffect string  `json:"most_serious_disruption_effect,omitempty"`

	Sections []Section `json:"sections"`
}

// Section is the wire shape of internal/worker's typed Section model.
type Section struct {
	Type        string      `json:"type"`
	From        string      `json:"from,omitempty"`
	To          string      `json:"to,omitempty"`
	Departure   time.Time   `json:"departure_date_time"`
	Arrival     time.Time   `json:"arrival_date_time"`
	Duration    int64       `json:"duration"`
	Geometry    [][2]float64 `json:"geojson,omitempty"`
	VehicleJourneyURI string `json:"vehicle_journey,omitempty"`
	PTDisplayMethod   string `json:"pt_display_informations_method,omitempty"`
}
