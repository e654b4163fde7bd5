// Package worker implements the request dispatcher (C8): entry-point
// resolution, street+transit composition, response finalization, slow
// request logging and dataset-swap detection
package worker

import (
	"log"
	"time"

	"github.com/antigravity/kraken-worker/internal/disruption"
	"github.com/antigravity/kraken-worker/internal/geo"
	"github.com/antigravity/kraken-worker/internal/kerrors"
	"github.com/antigravity/kraken-worker/internal/raptor"
	"github.com/antigravity/kraken-worker/internal/stopschedule"
	"github.com/antigravity/kraken-worker/internal/streetgraph"
	"github.com/antigravity/kraken-worker/internal/streetrouting"
	"github.com/antigravity/kraken-worker/internal/transit"
	"github.com/antigravity/kraken-worker/internal/wire"
)

// Worker dispatches one request at a time: control flow within a
// single Dispatch call is strictly sequential, no sub-goroutines. A
// Worker is safe to reuse across requests but is not meant to be
// shared across goroutines concurrently.
type Worker struct {
	DM     *transit.DataManager
	Logger *log.Logger

	SlowRequestThreshold time.Duration

	lastDataset *transit.Dataset
}

// NewWorker builds a Worker over dm.
func NewWorker(dm *transit.DataManager, logger *log.Logger, slowThreshold time.Duration) *Worker {
	return &Worker{DM: dm, Logger: logger, SlowRequestThreshold: slowThreshold}
}

func (w *Worker) logf(format string, args ...interface{}) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}

// Dispatch routes req to its handler and always returns a Response: the
// error, if any, is carried in Response.Error rather than as a Go
// error, since a worker never terminates on request-level failures.
func (w *Worker) Dispatch(req wire.Request) wire.Response {
	start := time.Now()

	dataset := w.DM.Acquire()
	w.checkDatasetSwap(dataset)

	resp := w.dispatch(dataset, req)
	resp.RequestedAPI = req.RequestedAPI
	if dataset != nil {
		resp.PublicationDate = dataset.PublicationDate.Unix()
	} else {
		resp.PublicationDate = -1
	}

	if elapsed := time.Since(start); w.SlowRequestThreshold > 0 && elapsed >= w.SlowRequestThreshold {
		w.logf("WARN slow request %s: api=%d duration=%s", req.RequestID, req.RequestedAPI, elapsed)
	}
	return resp
}

// checkDatasetSwap rebuilds any per-thread cached state keyed to the
// previous dataset identity ("Dataset swap"). This worker
// holds no RAPTOR/street-network state across requests (those buffers
// are scoped to one call, ), so the only action needed is
// bookkeeping the last-seen pointer for logging/diagnostics.
func (w *Worker) checkDatasetSwap(dataset *transit.Dataset) {
	if dataset != w.lastDataset {
		w.logf("dataset swapped: %p -> %p", w.lastDataset, dataset)
		w.lastDataset = dataset
	}
}

func (w *Worker) dispatch(dataset *transit.Dataset, req wire.Request) wire.Response {
	if dataset == nil {
		return wire.Response{Error: &wire.Error{ID: wire.ErrInternalError, Message: "dataset not loaded"}}
	}

	switch req.RequestedAPI {
	case wire.APIPlanner:
		if req.Journey == nil {
			return wire.Response{Error: &wire.Error{ID: wire.ErrUnableToParse, Message: "missing journey request"}}
		}
		return w.dispatchPlanner(dataset, *req.Journey)

	case wire.APIStatus, wire.APIMetadatas:
		return wire.Response{}

	default:
		// The remaining RequestedAPI kinds (isochrone, heat-map,
		// autocomplete, ptref, ...) share the same wire envelope but this
		// worker doesn't implement them; report that explicitly rather
		// than silently no-op.
		return wire.Response{Error: &wire.Error{ID: wire.ErrInternalError, Message: "requested_api not implemented by this worker"}}
	}
}

// dispatchPlanner implements journey pipeline: resolve
// origin/destination, build reachable-stop-point tables, run RAPTOR,
// compose street+transit sections, finalize.
func (w *Worker) dispatchPlanner(dataset *transit.Dataset, jr wire.JourneyRequest) wire.Response {
	if len(jr.Origin) == 0 {
		return wire.Response{Error: &wire.Error{ID: wire.ErrNoOriginPoint}}
	}
	if len(jr.Destination) == 0 {
		return wire.Response{Error: &wire.Error{ID: wire.ErrNoDestinationPoint}}
	}

	origin, err := ResolveEntryPoint(dataset, jr.Origin[0].Place)
	if err != nil {
		return wire.Response{Error: &wire.Error{ID: wire.ErrNoOriginPoint, Message: err.Error()}}
	}
	destination, err := ResolveEntryPoint(dataset, jr.Destination[0].Place)
	if err != nil {
		return wire.Response{Error: &wire.Error{ID: wire.ErrNoDestinationPoint, Message: err.Error()}}
	}

	originMode := modeFromString(jr.StreetNetwork.OriginMode)
	destMode := modeFromString(jr.StreetNetwork.DestinationMode)

	departures, err := reachableStopPoints(dataset, origin, originMode, jr.StreetNetwork.MaxDuration)
	if err != nil {
		return wire.Response{Error: &wire.Error{ID: wire.ErrNoOriginPoint, Message: err.Error()}}
	}
	arrivals, err := reachableStopPoints(dataset, destination, destMode, jr.StreetNetwork.MaxDuration)
	if err != nil {
		return wire.Response{Error: &wire.Error{ID: wire.ErrNoDestinationPoint, Message: err.Error()}}
	}

	if len(jr.Datetimes) == 0 {
		return wire.Response{Error: &wire.Error{ID: wire.ErrUnableToParse, Message: "no datetimes in request"}}
	}

	rtLevel := transit.RTLevelBase
	if jr.DisruptionActive {
		rtLevel = transit.RTLevelRealTime
	}

	forbidden := make(map[string]bool, len(jr.ForbiddenURIs))
	for _, u := range jr.ForbiddenURIs {
		forbidden[u] = true
	}

	var directPath *time.Duration
	if jr.StreetNetwork.EnableDirectPath {
		if d, err := streetrouting.DirectPath(dataset.StreetGraph, originMode, origin.Coord, destination.Coord, jr.MaxDuration); err == nil {
			directPath = &d
		}
	}

	in := raptor.Input{
		Dataset:            dataset,
		Departures:         departures,
		Arrivals:           arrivals,
		InitDT:             jr.Datetimes[0],
		RTLevel:            rtLevel,
		MaxTransfers:       jr.MaxTransfers,
		Accessibility:      raptor.AccessibilityParams{Wheelchair: jr.Wheelchair},
		Forbidden:          forbidden,
		Clockwise:          jr.Clockwise,
		MaxDuration:        jr.MaxDuration,
		DirectPathDuration: directPath,
		MaxExtraSecondPass: jr.MaxExtraSecondPass,
	}

	res := raptor.Search(in)
	if jr.MaxExtraSecondPass > 0 {
		if refined := raptor.SecondPass(in, res); refined != nil {
			res.Journeys = append(res.Journeys, refined.Journeys...)
		}
	}

	if len(res.Journeys) == 0 && directPath == nil {
		return wire.Response{Error: &wire.Error{ID: wire.ErrNoSolution}}
	}

	access := accessEgress{
		originCoord: origin.Coord,
		destCoord:   destination.Coord,
		originMode:  originMode,
		destMode:    destMode,
		departures:  departures,
		arrivals:    arrivals,
	}

	journeys := make([]wire.Journey, 0, len(res.Journeys))
	for _, j := range res.Journeys {
		journeys = append(journeys, finalizeJourney(dataset, j, access))
	}
	if directPath != nil {
		journeys = append(journeys, directPathJourney(jr.Datetimes[0], *directPath))
	}

	return wire.Response{Journeys: journeys}
}

func modeFromString(mode string) streetgraph.Mode {
	switch mode {
	case "bike":
		return streetgraph.ModeBike
	case "car":
		return streetgraph.ModeCar
	case "bss":
		return streetgraph.ModeBssTake
	default:
		return streetgraph.ModeWalk
	}
}

// reachableStopPoints builds the origin/destination -> stop-point access
// duration table of find_nearest_stop_points. A StopPoint
// entry point short-circuits to the trivial identity access (0s).
func reachableStopPoints(dataset *transit.Dataset, ep EntryPoint, mode streetgraph.Mode, maxDuration time.Duration) (map[transit.StopPointID]time.Duration, error) {
	if ep.Kind == EntryStopPoint {
		return map[transit.StopPointID]time.Duration{ep.StopPoint: 0}, nil
	}
	if ep.Kind == EntryStopArea {
		out := make(map[transit.StopPointID]time.Duration)
		for _, sp := range dataset.StopArea(ep.StopArea).StopPoints {
			out[sp] = 0
		}
		return out, nil
	}

	start, err := streetrouting.ProjectOrigin(dataset.StreetGraph, ep.Coord, mode)
	if err != nil {
		return nil, err
	}
	pf := streetrouting.NewPathFinder(dataset.StreetGraph, mode)
	pf.RunFrom(map[streetgraph.VertexID]float64{
		start.Source: start.DistanceToSource,
		start.Target: start.DistanceToTarget,
	}, maxDuration)

	spVertices := make(map[int]streetgraph.VertexID, len(dataset.StopPointVertex))
	for sp, v := range dataset.StopPointVertex {
		spVertices[int(sp)] = v
	}
	durations := streetrouting.FindNearestStopPoints(pf, spVertices, maxDuration)

	out := make(map[transit.StopPointID]time.Duration, len(durations))
	for spIdx, d := range durations {
		out[transit.StopPointID(spIdx)] = d
	}
	return out, nil
}

// accessEgress carries what finalizeJourney needs to prepend/append the
// first/last-mile legs around a reconstructed transit journey: the
// origin/destination coordinates and modes, and the per-stop access
// duration tables already computed by reachableStopPoints.
type accessEgress struct {
	originCoord, destCoord geo.Coordinate
	originMode, destMode   streetgraph.Mode
	departures             map[transit.StopPointID]time.Duration
	arrivals               map[transit.StopPointID]time.Duration
}

// finalizeJourney fills departure/arrival/duration/walking-duration and
// builds the typed Section list for one reconstructed raptor.Journey
// ("Finalize each journey"), prepending/appending the first/last-mile
// access legs around the transit core.
func finalizeJourney(dataset *transit.Dataset, j raptor.Journey, access accessEgress) wire.Journey {
	begin := dataset.ProductionPeriod.Begin

	out := wire.Journey{
		Departure:   j.Departure.ToTime(begin),
		Arrival:     j.Arrival.ToTime(begin),
		NbTransfers: j.Rounds,
	}

	var walking time.Duration
	var sections []wire.Section

	if len(j.Legs) > 0 {
		firstStop := j.Legs[0].From
		if accessDur := access.departures[firstStop]; accessDur > 0 {
			sec := accessSection(dataset, access.originCoord, firstStop, out.Departure.Add(-accessDur), out.Departure)
			sections = append(sections, sec)
			out.Departure = sec.Departure
			if access.originMode == streetgraph.ModeWalk {
				walking += accessDur
			}
		}
	}

	for _, leg := range j.Legs {
		sec := wire.Section{
			Departure: leg.Departure.ToTime(begin),
			Arrival:   leg.Arrival.ToTime(begin),
			Duration:  int64(leg.Arrival.ToTime(begin).Sub(leg.Departure.ToTime(begin)).Seconds()),
		}
		switch leg.Kind {
		case raptor.LegTransit:
			sec.Type = SectionPublicTransport.String()
			sec.From = dataset.StopPoint(leg.From).URI
			sec.To = dataset.StopPoint(leg.To).URI
			vj := dataset.VehicleJourney(leg.VehicleJourney)
			sec.VehicleJourneyURI = vj.URI
			if leg.BoardOrder >= 0 && leg.BoardOrder < len(vj.StopTimes) {
				sec.PTDisplayMethod = ClassifyPTMethod(vj.StopTimes[leg.BoardOrder]).String()
			}
		case raptor.LegTransfer:
			sec.Type = SectionTransfer.String()
			from := dataset.StopPoint(leg.From)
			to := dataset.StopPoint(leg.To)
			sec.From = from.URI
			sec.To = to.URI
			transferSection := Section{Geometry: geo.ToLineString([]geo.Coordinate{from.Coord, to.Coord})}
			sec.Geometry = transferSection.Flatten()
			walking += sec.Arrival.Sub(sec.Departure)
		}
		sections = append(sections, sec)
	}

	if len(j.Legs) > 0 {
		lastStop := j.Legs[len(j.Legs)-1].To
		if egressDur := access.arrivals[lastStop]; egressDur > 0 {
			sec := accessSection(dataset, access.destCoord, lastStop, out.Arrival, out.Arrival.Add(egressDur))
			sections = append(sections, sec)
			out.Arrival = sec.Arrival
			if access.destMode == streetgraph.ModeWalk {
				walking += egressDur
			}
		}
	}

	out.Sections = sections
	out.Duration = int64(out.Arrival.Sub(out.Departure).Seconds())
	out.WalkingDuration = int64(walking.Seconds())
	out.MostSeriousEffect = mostSeriousEffect(dataset, j)
	return out
}

// accessSection builds the first/last-mile section between a raw
// coordinate (the resolved origin/destination) and a boarded/alighted
// stop point, typed as a street-network leg since its duration already
// comes from a Dijkstra run over the street graph. Geometry is the
// straight line between the two points, the same approximation used for
// transfer sections, since no polyline reconstruction is plumbed
// through reachableStopPoints.
func accessSection(dataset *transit.Dataset, coord geo.Coordinate, stop transit.StopPointID, depart, arrive time.Time) wire.Section {
	sp := dataset.StopPoint(stop)
	sec := wire.Section{
		Type:      SectionStreetNetwork.String(),
		Departure: depart,
		Arrival:   arrive,
		Duration:  int64(arrive.Sub(depart).Seconds()),
	}
	section := Section{Geometry: geo.ToLineString([]geo.Coordinate{coord, sp.Coord})}
	sec.Geometry = section.Flatten()
	return sec
}

// mostSeriousEffect reports SIGNIFICANT_DELAYS when any transit leg
// rides a realtime vehicle journey, and an empty string otherwise. Stop
// points and stop areas are not consulted, and NO_SERVICE is never
// reported.
func mostSeriousEffect(dataset *transit.Dataset, j raptor.Journey) string {
	var worst disruption.Effect
	rank := func(effect disruption.Effect) int {
		switch effect {
		case disruption.EffectNoService:
			return 2
		case disruption.EffectSignificantDelays:
			return 1
		default:
			return 0
		}
	}
	for _, leg := range j.Legs {
		if leg.Kind != raptor.LegTransit {
			continue
		}
		vj := dataset.VehicleJourney(leg.VehicleJourney)
		if !vj.IsRealtime {
			continue
		}
		effect := disruption.EffectSignificantDelays
		if rank(effect) > rank(worst) {
			worst = effect
		}
	}
	return string(worst)
}

func directPathJourney(depart time.Time, duration time.Duration) wire.Journey {
	return wire.Journey{
		Departure: depart,
		Arrival:   depart.Add(duration),
		Duration:  int64(duration.Seconds()),
		Sections: []wire.Section{{
			Type:      SectionStreetNetwork.String(),
			Departure: depart,
			Arrival:   depart.Add(duration),
			Duration:  int64(duration.Seconds()),
		}},
	}
}

// NextDepartures dispatches the stop-schedule API, used
// directly by internal/transport/httpbind rather than through the
// generic Dispatch switch since its request/response shapes are
// board-specific.
func (w *Worker) NextDepartures(req stopschedule.Request) ([]stopschedule.RouteGroup, error) {
	if req.Dataset == nil {
		return nil, kerrors.Internalf("worker: nil dataset")
	}
	return stopschedule.Board(req), nil
}
