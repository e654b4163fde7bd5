// Package datasetload builds the read-only transit.Dataset and its
// street graph from Postgres/PostGIS: stop areas, stop points, routes,
// journey patterns, vehicle journeys, base/realtime validity patterns,
// transfers, and the street-network graph with house numbers.
package datasetload

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/kraken-worker/internal/geo"
	"github.com/antigravity/kraken-worker/internal/streetgraph"
	"github.com/antigravity/kraken-worker/internal/transit"
)

// Loader builds a *transit.Dataset from a Postgres/PostGIS-backed
// schema. One Loader is created per dataset reload; the db-id lookup
// maps are populated as each table loads and read back by later stages
// (stop areas before stop points, stop points before patterns/transfers).
type Loader struct {
	db *pgxpool.Pool

	stopAreaDBID  map[int]transit.StopAreaID
	stopPointDBID map[int]transit.StopPointID
}

func NewLoader(db *pgxpool.Pool) *Loader {
	return &Loader{db: db}
}

// Load runs the full import pipeline and returns an indexed, ready-to-
// publish Dataset ("Lifecycle: built offline ... installed
// atomically").
func (l *Loader) Load(ctx context.Context, production transit.ProductionPeriod) (*transit.Dataset, error) {
	log.Println("datasetload: loading dataset from database...")
	start := time.Now()

	ds := &transit.Dataset{
		ProductionPeriod: production,
		PublicationDate:  time.Now().UTC(),
		Transfers:        make(map[transit.StopPointID][]transit.Transfer),
		StopPointVertex:  make(map[transit.StopPointID]streetgraph.VertexID),
	}

	stopAreaDBID, err := l.loadStopAreas(ctx, ds)
	if err != nil {
		return nil, err
	}
	l.stopAreaDBID = stopAreaDBID
	if err := l.loadStopPoints(ctx, ds, stopAreaDBID); err != nil {
		return nil, err
	}
	if err := l.loadRoutesAndPatterns(ctx, ds, production); err != nil {
		return nil, err
	}
	if err := l.loadTransfers(ctx, ds); err != nil {
		return nil, err
	}
	if err := l.loadStreetGraph(ctx, ds); err != nil {
		return nil, err
	}

	ds.BuildIndexes()
	log.Printf("datasetload: load complete in %s (%d stop points, %d routes, %d vehicle journeys)",
		time.Since(start), len(ds.StopPoints), len(ds.Routes), len(ds.VehicleJourneys))
	return ds, nil
}

func (l *Loader) loadStopAreas(ctx context.Context, ds *transit.Dataset) (map[int]transit.StopAreaID, error) {
	dbID := make(map[int]transit.StopAreaID)

	rows, err := l.db.Query(ctx, `SELECT id, uri, name, ST_X(location::geometry), ST_Y(location::geometry) FROM stop_areas`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var sa transit.StopArea
		if err := rows.Scan(&id, &sa.URI, &sa.Name, &sa.Coord.Lon, &sa.Coord.Lat); err != nil {
			return nil, err
		}
		sa.ID = transit.StopAreaID(len(ds.StopAreas))
		dbID[id] = sa.ID
		ds.StopAreas = append(ds.StopAreas, sa)
	}
	return dbID, rows.Err()
}

func (l *Loader) loadStopPoints(ctx context.Context, ds *transit.Dataset, stopAreaDBID map[int]transit.StopAreaID) error {
	rows, err := l.db.Query(ctx, `SELECT id, uri, name, accessible, stop_area_id, ST_X(location::geometry), ST_Y(location::geometry) FROM stop_points`)
	if err != nil {
		return err
	}
	defer rows.Close()

	spDBID := make(map[int]transit.StopPointID)
	for rows.Next() {
		var id, areaDBID int
		var sp transit.StopPoint
		if err := rows.Scan(&id, &sp.URI, &sp.Name, &sp.Accessible, &areaDBID, &sp.Coord.Lon, &sp.Coord.Lat); err != nil {
			return err
		}
		sp.ID = transit.StopPointID(len(ds.StopPoints))
		sp.StopArea = stopAreaDBID[areaDBID]
		spDBID[id] = sp.ID
		ds.StopPoints = append(ds.StopPoints, sp)

		area := &ds.StopAreas[sp.StopArea]
		area.StopPoints = append(area.StopPoints, sp.ID)
	}
	l.stopPointDBID = spDBID
	return rows.Err()
}

func (l *Loader) loadRoutesAndPatterns(ctx context.Context, ds *transit.Dataset, production transit.ProductionPeriod) error {
	routeRows, err := l.db.Query(ctx, `SELECT id, uri, name, line_uri, line_code, line_name, line_mode, line_color, destination_stop_area_id FROM routes`)
	if err != nil {
		return err
	}
	defer routeRows.Close()

	type routeRow struct {
		dbID int
		destDBID int
	}
	var routeDBIDs []routeRow

	for routeRows.Next() {
		var id, destAreaDBID int
		var route transit.Route
		if err := routeRows.Scan(&id, &route.URI, &route.Name, &route.Line.URI, &route.Line.Code, &route.Line.Name, &route.Line.Mode, &route.Line.Color, &destAreaDBID); err != nil {
			return err
		}
		route.ID = transit.RouteID(len(ds.Routes))
		ds.Routes = append(ds.Routes, route)
		routeDBIDs = append(routeDBIDs, routeRow{dbID: id, destDBID: destAreaDBID})
	}
	if err := routeRows.Err(); err != nil {
		return err
	}

	for i, rr := range routeDBIDs {
		route := &ds.Routes[i]
		if sa, ok := l.stopAreaDBID[rr.destDBID]; ok {
			route.Destination = sa
		}

		if err := l.loadJourneyPatterns(ctx, ds, route, rr.dbID, production); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadJourneyPatterns(ctx context.Context, ds *transit.Dataset, route *transit.Route, routeDBID int, production transit.ProductionPeriod) error {
	patRows, err := l.db.Query(ctx, `SELECT id FROM journey_patterns WHERE route_id=$1`, routeDBID)
	if err != nil {
		return err
	}
	defer patRows.Close()

	var patternDBIDs []int
	for patRows.Next() {
		var id int
		if err := patRows.Scan(&id); err != nil {
			return err
		}
		patternDBIDs = append(patternDBIDs, id)
	}
	patRows.Close()

	for _, patDBID := range patternDBIDs {
		pattern := transit.JourneyPattern{ID: transit.JourneyPatternID(len(ds.JourneyPatterns)), Route: route.ID}
		route.JourneyPatterns = append(route.JourneyPatterns, pattern.ID)

		ppRows, err := l.db.Query(ctx, `SELECT stop_point_id, "order", pickup_allowed, drop_off_allowed FROM journey_pattern_points WHERE journey_pattern_id=$1 ORDER BY "order"`, patDBID)
		if err != nil {
			return err
		}
		for ppRows.Next() {
			var spDBID, order int
			var jpp transit.JourneyPatternPoint
			if err := ppRows.Scan(&spDBID, &order, &jpp.PickupAllowed, &jpp.DropOffAllowed); err != nil {
				ppRows.Close()
				return err
			}
			jpp.Order = order
			jpp.StopPoint = l.stopPointDBID[spDBID]
			pattern.Points = append(pattern.Points, jpp)

			sp := &ds.StopPoints[jpp.StopPoint]
			sp.JourneyPatternPoints = append(sp.JourneyPatternPoints, transit.JourneyPatternPointRef{Pattern: pattern.ID, Order: order})
		}
		ppRows.Close()

		if err := l.loadVehicleJourneys(ctx, ds, &pattern, patDBID, production); err != nil {
			return err
		}
		ds.JourneyPatterns = append(ds.JourneyPatterns, pattern)
	}
	return nil
}

func (l *Loader) loadVehicleJourneys(ctx context.Context, ds *transit.Dataset, pattern *transit.JourneyPattern, patternDBID int, production transit.ProductionPeriod) error {
	vjRows, err := l.db.Query(ctx, `SELECT id, uri, wheelchair_accessible FROM vehicle_journeys WHERE journey_pattern_id=$1`, patternDBID)
	if err != nil {
		return err
	}
	defer vjRows.Close()

	for vjRows.Next() {
		var vjDBID int
		var vj transit.VehicleJourney
		if err := vjRows.Scan(&vjDBID, &vj.URI, &vj.Wheelchair); err != nil {
			return err
		}
		vj.ID = transit.VehicleJourneyID(len(ds.VehicleJourneys))
		vj.JourneyPattern = pattern.ID

		vj.Base, err = l.loadValidityPattern(ctx, vjDBID, "base", production)
		if err != nil {
			return err
		}
		vj.Realtime, err = l.loadValidityPattern(ctx, vjDBID, "realtime", production)
		if err != nil {
			return err
		}

		stRows, err := l.db.Query(ctx, `SELECT "order", arrival, departure, pickup_allowed, drop_off_allowed FROM stop_times WHERE vehicle_journey_id=$1 ORDER BY "order"`, vjDBID)
		if err != nil {
			return err
		}
		for stRows.Next() {
			var st transit.StopTime
			if err := stRows.Scan(&st.JourneyPatternPoint, &st.Arrival, &st.Departure, &st.PickupAllowed, &st.DropOffAllowed); err != nil {
				stRows.Close()
				return err
			}
			if st.JourneyPatternPoint < len(pattern.Points) {
				st.StopPoint = pattern.Points[st.JourneyPatternPoint].StopPoint
			}
			vj.StopTimes = append(vj.StopTimes, st)
		}
		stRows.Close()

		meta := transit.MetaVehicleJourney{ID: transit.MetaVehicleJourneyID(len(ds.MetaVJs)), URI: "meta:" + vj.URI, BaseVJ: vj.ID}
		vj.Meta = meta.ID
		ds.MetaVJs = append(ds.MetaVJs, meta)

		pattern.VehicleJourneys = append(pattern.VehicleJourneys, vj.ID)
		ds.VehicleJourneys = append(ds.VehicleJourneys, vj)
	}
	return vjRows.Err()
}

// loadValidityPattern reads the vehicle_journey_validity_periods table
// ((date_range, week_pattern) rows) for the given kind ("base" or
// "realtime") and replays them onto a fresh bitset, mirroring
// ValidityPattern.ExportPeriods/ImportPeriods' round-trip shape.
func (l *Loader) loadValidityPattern(ctx context.Context, vjDBID int, kind string, production transit.ProductionPeriod) (*transit.ValidityPattern, error) {
	vp := transit.NewValidityPattern(production.Begin, production.Days())

	rows, err := l.db.Query(ctx, `
		SELECT start_date, end_date, mon, tue, wed, thu, fri, sat, sun
		FROM vehicle_journey_validity_periods
		WHERE vehicle_journey_id=$1 AND kind=$2`, vjDBID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var startDate, endDate time.Time
		var week [7]bool
		if err := rows.Scan(&startDate, &endDate, &week[1], &week[2], &week[3], &week[4], &week[5], &week[6], &week[0]); err != nil {
			return nil, err
		}
		vp.AddPeriod(startDate, endDate, week)
	}
	return vp, rows.Err()
}

func (l *Loader) loadTransfers(ctx context.Context, ds *transit.Dataset) error {
	rows, err := l.db.Query(ctx, `
		SELECT s1.id, s2.id, ST_Distance(s1.location::geography, s2.location::geography)
		FROM stop_points s1
		JOIN stop_points s2 ON ST_DWithin(s1.location::geography, s2.location::geography, 500)
		WHERE s1.id != s2.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	const walkSpeed = 1.38 // m/s, matches streetrouting.SpeedFactor(ModeWalk)
	for rows.Next() {
		var dbID1, dbID2 int
		var meters float64
		if err := rows.Scan(&dbID1, &dbID2, &meters); err != nil {
			return err
		}
		sp1, ok1 := l.stopPointDBID[dbID1]
		sp2, ok2 := l.stopPointDBID[dbID2]
		if !ok1 || !ok2 {
			continue
		}
		duration := time.Duration(meters/walkSpeed) * time.Second
		ds.Transfers[sp1] = append(ds.Transfers[sp1], transit.Transfer{To: sp2, Duration: duration})
	}
	return rows.Err()
}

// loadStreetGraph builds the planar walk/bike/car graph plus per-way
// house numbers ("Street graph"), then maps each stop point
// onto its nearest graph vertex for street-network access/egress.
func (l *Loader) loadStreetGraph(ctx context.Context, ds *transit.Dataset) error {
	vtxRows, err := l.db.Query(ctx, `SELECT id, ST_X(location::geometry), ST_Y(location::geometry) FROM street_vertices ORDER BY id`)
	if err != nil {
		return err
	}
	var coords []geo.Coordinate
	vtxDBID := make(map[int]streetgraph.VertexID)
	for vtxRows.Next() {
		var id int
		var c geo.Coordinate
		if err := vtxRows.Scan(&id, &c.Lon, &c.Lat); err != nil {
			vtxRows.Close()
			return err
		}
		vtxDBID[id] = streetgraph.VertexID(len(coords))
		coords = append(coords, c)
	}
	vtxRows.Close()

	graph := streetgraph.NewGraph(coords)

	wayRows, err := l.db.Query(ctx, `SELECT id, name, type FROM ways ORDER BY id`)
	if err != nil {
		return err
	}
	var wayDBIDs []int
	for wayRows.Next() {
		var id int
		var way streetgraph.Way
		if err := wayRows.Scan(&id, &way.Name, &way.Type); err != nil {
			wayRows.Close()
			return err
		}
		way.ID = streetgraph.WayID(len(graph.Ways))
		graph.Ways = append(graph.Ways, way)
		wayDBIDs = append(wayDBIDs, id)
	}
	wayRows.Close()

	edgeRows, err := l.db.Query(ctx, `SELECT source_vertex_id, target_vertex_id, length_m, way_id, mode FROM street_edges`)
	if err != nil {
		return err
	}
	for edgeRows.Next() {
		var src, dst, wayDBID, mode int
		var length float64
		if err := edgeRows.Scan(&src, &dst, &length, &wayDBID, &mode); err != nil {
			edgeRows.Close()
			return err
		}
		wayID := findWayID(wayDBIDs, wayDBID)
		eid := graph.AddEdge(vtxDBID[src], vtxDBID[dst], length, wayID, streetgraph.Mode(mode))
		if int(wayID) < len(graph.Ways) {
			graph.Ways[wayID].Edges = append(graph.Ways[wayID].Edges, eid)
		}
	}
	edgeRows.Close()

	hnRows, err := l.db.Query(ctx, `SELECT way_id, number, ST_X(location::geometry), ST_Y(location::geometry) FROM house_numbers ORDER BY way_id, number`)
	if err != nil {
		return err
	}
	for hnRows.Next() {
		var wayDBID, number int
		var c geo.Coordinate
		if err := hnRows.Scan(&wayDBID, &number, &c.Lon, &c.Lat); err != nil {
			hnRows.Close()
			return err
		}
		wayID := findWayID(wayDBIDs, wayDBID)
		if int(wayID) >= len(graph.Ways) {
			continue
		}
		hn := streetgraph.HouseNumber{Number: number, Coord: c}
		if number%2 == 0 {
			graph.Ways[wayID].Even = append(graph.Ways[wayID].Even, hn)
		} else {
			graph.Ways[wayID].Odd = append(graph.Ways[wayID].Odd, hn)
		}
	}
	hnRows.Close()

	ds.StreetGraph = graph

	for _, sp := range ds.StopPoints {
		if vIdx, err := graph.Proximity.FindNearest(sp.Coord); err == nil {
			ds.StopPointVertex[sp.ID] = streetgraph.VertexID(vIdx)
		}
	}
	return nil
}

func findWayID(dbIDs []int, dbID int) streetgraph.WayID {
	for i, id := range dbIDs {
		if id == dbID {
			return streetgraph.WayID(i)
		}
	}
	return streetgraph.WayID(len(dbIDs))
}
