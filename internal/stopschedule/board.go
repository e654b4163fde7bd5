// Package stopschedule implements the per-(stop, route) departure board:
// terminus/partial_terminus/no_departure_this_day classification and
// the calendar-vs-time-window departure ordering modes.
package stopschedule

import (
	"sort"
	"time"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// Status is the per-route classification.
type Status int

const (
	StatusHasDepartures Status = iota
	StatusTerminus
	StatusPartialTerminus
	StatusNoDepartureThisDay
)

// Departure is one scheduled departure of a VJ at a stop point.
type Departure struct {
	VehicleJourney transit.VehicleJourneyID
	StopTime       transit.StopTime
	At             time.Time
	Date           time.Time // service day this departure belongs to
}

// RouteGroup is the board's per-(stop point, route) row.
type RouteGroup struct {
	StopPoint  transit.StopPointID
	Route      transit.RouteID
	Status     Status
	Departures []Departure
}

// Request carries the board's input parameters
type Request struct {
	Dataset *transit.Dataset
	RTLevel transit.RTLevel

	// StopPoints restricts the scan to these stop points; empty means
	// every stop point that appears in a journey pattern.
	StopPoints []transit.StopPointID

	// Window mode: [From, From+Duration).
	From     time.Time
	Duration time.Duration

	// Calendar mode: when MaxDateTimes > 0, departures are ordered by
	// time-of-day relative to From (wrap to next day) and truncated to
	// MaxDateTimes instead of strictly windowed. Board does not read
	// CalendarID; departures are filtered by the VJs' own validity
	// patterns only.
	CalendarID  int
	MaxDateTimes int

	StartPage int
	Count     int
}

func (r Request) calendarMode() bool { return r.MaxDateTimes > 0 }

// Board computes the per-(stop, route) departure groups for req.
func Board(req Request) []RouteGroup {
	ds := req.Dataset
	stops := req.StopPoints
	if len(stops) == 0 {
		stops = allBoardedStops(ds)
	}

	var groups []RouteGroup
	for _, sp := range stops {
		byRoute := make(map[transit.RouteID]*RouteGroup)
		var order []transit.RouteID

		for _, ref := range ds.StopPoint(sp).JourneyPatternPoints {
			pattern := ds.JourneyPattern(ref.Pattern)
			route := ds.Route(pattern.Route)

			g, ok := byRoute[route.ID]
			if !ok {
				g = &RouteGroup{StopPoint: sp, Route: route.ID}
				byRoute[route.ID] = g
				order = append(order, route.ID)
			}

			isLast := ref.Order == len(pattern.Points)-1
			destination := ds.StopArea(route.Destination)
			ownStopArea := ds.StopPoint(sp).StopArea

			deps := collectDepartures(ds, pattern, ref.Order, req)
			g.Departures = append(g.Departures, deps...)

			if len(deps) == 0 && isLast {
				if ownStopArea == destination.ID {
					g.Status = StatusTerminus
				} else {
					g.Status = StatusPartialTerminus
				}
			}
		}

		for _, rid := range order {
			g := byRoute[rid]
			if len(g.Departures) == 0 && g.Status == StatusHasDepartures {
				g.Status = StatusNoDepartureThisDay
			}
			sortDepartures(g.Departures, req)
			if req.calendarMode() && len(g.Departures) > req.MaxDateTimes {
				g.Departures = g.Departures[:req.MaxDateTimes]
			}
			groups = append(groups, *g)
		}
	}
	return groups
}

func allBoardedStops(ds *transit.Dataset) []transit.StopPointID {
	ids := make([]transit.StopPointID, 0, len(ds.StopPoints))
	for _, sp := range ds.StopPoints {
		if len(sp.JourneyPatternPoints) > 0 {
			ids = append(ids, sp.ID)
		}
	}
	return ids
}

// collectDepartures scans every VJ of pattern for a stop-time at
// pointOrder that circulates at req.RTLevel within the requested window,
// across the days the window (or calendar lookahead) spans. A pattern
// point that does not allow pick-up yields no departures.
func collectDepartures(ds *transit.Dataset, pattern *transit.JourneyPattern, pointOrder int, req Request) []Departure {
	var out []Departure
	if pointOrder < len(pattern.Points) && !pattern.Points[pointOrder].PickupAllowed {
		return nil
	}

	windowDays := 2
	if req.calendarMode() {
		windowDays = 2 // today + wraparound day is enough to fill MaxDateTimes for a daily-repeating calendar
	}

	base := req.From.Truncate(24 * time.Hour)
	for dayOffset := -1; dayOffset < windowDays; dayOffset++ {
		day := base.AddDate(0, 0, dayOffset)
		for _, vjID := range pattern.VehicleJourneys {
			vj := ds.VehicleJourney(vjID)
			if !vj.CirculatesOn(day, req.RTLevel) {
				continue
			}
			st, ok := vj.StopTimeAt(pointOrder)
			if !ok {
				continue
			}
			at := day.Add(time.Duration(st.Departure) * time.Second)
			if !req.calendarMode() {
				if at.Before(req.From) || !at.Before(req.From.Add(req.Duration)) {
					continue
				}
			}
			out = append(out, Departure{VehicleJourney: vjID, StopTime: st, At: at, Date: day})
		}
	}
	return out
}

// sortDepartures orders departures : calendar mode brings
// times-of-day >= the requested time-of-day first, wrapping the rest to
// "next day" ordering; window mode sorts strictly by DateTime.
func sortDepartures(deps []Departure, req Request) {
	if !req.calendarMode() {
		sort.Slice(deps, func(i, j int) bool { return deps[i].At.Before(deps[j].At) })
		return
	}

	requested := req.From.Hour()*3600 + req.From.Minute()*60 + req.From.Second()
	tod := func(d Departure) int {
		return d.At.Hour()*3600 + d.At.Minute()*60 + d.At.Second()
	}
	rank := func(d Departure) int {
		t := tod(d)
		if t >= requested {
			return 0
		}
		return 1
	}
	sort.Slice(deps, func(i, j int) bool {
		ri, rj := rank(deps[i]), rank(deps[j])
		if ri != rj {
			return ri < rj
		}
		return tod(deps[i]) < tod(deps[j])
	})
}
