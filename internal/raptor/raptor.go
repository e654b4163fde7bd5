package raptor

import (
	"sort"
	"time"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// AccessibilityParams gates VJ/stop-point admissibility by accessibility
// need
type AccessibilityParams struct {
	Wheelchair bool
}

// Input gathers every parameter of a single RAPTOR call (// "Inputs").
type Input struct {
	Dataset *transit.Dataset

	// Departures/Arrivals map a stop point to its access-cost duration:
	// Departures seeds the clockwise search's round 0, Arrivals seeds
	// the reverse search's round 0 (or is used as the destination set
	// in a clockwise search).
	Departures map[transit.StopPointID]time.Duration
	Arrivals   map[transit.StopPointID]time.Duration

	InitDT time.Time

	RTLevel         transit.RTLevel
	TransferPenalty time.Duration
	MaxTransfers    int
	Accessibility   AccessibilityParams
	Forbidden       map[string]bool // line/route/mode URIs
	Clockwise       bool

	// MaxDuration bounds how far past InitDT (resp. before, for a
	// reverse search) a label may fall; 0 means unbounded.
	MaxDuration time.Duration

	// DirectPathDuration, if non-nil, enables direct-path pruning: any
	// label worse than InitDT +/- *DirectPathDuration is discarded.
	DirectPathDuration *time.Duration

	MaxExtraSecondPass int
}

const defaultMaxRounds = 10

// maxRounds returns the round cap: MaxTransfers+1 rounds are run (round
// 0 is the seed state, round k allows up to k boardings, i.e. k-1
// transfers), capped by defaultMaxRounds as a hard backstop.
func (in Input) maxRounds() int {
	k := in.MaxTransfers + 1
	if k <= 0 || k > defaultMaxRounds {
		return defaultMaxRounds
	}
	return k
}

// Result is the outcome of a Search: per-stop best labels for isochrone
// mode, plus reconstructed Pareto-optimal journeys for point-to-point
// queries.
type Result struct {
	// BestByRound[k][stopIdx] is the best label known for that stop
	// after round k (Isochrone reads the same per-round labels from its
	// own search state rather than from a Result).
	BestByRound [][]label

	Journeys []Journey
}

// search holds the working state of one round-based expansion. It is
// built fresh per call (RAPTOR labels are owned by the worker
// and reset at the start of each request).
type search struct {
	in      Input
	ds      *transit.Dataset
	numStop int

	rounds []([]label)
	marked map[transit.StopPointID]bool

	cmpBetter func(a, b DateTime) bool // true if a is strictly better than b
	worst     DateTime
}

func newSearch(in Input) *search {
	ds := in.Dataset
	n := len(ds.StopPoints)
	s := &search{in: in, ds: ds, numStop: n}

	rounds := in.maxRounds()
	s.rounds = make([][]label, rounds+1)
	for k := range s.rounds {
		s.rounds[k] = make([]label, n)
	}

	if in.Clockwise {
		s.cmpBetter = func(a, b DateTime) bool { return a < b }
		s.worst = PosInf
	} else {
		s.cmpBetter = func(a, b DateTime) bool { return a > b }
		s.worst = NegInf
	}
	for k := range s.rounds {
		for i := range s.rounds[k] {
			s.rounds[k][i] = label{dt: s.worst}
		}
	}

	s.marked = make(map[transit.StopPointID]bool)
	return s
}

// seed accesses: in a clockwise search, Departures give round-0 labels
// (InitDT + access duration); a reverse search seeds from Arrivals
// (InitDT - access duration).
func (s *search) seedRound0() {
	begin := s.in.Dataset.ProductionPeriod.Begin
	initDT := FromTime(s.in.InitDT, begin)

	access := s.in.Departures
	sign := int64(1)
	if !s.in.Clockwise {
		access = s.in.Arrivals
		sign = -1
	}
	for sp, dur := range access {
		dt := initDT + DateTime(sign*int64(dur/time.Second))
		if s.cmpBetter(dt, s.rounds[0][sp].dt) {
			s.rounds[0][sp] = label{dt: dt}
		}
		s.marked[sp] = true
	}
}

func (s *search) withinBound(dt DateTime) bool {
	if s.in.MaxDuration <= 0 {
		return true
	}
	begin := s.in.Dataset.ProductionPeriod.Begin
	initDT := FromTime(s.in.InitDT, begin)
	diff := int64(dt) - int64(initDT)
	if !s.in.Clockwise {
		diff = -diff
	}
	return diff <= int64(s.in.MaxDuration/time.Second)
}

func (s *search) withinDirectPath(dt DateTime) bool {
	if s.in.DirectPathDuration == nil {
		return true
	}
	begin := s.in.Dataset.ProductionPeriod.Begin
	initDT := FromTime(s.in.InitDT, begin)
	diff := int64(dt) - int64(initDT)
	if !s.in.Clockwise {
		diff = -diff
	}
	return diff <= int64(*s.in.DirectPathDuration/time.Second)
}

func (s *search) isForbidden(route *transit.Route) bool {
	if len(s.in.Forbidden) == 0 {
		return false
	}
	if s.in.Forbidden[route.URI] || s.in.Forbidden[route.Line.URI] || s.in.Forbidden[route.Line.Mode] {
		return true
	}
	return false
}

func (s *search) vjAdmissible(vj *transit.VehicleJourney, route *transit.Route, date time.Time) bool {
	if !vj.CirculatesOn(date, s.in.RTLevel) {
		return false
	}
	if s.isForbidden(route) {
		return false
	}
	if s.in.Accessibility.Wheelchair && !vj.Wheelchair {
		return false
	}
	return true
}

// serviceDateFor resolves the service day a boarding DateTime falls on,
// given the production period begin.
func (s *search) serviceDateFor(dt DateTime) time.Time {
	begin := s.in.Dataset.ProductionPeriod.Begin
	totalSeconds := int64(dt)
	days := totalSeconds / 86400
	if totalSeconds < 0 && totalSeconds%86400 != 0 {
		days--
	}
	return begin.AddDate(0, 0, int(days))
}

func (s *search) secondsOfDay(dt DateTime) int {
	begin := s.in.Dataset.ProductionPeriod.Begin
	day := s.serviceDateFor(dt)
	dayStart := FromTime(day, begin)
	return int(int64(dt) - int64(dayStart))
}

// Search runs the full multi-round RAPTOR expansion and returns the
// per-stop labels plus any reconstructed journeys reaching a stop point
// in in.Arrivals (clockwise) or in.Departures (reverse).
func Search(in Input) *Result {
	s := newSearch(in)
	s.seedRound0()

	rounds := in.maxRounds()
	for k := 1; k <= rounds; k++ {
		copy(s.rounds[k], s.rounds[k-1])
		improved := s.expandRoutes(k)
		improvedTransfers := s.expandTransfers(k)
		if !improved && !improvedTransfers {
			s.rounds = s.rounds[:k+1]
			break
		}
	}

	res := &Result{BestByRound: s.rounds}
	res.Journeys = s.extractJourneys()
	return res
}

// routesToProcess groups, for every JourneyPattern touched by a stop
// marked last round, the earliest (clockwise) / latest (reverse) marked
// stop in pattern order — the route-expansion scan range of round k
// step 1.
func (s *search) routesToProcess() map[transit.JourneyPatternID]int {
	routes := make(map[transit.JourneyPatternID]int)
	for sp := range s.marked {
		for _, ref := range s.ds.StopPoint(sp).JourneyPatternPoints {
			order := ref.Order
			if s.in.Clockwise {
				if existing, ok := routes[ref.Pattern]; !ok || order < existing {
					routes[ref.Pattern] = order
				}
			} else {
				if existing, ok := routes[ref.Pattern]; !ok || order > existing {
					routes[ref.Pattern] = order
				}
			}
		}
	}
	return routes
}

func (s *search) expandRoutes(k int) bool {
	routes := s.routesToProcess()
	s.marked = make(map[transit.StopPointID]bool)
	improved := false

	// Stable iteration order for determinism (map iteration order is
	// randomized in Go); sort pattern ids.
	ids := make([]int, 0, len(routes))
	for pid := range routes {
		ids = append(ids, int(pid))
	}
	sort.Ints(ids)

	for _, pidInt := range ids {
		pid := transit.JourneyPatternID(pidInt)
		startOrder := routes[pid]
		pattern := s.ds.JourneyPattern(pid)
		route := s.ds.Route(pattern.Route)

		var boardingVJ *transit.VehicleJourney
		var boardStop transit.StopPointID
		var boardTime DateTime
		var boardOrder int
		var serviceDate time.Time

		points := pattern.Points
		indices := make([]int, 0, len(points))
		for i := range points {
			indices = append(indices, i)
		}
		if s.in.Clockwise {
			// iterate forward from startOrder
			filtered := indices[:0:0]
			for _, i := range indices {
				if points[i].Order >= startOrder {
					filtered = append(filtered, i)
				}
			}
			indices = filtered
		} else {
			var filtered []int
			for i := len(indices) - 1; i >= 0; i-- {
				if points[indices[i]].Order <= startOrder {
					filtered = append(filtered, indices[i])
				}
			}
			indices = filtered
		}

		for _, i := range indices {
			jpp := points[i]
			stop := jpp.StopPoint

			// Alighting: can the current boarded VJ improve this stop?
			if boardingVJ != nil {
				st, ok := boardingVJ.StopTimeAt(i)
				if ok {
					canAlight := (s.in.Clockwise && jpp.DropOffAllowed) || (!s.in.Clockwise && jpp.PickupAllowed)
					if canAlight {
						dayStart := FromTime(serviceDate, s.ds.ProductionPeriod.Begin)
						var arr DateTime
						if s.in.Clockwise {
							arr = dayStart + DateTime(st.Arrival)
						} else {
							arr = dayStart + DateTime(st.Departure)
						}
						if s.cmpBetter(arr, s.rounds[k][stop].dt) && s.withinBound(arr) && s.withinDirectPath(arr) {
							s.rounds[k][stop] = label{
								dt:          arr,
								hasTransit:  true,
								boardStop:   boardStop,
								boardTime:   boardTime,
								alightStop:  stop,
								vj:          boardingVJ.ID,
								patternFrom: boardOrder,
								patternTo:   i,
							}
							s.marked[stop] = true
							improved = true
						}
					}
				}
			}

			// Boarding: can we board a (possibly better) trip here?
			prevLabel := s.rounds[k-1][stop]
			if prevLabel.dt != s.worst {
				vj, st, date, found := s.findTrip(route, pattern, i, prevLabel.dt)
				if found {
					better := boardingVJ == nil
					if !better && s.in.Clockwise {
						better = st.Departure < mustStopTime(boardingVJ, boardOrder).Departure
					} else if !better {
						better = st.Arrival > mustStopTime(boardingVJ, boardOrder).Arrival
					}
					if better {
						boardingVJ = vj
						boardStop = stop
						serviceDate = date
						boardOrder = i
						dayStart := FromTime(date, s.ds.ProductionPeriod.Begin)
						if s.in.Clockwise {
							boardTime = dayStart + DateTime(st.Departure)
						} else {
							boardTime = dayStart + DateTime(st.Arrival)
						}
					}
				}
			}
		}
	}
	return improved
}

func mustStopTime(vj *transit.VehicleJourney, order int) transit.StopTime {
	st, _ := vj.StopTimeAt(order)
	return st
}

// findTrip finds the earliest (clockwise) / latest (reverse) admissible
// VJ of pattern whose stop time at point index i is reachable from
// afterDT ("Maintain a current VJ").
func (s *search) findTrip(route *transit.Route, pattern *transit.JourneyPattern, pointIdx int, afterDT DateTime) (*transit.VehicleJourney, transit.StopTime, time.Time, bool) {
	// Search today and tomorrow's (resp. yesterday's) service date to
	// handle next-day roll-over stop times.
	candidates := []int{0, 1}
	if !s.in.Clockwise {
		candidates = []int{0, -1}
	}

	var best *transit.VehicleJourney
	var bestST transit.StopTime
	var bestDate time.Time
	found := false

	baseDate := s.serviceDateFor(afterDT)
	for _, dayOffset := range candidates {
		date := baseDate.AddDate(0, 0, dayOffset)
		dayStart := FromTime(date, s.ds.ProductionPeriod.Begin)

		for _, vjID := range pattern.VehicleJourneys {
			vj := s.ds.VehicleJourney(vjID)
			if !s.vjAdmissible(vj, route, date) {
				continue
			}
			st, ok := vj.StopTimeAt(pointIdx)
			if !ok {
				continue
			}
			var t DateTime
			if s.in.Clockwise {
				t = dayStart + DateTime(st.Departure)
				if t < afterDT {
					continue
				}
			} else {
				t = dayStart + DateTime(st.Arrival)
				if t > afterDT {
					continue
				}
			}
			if !found {
				best, bestST, bestDate, found = vj, st, date, true
				continue
			}
			if s.in.Clockwise && t < dayStart+DateTime(mustStopTime(best, pointIdx).Departure) {
				best, bestST, bestDate = vj, st, date
			} else if !s.in.Clockwise && t > FromTime(bestDate, s.ds.ProductionPeriod.Begin)+DateTime(mustStopTime(best, pointIdx).Arrival) {
				best, bestST, bestDate = vj, st, date
			} else if t == (func() DateTime {
				if s.in.Clockwise {
					return dayStart + DateTime(mustStopTime(best, pointIdx).Departure)
				}
				return FromTime(bestDate, s.ds.ProductionPeriod.Begin) + DateTime(mustStopTime(best, pointIdx).Arrival)
			})() && vj.URI < best.URI {
				// deterministic tie-break ("lexicographic VJ URI").
				best, bestST, bestDate = vj, st, date
			}
		}
	}
	return best, bestST, bestDate, found
}

// expandTransfers implements round k step 3: apply
// foot-transfers (including the trivial identity transfer) from every
// stop marked this round.
func (s *search) expandTransfers(k int) bool {
	improved := false
	marked := make([]transit.StopPointID, 0, len(s.marked))
	for sp := range s.marked {
		marked = append(marked, sp)
	}
	sort.Slice(marked, func(i, j int) bool { return marked[i] < marked[j] })

	newlyMarked := make(map[transit.StopPointID]bool)
	for _, sp := range marked {
		base := s.rounds[k][sp]
		if base.dt == s.worst {
			continue
		}
		for _, tr := range s.ds.Transfers[sp] {
			sign := int64(1)
			if !s.in.Clockwise {
				sign = -1
			}
			cost := int64((tr.Duration + s.in.TransferPenalty) / time.Second)
			dt := base.dt + DateTime(sign*cost)
			if s.cmpBetter(dt, s.rounds[k][tr.To].dt) && s.withinBound(dt) && s.withinDirectPath(dt) {
				s.rounds[k][tr.To] = label{
					dt:           dt,
					viaTransfer:  true,
					transferFrom: sp,
					boardTime:    base.dt,
				}
				newlyMarked[tr.To] = true
				improved = true
			}
		}
	}
	for sp := range newlyMarked {
		s.marked[sp] = true
	}
	return improved
}
