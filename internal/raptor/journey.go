package raptor

import (
	"sort"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// LegKind discriminates a Journey's legs before the worker translates
// them into the wire-level Section model (builds on top of
// this).
type LegKind int

const (
	LegTransit LegKind = iota
	LegTransfer
)

// Leg is one reconstructed hop of a journey: either a ride on a vehicle
// journey between two stop points, or a foot transfer between them.
type Leg struct {
	Kind LegKind

	From, To   transit.StopPointID
	Departure  DateTime
	Arrival    DateTime

	VehicleJourney transit.VehicleJourneyID // LegTransit only
	BoardOrder     int                      // order-in-pattern of From, LegTransit only
	AlightOrder    int                      // order-in-pattern of To, LegTransit only
}

// Journey is one Pareto-optimal reconstructed path: its transfer count
// (Rounds, one less than the number of transit legs) and its ordered legs.
type Journey struct {
	Rounds int
	Legs   []Leg

	Departure DateTime
	Arrival   DateTime
}

// extractJourneys walks s.rounds from round 0 up to round len-1,
// keeping any round whose destination-set label strictly improves on
// every earlier (== fewer-transfers) round's label — the "Pareto frontier
// over (arrival, transfers)" — then reconstructs each kept label's leg
// chain by following board/transfer back-pointers. The result is sorted
// by Rounds, fewest transfers first.
func (s *search) extractJourneys() []Journey {
	destinations := s.in.Arrivals
	if !s.in.Clockwise {
		destinations = s.in.Departures
	}
	if len(destinations) == 0 {
		return nil
	}

	type candidate struct {
		round int
		stop  transit.StopPointID
		dt    DateTime
	}
	var frontier []candidate

	// Scan rounds ascending (fewest trips first) and keep a round only
	// when it strictly improves on every earlier round's best label:
	// that is the Pareto frontier over (arrival, transfers) described in
	// — a later round reaching the same arrival is dominated
	// by the earlier, less-transfer-heavy round that already reached it.
	best := s.worst
	haveBest := false
	for k := 0; k < len(s.rounds); k++ {
		roundBestDT := s.worst
		roundBestStop := transit.StopPointID(-1)
		for sp := range destinations {
			lbl := s.rounds[k][sp]
			if lbl.dt == s.worst {
				continue
			}
			if roundBestStop < 0 || s.cmpBetter(lbl.dt, roundBestDT) {
				roundBestDT = lbl.dt
				roundBestStop = sp
			}
		}
		if roundBestStop < 0 {
			continue
		}
		if !haveBest || s.cmpBetter(roundBestDT, best) {
			best = roundBestDT
			haveBest = true
			frontier = append(frontier, candidate{round: k, stop: roundBestStop, dt: roundBestDT})
		}
	}

	journeys := make([]Journey, 0, len(frontier))
	for _, c := range frontier {
		legs := s.reconstructLegs(c.round, c.stop)
		if legs == nil {
			continue
		}
		transfers := c.round - 1
		if transfers < 0 {
			transfers = 0
		}
		j := Journey{Rounds: transfers, Legs: legs}
		if s.in.Clockwise {
			j.Departure = legs[0].Departure
			j.Arrival = c.dt
		} else {
			j.Departure = c.dt
			j.Arrival = legs[len(legs)-1].Arrival
		}
		journeys = append(journeys, j)
	}

	sort.Slice(journeys, func(i, j int) bool { return journeys[i].Rounds < journeys[j].Rounds })
	return journeys
}

// reconstructLegs walks backwards from (round, stop)'s label through its
// board/transfer chain, rebuilding the forward leg sequence.
func (s *search) reconstructLegs(round int, stop transit.StopPointID) []Leg {
	var legs []Leg
	k := round
	sp := stop

	for k >= 0 {
		lbl := s.rounds[k][sp]
		if lbl.dt == s.worst {
			return nil
		}
		switch {
		case lbl.viaTransfer:
			legs = append(legs, Leg{
				Kind:      LegTransfer,
				From:      lbl.transferFrom,
				To:        sp,
				Departure: lbl.boardTime,
				Arrival:   lbl.dt,
			})
			sp = lbl.transferFrom
			// transfers are applied within the same round; stay at k.
		case lbl.hasTransit:
			legs = append(legs, Leg{
				Kind:           LegTransit,
				From:           lbl.boardStop,
				To:             sp,
				Departure:      lbl.boardTime,
				Arrival:        lbl.dt,
				VehicleJourney: lbl.vj,
				BoardOrder:     lbl.patternFrom,
				AlightOrder:    lbl.patternTo,
			})
			sp = lbl.boardStop
			k--
		default:
			// round-0 seed label or an unmarked passthrough: stop here.
			k = -1
		}
	}

	if s.in.Clockwise {
		reverse(legs)
	}
	return legs
}

func reverse(legs []Leg) {
	for i, j := 0, len(legs)-1; i < j; i, j = i+1, j-1 {
		legs[i], legs[j] = legs[j], legs[i]
	}
}
