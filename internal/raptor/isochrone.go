package raptor

import (
	"time"

	"github.com/antigravity/kraken-worker/internal/transit"
)

// IsochroneEntry is one reached stop point in isochrone mode: every
// stop point's best label, with no destination set required.
type IsochroneEntry struct {
	StopPoint transit.StopPointID
	Arrival   time.Time
	Transfers int
}

// Isochrone runs Search with an empty destination set and collects every
// stop point's best label across all rounds, tagged with the transfer
// count (round - 1, as in Journey.Rounds) of the round at which that best
// label was first reached.
func Isochrone(in Input) []IsochroneEntry {
	in.Arrivals = nil

	s := newSearch(in)
	s.seedRound0()

	rounds := in.maxRounds()
	lastRound := 0
	for k := 1; k <= rounds; k++ {
		copy(s.rounds[k], s.rounds[k-1])
		improved := s.expandRoutes(k)
		improvedTransfers := s.expandTransfers(k)
		lastRound = k
		if !improved && !improvedTransfers {
			break
		}
	}

	begin := in.Dataset.ProductionPeriod.Begin
	reachedAt := make(map[transit.StopPointID]int)
	best := make(map[transit.StopPointID]DateTime)

	for k := 0; k <= lastRound; k++ {
		for sp, lbl := range s.rounds[k] {
			if lbl.dt == s.worst {
				continue
			}
			spID := transit.StopPointID(sp)
			prev, seen := best[spID]
			if !seen || s.cmpBetter(lbl.dt, prev) {
				best[spID] = lbl.dt
				reachedAt[spID] = k
			}
		}
	}

	entries := make([]IsochroneEntry, 0, len(best))
	for sp, dt := range best {
		transfers := reachedAt[sp] - 1
		if transfers < 0 {
			transfers = 0
		}
		entries = append(entries, IsochroneEntry{
			StopPoint: sp,
			Arrival:   dt.ToTime(begin),
			Transfers: transfers,
		})
	}
	return entries
}
