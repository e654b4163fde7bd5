package raptor

import "time"

// SecondPass implements bounded reverse second pass: once a
// clockwise search has found a best arrival, a reverse search starting at
// that best arrival, with labels bounded to
// [best arrival - MaxExtraSecondPass seconds, best arrival], is run from
// the same destination set back towards the origin, to surface journeys that
// arrive no later than the first pass's best but depart later (and are
// therefore more convenient without being worse on either Pareto axis).
//
// It is a thin wrapper over Search: build a reverse Input seeded from
// the forward pass's arrival set, bound it to the extra-duration window,
// and run it.
func SecondPass(forward Input, firstPassResult *Result) *Result {
	if forward.MaxExtraSecondPass <= 0 || len(firstPassResult.Journeys) == 0 {
		return nil
	}

	bestArrival := firstPassResult.Journeys[0].Arrival
	for _, j := range firstPassResult.Journeys {
		if j.Arrival < bestArrival {
			bestArrival = j.Arrival
		}
	}

	begin := forward.Dataset.ProductionPeriod.Begin
	reverseInit := bestArrival.ToTime(begin)

	reverse := forward
	reverse.Clockwise = false
	reverse.InitDT = reverseInit
	reverse.Arrivals = forward.Arrivals
	reverse.Departures = forward.Departures
	reverse.MaxDuration = time.Duration(forward.MaxExtraSecondPass) * time.Second
	reverse.DirectPathDuration = nil

	return Search(reverse)
}
