package transit

import "time"

// ActivePeriod is an inclusive [Start, End] date range.
type ActivePeriod struct {
	Start, End time.Time
}

// CalendarException amends a Calendar's regular week-pattern on a single
// date, adding or removing service.
type CalendarException struct {
	Date time.Time
	Add  bool
}

// Calendar drives frequency-based stop schedules (scenario
// 3): an active period, a weekly pattern, and single-day add/sub
// exceptions.
type Calendar struct {
	URI            string
	ActivePeriods  []ActivePeriod
	WeekPattern    [7]bool // index = time.Weekday
	Exceptions     []CalendarException
}

// IsActive reports whether the calendar has service on date d: d must
// fall in one of ActivePeriods and match WeekPattern, except where an
// Exception overrides it.
func (c *Calendar) IsActive(d time.Time) bool {
	d = d.Truncate(24 * time.Hour)

	for _, ex := range c.Exceptions {
		if ex.Date.Truncate(24 * time.Hour).Equal(d) {
			return ex.Add
		}
	}

	inPeriod := false
	for _, p := range c.ActivePeriods {
		start := p.Start.Truncate(24 * time.Hour)
		end := p.End.Truncate(24 * time.Hour)
		if !d.Before(start) && !d.After(end) {
			inPeriod = true
			break
		}
	}
	if !inPeriod {
		return false
	}
	return c.WeekPattern[int(d.Weekday())]
}

// ToValidityPattern materializes the calendar into a ValidityPattern
// spanning the production period, so it can be intersected with a VJ's
// own validity pattern.
func (c *Calendar) ToValidityPattern(beginning time.Time, numDays int) *ValidityPattern {
	vp := NewValidityPattern(beginning, numDays)
	for i := 0; i < numDays; i++ {
		d := beginning.AddDate(0, 0, i)
		if c.IsActive(d) {
			vp.Set(d, true)
		}
	}
	return vp
}
