package transit

import "time"

// dayLayout is the undelimited YYYYMMDD layout used on the wire for
// trip_update.trip.start_date and disruption exception ids
const dayLayout = "20060102"

// ParseUndelimitedDate parses an undelimited YYYYMMDD date.
func ParseUndelimitedDate(s string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, s, time.UTC)
}

// FormatUndelimitedDate formats t as undelimited YYYYMMDD.
func FormatUndelimitedDate(t time.Time) string {
	return t.Format(dayLayout)
}

// ValidityPattern is a bitset over the production date range indicating
// the days on which a vehicle journey circulates
// Bit i corresponds to date BeginningDate.AddDate(0, 0, i).
type ValidityPattern struct {
	BeginningDate time.Time
	bits          []bool
}

// NewValidityPattern allocates an all-false pattern spanning numDays
// days starting at beginning.
func NewValidityPattern(beginning time.Time, numDays int) *ValidityPattern {
	return &ValidityPattern{
		BeginningDate: beginning.Truncate(24 * time.Hour),
		bits:          make([]bool, numDays),
	}
}

// offset returns the bit index for date d, and whether it falls within
// range.
func (vp *ValidityPattern) offset(d time.Time) (int, bool) {
	days := int(d.Truncate(24 * time.Hour).Sub(vp.BeginningDate).Hours() / 24)
	if days < 0 || days >= len(vp.bits) {
		return 0, false
	}
	return days, true
}

// IsActive reports whether the pattern has its bit set for date d.
func (vp *ValidityPattern) IsActive(d time.Time) bool {
	idx, ok := vp.offset(d)
	if !ok {
		return false
	}
	return vp.bits[idx]
}

// Set sets (or clears) the bit for date d. No-op if d is out of range.
func (vp *ValidityPattern) Set(d time.Time, active bool) {
	idx, ok := vp.offset(d)
	if !ok {
		return
	}
	vp.bits[idx] = active
}

// AddPeriod sets every bit in [start, end] (inclusive) whose weekday is
// set in weekPattern (index 0 = Sunday, matching time.Weekday).
func (vp *ValidityPattern) AddPeriod(start, end time.Time, weekPattern [7]bool) {
	start = start.Truncate(24 * time.Hour)
	end = end.Truncate(24 * time.Hour)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if weekPattern[int(d.Weekday())] {
			vp.Set(d, true)
		}
	}
}

// And returns the bitwise intersection of vp and other. Both must share
// the same BeginningDate and length; if they don't, the result is
// truncated to the overlapping range.
func (vp *ValidityPattern) And(other *ValidityPattern) *ValidityPattern {
	out := NewValidityPattern(vp.BeginningDate, len(vp.bits))
	for i := range out.bits {
		d := vp.BeginningDate.AddDate(0, 0, i)
		out.bits[i] = vp.IsActive(d) && other.IsActive(d)
	}
	return out
}

// IsEmpty reports whether no bit is set.
func (vp *ValidityPattern) IsEmpty() bool {
	for _, b := range vp.bits {
		if b {
			return false
		}
	}
	return true
}

// Period is an (offset, active) run-length pair used to export/import a
// ValidityPattern without re-walking individual bits; see
// ExportPeriods/ImportPeriods and the validity-pattern round-trip
// testable property
type Period struct {
	Offset int
	Active bool
}

// ExportPeriods run-length-encodes the pattern's bits.
func (vp *ValidityPattern) ExportPeriods() []Period {
	var out []Period
	for i, b := range vp.bits {
		if i == 0 || b != out[len(out)-1].Active {
			out = append(out, Period{Offset: i, Active: b})
		}
	}
	return out
}

// ImportPeriods rebuilds a ValidityPattern of length numDays starting at
// beginning from a run-length encoding produced by ExportPeriods.
func ImportPeriods(beginning time.Time, numDays int, periods []Period) *ValidityPattern {
	vp := NewValidityPattern(beginning, numDays)
	for i, p := range periods {
		end := numDays
		if i+1 < len(periods) {
			end = periods[i+1].Offset
		}
		if p.Active {
			for j := p.Offset; j < end && j < numDays; j++ {
				vp.bits[j] = true
			}
		}
	}
	return vp
}
