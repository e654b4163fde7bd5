package transit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidityPatternAddPeriodAndAnd(t *testing.T) {
	begin := day(2015, time.March, 1)
	vp := NewValidityPattern(begin, 31)

	// Weekdays (Mon-Fri) for the whole period.
	weekdays := [7]bool{false, true, true, true, true, true, false}
	vp.AddPeriod(begin, day(2015, time.March, 31), weekdays)

	assert.True(t, vp.IsActive(day(2015, time.March, 2))) // Monday
	assert.False(t, vp.IsActive(day(2015, time.March, 1))) // Sunday

	weekends := [7]bool{true, false, false, false, false, false, true}
	vp2 := NewValidityPattern(begin, 31)
	vp2.AddPeriod(begin, day(2015, time.March, 31), weekends)

	and := vp.And(vp2)
	assert.True(t, and.IsEmpty())
}

func TestValidityPatternRoundTrip(t *testing.T) {
	begin := day(2015, time.March, 1)
	vp := NewValidityPattern(begin, 20)
	for _, i := range []int{0, 1, 2, 5, 6, 7, 15} {
		vp.Set(begin.AddDate(0, 0, i), true)
	}

	periods := vp.ExportPeriods()
	rebuilt := ImportPeriods(begin, 20, periods)

	for i := 0; i < 20; i++ {
		d := begin.AddDate(0, 0, i)
		assert.Equal(t, vp.IsActive(d), rebuilt.IsActive(d), "day offset %d", i)
	}
}

func TestCalendarExceptionsOverrideWeekPattern(t *testing.T) {
	cal := &Calendar{
		ActivePeriods: []ActivePeriod{{Start: day(2015, time.March, 1), End: day(2015, time.March, 31)}},
		WeekPattern:   [7]bool{false, true, true, true, true, true, false}, // Mon-Fri
	}
	monday := day(2015, time.March, 2)
	assert.True(t, cal.IsActive(monday))

	cal.Exceptions = append(cal.Exceptions, CalendarException{Date: monday, Add: false})
	assert.False(t, cal.IsActive(monday))

	sunday := day(2015, time.March, 1)
	cal.Exceptions = append(cal.Exceptions, CalendarException{Date: sunday, Add: true})
	assert.True(t, cal.IsActive(sunday))
}

func TestTimeZoneHandlerPartitionMismatch(t *testing.T) {
	begin := day(2015, time.January, 1)
	tz := NewTimeZoneHandler(begin, 10)

	vp := NewValidityPattern(begin, 10)
	vp.AddPeriod(begin, begin.AddDate(0, 0, 4), [7]bool{true, true, true, true, true, true, true})
	tz.AddPeriod(vp, 3600)

	offset, err := tz.UTCOffset(begin)
	require.NoError(t, err)
	assert.Equal(t, 3600, offset)

	_, err = tz.UTCOffset(begin.AddDate(0, 0, 9))
	assert.ErrorIs(t, err, ErrTimeZonePartitionMismatch)
}

func TestVehicleJourneyCirculatesOnRTLevels(t *testing.T) {
	begin := day(2015, time.March, 1)
	base := NewValidityPattern(begin, 31)
	base.Set(day(2015, time.March, 14), true)
	rt := NewValidityPattern(begin, 31)
	rt.Set(day(2015, time.March, 14), true)

	vj := &VehicleJourney{Base: base, Realtime: rt}
	assert.True(t, vj.CirculatesOn(day(2015, time.March, 14), RTLevelBase))
	assert.True(t, vj.CirculatesOn(day(2015, time.March, 14), RTLevelRealTime))

	rt.Set(day(2015, time.March, 14), false) // e.g. masked by a cancellation
	assert.True(t, vj.CirculatesOn(day(2015, time.March, 14), RTLevelBase))
	assert.False(t, vj.CirculatesOn(day(2015, time.March, 14), RTLevelRealTime))
}
