package transit

import (
	"time"

	"github.com/pkg/errors"
)

// ErrTimeZonePartitionMismatch is the "programming error" recoverable
// exception calls for when the production period and the
// time-zone partition disagree.
var ErrTimeZonePartitionMismatch = errors.New("transit: timezone partition does not cover the production period")

// utcOffsetPeriod pairs a validity pattern with the UTC offset, in
// seconds, that applies on every day it is active.
type utcOffsetPeriod struct {
	Validity *ValidityPattern
	OffsetS  int
}

// TimeZoneHandler owns an ordered list of (validity pattern, UTC offset)
// pairs that partition the production period
type TimeZoneHandler struct {
	ProductionStart time.Time
	ProductionDays  int
	periods         []utcOffsetPeriod
}

// NewTimeZoneHandler creates a handler over [productionStart,
// productionStart+productionDays).
func NewTimeZoneHandler(productionStart time.Time, productionDays int) *TimeZoneHandler {
	return &TimeZoneHandler{ProductionStart: productionStart, ProductionDays: productionDays}
}

// AddPeriod registers a (validity, offset) pair. Periods are checked in
// registration order by UTCOffset/FirstUTCOffset.
func (tz *TimeZoneHandler) AddPeriod(validity *ValidityPattern, offsetSeconds int) {
	tz.periods = append(tz.periods, utcOffsetPeriod{Validity: validity, OffsetS: offsetSeconds})
}

// UTCOffset returns the UTC offset, in seconds, applicable on day d. It
// returns ErrTimeZonePartitionMismatch if no registered period covers d
// — a programming error since the partition is expected
// to exhaustively cover the production period.
func (tz *TimeZoneHandler) UTCOffset(d time.Time) (int, error) {
	for _, p := range tz.periods {
		if p.Validity.IsActive(d) {
			return p.OffsetS, nil
		}
	}
	return 0, errors.WithStack(ErrTimeZonePartitionMismatch)
}

// FirstUTCOffset returns the offset of the first period whose
// intersection with vp is non-empty.
func (tz *TimeZoneHandler) FirstUTCOffset(vp *ValidityPattern) (int, error) {
	for _, p := range tz.periods {
		if !p.Validity.And(vp).IsEmpty() {
			return p.OffsetS, nil
		}
	}
	return 0, errors.WithStack(ErrTimeZonePartitionMismatch)
}
