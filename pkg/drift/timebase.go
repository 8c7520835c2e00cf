// ABOUTME: Wraparound-safe TSBPD time base tracker
// ABOUTME: Detects and commits 32-bit microsecond counter wraparound in two phases
package drift

import "fmt"

const (
	// MaxTimestamp is the largest value of the 32-bit microsecond counter (01h11m35s)
	MaxTimestamp uint32 = 0xFFFFFFFF

	// DefaultWrapGuardPeriodUs is the 30 s guard window around the wrap boundary
	DefaultWrapGuardPeriodUs uint32 = 30 * 1000000
)

// TimeBase tracks the offset between local elapsed time and the remote 32-bit
// ACKACK timestamp. Advance must be called once per row, in row order.
type TimeBase struct {
	baseUs      int64
	wrapPending bool
	wraps       int

	guardUs  uint32
	maxTs    uint32
	periodUs int64
}

// NewTimeBase anchors a tracker on the first row of a sequence.
// guardUs and maxTimestamp of zero select the defaults. Twice the guard must
// stay below maxTimestamp or the guard bands would overlap.
func NewTimeBase(first Row, guardUs, maxTimestamp uint32) (*TimeBase, error) {
	if guardUs == 0 {
		guardUs = DefaultWrapGuardPeriodUs
	}
	if maxTimestamp == 0 {
		maxTimestamp = MaxTimestamp
	}
	if 2*uint64(guardUs) >= uint64(maxTimestamp) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf(
			"wrap guard period %d must be less than half of max timestamp %d", guardUs, maxTimestamp)}
	}
	tb := &TimeBase{
		guardUs:  guardUs,
		maxTs:    maxTimestamp,
		periodUs: int64(maxTimestamp) + 1,
	}
	tb.Reset(first)
	return tb, nil
}

// Reset re-anchors the tracker on the first row of a new sequence
func (tb *TimeBase) Reset(first Row) {
	tb.baseUs = int64(first.ElapsedUs) - int64(first.AckAckTimestampUs)
	tb.wrapPending = false
	tb.wraps = 0
}

// Advance returns the time base to apply to a row carrying timestampUs.
//
// Once a timestamp enters the top guard band a wrap is pending. While pending,
// timestamps below the guard are already past the boundary and get a one-off
// carryover; the first timestamp in [guard, 2*guard] commits the wrap. Anything
// else leaves the wrap in flight.
func (tb *TimeBase) Advance(timestampUs uint32) int64 {
	var carryover int64

	if tb.wrapPending {
		switch {
		case timestampUs < tb.guardUs:
			carryover = tb.periodUs
		case uint64(timestampUs) <= 2*uint64(tb.guardUs):
			tb.wrapPending = false
			tb.baseUs += tb.periodUs
			tb.wraps++
		}
	} else if timestampUs > tb.maxTs-tb.guardUs {
		tb.wrapPending = true
	}

	return tb.baseUs + carryover
}

// BaseUs returns the committed time base
func (tb *TimeBase) BaseUs() int64 {
	return tb.baseUs
}

// WrapPending reports whether a wrap has been detected but not committed
func (tb *TimeBase) WrapPending() bool {
	return tb.wrapPending
}

// Wraps returns the number of committed wraparounds
func (tb *TimeBase) Wraps() int {
	return tb.wraps
}
