// ABOUTME: Clock source selection for drift logs
// ABOUTME: Maps STEADY/SYSTEM clocks to their explicitly named log columns
package drift

import (
	"fmt"
	"strings"
)

// Clock selects which of the two per-endpoint clock readings is used
type Clock int

const (
	// Steady is the monotonic clock
	Steady Clock = iota
	// System is the wall clock
	System
)

// Columns names the log fields recorded for one clock
type Columns struct {
	Elapsed         string
	AckAckTimestamp string
	RTT             string
	SmoothedRTT     string
}

var (
	steadyColumns = Columns{
		Elapsed:         "usElapsedStd",
		AckAckTimestamp: "usAckAckTimestampStd",
		RTT:             "usRTTStd",
		SmoothedRTT:     "usSmoothedRTTStd",
	}
	systemColumns = Columns{
		Elapsed:         "usElapsedSys",
		AckAckTimestamp: "usAckAckTimestampSys",
		RTT:             "usRTTSys",
		SmoothedRTT:     "usSmoothedRTTSys",
	}
)

// Columns returns the log columns holding this clock's readings
func (c Clock) Columns() Columns {
	if c == System {
		return systemColumns
	}
	return steadyColumns
}

// String returns the short label used in logs and the dashboard ("Std" or "Sys")
func (c Clock) String() string {
	switch c {
	case Steady:
		return "Std"
	case System:
		return "Sys"
	default:
		return fmt.Sprintf("Clock(%d)", int(c))
	}
}

// ParseClock accepts "std", "steady", "sys" or "system" in any case
func ParseClock(s string) (Clock, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "std", "steady":
		return Steady, nil
	case "sys", "system":
		return System, nil
	default:
		return Steady, fmt.Errorf("unknown clock %q (want Std or Sys)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Clock) MarshalText() ([]byte, error) {
	if c != Steady && c != System {
		return nil, fmt.Errorf("invalid clock %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
