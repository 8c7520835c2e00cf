// ABOUTME: Drift sample types and the per-row drift calculator
// ABOUTME: Computes raw and RTT-adjusted drift as a forward-only scan
package drift

// Row is one ACK/ACKACK round trip with the local and remote clocks already chosen
type Row struct {
	ElapsedUs         uint64 // local elapsed time, monotonic
	AckAckTimestampUs uint32 // remote ACKACK timestamp, wraps every ~4295 s
	RTTUs             int64  // instant RTT measured locally, >= 0
}

// Sample is the drift derived from one row. Samples are never revised.
type Sample struct {
	ElapsedUs          uint64
	RTTUs              int64
	TimeBaseUs         int64
	RawDriftUs         int64
	RTTAdjustedDriftUs float64
	EWMARawUs          float64
	EWMARTTAdjustedUs  float64
}

// ElapsedSeconds returns the local elapsed time in seconds
func (s Sample) ElapsedSeconds() float64 {
	return float64(s.ElapsedUs) / 1e6
}

// Calculator turns rows into samples. It owns the time base and the two
// smoothers, so one Calculator serves exactly one sequence.
type Calculator struct {
	timeBase  *TimeBase
	rttBaseUs int64
	raw       *EWMA
	adjusted  *EWMA
	rows      int
}

// NewCalculator anchors the time base and RTT base on the first row
func NewCalculator(first Row, cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	raw, err := NewEWMA(cfg.EWMACenterOfMass)
	if err != nil {
		return nil, &ConfigurationError{Reason: "ewma", Err: err}
	}
	adjusted, err := NewEWMA(cfg.EWMACenterOfMass)
	if err != nil {
		return nil, &ConfigurationError{Reason: "ewma", Err: err}
	}
	timeBase, err := NewTimeBase(first, cfg.WrapGuardPeriodUs, cfg.MaxTimestamp)
	if err != nil {
		return nil, err
	}

	return &Calculator{
		timeBase:  timeBase,
		rttBaseUs: first.RTTUs,
		raw:       raw,
		adjusted:  adjusted,
	}, nil
}

// Next computes the sample for the next row in sequence order
func (c *Calculator) Next(row Row) Sample {
	timeBase := c.timeBase.Advance(row.AckAckTimestampUs)

	raw := int64(row.ElapsedUs) - (timeBase + int64(row.AckAckTimestampUs))
	adjusted := float64(raw) - float64(row.RTTUs-c.rttBaseUs)/2

	c.rows++
	return Sample{
		ElapsedUs:          row.ElapsedUs,
		RTTUs:              row.RTTUs,
		TimeBaseUs:         timeBase,
		RawDriftUs:         raw,
		RTTAdjustedDriftUs: adjusted,
		EWMARawUs:          c.raw.Update(float64(raw)),
		EWMARTTAdjustedUs:  c.adjusted.Update(adjusted),
	}
}

// RTTBaseUs returns the RTT of the anchoring row
func (c *Calculator) RTTBaseUs() int64 {
	return c.rttBaseUs
}

// TimeBase exposes the tracker state for reporting
func (c *Calculator) TimeBase() *TimeBase {
	return c.timeBase
}

// Rows returns how many rows have been processed
func (c *Calculator) Rows() int {
	return c.rows
}

// Samples runs a fresh Calculator over rows
func Samples(rows []Row, cfg Config) ([]Sample, *Calculator, error) {
	if len(rows) == 0 {
		return nil, nil, emptySequence()
	}
	calc, err := NewCalculator(rows[0], cfg)
	if err != nil {
		return nil, nil, err
	}
	samples := make([]Sample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, calc.Next(row))
	}
	return samples, calc, nil
}
