// ABOUTME: Engine configuration surface
// ABOUTME: Clock selection, smoothing, window and wraparound parameters
package drift

import (
	"fmt"
	"math"
)

const (
	// DefaultBlockWindowSize is the replica model window in samples
	DefaultBlockWindowSize = 1000

	// DefaultMaxDriftUs bounds a window estimate when overdrift clamping is on (5 ms)
	DefaultMaxDriftUs = 5000
)

// Config parameterizes one engine run
type Config struct {
	LocalClock           Clock   `yaml:"local_clock" json:"local_clock"`
	RemoteClock          Clock   `yaml:"remote_clock" json:"remote_clock"`
	EWMACenterOfMass     float64 `yaml:"ewma_center_of_mass" json:"ewma_center_of_mass"`
	BlockWindowSize      int     `yaml:"block_window_size" json:"block_window_size"`
	WrapGuardPeriodUs    uint32  `yaml:"wrap_guard_period_us" json:"wrap_guard_period_us"`
	MaxTimestamp         uint32  `yaml:"max_timestamp" json:"max_timestamp"`
	EnableOverdriftClamp bool    `yaml:"enable_overdrift_clamp" json:"enable_overdrift_clamp"`
	MaxDriftUs           float64 `yaml:"max_drift_us" json:"max_drift_us"`
}

// DefaultConfig returns the reference configuration: steady clocks on both ends
func DefaultConfig() Config {
	return Config{
		LocalClock:        Steady,
		RemoteClock:       Steady,
		EWMACenterOfMass:  DefaultCenterOfMass,
		BlockWindowSize:   DefaultBlockWindowSize,
		WrapGuardPeriodUs: DefaultWrapGuardPeriodUs,
		MaxTimestamp:      MaxTimestamp,
		MaxDriftUs:        DefaultMaxDriftUs,
	}
}

// Validate checks parameter ranges
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
	}

	if c.LocalClock != Steady && c.LocalClock != System {
		return invalid("invalid local clock %d", int(c.LocalClock))
	}
	if c.RemoteClock != Steady && c.RemoteClock != System {
		return invalid("invalid remote clock %d", int(c.RemoteClock))
	}
	if math.IsNaN(c.EWMACenterOfMass) || math.IsInf(c.EWMACenterOfMass, 0) || c.EWMACenterOfMass < 0 {
		return invalid("ewma center of mass must be finite and >= 0, got %v", c.EWMACenterOfMass)
	}
	if c.BlockWindowSize <= 0 {
		return invalid("block window size must be > 0, got %d", c.BlockWindowSize)
	}
	if c.MaxTimestamp == 0 {
		return invalid("max timestamp must be > 0")
	}
	if c.WrapGuardPeriodUs == 0 || uint64(c.WrapGuardPeriodUs)*2 >= uint64(c.MaxTimestamp) {
		return invalid("wrap guard period %d must be > 0 and less than half of max timestamp %d",
			c.WrapGuardPeriodUs, c.MaxTimestamp)
	}
	if c.EnableOverdriftClamp && !(c.MaxDriftUs > 0) {
		return invalid("max drift must be > 0 when overdrift clamping is enabled, got %v", c.MaxDriftUs)
	}
	return nil
}

// ReplicaOptions derives the replica model parameters
func (c Config) ReplicaOptions() ReplicaOptions {
	return ReplicaOptions{
		WindowSize:     c.BlockWindowSize,
		ClampOverdrift: c.EnableOverdriftClamp,
		MaxDriftUs:     c.MaxDriftUs,
	}
}
