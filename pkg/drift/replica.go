// ABOUTME: Block-average replica of the SRT drift tracer control loop
// ABOUTME: Emits a stepwise drift estimate delayed by one window
package drift

import (
	"fmt"
	"math"
)

// ReplicaOptions configures the block-average replica model
type ReplicaOptions struct {
	WindowSize     int
	ClampOverdrift bool    // off in the reference behavior
	MaxDriftUs     float64 // bound applied when ClampOverdrift is set
}

// StepPoint is one vertex of the replica step function
type StepPoint struct {
	ElapsedUs   uint64  `json:"elapsed_us"`
	DriftUs     float64 `json:"drift_us"`
	OverdriftUs float64 `json:"overdrift_us,omitempty"` // accumulated clamp excess, clamp mode only
}

// ElapsedSeconds returns the point's time in seconds
func (p StepPoint) ElapsedSeconds() float64 {
	return float64(p.ElapsedUs) / 1e6
}

// Replica is the output of the replica model
type Replica struct {
	Windows  int
	Points   []StepPoint
	Warnings []*ComputationWarning
}

// Replicate partitions samples into windows and reports, at the start and end of
// window N, the mean RTT-adjusted drift of window N-1. Window 0 reports zero.
// It needs the whole sequence and must be rerun from scratch on new data.
func Replicate(samples []Sample, opts ReplicaOptions) (*Replica, error) {
	if len(samples) == 0 {
		return nil, emptySequence()
	}
	if opts.WindowSize <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("window size must be > 0, got %d", opts.WindowSize)}
	}
	if opts.ClampOverdrift && !(opts.MaxDriftUs > 0) {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("max drift must be > 0, got %v", opts.MaxDriftUs)}
	}

	n := len(samples) / opts.WindowSize
	out := &Replica{
		Windows: n + 1,
		Points:  make([]StepPoint, 0, 2*(n+1)),
	}

	var previous, overdrift float64
	lastUs := samples[len(samples)-1].ElapsedUs

	for i := 0; i <= n; i++ {
		start := i * opts.WindowSize
		end := start + opts.WindowSize
		if end > len(samples) {
			end = len(samples)
		}

		if start >= end {
			out.Warnings = append(out.Warnings, &ComputationWarning{
				Window: i,
				Reason: "empty window, carrying previous estimate forward",
			})
			out.Points = append(out.Points,
				StepPoint{ElapsedUs: lastUs, DriftUs: previous, OverdriftUs: overdrift},
				StepPoint{ElapsedUs: lastUs, DriftUs: previous, OverdriftUs: overdrift},
			)
			continue
		}

		window := samples[start:end]
		out.Points = append(out.Points,
			StepPoint{ElapsedUs: window[0].ElapsedUs, DriftUs: previous, OverdriftUs: overdrift},
			StepPoint{ElapsedUs: window[len(window)-1].ElapsedUs, DriftUs: previous, OverdriftUs: overdrift},
		)

		mean := windowMean(window)
		if opts.ClampOverdrift && math.Abs(mean) > opts.MaxDriftUs {
			clamped := math.Copysign(opts.MaxDriftUs, mean)
			overdrift += mean - clamped
			mean = clamped
		}
		previous = mean
	}

	return out, nil
}

func windowMean(window []Sample) float64 {
	var sum float64
	for _, s := range window {
		sum += s.RTTAdjustedDriftUs
	}
	return sum / float64(len(window))
}
