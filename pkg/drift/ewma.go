// ABOUTME: Exponentially weighted moving average
// ABOUTME: Causal O(1) smoother parameterized by center of mass
package drift

import (
	"fmt"
	"math"
)

// DefaultCenterOfMass gives an effective averaging window of about 8 samples
const DefaultCenterOfMass = 7.0

// EWMA smooths one series. The first sample seeds the average.
type EWMA struct {
	alpha  float64
	value  float64
	primed bool
}

// NewEWMA creates a smoother with alpha = 1/(1+centerOfMass)
func NewEWMA(centerOfMass float64) (*EWMA, error) {
	if math.IsNaN(centerOfMass) || math.IsInf(centerOfMass, 0) || centerOfMass < 0 {
		return nil, fmt.Errorf("center of mass must be a finite value >= 0, got %v", centerOfMass)
	}
	return &EWMA{alpha: 1 / (1 + centerOfMass)}, nil
}

// Update folds in a sample and returns the new average
func (e *EWMA) Update(sample float64) float64 {
	if !e.primed {
		e.value = sample
		e.primed = true
		return e.value
	}
	e.value += e.alpha * (sample - e.value)
	return e.value
}

// Value returns the current average (zero before the first sample)
func (e *EWMA) Value() float64 {
	return e.value
}

// Alpha returns the smoothing factor
func (e *EWMA) Alpha() float64 {
	return e.alpha
}

// Reset forgets all samples
func (e *EWMA) Reset() {
	e.value = 0
	e.primed = false
}
