// ABOUTME: Tests for the EWMA smoother
// ABOUTME: Checks seeding, the recurrence law and parameter validation
package drift

import (
	"math"
	"testing"
)

func TestEWMAConstantInput(t *testing.T) {
	e, err := NewEWMA(DefaultCenterOfMass)
	if err != nil {
		t.Fatalf("NewEWMA: %v", err)
	}
	for i := 0; i < 50; i++ {
		if got := e.Update(42.5); got != 42.5 {
			t.Fatalf("sample %d: EWMA = %v, want 42.5", i, got)
		}
	}
}

func TestEWMARecurrence(t *testing.T) {
	series := []float64{3, -7, 12.5, 0, 100, 99, -40, 8, 8, 8, 1e6, -1e6}

	for _, com := range []float64{0, 0.5, 1, 7, 20, 1000} {
		e, err := NewEWMA(com)
		if err != nil {
			t.Fatalf("NewEWMA(%v): %v", com, err)
		}
		alpha := 1 / (1 + com)
		if e.Alpha() != alpha {
			t.Errorf("com %v: alpha = %v, want %v", com, e.Alpha(), alpha)
		}

		var prev float64
		for i, x := range series {
			got := e.Update(x)
			want := x
			if i > 0 {
				want = prev + alpha*(x-prev)
			}
			if math.Abs(got-want) > 1e-9*math.Max(1, math.Abs(want)) {
				t.Errorf("com %v, i %d: got %v, want %v", com, i, got, want)
			}
			prev = got
		}
	}
}

func TestEWMAMatchesAdjustFalseMean(t *testing.T) {
	// com=7, adjust=False reference values for [0, 8, 16]
	e, _ := NewEWMA(7)
	want := []float64{0, 1, 2.875}
	for i, x := range []float64{0, 8, 16} {
		if got := e.Update(x); math.Abs(got-want[i]) > 1e-12 {
			t.Errorf("i %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestEWMAReset(t *testing.T) {
	e, _ := NewEWMA(3)
	e.Update(10)
	e.Update(20)
	e.Reset()
	if e.Value() != 0 {
		t.Errorf("Value after Reset = %v, want 0", e.Value())
	}
	if got := e.Update(5); got != 5 {
		t.Errorf("first Update after Reset = %v, want 5", got)
	}
}

func TestNewEWMARejectsInvalidCenterOfMass(t *testing.T) {
	for _, com := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := NewEWMA(com); err == nil {
			t.Errorf("NewEWMA(%v): expected error", com)
		}
	}
}
