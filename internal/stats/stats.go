// ABOUTME: Summary statistics for drift samples and RTT readings
// ABOUTME: Builds the drift and RTT summaries shown by the CLI, TUI and dashboard
package stats

import (
	"math"
	"sort"

	"github.com/influxdata/tdigest"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mbakholdina/srt-drift-tracer/internal/driftlog"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

// Series selects which drift sample column a summary is computed over
type Series int

const (
	// Raw is the drift sample the way the v1.4.2 receiver computes it
	Raw Series = iota
	// RTTAdjusted is the drift sample corrected by half the RTT change
	RTTAdjusted
)

func (s Series) String() string {
	if s == RTTAdjusted {
		return "Drift samples adjusted on RTT"
	}
	return "Drift samples v1.4.2"
}

// Drift summarizes one drift sample series. All values are in milliseconds
// except ElapsedS (seconds) and RateMsPerS.
type Drift struct {
	Series       string  `json:"series"`
	Count        int     `json:"count"`
	MeanMs       float64 `json:"mean_ms"`
	StdMs        float64 `json:"std_ms"`
	MinMs        float64 `json:"min_ms"`
	MaxMs        float64 `json:"max_ms"`
	TotalDriftMs float64 `json:"total_drift_ms"`
	ElapsedS     float64 `json:"elapsed_s"`
	RateMsPerS   float64 `json:"rate_ms_per_s"`
}

// Summary mirrors a describe() table for one series, plus tail percentiles
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	Max   float64 `json:"max"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}

// RTT holds instant and smoothed RTT summaries in milliseconds
type RTT struct {
	Instant  Summary `json:"instant"`
	Smoothed Summary `json:"smoothed"`
}

// digestCompression keeps roughly 100 centroids per digest
const digestCompression = 100

// DriftSamples summarizes the chosen series of samples
func DriftSamples(samples []drift.Sample, series Series) Drift {
	d := Drift{Series: series.String(), Count: len(samples)}
	if len(samples) == 0 {
		return d
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		if series == RTTAdjusted {
			values[i] = s.RTTAdjustedDriftUs / 1000
		} else {
			values[i] = float64(s.RawDriftUs) / 1000
		}
	}

	mean, std := meanStd(values)
	d.MeanMs = round(mean, 2)
	d.StdMs = round(std, 2)
	d.MinMs = round(floats.Min(values), 2)
	d.MaxMs = round(floats.Max(values), 2)

	total := values[len(values)-1] - values[0]
	elapsed := samples[len(samples)-1].ElapsedSeconds() - samples[0].ElapsedSeconds()
	if elapsed > 0 {
		d.RateMsPerS = round(total/elapsed, 3)
	}
	d.TotalDriftMs = round(total, 2)
	d.ElapsedS = round(elapsed, 2)
	return d
}

// RTTReadings summarizes instant and smoothed RTT
func RTTReadings(rows []driftlog.RTTRow) RTT {
	instant := make([]float64, len(rows))
	smoothed := make([]float64, len(rows))
	for i, r := range rows {
		instant[i] = float64(r.RTTUs) / 1000
		smoothed[i] = float64(r.SmoothedRTTUs) / 1000
	}
	return RTT{Instant: Describe(instant), Smoothed: Describe(smoothed)}
}

// Describe computes count, mean, sample std, min, quartiles and max of x, and
// estimates the 90th and 99th percentiles with a t-digest. x is not modified.
func Describe(x []float64) Summary {
	s := Summary{Count: len(x)}
	if len(x) == 0 {
		return s
	}

	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	s.Mean, s.Std = meanStd(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.P25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	s.P50 = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	s.P75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)

	td := tdigest.NewWithCompression(digestCompression)
	for _, v := range x {
		td.Add(v, 1)
	}
	s.P90 = td.Quantile(0.90)
	s.P99 = td.Quantile(0.99)
	return s
}

// meanStd returns the mean and the sample (n-1) standard deviation. A single
// value has zero spread.
func meanStd(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
