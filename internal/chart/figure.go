// ABOUTME: Plotly figure descriptions for drift, RTT and replica plots
// ABOUTME: Figures are plain structs that marshal to plotly.js JSON
package chart

import (
	"github.com/mbakholdina/srt-drift-tracer/internal/driftlog"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

// Figure is a plotly.js figure: traces plus layout
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one line series
type Trace struct {
	Type  string    `json:"type"`
	Mode  string    `json:"mode"`
	Name  string    `json:"name"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	XAxis string    `json:"xaxis,omitempty"`
	YAxis string    `json:"yaxis,omitempty"`
	Line  *Line     `json:"line,omitempty"`
}

// Line sets trace styling
type Line struct {
	Shape string `json:"shape,omitempty"`
	Color string `json:"color,omitempty"`
}

// Layout is the subset of plotly layout the figures use
type Layout struct {
	Title       Text         `json:"title"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	YAxis2      *Axis        `json:"yaxis2,omitempty"`
	Grid        *Grid        `json:"grid,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Text is a plotly title object
type Text struct {
	Text string `json:"text"`
}

// Axis configures one axis
type Axis struct {
	Title  Text   `json:"title"`
	Anchor string `json:"anchor,omitempty"`
}

// Grid lays subplots out on a shared x axis
type Grid struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Pattern string `json:"pattern"`
}

// Legend configures the legend box
type Legend struct {
	Title Text `json:"title"`
}

// Annotation is a free text label, used for subplot titles
type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	ShowArrow bool    `json:"showarrow"`
	XAnchor   string  `json:"xanchor,omitempty"`
	YAnchor   string  `json:"yanchor,omitempty"`
}

const (
	timeAxisTitle  = "Time, seconds (s)"
	driftAxisTitle = "Drift, milliseconds (ms)"
	rttAxisTitle   = "RTT, milliseconds (ms)"
)

func lines(name string, x, y []float64) Trace {
	return Trace{Type: "scattergl", Mode: "lines", Name: name, X: x, Y: y}
}

// DriftSamples plots raw and RTT-adjusted drift samples with their EWMA on two
// stacked subplots sharing the time axis
func DriftSamples(samples []drift.Sample) Figure {
	n := len(samples)
	x := make([]float64, n)
	raw := make([]float64, n)
	rawEWMA := make([]float64, n)
	adjusted := make([]float64, n)
	adjustedEWMA := make([]float64, n)
	for i, s := range samples {
		x[i] = s.ElapsedSeconds()
		raw[i] = float64(s.RawDriftUs) / 1000
		rawEWMA[i] = s.EWMARawUs / 1000
		adjusted[i] = s.RTTAdjustedDriftUs / 1000
		adjustedEWMA[i] = s.EWMARTTAdjustedUs / 1000
	}

	lower := func(t Trace) Trace {
		t.XAxis = "x"
		t.YAxis = "y2"
		return t
	}

	return Figure{
		Data: []Trace{
			lines("Sample", x, raw),
			lines("EWMA", x, rawEWMA),
			lower(lines("Sample", x, adjusted)),
			lower(lines("EWMA", x, adjustedEWMA)),
		},
		Layout: Layout{
			Title:  Text{"Drift Samples"},
			XAxis:  Axis{Title: Text{timeAxisTitle}},
			YAxis:  Axis{Title: Text{driftAxisTitle}},
			YAxis2: &Axis{Title: Text{driftAxisTitle}},
			Grid:   &Grid{Rows: 2, Columns: 1, Pattern: "coupled"},
			Legend: &Legend{Title: Text{"Drift"}},
			Annotations: []Annotation{
				subplotTitle("v1.4.2", 1.0),
				subplotTitle("Adjusted on RTT", 0.45),
			},
		},
	}
}

func subplotTitle(text string, y float64) Annotation {
	return Annotation{
		Text: text, X: 0.5, Y: y,
		XRef: "paper", YRef: "paper",
		XAnchor: "center", YAnchor: "bottom",
	}
}

// RTT plots instant against smoothed RTT
func RTT(rows []driftlog.RTTRow, clock drift.Clock) Figure {
	n := len(rows)
	x := make([]float64, n)
	instant := make([]float64, n)
	smoothed := make([]float64, n)
	for i, r := range rows {
		x[i] = float64(r.ElapsedUs) / 1e6
		instant[i] = float64(r.RTTUs) / 1000
		smoothed[i] = float64(r.SmoothedRTTUs) / 1000
	}

	title := "Instant vs Smoothed RTT (Steady Clocks)"
	if clock == drift.System {
		title = "Instant vs Smoothed RTT (System Clocks)"
	}

	return Figure{
		Data: []Trace{
			lines("Instant", x, instant),
			lines("Smoothed", x, smoothed),
		},
		Layout: Layout{
			Title: Text{title},
			XAxis: Axis{Title: Text{timeAxisTitle}},
			YAxis: Axis{Title: Text{rttAxisTitle}},
		},
	}
}

// Replica plots RTT-adjusted drift samples against the block-average estimate
func Replica(samples []drift.Sample, rep *drift.Replica) Figure {
	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.ElapsedSeconds()
		y[i] = s.RTTAdjustedDriftUs / 1000
	}

	var mx, my []float64
	if rep != nil {
		mx = make([]float64, len(rep.Points))
		my = make([]float64, len(rep.Points))
		for i, p := range rep.Points {
			mx[i] = p.ElapsedSeconds()
			my[i] = p.DriftUs / 1000
		}
	}

	return Figure{
		Data: []Trace{
			lines("Drift Samples", x, y),
			lines("Drift (SRT Model)", mx, my),
		},
		Layout: Layout{
			Title: Text{"Drift Samples (Adjusted on RTT) vs Drift (SRT Model)"},
			XAxis: Axis{Title: Text{timeAxisTitle}},
			YAxis: Axis{Title: Text{driftAxisTitle}},
		},
	}
}
