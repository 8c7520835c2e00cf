// ABOUTME: Plain-text rendering of drift and RTT summaries
// ABOUTME: Used by the CLI when printing an analysis to the terminal
package stats

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// PrintDrift writes a drift summary as labelled lines
func PrintDrift(w io.Writer, d Drift) error {
	_, err := fmt.Fprintf(w, "%s\n"+
		"Offset mean, ms:            %.2f\n"+
		"Offset std, ms:             %.2f\n"+
		"Offset min, ms:             %.2f\n"+
		"Offset max, ms:             %.2f\n"+
		"Total Drift, ms:            %.2f\n"+
		"Average Drift Rate, ms/s:   %.3f\n\n",
		d.Series, d.MeanMs, d.StdMs, d.MinMs, d.MaxMs, d.TotalDriftMs, d.RateMsPerS)
	return err
}

// PrintRTT writes instant and smoothed RTT side by side
func PrintRTT(w io.Writer, r RTT) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tInstant RTT, ms\tSmoothed RTT, ms\t")
	fmt.Fprintf(tw, "count\t%d\t%d\t\n", r.Instant.Count, r.Smoothed.Count)

	rows := []struct {
		name string
		get  func(Summary) float64
	}{
		{"mean", func(s Summary) float64 { return s.Mean }},
		{"std", func(s Summary) float64 { return s.Std }},
		{"min", func(s Summary) float64 { return s.Min }},
		{"25%", func(s Summary) float64 { return s.P25 }},
		{"50%", func(s Summary) float64 { return s.P50 }},
		{"75%", func(s Summary) float64 { return s.P75 }},
		{"90%", func(s Summary) float64 { return s.P90 }},
		{"99%", func(s Summary) float64 { return s.P99 }},
		{"max", func(s Summary) float64 { return s.Max }},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t\n", row.name, row.get(r.Instant), row.get(r.Smoothed))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
