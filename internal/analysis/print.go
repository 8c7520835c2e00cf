// ABOUTME: Text and HTML rendering of an analysis report
// ABOUTME: Shared by the CLI printer and the standalone HTML export
package analysis

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mbakholdina/srt-drift-tracer/internal/chart"
	"github.com/mbakholdina/srt-drift-tracer/internal/stats"
)

// Print writes the report the way the CLI shows it
func (r *Report) Print(w io.Writer) error {
	if r.Error != "" {
		_, err := fmt.Fprintf(w, "%s: %s\n", r.Name, r.Error)
		return err
	}

	fmt.Fprintf(w, "Local Clock: %s, Remote Clock: %s\n", r.LocalClock, r.RemoteClock)
	fmt.Fprintf(w, "TSBPD Time Base: %d\n", r.InitialBaseUs)
	fmt.Fprintf(w, "RTT Base (RTT0): %d\n", r.RTTBaseUs)
	fmt.Fprintf(w, "Rows: %d, Wraps: %d\n\n", r.Rows, r.Wraps)

	if err := stats.PrintDrift(w, *r.Raw); err != nil {
		return err
	}
	if err := stats.PrintDrift(w, *r.Adjusted); err != nil {
		return err
	}
	if r.RTT != nil {
		if err := stats.PrintRTT(w, *r.RTT); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "SRT Model: %d windows, %d points\n", r.Windows, 2*r.Windows)
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}

// Page converts the report into a standalone HTML page
func (r *Report) Page() chart.Page {
	var notes bytes.Buffer
	_ = r.Print(&notes)
	return chart.Page{
		Title:   fmt.Sprintf("Drift Tracer: %s", r.Name),
		Notes:   []string{notes.String()},
		Figures: r.Figures,
	}
}
