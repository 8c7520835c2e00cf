// ABOUTME: Per-log analysis pipeline shared by the CLI and the dashboard
// ABOUTME: Parses a log, runs the drift engine and builds statistics and figures
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mbakholdina/srt-drift-tracer/internal/chart"
	"github.com/mbakholdina/srt-drift-tracer/internal/driftlog"
	"github.com/mbakholdina/srt-drift-tracer/internal/metrics"
	"github.com/mbakholdina/srt-drift-tracer/internal/stats"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

// DefaultParallelism bounds concurrent analyses in AnalyzeAll
const DefaultParallelism = 4

// Request is one log to analyze with its clock pairing
type Request struct {
	Name        string
	Data        []byte
	LocalClock  drift.Clock
	RemoteClock drift.Clock
}

// Report is the outcome of analyzing one log. A failed analysis carries only
// its identity and Error.
type Report struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	LocalClock  drift.Clock `json:"local_clock"`
	RemoteClock drift.Clock `json:"remote_clock"`
	CreatedAt   time.Time   `json:"created_at"`
	Error       string      `json:"error,omitempty"`

	Rows          int      `json:"rows,omitempty"`
	InitialBaseUs int64    `json:"initial_base_us,omitempty"`
	FinalBaseUs   int64    `json:"final_base_us,omitempty"`
	RTTBaseUs     int64    `json:"rtt_base_us,omitempty"`
	Wraps         int      `json:"wraps"`
	Windows       int      `json:"windows,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`

	Raw      *stats.Drift   `json:"raw,omitempty"`
	Adjusted *stats.Drift   `json:"adjusted,omitempty"`
	RTT      *stats.RTT     `json:"rtt,omitempty"`
	Figures  []chart.Figure `json:"figures,omitempty"`

	// Result keeps the engine output for in-process consumers
	Result *drift.Result `json:"-"`
	err    error
}

// Err returns the analysis error, if any
func (r *Report) Err() error {
	return r.err
}

// Analyzer runs the pipeline with a fixed engine configuration
type Analyzer struct {
	config      drift.Config
	metrics     *metrics.Metrics
	parallelism int
}

// New creates an Analyzer. m may be nil.
func New(cfg drift.Config, m *metrics.Metrics) *Analyzer {
	return &Analyzer{config: cfg, metrics: m, parallelism: DefaultParallelism}
}

// SetParallelism changes how many logs AnalyzeAll processes at once
func (a *Analyzer) SetParallelism(n int) {
	if n > 0 {
		a.parallelism = n
	}
}

// Config returns the engine configuration
func (a *Analyzer) Config() drift.Config {
	return a.config
}

// Metrics returns the collector analyses are recorded in, or nil
func (a *Analyzer) Metrics() *metrics.Metrics {
	return a.metrics
}

// Analyze runs the full pipeline for one log
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	report := &Report{
		ID:          uuid.New().String(),
		Name:        req.Name,
		LocalClock:  req.LocalClock,
		RemoteClock: req.RemoteClock,
		CreatedAt:   time.Now().UTC(),
	}
	logger := log.WithFields(log.Fields{
		"id":     report.ID,
		"file":   req.Name,
		"local":  req.LocalClock,
		"remote": req.RemoteClock,
	})

	start := time.Now()
	err := a.run(ctx, req, report, logger)
	a.metrics.ObserveAnalysis(time.Since(start), report.Rows, report.Wraps, len(report.Warnings), err)
	if err != nil {
		logger.WithError(err).Warn("Analysis failed")
		report.Error = err.Error()
		report.err = err
		return report, err
	}

	a.metrics.SetDriftRate("raw", report.Raw.RateMsPerS)
	a.metrics.SetDriftRate("rtt_adjusted", report.Adjusted.RateMsPerS)
	logger.WithFields(log.Fields{
		"rows":     report.Rows,
		"wraps":    report.Wraps,
		"windows":  report.Windows,
		"duration": time.Since(start),
	}).Info("Analysis complete")
	return report, nil
}

func (a *Analyzer) run(ctx context.Context, req Request, report *Report, logger *log.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := a.config
	cfg.LocalClock = req.LocalClock
	cfg.RemoteClock = req.RemoteClock

	lg, err := driftlog.Read(bytes.NewReader(req.Data), req.Name)
	if err != nil {
		return err
	}
	rows, err := lg.Rows(cfg.LocalClock, cfg.RemoteClock)
	if err != nil {
		return err
	}
	logger.Debugf("Parsed %d rows", len(rows))

	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := drift.Analyze(rows, cfg)
	if err != nil {
		return err
	}

	report.Result = res
	report.Rows = len(res.Samples)
	report.InitialBaseUs = res.InitialBaseUs
	report.FinalBaseUs = res.FinalBaseUs
	report.RTTBaseUs = res.RTTBaseUs
	report.Wraps = res.Wraps
	report.Windows = res.Replica.Windows
	for _, w := range res.Replica.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
		logger.Warnf("Replica: %v", w)
	}

	raw := stats.DriftSamples(res.Samples, stats.Raw)
	adjusted := stats.DriftSamples(res.Samples, stats.RTTAdjusted)
	report.Raw = &raw
	report.Adjusted = &adjusted
	report.Figures = []chart.Figure{chart.DriftSamples(res.Samples)}

	// The RTT plot is optional: older logs carry no smoothed RTT column
	rttRows, err := lg.RTT(cfg.LocalClock)
	if err != nil {
		var cfgErr *drift.ConfigurationError
		if !errors.As(err, &cfgErr) {
			return err
		}
		report.Warnings = append(report.Warnings, fmt.Sprintf("RTT statistics skipped: %v", err))
		logger.Warnf("RTT statistics skipped: %v", err)
	} else {
		rtt := stats.RTTReadings(rttRows)
		report.RTT = &rtt
		report.Figures = append(report.Figures, chart.RTT(rttRows, cfg.LocalClock))
	}

	report.Figures = append(report.Figures, chart.Replica(res.Samples, res.Replica))
	return nil
}

// AnalyzeAll analyzes every request independently and in parallel. Reports
// come back in request order; a failed log yields a report with Error set and
// never affects the others.
func (a *Analyzer) AnalyzeAll(ctx context.Context, reqs []Request) []*Report {
	reports := make([]*Report, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			// Per-log failures are carried in the report
			reports[i], _ = a.Analyze(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return reports
}

// ReadRequest builds a Request from a reader
func ReadRequest(r io.Reader, name string, local, remote drift.Clock) (Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Request{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Request{Name: name, Data: data, LocalClock: local, RemoteClock: remote}, nil
}
