// ABOUTME: Drift estimation engine package
// ABOUTME: Derives clock drift samples from ACK/ACKACK measurement logs
// Package drift estimates the clock drift between the two endpoints of an SRT
// stream from captured ACK/ACKACK round trips.
//
// The engine is a single forward pass over an ordered sequence of rows:
//
//	time base tracker -> drift sample calculator -> EWMA smoother
//
// followed optionally by the block-average replica model, which approximates
// how a live TSBPD receiver consumes drift estimates one window at a time.
//
// Example:
//
//	cfg := drift.DefaultConfig()
//	res, err := drift.Analyze(rows, cfg)
//	if err != nil {
//	    return err
//	}
//	for _, s := range res.Samples {
//	    fmt.Println(s.ElapsedSeconds(), s.RTTAdjustedDriftUs)
//	}
//
// A TimeBase is anchored to the first row of one sequence. Independent logs need
// independent Analyze calls; nothing is shared between them, so they may run in
// parallel.
package drift
