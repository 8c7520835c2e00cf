// ABOUTME: One-shot drift analysis over a complete measurement sequence
// ABOUTME: Runs the calculator scan and the replica model
package drift

// Result is everything derived from one measurement sequence
type Result struct {
	InitialBaseUs int64
	FinalBaseUs   int64
	RTTBaseUs     int64
	Wraps         int
	Samples       []Sample
	Replica       *Replica
}

// Analyze computes drift samples for rows and the replica model over them
func Analyze(rows []Row, cfg Config) (*Result, error) {
	return analyze(rows, cfg, true)
}

// AnalyzeSamples is Analyze without the replica model
func AnalyzeSamples(rows []Row, cfg Config) (*Result, error) {
	return analyze(rows, cfg, false)
}

func analyze(rows []Row, cfg Config, withReplica bool) (*Result, error) {
	samples, calc, err := Samples(rows, cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{
		InitialBaseUs: int64(rows[0].ElapsedUs) - int64(rows[0].AckAckTimestampUs),
		FinalBaseUs:   calc.TimeBase().BaseUs(),
		RTTBaseUs:     calc.RTTBaseUs(),
		Wraps:         calc.TimeBase().Wraps(),
		Samples:       samples,
	}

	if withReplica {
		replica, err := Replicate(samples, cfg.ReplicaOptions())
		if err != nil {
			return nil, err
		}
		res.Replica = replica
	}

	return res, nil
}
