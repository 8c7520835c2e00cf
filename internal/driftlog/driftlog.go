// ABOUTME: CSV drift log ingestion
// ABOUTME: Parses SRT drift logs and selects typed rows for a clock pairing
package driftlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

// Log is a parsed drift log. Values stay as text until a clock pairing is chosen
// so that only the columns actually used are required.
type Log struct {
	Name    string
	header  []string
	index   map[string]int
	records [][]string
}

// RTTRow is one instant/smoothed RTT reading on a single clock
type RTTRow struct {
	ElapsedUs     uint64
	RTTUs         int64
	SmoothedRTTUs int64
}

var (
	errEmptyValue = errors.New("empty value")
	errMissing    = errors.New("field missing")
)

// Read parses a CSV drift log with a header row
func Read(r io.Reader, name string) (*Log, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // short rows are reported per column, not per file
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &drift.ConfigurationError{Reason: "log has no header", Err: drift.ErrEmptySequence}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	l := &Log{
		Name:   name,
		header: header,
		index:  make(map[string]int, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		l.header[i] = col
		if _, dup := l.index[col]; !dup {
			l.index[col] = i
		}
	}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if isBlank(rec) {
			continue
		}
		l.records = append(l.records, rec)
	}

	return l, nil
}

// Len returns the number of data rows
func (l *Log) Len() int {
	return len(l.records)
}

// Columns returns the header in file order
func (l *Log) Columns() []string {
	out := make([]string, len(l.header))
	copy(out, l.header)
	return out
}

// Has reports whether the log carries a column
func (l *Log) Has(column string) bool {
	_, ok := l.index[column]
	return ok
}

// Rows selects the local elapsed time and RTT from the local clock and the
// ACKACK timestamp from the remote clock
func (l *Log) Rows(local, remote drift.Clock) ([]drift.Row, error) {
	elapsedCol := local.Columns().Elapsed
	timestampCol := remote.Columns().AckAckTimestamp
	rttCol := local.Columns().RTT

	if err := l.require(elapsedCol, timestampCol, rttCol); err != nil {
		return nil, err
	}
	if len(l.records) == 0 {
		return nil, &drift.ConfigurationError{Reason: "log has no data rows", Err: drift.ErrEmptySequence}
	}

	rows := make([]drift.Row, 0, len(l.records))
	for i := range l.records {
		elapsed, err := l.unsigned(i, elapsedCol, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		ts, err := l.unsigned(i, timestampCol, math.MaxUint32)
		if err != nil {
			return nil, err
		}
		rtt, err := l.unsigned(i, rttCol, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		rows = append(rows, drift.Row{
			ElapsedUs:         elapsed,
			AckAckTimestampUs: uint32(ts),
			RTTUs:             int64(rtt),
		})
	}
	return rows, nil
}

// RTT selects the instant and smoothed RTT readings of one clock
func (l *Log) RTT(clock drift.Clock) ([]RTTRow, error) {
	cols := clock.Columns()
	if err := l.require(cols.Elapsed, cols.RTT, cols.SmoothedRTT); err != nil {
		return nil, err
	}
	if len(l.records) == 0 {
		return nil, &drift.ConfigurationError{Reason: "log has no data rows", Err: drift.ErrEmptySequence}
	}

	out := make([]RTTRow, 0, len(l.records))
	for i := range l.records {
		elapsed, err := l.unsigned(i, cols.Elapsed, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		rtt, err := l.unsigned(i, cols.RTT, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		smoothed, err := l.unsigned(i, cols.SmoothedRTT, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		out = append(out, RTTRow{ElapsedUs: elapsed, RTTUs: int64(rtt), SmoothedRTTUs: int64(smoothed)})
	}
	return out, nil
}

func (l *Log) require(columns ...string) error {
	for _, col := range columns {
		if !l.Has(col) {
			return drift.MissingColumn(col)
		}
	}
	return nil
}

// unsigned parses a non-negative integer cell no larger than max
func (l *Log) unsigned(row int, column string, max uint64) (uint64, error) {
	idx := l.index[column]
	rec := l.records[row]
	if idx >= len(rec) {
		return 0, &drift.SchemaError{Row: row, Column: column, Err: errMissing}
	}
	cell := strings.TrimSpace(rec[idx])
	if cell == "" {
		return 0, &drift.SchemaError{Row: row, Column: column, Err: errEmptyValue}
	}

	v, err := parseInteger(cell)
	if err != nil {
		return 0, &drift.SchemaError{Row: row, Column: column, Err: err}
	}
	if v > max {
		return 0, &drift.SchemaError{Row: row, Column: column, Err: fmt.Errorf("value %d out of range (max %d)", v, max)}
	}
	return v, nil
}

// parseInteger accepts plain integers and integral decimals such as "1000.0"
func parseInteger(cell string) (uint64, error) {
	if v, err := strconv.ParseUint(cell, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, fmt.Errorf("not a non-negative integer: %q", cell)
	}
	return uint64(f), nil
}

func isBlank(rec []string) bool {
	for _, field := range rec {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
