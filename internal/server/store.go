// ABOUTME: Bounded in-memory store of recent analysis reports
// ABOUTME: Evicts the oldest report once the capacity is reached
package server

import (
	"sync"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
)

// ReportStore keeps the most recent reports, newest last
type ReportStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	reports  map[string]*analysis.Report
}

// NewReportStore creates a store holding at most capacity reports
func NewReportStore(capacity int) *ReportStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &ReportStore{
		capacity: capacity,
		reports:  make(map[string]*analysis.Report, capacity),
	}
}

// Add stores r, evicting the oldest report when full
func (s *ReportStore) Add(r *analysis.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[r.ID]; exists {
		s.reports[r.ID] = r
		return
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.reports, oldest)
	}
	s.order = append(s.order, r.ID)
	s.reports[r.ID] = r
}

// Get returns the report with id
func (s *ReportStore) Get(id string) (*analysis.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	return r, ok
}

// List returns reports newest first
func (s *ReportStore) List() []*analysis.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*analysis.Report, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.reports[s.order[i]])
	}
	return out
}

// Len returns the number of stored reports
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
