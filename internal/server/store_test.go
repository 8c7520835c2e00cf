// ABOUTME: Tests for the bounded report store
// ABOUTME: Checks ordering, eviction and lookups
package server

import (
	"fmt"
	"testing"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
)

func TestReportStoreEviction(t *testing.T) {
	store := NewReportStore(3)
	for i := 0; i < 5; i++ {
		store.Add(&analysis.Report{ID: fmt.Sprintf("r%d", i), Name: fmt.Sprintf("log%d.csv", i)})
	}

	if store.Len() != 3 {
		t.Fatalf("Len = %d, want 3", store.Len())
	}
	if _, ok := store.Get("r1"); ok {
		t.Error("r1 should have been evicted")
	}
	if r, ok := store.Get("r4"); !ok || r.Name != "log4.csv" {
		t.Errorf("Get(r4) = %v, %v", r, ok)
	}

	list := store.List()
	want := []string{"r4", "r3", "r2"}
	for i, r := range list {
		if r.ID != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, r.ID, want[i])
		}
	}
}

func TestReportStoreReplace(t *testing.T) {
	store := NewReportStore(2)
	store.Add(&analysis.Report{ID: "a", Rows: 1})
	store.Add(&analysis.Report{ID: "a", Rows: 2})

	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
	if r, _ := store.Get("a"); r.Rows != 2 {
		t.Errorf("Rows = %d, want 2", r.Rows)
	}
}

func TestReportStoreMinimumCapacity(t *testing.T) {
	store := NewReportStore(0)
	store.Add(&analysis.Report{ID: "a"})
	store.Add(&analysis.Report{ID: "b"})
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}
