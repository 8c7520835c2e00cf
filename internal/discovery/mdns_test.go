// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager setup and service entry conversion
package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "lab-dashboard", Port: 8050})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.Path != DefaultPath {
		t.Errorf("path = %q, want %q", mgr.config.Path, DefaultPath)
	}
	mgr.Stop()
	select {
	case <-mgr.ctx.Done():
	default:
		t.Error("Stop did not cancel the manager")
	}
}

func TestEntryInfo(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "lab-dashboard._drifttracer._tcp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       8050,
		InfoFields: []string{"path=/feed"},
	}

	info := entryInfo(entry)
	if info == nil {
		t.Fatal("expected server info")
	}
	if info.Name != "lab-dashboard" || info.Port != 8050 || info.Path != "/feed" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Addr() != "192.168.1.20:8050" {
		t.Errorf("Addr = %q", info.Addr())
	}

	if entryInfo(&mdns.ServiceEntry{Name: "v6-only"}) != nil {
		t.Error("entries without IPv4 must be skipped")
	}
}

func TestFindHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := Find(ctx); err == nil {
		// A dashboard happened to answer on this network; nothing to assert
		t.Skip("dashboard present on the local network")
	}
}
