// ABOUTME: Tests for clock selection and engine configuration
// ABOUTME: Covers parsing, column naming and config validation
package drift

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"Std", Steady, false},
		{"steady", Steady, false},
		{" SYS ", System, false},
		{"system", System, false},
		{"utc", Steady, true},
		{"", Steady, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClockColumns(t *testing.T) {
	std := Steady.Columns()
	if std.Elapsed != "usElapsedStd" || std.AckAckTimestamp != "usAckAckTimestampStd" ||
		std.RTT != "usRTTStd" || std.SmoothedRTT != "usSmoothedRTTStd" {
		t.Errorf("unexpected steady columns: %+v", std)
	}
	sys := System.Columns()
	if sys.Elapsed != "usElapsedSys" || sys.AckAckTimestamp != "usAckAckTimestampSys" ||
		sys.RTT != "usRTTSys" || sys.SmoothedRTT != "usSmoothedRTTSys" {
		t.Errorf("unexpected system columns: %+v", sys)
	}
}

func TestClockText(t *testing.T) {
	text, err := System.MarshalText()
	if err != nil || string(text) != "Sys" {
		t.Errorf("MarshalText = %q, %v", text, err)
	}

	var c Clock
	if err := c.UnmarshalText([]byte("sys")); err != nil || c != System {
		t.Errorf("UnmarshalText: clock=%v err=%v", c, err)
	}
	if err := c.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for bogus clock")
	}
	if _, err := Clock(7).MarshalText(); err == nil {
		t.Error("expected error marshaling invalid clock")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative com", func(c *Config) { c.EWMACenterOfMass = -1 }},
		{"zero window", func(c *Config) { c.BlockWindowSize = 0 }},
		{"zero guard", func(c *Config) { c.WrapGuardPeriodUs = 0 }},
		{"guard too large", func(c *Config) { c.WrapGuardPeriodUs = c.MaxTimestamp/2 + 1 }},
		{"zero max timestamp", func(c *Config) { c.MaxTimestamp = 0 }},
		{"clamp without bound", func(c *Config) { c.EnableOverdriftClamp = true; c.MaxDriftUs = 0 }},
		{"bad local clock", func(c *Config) { c.LocalClock = Clock(3) }},
		{"bad remote clock", func(c *Config) { c.RemoteClock = Clock(-1) }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected ConfigurationError, got %v", tt.name, err)
		}
	}
}

func TestConfigReplicaOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableOverdriftClamp = true
	opts := cfg.ReplicaOptions()
	if opts.WindowSize != 1000 || !opts.ClampOverdrift || opts.MaxDriftUs != 5000 {
		t.Errorf("unexpected replica options: %+v", opts)
	}
}

func TestErrorMessages(t *testing.T) {
	err := MissingColumn("usRTTSys")
	if err.Error() != `configuration error: column "usRTTSys": missing for selected clock` {
		t.Errorf("unexpected message: %s", err)
	}

	schemaErr := &SchemaError{Row: 4, Column: "usElapsedStd", Err: errors.New("empty value")}
	if schemaErr.Error() != `schema error: row 4, column "usElapsedStd": empty value` {
		t.Errorf("unexpected message: %s", schemaErr)
	}
}
