package main

import "testing"

func TestCronSpec(t *testing.T) {
	tests := []struct {
		clock string
		want  string
	}{
		{"08:00", "0 8 * * *"},
		{"22:30", "30 22 * * *"},
		{"00:00", "0 0 * * *"},
		{"23:59", "59 23 * * *"},
	}
	for _, tt := range tests {
		got, err := cronSpec(tt.clock)
		if err != nil {
			t.Errorf("cronSpec(%q) failed: %v", tt.clock, err)
			continue
		}
		if got != tt.want {
			t.Errorf("cronSpec(%q) = %q, want %q", tt.clock, got, tt.want)
		}
	}
}

func TestCronSpecInvalid(t *testing.T) {
	for _, bad := range []string{"", "25:00", "12:75", "noon"} {
		if _, err := cronSpec(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
