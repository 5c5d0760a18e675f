package adapter

import (
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func TestIsOnline(t *testing.T) {
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		obs  Observation
		want bool
	}{
		{"positive hashrate", Observation{Hashrate: 50}, true},
		{"zero hashrate no signal", Observation{}, false},
		{"positive label wins over zero hashrate", Observation{StatusText: "active"}, true},
		{"negative label forces offline despite hashrate", Observation{Hashrate: 50, StatusText: "inactive"}, false},
		{"negative label case insensitive", Observation{StatusText: "OFFLINE"}, false},
		{"alive hint positive", Observation{AliveHint: f64(1)}, true},
		{"alive hint zero", Observation{AliveHint: f64(0)}, false},
		{"recent last share", Observation{LastShareMS: now.Add(-30 * time.Minute).UnixMilli()}, true},
		{"stale last share", Observation{LastShareMS: now.Add(-100 * time.Minute).UnixMilli()}, false},
		{"last share exactly at boundary is stale", Observation{LastShareMS: now.Add(-90 * time.Minute).UnixMilli()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOnline(tt.obs, now); got != tt.want {
				t.Errorf("IsOnline(%+v) = %v, want %v", tt.obs, got, tt.want)
			}
		})
	}
}
