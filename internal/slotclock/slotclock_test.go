package slotclock

import (
	"testing"
	"time"
)

func TestCurrent(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "already on boundary",
			in:   time.Date(2026, 8, 3, 10, 15, 0, 0, time.UTC),
			want: "2026-08-03T10:15:00Z",
		},
		{
			name: "mid slot rounds down",
			in:   time.Date(2026, 8, 3, 10, 29, 59, 0, time.UTC),
			want: "2026-08-03T10:15:00Z",
		},
		{
			name: "non-UTC input normalised",
			in:   time.Date(2026, 8, 3, 12, 44, 1, 0, time.FixedZone("lisbon", 1*3600)),
			want: "2026-08-03T11:30:00Z",
		},
		{
			name: "top of hour",
			in:   time.Date(2026, 8, 3, 11, 0, 30, 0, time.UTC),
			want: "2026-08-03T11:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Current(tt.in)
			if got != tt.want {
				t.Errorf("Current(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNext(t *testing.T) {
	got, err := Next("2026-08-03T10:45:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "2026-08-03T11:00:00Z"; got != want {
		t.Errorf("Next() = %q, want %q", got, want)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2026, 8, 3, 10, 50, 0, 0, time.UTC)
	age, err := Age("2026-08-03T10:30:00Z", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if age != 20*time.Minute {
		t.Errorf("Age() = %v, want %v", age, 20*time.Minute)
	}
}

func TestParseRoundTrip(t *testing.T) {
	slot := Current(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	again := Current(Start(mustParse(t, slot)))
	if again != slot {
		t.Errorf("round trip mismatch: %q != %q", again, slot)
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", s, err)
	}
	return tm
}
