package nameutil

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "acct.worker1", "acct.worker1"},
		{"surrounding space", "  acct.worker1  ", "acct.worker1"},
		{"zero width joiner embedded", "acct.work‌er1", "acct.worker1"},
		{"bom prefix", "\ufeffacct.worker1", "acct.worker1"},
		{"fullwidth digits fold via NFKC", "acct.worker１", "acct.worker1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHeadTail(t *testing.T) {
	tests := []struct {
		in       string
		wantHead string
		wantTail string
	}{
		{"acct.worker1", "acct", "worker1"},
		{"worker1", "", "worker1"},
		{"acct.sub.worker1", "acct", "worker1"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := Head(tt.in); got != tt.wantHead {
			t.Errorf("Head(%q) = %q, want %q", tt.in, got, tt.wantHead)
		}
		if got := Tail(tt.in); got != tt.wantTail {
			t.Errorf("Tail(%q) = %q, want %q", tt.in, got, tt.wantTail)
		}
	}
}

func TestTailIdempotent(t *testing.T) {
	for _, in := range []string{"acct.worker001", "worker1", "a.b.c"} {
		once := Tail(in)
		twice := Tail(once)
		if once != twice {
			t.Errorf("Tail not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestTailKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"001", "1"},
		{"01", "1"},
		{"1", "1"},
		{"0", "0"},
		{"00", "0"},
		{"acct.Worker1", "worker1"},
	}
	for _, tt := range tests {
		if got := TailKey(tt.in); got != tt.want {
			t.Errorf("TailKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTailKeyIdempotent(t *testing.T) {
	if TailKey("001") != TailKey("1") {
		t.Error("TailKey(\"001\") != TailKey(\"1\")")
	}
	if TailKey(TailKey("001")) != TailKey("001") {
		t.Error("TailKey not idempotent")
	}
	if TailKey("0") != "0" {
		t.Errorf("TailKey(\"0\") = %q, want %q", TailKey("0"), "0")
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		observed string
		stored   string
		want     bool
	}{
		{"acct.worker1", "other.worker1", true},
		{"acct.001", "other.1", true}, // TailKey fallback
		{"acct.worker2", "other.worker1", false},
		{"worker1", "acct.worker1", true},
	}
	for _, tt := range tests {
		if got := Matches(tt.observed, tt.stored); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.observed, tt.stored, got, tt.want)
		}
	}
}
