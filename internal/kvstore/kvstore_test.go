package kvstore

import "testing"

func TestKeyShapes(t *testing.T) {
	if got, want := slotLockKey("2026-08-03T12:00:00Z", "viabtc"), "uptime:2026-08-03T12:00:00Z:viabtc"; got != want {
		t.Errorf("slotLockKey() = %q, want %q", got, want)
	}
	if got, want := lastOnlineKey("f2pool", "miner-1"), "uptime:lastOnline:f2pool:miner-1"; got != want {
		t.Errorf("lastOnlineKey() = %q, want %q", got, want)
	}
	if got, want := offlineCandidateKey("binance", "miner-2"), "uptime:lastOfflineCandidate:binance:miner-2"; got != want {
		t.Errorf("offlineCandidateKey() = %q, want %q", got, want)
	}
}
