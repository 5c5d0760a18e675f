package minerstore

import (
	"os"
	"testing"
)

// setupTestStore opens a Store against DATABASE_URL when set, and skips
// otherwise. Unlike the teacher's SQLite layer, Postgres isn't embeddable
// in a temp dir, so the integration path needs a real server.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping Postgres integration test")
	}
	store, err := Open(dsn, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreCandidateLifecycle(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.db.Exec(`DELETE FROM miners WHERE id = 'test-miner-1'`); err != nil {
		t.Fatalf("failed to clear fixture: %v", err)
	}
	if _, err := store.db.Exec(`
		INSERT INTO miners (id, pool, coin, worker_name, api_key, secret_key, status, total_horas_online)
		VALUES ('test-miner-1', 'viabtc', 'BTC', 'worker1', 'key', '', 'offline', 1.0)`); err != nil {
		t.Fatalf("failed to insert fixture: %v", err)
	}

	candidates, err := store.SelectCandidates("viabtc", false)
	if err != nil {
		t.Fatalf("SelectCandidates: %v", err)
	}
	found := false
	for _, m := range candidates {
		if m.ID == "test-miner-1" {
			found = true
		}
	}
	if !found {
		t.Error("expected test-miner-1 among candidates")
	}

	if err := store.IncrementHours([]string{"test-miner-1"}); err != nil {
		t.Fatalf("IncrementHours: %v", err)
	}

	affected, err := store.SetStatus([]string{"test-miner-1"}, "online")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if len(affected) != 1 || affected[0] != "test-miner-1" {
		t.Errorf("expected test-miner-1 to be affected, got %v", affected)
	}

	// A repeat SetStatus to the same value should affect nothing.
	affected, err = store.SetStatus([]string{"test-miner-1"}, "online")
	if err != nil {
		t.Fatalf("SetStatus (no-op): %v", err)
	}
	if len(affected) != 0 {
		t.Errorf("expected no-op transition to affect nothing, got %v", affected)
	}
}

func TestIsMaintenance(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"maintenance", true},
		{"Maintenance", true},
		{"MAINTENANCE", true},
		{"online", false},
		{"offline", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsMaintenance(tt.status); got != tt.want {
			t.Errorf("IsMaintenance(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.MaxOpenConns <= 0 {
		t.Error("expected positive MaxOpenConns")
	}
	if opts.ConnectRetries <= 0 {
		t.Error("expected positive ConnectRetries")
	}
	if opts.ConnectTimeout <= 0 {
		t.Error("expected positive ConnectTimeout")
	}
}
