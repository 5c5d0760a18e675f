package minerstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Options tunes the connection pool the way the teacher's SQLiteStorage
// tunes SQLite, generalised to Postgres: max open connections, idle
// timeout, and a bounded number of reconnect attempts on a cold start.
type Options struct {
	MaxOpenConns   int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	ConnectRetries int
}

// DefaultOptions mirrors the env defaults named in spec §6
// (DB_MAX_CONNECTIONS, DB_IDLE_TIMEOUT, DB_CONNECT_TIMEOUT, DB_RETRIES).
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:   10,
		IdleTimeout:    5 * time.Minute,
		ConnectTimeout: 5 * time.Second,
		ConnectRetries: 3,
	}
}

// Store is the persistence adapter described in spec §4.8.
type Store struct {
	db *sql.DB
}

// Open opens a Postgres connection pool at dsn, retrying the initial ping
// with short backoff to tolerate a database that's still coming up
// (DB_CONNECT_TIMEOUT/DB_RETRIES), and runs the minimum schema migration.
func Open(dsn string, opts Options) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetConnMaxIdleTime(opts.IdleTimeout)

	var pingErr error
	for attempt := 1; attempt <= opts.ConnectRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
	}
	if pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database after %d attempts: %w", opts.ConnectRetries, pingErr)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate creates the minimum schema from spec §6 if it doesn't exist yet.
// A pre-existing production schema with the same column names is left
// untouched.
func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS miners (
		id TEXT PRIMARY KEY,
		pool TEXT NOT NULL,
		coin TEXT NOT NULL DEFAULT '',
		worker_name TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		secret_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		total_horas_online DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_miners_pool ON miners(pool);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// SelectCandidates returns miners for pool whose required credential
// columns are populated and whose worker_name is non-empty, per spec §4.6
// step 2. needsSecretKey should come from adapter.Requirements(pool).
func (s *Store) SelectCandidates(pool string, needsSecretKey bool) ([]Miner, error) {
	query := `
	SELECT id, pool, coin, worker_name, api_key, secret_key, status, total_horas_online
	FROM miners
	WHERE lower(pool) = lower($1)
	  AND worker_name <> ''
	  AND api_key <> ''`
	if needsSecretKey {
		query += ` AND secret_key <> ''`
	}

	rows, err := s.db.Query(query, pool)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	defer rows.Close()

	var miners []Miner
	for rows.Next() {
		var m Miner
		if err := rows.Scan(&m.ID, &m.Pool, &m.Coin, &m.WorkerName, &m.APIKey, &m.SecretKey, &m.Status, &m.TotalHorasOnline); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		miners = append(miners, m)
	}
	return miners, rows.Err()
}

// MinerByID returns the single miner with the given id, for the status
// read service's per-miner lookups.
func (s *Store) MinerByID(id string) (Miner, bool, error) {
	const query = `
	SELECT id, pool, coin, worker_name, api_key, secret_key, status, total_horas_online
	FROM miners
	WHERE id = $1`

	var m Miner
	err := s.db.QueryRow(query, id).Scan(&m.ID, &m.Pool, &m.Coin, &m.WorkerName, &m.APIKey, &m.SecretKey, &m.Status, &m.TotalHorasOnline)
	if err == sql.ErrNoRows {
		return Miner{}, false, nil
	}
	if err != nil {
		return Miner{}, false, fmt.Errorf("select miner by id: %w", err)
	}
	return m, true, nil
}

// IncrementHours applies the +0.25h billing increment to every id in ids,
// skipping any miner currently in maintenance, per spec §4.8.
func (s *Store) IncrementHours(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const stmt = `
	UPDATE miners
	SET total_horas_online = COALESCE(total_horas_online, 0) + 0.25
	WHERE id = ANY($1) AND lower(status) <> 'maintenance'`
	_, err := s.db.Exec(stmt, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("increment hours: %w", err)
	}
	return nil
}

// SetStatus transitions every id in ids to newStatus, skipping maintenance
// miners and no-op transitions, and returns the ids that were actually
// changed, per spec §4.8.
func (s *Store) SetStatus(ids []string, newStatus string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const stmt = `
	UPDATE miners
	SET status = $2
	WHERE id = ANY($1) AND status <> $2 AND lower(status) <> 'maintenance'
	RETURNING id`

	rows, err := s.db.Query(stmt, pq.Array(ids), newStatus)
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}
	defer rows.Close()

	var affected []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan affected id: %w", err)
		}
		affected = append(affected, id)
	}
	return affected, rows.Err()
}

// IsMaintenance reports whether status folds to the sticky maintenance
// lifecycle value, per spec §3.
func IsMaintenance(status string) bool {
	return strings.EqualFold(status, StatusMaintenance)
}
