// Package kvstore wraps Redis for the two stateful mechanisms the
// reconciliation engine needs across process restarts: the per-slot
// advisory lock and the last-known-online bookkeeping used for GRACE
// billing and offline confirmation, per spec §6.
package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a thin typed wrapper over a redis.Client, following the
// teacher's habit of wrapping third-party clients in a package-local
// type rather than passing *redis.Client around directly.
type Store struct {
	client *redis.Client
}

// New connects to addr (host:port) using the given password and DB index.
// It does not ping eagerly; callers should call Ping during startup.
func New(addr, password string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies connectivity, per the teacher's startup health checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// slotLockKey returns "uptime:<slot>:<pool>", the lock spec §6 uses to
// make a slot/pool reconciliation run idempotent across concurrent
// processes.
func slotLockKey(slot, pool string) string {
	return fmt.Sprintf("uptime:%s:%s", slot, pool)
}

// AcquireSlotLock tries to take the slot/pool lock with the given TTL
// (14-20 minutes in production) using SET NX EX. It
// returns true if this call won the lock.
func (s *Store) AcquireSlotLock(ctx context.Context, slot, pool string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, slotLockKey(slot, pool), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire slot lock: %w", err)
	}
	return ok, nil
}

// ReleaseSlotLock removes the slot/pool lock before its TTL expires, so
// another process can take the same slot.
func (s *Store) ReleaseSlotLock(ctx context.Context, slot, pool string) error {
	if err := s.client.Del(ctx, slotLockKey(slot, pool)).Err(); err != nil {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

// lastOnlineKey returns "uptime:lastOnline:<pool>:<id>".
func lastOnlineKey(pool, minerID string) string {
	return fmt.Sprintf("uptime:lastOnline:%s:%s", pool, minerID)
}

// lastOnlineTTL is the 7-day retention window from spec §6: long enough to
// span a GRACE window many times over but bounded so stale miners don't
// accumulate keys forever.
const lastOnlineTTL = 7 * 24 * time.Hour

// MarkLastOnline records slot as the last slot this miner was confirmed
// online in.
func (s *Store) MarkLastOnline(ctx context.Context, pool, minerID, slot string) error {
	if err := s.client.Set(ctx, lastOnlineKey(pool, minerID), slot, lastOnlineTTL).Err(); err != nil {
		return fmt.Errorf("mark last online: %w", err)
	}
	return nil
}

// LastOnline returns the last slot this miner was confirmed online in, and
// false if no such record exists (never observed online, or it expired).
func (s *Store) LastOnline(ctx context.Context, pool, minerID string) (string, bool, error) {
	slot, err := s.client.Get(ctx, lastOnlineKey(pool, minerID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get last online: %w", err)
	}
	return slot, true, nil
}

// ClearLastOnline removes the last-online marker, used once a miner is
// confirmed offline so a subsequent API failure can't re-derive a stale
// GRACE credit from it.
func (s *Store) ClearLastOnline(ctx context.Context, pool, minerID string) error {
	if err := s.client.Del(ctx, lastOnlineKey(pool, minerID)).Err(); err != nil {
		return fmt.Errorf("clear last online: %w", err)
	}
	return nil
}

// offlineCandidateKey returns "uptime:lastOfflineCandidate:<pool>:<id>".
func offlineCandidateKey(pool, minerID string) string {
	return fmt.Sprintf("uptime:lastOfflineCandidate:%s:%s", pool, minerID)
}

// offlineCandidateTTL bounds how long an offline-candidate marker survives
// unconfirmed; OFFLINE_CONFIRM_MIN is well inside this window.
const offlineCandidateTTL = 24 * time.Hour

// MarkOfflineCandidate records slot as the first slot this miner was seen
// offline in, the marker spec §4.7 uses to require two consecutive
// offline observations before flipping status.
func (s *Store) MarkOfflineCandidate(ctx context.Context, pool, minerID, slot string) error {
	if err := s.client.Set(ctx, offlineCandidateKey(pool, minerID), slot, offlineCandidateTTL).Err(); err != nil {
		return fmt.Errorf("mark offline candidate: %w", err)
	}
	return nil
}

// OfflineCandidateSlot returns the slot this miner was first seen offline
// in, and false if there is no pending candidate.
func (s *Store) OfflineCandidateSlot(ctx context.Context, pool, minerID string) (string, bool, error) {
	slot, err := s.client.Get(ctx, offlineCandidateKey(pool, minerID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get offline candidate: %w", err)
	}
	return slot, true, nil
}

// ClearOfflineCandidate removes the offline-candidate marker, used once a
// miner is confirmed back online or once it has been confirmed offline and
// the transition has been applied.
func (s *Store) ClearOfflineCandidate(ctx context.Context, pool, minerID string) error {
	if err := s.client.Del(ctx, offlineCandidateKey(pool, minerID)).Err(); err != nil {
		return fmt.Errorf("clear offline candidate: %w", err)
	}
	return nil
}
