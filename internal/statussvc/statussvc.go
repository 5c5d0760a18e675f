// Package statussvc implements the read path described in spec §4.9: a
// cached, bounded-concurrency projection of each miner's current status
// that never mutates state and never touches the key-value store.
package statussvc

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/poolguard/uptime/internal/adapter"
	"github.com/poolguard/uptime/internal/minerstore"
	"github.com/poolguard/uptime/internal/nameutil"
)

// CacheTTL is the response cache's time-to-live, per spec §4.9.
const CacheTTL = 30 * time.Second

// DefaultConcurrency bounds per-miner adapter calls issued to service a
// cache miss, per spec §5.
const DefaultConcurrency = 4

// Status is the uniform observation projection returned to callers.
type Status struct {
	ID           string  `json:"id"`
	WorkerStatus string  `json:"worker_status"`
	Hashrate10m  float64 `json:"hashrate_10min"`
	Pool         string  `json:"pool"`
	WorkerFound  bool    `json:"worker_found"`
	Error        string  `json:"error,omitempty"`
}

const (
	WorkerStatusOnline      = "online"
	WorkerStatusOffline     = "offline"
	WorkerStatusMaintenance = "maintenance"
)

// MinerLookup resolves a miner by id, the read path's only dependency on
// the Persistence Adapter.
type MinerLookup interface {
	MinerByID(id string) (minerstore.Miner, bool, error)
}

// PoolRegistry looks adapters up by pool name.
type PoolRegistry interface {
	Lookup(pool string) (adapter.Adapter, bool)
}

type cacheEntry struct {
	status    Status
	expiresAt time.Time
}

// Service is the status read service. The cache is process-local; every
// cache read and write goes through a single mutex.
type Service struct {
	Store       MinerLookup
	Registry    PoolRegistry
	Concurrency int
	Now         func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewService builds a Service with the default concurrency and cache TTL.
func NewService(store MinerLookup, reg PoolRegistry) *Service {
	return &Service{
		Store:       store,
		Registry:    reg,
		Concurrency: DefaultConcurrency,
		Now:         time.Now,
		cache:       make(map[string]cacheEntry),
	}
}

// GetStatus returns the projection for id, serving from cache unless
// refresh is true or the cached entry has expired, per spec §4.9.
func (s *Service) GetStatus(ctx context.Context, id string, refresh bool) Status {
	if !refresh {
		if cached, ok := s.cachedStatus(id); ok {
			return cached
		}
	}
	status := s.resolve(ctx, id)
	s.store(id, status)
	return status
}

// GetStatusMany resolves ids in the requested order, serving cache hits
// directly and fanning cache misses out with bounded concurrency.
func (s *Service) GetStatusMany(ctx context.Context, ids []string, refresh bool) []Status {
	results := make([]Status, len(ids))
	var misses []int

	for i, id := range ids {
		if !refresh {
			if cached, ok := s.cachedStatus(id); ok {
				results[i] = cached
				continue
			}
		}
		misses = append(misses, i)
	}

	if len(misses) == 0 {
		return results
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for _, idx := range misses {
		idx := idx
		id := ids[idx]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			status := s.resolve(ctx, id)
			s.store(id, status)
			results[idx] = status
		}()
	}
	wg.Wait()

	return results
}

// cachedStatus returns a live cache entry for id, if any.
func (s *Service) cachedStatus(id string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[id]
	if !ok || s.now().After(entry.expiresAt) {
		return Status{}, false
	}
	return entry.status, true
}

// store writes status into the cache with a fresh TTL.
func (s *Service) store(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[id] = cacheEntry{status: status, expiresAt: s.now().Add(CacheTTL)}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// resolve services a cache miss for id: look the miner up, call its
// adapter, and project the result. DB failure falls back to a synthetic
// offline-with-error projection rather than propagating, per spec §4.9.
func (s *Service) resolve(ctx context.Context, id string) Status {
	m, found, err := s.Store.MinerByID(id)
	if err != nil {
		return Status{ID: id, WorkerStatus: WorkerStatusOffline, Error: fmt.Sprintf("store: %v", err)}
	}
	if !found {
		return Status{ID: id, WorkerStatus: WorkerStatusOffline, WorkerFound: false, Error: "not_found"}
	}
	if minerstore.IsMaintenance(m.Status) {
		return Status{ID: id, Pool: m.Pool, WorkerStatus: WorkerStatusMaintenance, WorkerFound: true}
	}

	a, ok := s.Registry.Lookup(m.Pool)
	if !ok {
		return Status{ID: id, Pool: m.Pool, WorkerStatus: WorkerStatusOffline, WorkerFound: false, Error: "unsupported_pool"}
	}

	result := a.ListWorkers(ctx, nameutil.Head(m.WorkerName), m.Coin, adapter.Credentials{APIKey: m.APIKey, SecretKey: m.SecretKey})
	if !result.Ok {
		log.Printf("statussvc: %s adapter call failed for %s: %s", m.Pool, id, result.Diag)
		return Status{ID: id, Pool: m.Pool, WorkerStatus: WorkerStatusOffline, WorkerFound: false, Error: string(result.Reason)}
	}

	obs, found := findObservation(result.Workers, m.WorkerName)
	if !found {
		return Status{ID: id, Pool: m.Pool, WorkerStatus: WorkerStatusOffline, WorkerFound: false}
	}

	workerStatus := WorkerStatusOffline
	if adapter.IsOnline(obs, s.now()) {
		workerStatus = WorkerStatusOnline
	}
	return Status{
		ID:           id,
		Pool:         m.Pool,
		WorkerStatus: workerStatus,
		Hashrate10m:  obs.Hashrate,
		WorkerFound:  true,
	}
}

// findObservation matches workerName against the observation list by tail
// then tailKey, mirroring the engine's matching rule.
func findObservation(workers []adapter.Observation, workerName string) (adapter.Observation, bool) {
	tail := nameutil.Tail(workerName)
	tailKey := nameutil.TailKey(workerName)
	for _, w := range workers {
		if nameutil.Tail(w.Name) == tail {
			return w, true
		}
	}
	for _, w := range workers {
		if nameutil.TailKey(w.Name) == tailKey {
			return w, true
		}
	}
	return adapter.Observation{}, false
}
