// Package reconcile implements the confirmation state machine that turns
// raw pool observations into billing hours and worker status, per spec
// §4.6. It is the core of the uptime job: one tick, one pool, many
// miners grouped into the fewest API calls that can answer for them.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/poolguard/uptime/internal/adapter"
	"github.com/poolguard/uptime/internal/minerstore"
	"github.com/poolguard/uptime/internal/nameutil"
	"github.com/poolguard/uptime/internal/slotclock"
)

// PoolRegistry looks adapters up by normalised pool name, per spec §4.5.
type PoolRegistry interface {
	Lookup(pool string) (adapter.Adapter, bool)
}

// MinerStore is the subset of the Persistence Adapter the engine needs,
// per spec §4.8.
type MinerStore interface {
	SelectCandidates(pool string, needsSecretKey bool) ([]minerstore.Miner, error)
	IncrementHours(ids []string) error
	SetStatus(ids []string, newStatus string) ([]string, error)
}

// KeyValueStore is the subset of the key-value store the engine needs for
// slot locking and GRACE/confirmation bookkeeping, per spec §6.
type KeyValueStore interface {
	AcquireSlotLock(ctx context.Context, slot, pool string, ttl time.Duration) (bool, error)
	MarkLastOnline(ctx context.Context, pool, minerID, slot string) error
	LastOnline(ctx context.Context, pool, minerID string) (string, bool, error)
	ClearLastOnline(ctx context.Context, pool, minerID string) error
	MarkOfflineCandidate(ctx context.Context, pool, minerID, slot string) error
	OfflineCandidateSlot(ctx context.Context, pool, minerID string) (string, bool, error)
	ClearOfflineCandidate(ctx context.Context, pool, minerID string) error
}

// NotifyEvent describes a confirmed status transition, decoupled from the
// notify package's own event type so the engine doesn't have to import an
// HTTP-facing package to fire one.
type NotifyEvent struct {
	Type       string
	Pool       string
	WorkerName string
	MinerID    string
	Timestamp  time.Time
}

const (
	NotifyConfirmedOffline = "confirmed_offline"
	NotifyRecoveredOnline  = "recovered_online"
)

// Notifier is the optional best-effort alerting hook fired after a status
// mutation has already been committed.
type Notifier interface {
	Notify(NotifyEvent)
}

// Engine wires the Adapter Registry, Persistence Adapter, key-value store
// and Slot Coordinator together to run one reconciliation tick per pool.
type Engine struct {
	Registry    PoolRegistry
	Store       MinerStore
	KV          KeyValueStore
	Coordinator *Coordinator
	Notifier    Notifier
	Now         func() time.Time
}

// NewEngine builds an Engine from its four collaborators. Notifier is left
// nil; set Engine.Notifier directly to enable webhook alerts.
func NewEngine(reg PoolRegistry, store MinerStore, kv KeyValueStore, coord *Coordinator) *Engine {
	return &Engine{
		Registry:    reg,
		Store:       store,
		KV:          kv,
		Coordinator: coord,
		Now:         time.Now,
	}
}

// group is the unit of one adapter call: every miner sharing api_key,
// secret_key, account and coin is answered by a single listWorkers call.
type group struct {
	apiKey    string
	secretKey string
	account   string
	coin      string
	miners    []minerstore.Miner
}

// groupKey returns the key a miner belongs under for pool, following
// spec §4.6 step 3: account-keyed pools group by (api_key, secret_key,
// head(worker_name), coin); LiteCoinPool, a single-tenant-key pool,
// groups by api_key alone.
func groupKey(pool string, m minerstore.Miner) string {
	if pool == "litecoinpool" {
		return m.APIKey
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s", m.APIKey, m.SecretKey, nameutil.Head(m.WorkerName), m.Coin)
}

// buildGroups partitions miners into groups using groupKey, in a
// deterministic order (sorted by key) so logs and tests are stable.
func buildGroups(pool string, miners []minerstore.Miner) []*group {
	byKey := make(map[string]*group)
	var keys []string
	for _, m := range miners {
		k := groupKey(pool, m)
		g, ok := byKey[k]
		if !ok {
			g = &group{
				apiKey:    m.APIKey,
				secretKey: m.SecretKey,
				account:   nameutil.Head(m.WorkerName),
				coin:      m.Coin,
			}
			byKey[k] = g
			keys = append(keys, k)
		}
		g.miners = append(g.miners, m)
	}
	sort.Strings(keys)
	groups := make([]*group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, byKey[k])
	}
	return groups
}

// Tick runs one reconciliation pass for pool: acquire the slot lock, load
// candidates, group them, and reconcile each group with bounded
// concurrency. Returns nil without doing any work if the slot lock for
// this pool/slot is already held by another process.
func (e *Engine) Tick(ctx context.Context, pool string) error {
	now := e.Now()
	slot := slotclock.Current(now)

	lockTTL := SlotLockMinTTL + (SlotLockMaxTTL-SlotLockMinTTL)/2
	acquired, err := e.KV.AcquireSlotLock(ctx, slot, pool, lockTTL)
	if err != nil {
		return fmt.Errorf("acquire slot lock for %s/%s: %w", pool, slot, err)
	}
	if !acquired {
		log.Printf("reconcile: %s slot %s already locked, skipping", pool, slot)
		return nil
	}

	a, ok := e.Registry.Lookup(pool)
	if !ok {
		log.Printf("reconcile: %s unsupported_pool", pool)
		return nil
	}

	miners, err := e.Store.SelectCandidates(pool, a.RequiresSecret())
	if err != nil {
		return fmt.Errorf("select candidates for %s: %w", pool, err)
	}
	if len(miners) == 0 {
		return nil
	}

	groups := buildGroups(pool, miners)

	sem := make(chan struct{}, MaxConcurrentGroups)
	errCh := make(chan error, len(groups))
	var wg sync.WaitGroup
	for _, g := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func(g *group) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := e.reconcileGroup(ctx, a, pool, slot, now, g); err != nil {
				log.Printf("reconcile: %s group (account=%s coin=%s) failed: %v", pool, g.account, g.coin, err)
				errCh <- err
			}
		}(g)
	}
	wg.Wait()
	close(errCh)

	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// mutationPlan accumulates the ids that should receive each mutation for
// one group, applied in the order spec §4.6 step 7 requires: hours first,
// then online, then offline.
type mutationPlan struct {
	billingOnline []string
	statusOnline  []string
	statusOffline []string
}

// reconcileGroup calls the adapter for g and applies the confirmation
// state machine, per spec §4.6 steps 4-7.
func (e *Engine) reconcileGroup(ctx context.Context, a adapter.Adapter, pool, slot string, now time.Time, g *group) error {
	creds := adapter.Credentials{APIKey: g.apiKey, SecretKey: g.secretKey}
	result := a.ListWorkers(ctx, g.account, g.coin, creds)

	var plan mutationPlan
	if !result.Ok {
		e.planAPIFailure(ctx, pool, now, g, &plan)
	} else {
		workers := e.fillMissingWorkers(ctx, a, g, creds, result.Workers)
		e.planObservations(ctx, pool, slot, now, g, workers, &plan)
	}

	workerNames := make(map[string]string, len(g.miners))
	for _, m := range g.miners {
		workerNames[m.ID] = m.WorkerName
	}

	return e.applyPlan(ctx, pool, slot, now, workerNames, plan)
}

// planAPIFailure implements spec §4.6 step 6: no status mutation for
// anything in the group; billing-only GRACE credit for miners recently
// seen online.
func (e *Engine) planAPIFailure(ctx context.Context, pool string, now time.Time, g *group, plan *mutationPlan) {
	for _, m := range g.miners {
		if e.eligibleForGrace(ctx, pool, m, now) {
			plan.billingOnline = append(plan.billingOnline, m.ID)
		}
	}
}

// eligibleForGrace reports whether m should be billed under GRACE: its
// stored status is already online, or it was confirmed online within
// GraceWindow.
func (e *Engine) eligibleForGrace(ctx context.Context, pool string, m minerstore.Miner, now time.Time) bool {
	if minerstore.StatusOnline == m.Status {
		return true
	}
	lastSlot, ok, err := e.KV.LastOnline(ctx, pool, m.ID)
	if err != nil || !ok {
		return false
	}
	age, err := slotclock.Age(lastSlot, now)
	if err != nil {
		return false
	}
	return age <= GraceWindow
}

// fillMissingWorkers implements the Binance worker-not-in-list fallback
// (spec §4.4.5): if the group's paged listing matched none of its miners
// at all, and the adapter can resolve a worker directly, fetch each
// miner's detail and fold any hits into the observation list.
func (e *Engine) fillMissingWorkers(ctx context.Context, a adapter.Adapter, g *group, creds adapter.Credentials, workers []adapter.Observation) []adapter.Observation {
	fetcher, ok := a.(adapter.DetailFetcher)
	if !ok {
		return workers
	}

	byTail, byTailKey := observationIndex(workers)
	for _, m := range g.miners {
		if _, matched := matchObservation(byTail, byTailKey, m.WorkerName); matched {
			return workers
		}
	}

	for _, m := range g.miners {
		if obs, found := fetcher.FetchMissingDetail(ctx, g.coin, nameutil.Tail(m.WorkerName), creds); found {
			workers = append(workers, obs)
		}
	}
	return workers
}

// observationIndex builds the tail/tailKey lookup spec §4.6 step 5 matches
// candidate miners against.
func observationIndex(workers []adapter.Observation) (map[string]adapter.Observation, map[string]adapter.Observation) {
	byTail := make(map[string]adapter.Observation, len(workers))
	byTailKey := make(map[string]adapter.Observation, len(workers))
	for _, w := range workers {
		byTail[nameutil.Tail(w.Name)] = w
		byTailKey[nameutil.TailKey(w.Name)] = w
	}
	return byTail, byTailKey
}

// matchObservation looks workerName up by tail, then tailKey.
func matchObservation(byTail, byTailKey map[string]adapter.Observation, workerName string) (adapter.Observation, bool) {
	if obs, ok := byTail[nameutil.Tail(workerName)]; ok {
		return obs, true
	}
	obs, ok := byTailKey[nameutil.TailKey(workerName)]
	return obs, ok
}

// planObservations implements spec §4.6 step 5: index observations by
// tail/tailKey and walk every candidate miner in the group.
func (e *Engine) planObservations(ctx context.Context, pool, slot string, now time.Time, g *group, workers []adapter.Observation, plan *mutationPlan) {
	byTail, byTailKey := observationIndex(workers)

	for _, m := range g.miners {
		obs, matched := matchObservation(byTail, byTailKey, m.WorkerName)

		if !matched {
			if e.eligibleForGrace(ctx, pool, m, now) {
				plan.billingOnline = append(plan.billingOnline, m.ID)
			}
			continue
		}

		if adapter.IsOnline(obs, now) {
			plan.billingOnline = append(plan.billingOnline, m.ID)
			plan.statusOnline = append(plan.statusOnline, m.ID)
			if err := e.KV.MarkLastOnline(ctx, pool, m.ID, slot); err != nil {
				log.Printf("reconcile: mark last online %s/%s: %v", pool, m.ID, err)
			}
			if err := e.KV.ClearOfflineCandidate(ctx, pool, m.ID); err != nil {
				log.Printf("reconcile: clear offline candidate %s/%s: %v", pool, m.ID, err)
			}
			continue
		}

		e.planOfflineObservation(ctx, pool, slot, m, plan)
	}
}

// planOfflineObservation implements the offline-candidate branch of spec
// §4.6 step 5.
func (e *Engine) planOfflineObservation(ctx context.Context, pool, slot string, m minerstore.Miner, plan *mutationPlan) {
	if m.Status == minerstore.StatusOffline {
		if err := e.KV.ClearOfflineCandidate(ctx, pool, m.ID); err != nil {
			log.Printf("reconcile: clear stale offline candidate %s/%s: %v", pool, m.ID, err)
		}
		return
	}

	candidateSlot, hasCandidate, err := e.KV.OfflineCandidateSlot(ctx, pool, m.ID)
	if err != nil {
		log.Printf("reconcile: read offline candidate %s/%s: %v", pool, m.ID, err)
		return
	}

	if !hasCandidate {
		if err := e.KV.MarkOfflineCandidate(ctx, pool, m.ID, slot); err != nil {
			log.Printf("reconcile: mark offline candidate %s/%s: %v", pool, m.ID, err)
		}
		plan.billingOnline = append(plan.billingOnline, m.ID)
		return
	}

	// A candidate marker already exists from an earlier tick: this is the
	// second consecutive offline observation, which confirms the status
	// change regardless of the exact elapsed wall-clock time between the
	// two slots (slot cadence, not a strict 30-minute timer, is what
	// OFFLINE_CONFIRM_MIN counts). A same-slot re-entry (candidateSlot ==
	// slot) cannot yet confirm; wait for the next tick.
	if candidateSlot == slot {
		plan.billingOnline = append(plan.billingOnline, m.ID)
		return
	}

	plan.statusOffline = append(plan.statusOffline, m.ID)
	if err := e.KV.ClearOfflineCandidate(ctx, pool, m.ID); err != nil {
		log.Printf("reconcile: clear offline candidate %s/%s: %v", pool, m.ID, err)
	}
	if err := e.KV.ClearLastOnline(ctx, pool, m.ID); err != nil {
		log.Printf("reconcile: clear last online %s/%s: %v", pool, m.ID, err)
	}
}

// applyPlan persists plan in the order spec §4.6 step 7 requires: hours
// increment, then status->online, then status->offline. Only the hours
// increment goes through the Slot Coordinator's per-slot dedup.
func (e *Engine) applyPlan(ctx context.Context, pool, slot string, now time.Time, workerNames map[string]string, plan mutationPlan) error {
	if ids := e.Coordinator.Dedupe(slot, plan.billingOnline); len(ids) > 0 {
		if err := e.Store.IncrementHours(ids); err != nil {
			return fmt.Errorf("increment hours for %s: %w", pool, err)
		}
	}
	if len(plan.statusOnline) > 0 {
		affected, err := e.Store.SetStatus(plan.statusOnline, minerstore.StatusOnline)
		if err != nil {
			return fmt.Errorf("set status online for %s: %w", pool, err)
		}
		e.notify(pool, NotifyRecoveredOnline, now, workerNames, affected)
	}
	if len(plan.statusOffline) > 0 {
		affected, err := e.Store.SetStatus(plan.statusOffline, minerstore.StatusOffline)
		if err != nil {
			return fmt.Errorf("set status offline for %s: %w", pool, err)
		}
		e.notify(pool, NotifyConfirmedOffline, now, workerNames, affected)
	}
	return nil
}

// notify fires a best-effort alert for each id actually transitioned, if a
// Notifier is configured.
func (e *Engine) notify(pool, eventType string, now time.Time, workerNames map[string]string, ids []string) {
	if e.Notifier == nil {
		return
	}
	for _, id := range ids {
		e.Notifier.Notify(NotifyEvent{
			Type:       eventType,
			Pool:       pool,
			WorkerName: workerNames[id],
			MinerID:    id,
			Timestamp:  now,
		})
	}
}
