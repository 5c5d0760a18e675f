package reconcile

import "time"

// GraceMinutes and OfflineConfirmMinutes are the newer, more conservative
// MiningDutch-derived constants this engine runs with: a miner must be
// seen offline across two consecutive slots before its status flips, and
// billing forgives a gap of up to 30 minutes since it was last confirmed
// online.
const (
	GraceMinutes          = 30
	OfflineConfirmMinutes = 30
)

// GraceWindow and OfflineConfirmWindow are GraceMinutes/OfflineConfirmMinutes
// as durations for direct comparison against slot ages.
const (
	GraceWindow          = GraceMinutes * time.Minute
	OfflineConfirmWindow = OfflineConfirmMinutes * time.Minute
)

// Historical MiningDutch variant constants, kept named but unused: an
// older deployment ran with a longer grace window and a four-slot offline
// tolerance. Surfaced here per the open question this engine resolved in
// favour of the newer pair above.
const (
	legacyGraceMinutes          = 60
	legacyOfflineToleranceSlots = 4
)

var (
	_ = legacyGraceMinutes
	_ = legacyOfflineToleranceSlots
)

// SlotLockMinTTL and SlotLockMaxTTL bound the advisory per-slot lock:
// long enough that a stuck tick can't be raced by the next slot's tick,
// short enough that a genuinely dead process releases the lock before
// the slot after next.
const (
	SlotLockMinTTL = 14 * time.Minute
	SlotLockMaxTTL = 20 * time.Minute
)

// MaxConcurrentGroups bounds how many miner groups within a single pool
// tick are reconciled at once, matching the source pool's ViaBTC default.
const MaxConcurrentGroups = 4
