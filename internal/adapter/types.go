// Package adapter translates each pool's idiosyncratic HTTP API into the
// uniform Observation shape the reconciliation engine and status service
// both consume.
package adapter

import (
	"context"
	"strconv"
)

// Observation is a single worker fact as reported by a pool, normalised
// into the shape the reconciliation engine reasons about. Every field
// except Name is optional; a zero value means "the pool did not report
// this signal", not "the pool reported zero".
type Observation struct {
	Name string

	// Hashrate is non-negative and pool-native in units; the engine only
	// ever tests Hashrate > 0.
	Hashrate float64

	// AliveHint is an optional boolean/numeric liveness signal distinct
	// from hashrate (e.g. MiningDutch's "alive" field). Nil means absent.
	AliveHint *float64

	// StatusText is an optional free-form label (e.g. "active", "inactive").
	StatusText string

	// LastShareMS is the epoch-millisecond timestamp of the worker's last
	// accepted share, when the pool reports one (F2Pool). Zero means absent.
	LastShareMS int64
}

// Credentials carries the per-miner API credentials an adapter needs to
// call its pool. SecretKey is empty for pools that don't sign requests.
type Credentials struct {
	APIKey    string
	SecretKey string
}

// Reason enumerates the taxonomy of adapter failure causes from spec §7.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonTransport  Reason = "transport"
	ReasonSchema     Reason = "schema"
	ReasonGeoblocked Reason = "geoblocked"
	ReasonAuth       Reason = "auth"
)

// HTTPReason formats a non-2xx status as the "http:<status>" reason string.
func HTTPReason(status int) Reason {
	return Reason("http:" + strconv.Itoa(status))
}

// LogicalReason formats a pool-defined error code as "logical:<code>".
func LogicalReason(code string) Reason {
	return Reason("logical:" + code)
}

// Result is what ListWorkers returns: either Ok with a (possibly empty)
// worker list, authoritatively reported by the pool, or Fail, meaning the
// pool could not be consulted and the caller must not treat the absence of
// workers as evidence of anything.
type Result struct {
	Ok       bool
	Reason   Reason
	Workers  []Observation
	Endpoint string
	Diag     string
}

// Fail builds a failing Result.
func Fail(reason Reason, endpoint, diag string) Result {
	return Result{Ok: false, Reason: reason, Endpoint: endpoint, Diag: diag}
}

// OkResult builds a successful Result, possibly with zero workers.
func OkResult(endpoint string, workers []Observation) Result {
	return Result{Ok: true, Workers: workers, Endpoint: endpoint}
}

// Adapter is the contract every pool-specific implementation satisfies.
type Adapter interface {
	// Pool returns the adapter's canonical, lowercase pool tag.
	Pool() string
	// RequiresSecret reports whether this pool signs requests with
	// SecretKey (only Binance does today).
	RequiresSecret() bool
	// ListWorkers fetches and normalises the current worker list for one
	// group (account, coin, credentials).
	ListWorkers(ctx context.Context, account, coin string, creds Credentials) Result
}

// DetailFetcher is implemented by adapters that can resolve a single
// worker directly when the paged listing doesn't mention it at all
// (Binance's worker-not-in-list fallback, spec §4.4.5). The engine type-
// asserts an Adapter against this after an Ok ListWorkers call comes back
// with zero matches for the whole group.
type DetailFetcher interface {
	FetchMissingDetail(ctx context.Context, coin, expectedTail string, creds Credentials) (Observation, bool)
}
