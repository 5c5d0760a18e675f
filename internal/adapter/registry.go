package adapter

import "strings"

// Registry dispatches by pool tag to the adapter that knows how to talk to
// it, per spec §4.5. Lookup is case-insensitive exact match.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry pre-populated with the five shipped
// adapters.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range []Adapter{
		NewViaBTC(),
		NewLiteCoinPool(),
		NewMiningDutch(),
		NewF2Pool(),
		NewBinance(),
	} {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter responsible for a.Pool().
func (r *Registry) Register(a Adapter) {
	r.adapters[strings.ToLower(a.Pool())] = a
}

// Lookup returns the adapter for pool, or ok=false if the pool is
// unsupported; reconciliation for an unsupported pool is skipped with
// reason "unsupported_pool" per spec §4.5.
func (r *Registry) Lookup(pool string) (Adapter, bool) {
	a, ok := r.adapters[strings.ToLower(pool)]
	return a, ok
}

// ErrUnsupportedPool is the sentinel reason recorded when a group names a
// pool the registry has no adapter for.
const ErrUnsupportedPool Reason = "unsupported_pool"
