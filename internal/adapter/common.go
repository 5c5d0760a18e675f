package adapter

import (
	"os"
	"time"
)

// defaultAdapterTimeout is the per-call HTTP timeout used by adapters that
// don't have a pool-specific reason to deviate, per spec §4.3.
const defaultAdapterTimeout = 15 * time.Second

// nowFunc is the clock ViaBTC's confirmation poll uses when it classifies
// observations itself.
var nowFunc = time.Now

// proxyEnvVars are unset by ClearProxyEnv. F2Pool's worker-list endpoint is
// known to respond inconsistently behind a forwarding proxy, per spec §6;
// clearing them on startup keeps every adapter's HTTP client talking to the
// pool directly regardless of what the host environment has set.
var proxyEnvVars = []string{
	"HTTP_PROXY", "HTTPS_PROXY", "ALL_PROXY", "NO_PROXY",
	"http_proxy", "https_proxy", "all_proxy", "no_proxy",
}

// ClearProxyEnv unsets every proxy-related environment variable. Callers
// run it once during process startup, before any adapter issues its first
// request.
func ClearProxyEnv() {
	for _, v := range proxyEnvVars {
		os.Unsetenv(v)
	}
}
