package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/poolguard/uptime/internal/nameutil"
	"github.com/poolguard/uptime/internal/poolhttp"
)

// LiteCoinPool implements Adapter against litecoinpool.org's single-tenant
// API-key endpoint, per spec §4.4.2.
type LiteCoinPool struct {
	HTTP *poolhttp.Client
}

func NewLiteCoinPool() *LiteCoinPool {
	return &LiteCoinPool{HTTP: poolhttp.NewClient(defaultAdapterTimeout)}
}

func (a *LiteCoinPool) Pool() string         { return "litecoinpool" }
func (a *LiteCoinPool) RequiresSecret() bool { return false }

type litecoinpoolEnvelope struct {
	Workers map[string]litecoinpoolWorker `json:"workers"`
}

type litecoinpoolWorker struct {
	Connected bool    `json:"connected"`
	HashRate  float64 `json:"hash_rate"`
}

// ListWorkers fetches all workers under the account keyed by api_key; the
// account and coin parameters are unused since litecoinpool.org has no
// per-account or per-coin segmentation.
func (a *LiteCoinPool) ListWorkers(ctx context.Context, account, coin string, creds Credentials) Result {
	endpoint := fmt.Sprintf("https://www.litecoinpool.org/api?api_key=%s", creds.APIKey)

	out := a.HTTP.Do(ctx, poolhttp.Request{Method: http.MethodGet, URL: endpoint})
	if out.Err != nil {
		return Fail(ReasonTransport, endpoint, out.Err.Error())
	}
	if out.StatusCode == http.StatusUnauthorized || out.StatusCode == http.StatusForbidden {
		return Fail(ReasonAuth, endpoint, out.BodyPrefix)
	}
	if out.StatusCode != http.StatusOK {
		return Fail(HTTPReason(out.StatusCode), endpoint, out.BodyPrefix)
	}

	var env litecoinpoolEnvelope
	if err := json.Unmarshal(out.Body, &env); err != nil {
		return Fail(ReasonSchema, endpoint, err.Error())
	}

	workers := make([]Observation, 0, len(env.Workers))
	for fullname, w := range env.Workers {
		hashrate := w.HashRate * 1000 // kH/s -> H/s
		var statusText string
		if w.Connected {
			// Only assert the positive label; leaving it unset when not
			// connected lets a nonzero hash_rate still count as online,
			// per spec ("online iff connected==true (or hashrate > 0)").
			statusText = "connected"
		}
		workers = append(workers, Observation{
			Name:       nameutil.Clean(fullname),
			Hashrate:   hashrate,
			StatusText: statusText,
		})
	}
	return OkResult(endpoint, workers)
}
