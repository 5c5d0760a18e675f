package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/poolguard/uptime/internal/poolhttp"
)

// ViaBTC implements Adapter against the ViaBTC openapi worker-hashrate
// endpoint.
type ViaBTC struct {
	HTTP *poolhttp.Client
}

// NewViaBTC builds a ViaBTC adapter using a client timed per spec §4.3.
func NewViaBTC() *ViaBTC {
	return &ViaBTC{HTTP: poolhttp.NewClient(defaultAdapterTimeout)}
}

func (a *ViaBTC) Pool() string         { return "viabtc" }
func (a *ViaBTC) RequiresSecret() bool { return false }

type viabtcEnvelope struct {
	Code int `json:"code"`
	Data struct {
		Data []viabtcWorker `json:"data"`
	} `json:"data"`
}

type viabtcWorker struct {
	WorkerName   string  `json:"worker_name"`
	Hashrate10m  float64 `json:"hashrate_10min"`
	WorkerStatus string  `json:"worker_status"`
}

// ListWorkers issues the primary listing call and, for any miner this
// group's primary call classified offline, a second confirmation call per
// spec §4.4.1. Reconciliation folds the two into "online if either call
// says online"; this method exposes that fold directly so callers don't
// need to know ViaBTC double-polls.
func (a *ViaBTC) ListWorkers(ctx context.Context, account, coin string, creds Credentials) Result {
	first, endpoint := a.fetch(ctx, coin, creds)
	if !first.Ok {
		return first
	}

	offlineNames := map[string]bool{}
	for _, w := range first.Workers {
		if !IsOnline(w, nowFunc()) {
			offlineNames[w.Name] = true
		}
	}
	if len(offlineNames) == 0 {
		return first
	}

	second, _ := a.fetch(ctx, coin, creds)
	if !second.Ok {
		// The confirmation call failing doesn't invalidate the first,
		// authoritative response; just skip the reconfirmation.
		return first
	}

	secondByName := make(map[string]Observation, len(second.Workers))
	for _, w := range second.Workers {
		secondByName[w.Name] = w
	}

	merged := make([]Observation, 0, len(first.Workers))
	for _, w := range first.Workers {
		if offlineNames[w.Name] {
			if confirm, ok := secondByName[w.Name]; ok && IsOnline(confirm, nowFunc()) {
				merged = append(merged, confirm)
				continue
			}
		}
		merged = append(merged, w)
	}

	return OkResult(endpoint, merged)
}

func (a *ViaBTC) fetch(ctx context.Context, coin string, creds Credentials) (Result, string) {
	endpoint := fmt.Sprintf("https://www.viabtc.net/res/openapi/v1/hashrate/worker?coin=%s", strings.ToUpper(coin))

	out := a.HTTP.Do(ctx, poolhttp.Request{
		Method:  http.MethodGet,
		URL:     endpoint,
		Headers: map[string]string{"X-API-KEY": creds.APIKey},
	})
	if out.Err != nil {
		return Fail(ReasonTransport, endpoint, out.Err.Error()), endpoint
	}
	if out.StatusCode == http.StatusUnauthorized || out.StatusCode == http.StatusForbidden {
		return Fail(ReasonAuth, endpoint, out.BodyPrefix), endpoint
	}
	if out.StatusCode != http.StatusOK {
		return Fail(HTTPReason(out.StatusCode), endpoint, out.BodyPrefix), endpoint
	}

	var env viabtcEnvelope
	if err := json.Unmarshal(out.Body, &env); err != nil {
		return Fail(ReasonSchema, endpoint, err.Error()), endpoint
	}
	if env.Code != 0 {
		return Fail(LogicalReason(fmt.Sprintf("%d", env.Code)), endpoint, out.BodyPrefix), endpoint
	}

	workers := make([]Observation, 0, len(env.Data.Data))
	for _, w := range env.Data.Data {
		workers = append(workers, Observation{
			Name:       w.WorkerName,
			Hashrate:   w.Hashrate10m,
			StatusText: w.WorkerStatus,
		})
	}
	return OkResult(endpoint, workers), endpoint
}
