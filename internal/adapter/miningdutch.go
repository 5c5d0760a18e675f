package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/poolguard/uptime/internal/nameutil"
	"github.com/poolguard/uptime/internal/poolhttp"
)

// MiningDutch implements Adapter against mining-dutch.nl's per-coin PHP
// API, tolerating the four envelope shapes documented in spec §4.4.3.
type MiningDutch struct {
	HTTP *poolhttp.Client
}

func NewMiningDutch() *MiningDutch {
	return &MiningDutch{HTTP: poolhttp.NewClient(defaultAdapterTimeout)}
}

func (a *MiningDutch) Pool() string         { return "miningdutch" }
func (a *MiningDutch) RequiresSecret() bool { return false }

// ListWorkers tries the algo-keyed slug, then the coin-keyed slug, then the
// opposite algo slug, returning the first Ok result or the last Fail.
func (a *MiningDutch) ListWorkers(ctx context.Context, account, coin string, creds Credentials) Result {
	algoSlug, coinSlug, fallbackSlug := MiningDutchSlug(coin)

	var last Result
	for _, slug := range []string{algoSlug, coinSlug, fallbackSlug} {
		res := a.fetch(ctx, slug, account, creds)
		if res.Ok {
			return res
		}
		last = res
	}
	return last
}

func (a *MiningDutch) fetch(ctx context.Context, slug, account string, creds Credentials) Result {
	endpoint := fmt.Sprintf(
		"https://www.mining-dutch.nl/pools/%s.php?page=api&action=getuserworkers&id=%s&api_key=%s",
		slug, account, creds.APIKey,
	)

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

	workers, err := parseMiningDutchBody(out.Body)
	if err != nil {
		return Fail(ReasonSchema, endpoint, err.Error())
	}
	return OkResult(endpoint, workers)
}

// miningDutchWorker is permissive about which field carries the worker
// identity and liveness signal, since the four envelope shapes disagree.
type miningDutchWorker struct {
	Worker     string      `json:"worker"`
	Name       string      `json:"name"`
	Username   string      `json:"username"`
	Alive      json.Number `json:"alive"`
	HashRate   json.Number `json:"hashrate"`
	Hashrate2  json.Number `json:"hash_rate"`
	StatusText string      `json:"status"`
}

func (w miningDutchWorker) identity(fallbackKey string) string {
	for _, candidate := range []string{w.Worker, w.Name, w.Username, fallbackKey} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (w miningDutchWorker) observation(fallbackKey string) Observation {
	alive := numberOrZero(w.Alive)
	hashrate := numberOrZero(w.HashRate)
	if hashrate == 0 {
		hashrate = numberOrZero(w.Hashrate2)
	}
	var aliveHint *float64
	if w.Alive != "" {
		a := alive
		aliveHint = &a
	}
	return Observation{
		Name:       nameutil.Clean(w.identity(fallbackKey)),
		Hashrate:   hashrate,
		AliveHint:  aliveHint,
		StatusText: w.StatusText,
	}
}

func numberOrZero(n json.Number) float64 {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// parseMiningDutchBody tolerates:
//
//	{getuserworkers:{data:{miners|workers: array|map}}}
//	{data:{workers: array|map}}
//	{workers: array|map}
//	{data: array|map}
func parseMiningDutchBody(body []byte) ([]Observation, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("top-level envelope: %w", err)
	}

	candidates := []json.RawMessage{}

	if v, ok := raw["getuserworkers"]; ok {
		var inner struct {
			Data struct {
				Miners  json.RawMessage `json:"miners"`
				Workers json.RawMessage `json:"workers"`
			} `json:"data"`
		}
		if err := json.Unmarshal(v, &inner); err == nil {
			if len(inner.Data.Miners) > 0 {
				candidates = append(candidates, inner.Data.Miners)
			}
			if len(inner.Data.Workers) > 0 {
				candidates = append(candidates, inner.Data.Workers)
			}
		}
	}
	if v, ok := raw["data"]; ok {
		var inner struct {
			Workers json.RawMessage `json:"workers"`
		}
		if err := json.Unmarshal(v, &inner); err == nil && len(inner.Workers) > 0 {
			candidates = append(candidates, inner.Workers)
		}
		candidates = append(candidates, v)
	}
	if v, ok := raw["workers"]; ok {
		candidates = append(candidates, v)
	}

	for _, c := range candidates {
		if obs, ok := tryParseWorkerSet(c); ok {
			return obs, nil
		}
	}
	return nil, fmt.Errorf("no recognised worker list shape in response")
}

func tryParseWorkerSet(raw json.RawMessage) ([]Observation, bool) {
	var asArray []miningDutchWorker
	if err := json.Unmarshal(raw, &asArray); err == nil && len(asArray) >= 0 {
		// An empty array still counts as a recognised (authoritative-empty)
		// shape as long as it parsed cleanly.
		if looksLikeArray(raw) {
			obs := make([]Observation, 0, len(asArray))
			for _, w := range asArray {
				obs = append(obs, w.observation(""))
			}
			return obs, true
		}
	}

	var asMap map[string]miningDutchWorker
	if err := json.Unmarshal(raw, &asMap); err == nil {
		if looksLikeObject(raw) {
			obs := make([]Observation, 0, len(asMap))
			for key, w := range asMap {
				obs = append(obs, w.observation(key))
			}
			return obs, true
		}
	}
	return nil, false
}

func looksLikeArray(raw json.RawMessage) bool {
	for _, b := range raw {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b == '['
	}
	return false
}

func looksLikeObject(raw json.RawMessage) bool {
	for _, b := range raw {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b == '{'
	}
	return false
}
