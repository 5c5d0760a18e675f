package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poolguard/uptime/internal/nameutil"
	"github.com/poolguard/uptime/internal/poolhttp"
)

// binanceBases are tried in order until one answers with a 2xx status; a
// 451 (geoblocked) or any other failure moves on to the next base.
// BINANCE_BASE overrides the whole list when set.
var binanceBases = []string{
	"https://api.binance.com",
	"https://api1.binance.com",
	"https://api2.binance.com",
	"https://api3.binance.com",
}

const binancePageSize = 200

// Binance implements Adapter against Binance Pool's signed mining API, per
// spec §4.4.5.
type Binance struct {
	HTTP *poolhttp.Client
}

func NewBinance() *Binance {
	return &Binance{HTTP: poolhttp.NewClient(20 * time.Second)}
}

func (a *Binance) Pool() string         { return "binance" }
func (a *Binance) RequiresSecret() bool { return true }

type binanceWorkerListResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		WorkerDatas []binanceWorker `json:"workerDatas"`
	} `json:"data"`
}

type binanceWorker struct {
	WorkerName string  `json:"workerName"`
	HashRate   float64 `json:"hashRate"`
	Status     int     `json:"status"`
}

type binanceWorkerDetailResponse struct {
	Code int           `json:"code"`
	Msg  string        `json:"msg"`
	Data binanceWorker `json:"data"`
}

type binanceTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

func (a *Binance) ListWorkers(ctx context.Context, account, coin string, creds Credentials) Result {
	algo, ok := BinanceAlgo(coin)
	if !ok {
		return Fail(ReasonSchema, "", fmt.Sprintf("unsupported coin for binance: %s", coin))
	}

	base, err := a.resolveBase(ctx)
	if err != nil {
		return Fail(ReasonGeoblocked, "", err.Error())
	}

	var skew time.Duration
	workers, endpoint, res := a.page(ctx, base, algo, account, creds, skew)
	if !res.Ok && isClockSkewResponse(res) {
		if newSkew, serr := a.measureSkew(ctx, base); serr == nil {
			skew = newSkew
			workers, endpoint, res = a.page(ctx, base, algo, account, creds, skew)
		}
	}
	if !res.Ok {
		return res
	}

	return OkResult(endpoint, workers)
}

func (a *Binance) resolveBase(ctx context.Context) (string, error) {
	bases := binanceBases
	if override := os.Getenv("BINANCE_BASE"); override != "" {
		bases = []string{override}
	}

	var lastErr error
	for _, base := range bases {
		out := a.HTTP.Do(ctx, poolhttp.Request{
			Method: http.MethodGet,
			URL:    base + "/api/v3/exchangeInfo",
		})
		if out.Err != nil {
			lastErr = out.Err
			continue
		}
		if out.StatusCode == http.StatusUnavailableForLegalReasons {
			lastErr = fmt.Errorf("%s geoblocked (451)", base)
			continue
		}
		if out.StatusCode >= 200 && out.StatusCode < 300 {
			return base, nil
		}
		lastErr = fmt.Errorf("%s returned %d", base, out.StatusCode)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no binance base reachable")
	}
	return "", lastErr
}

// page walks /sapi/v1/mining/worker/list until a page returns fewer than
// binancePageSize entries. The worker-not-in-list fallback is not applied
// here; the engine drives it through FetchMissingDetail.
func (a *Binance) page(ctx context.Context, base, algo, account string, creds Credentials, skew time.Duration) ([]Observation, string, Result) {
	var all []binanceWorker
	endpoint := base + "/sapi/v1/mining/worker/list"

	for pageIndex := 1; ; pageIndex++ {
		params := url.Values{}
		params.Set("algo", algo)
		params.Set("userName", account)
		params.Set("pageIndex", strconv.Itoa(pageIndex))
		params.Set("sort", "0")
		params.Set("pageSize", strconv.Itoa(binancePageSize))

		res, page := a.signedGet(ctx, endpoint, params, creds, skew)
		if !res.Ok {
			return nil, endpoint, res
		}

		var parsed binanceWorkerListResponse
		if err := json.Unmarshal(page, &parsed); err != nil {
			return nil, endpoint, Fail(ReasonSchema, endpoint, err.Error())
		}
		if parsed.Code != 0 && parsed.Code != 200 {
			return nil, endpoint, Fail(LogicalReason(strconv.Itoa(parsed.Code)), endpoint, parsed.Msg)
		}

		all = append(all, parsed.Data.WorkerDatas...)
		if len(parsed.Data.WorkerDatas) < binancePageSize {
			break
		}
	}

	workers := make([]Observation, 0, len(all))
	for _, w := range all {
		workers = append(workers, binanceObservation(w))
	}
	return workers, endpoint, OkResult(endpoint, workers)
}

// FetchMissingDetail implements the worker-not-in-list fallback: if none of
// a group's expected worker tails are present after paging, the engine
// calls this per missing miner and folds the result in. It satisfies
// DetailFetcher.
func (a *Binance) FetchMissingDetail(ctx context.Context, coin, expectedTail string, creds Credentials) (Observation, bool) {
	algo, ok := BinanceAlgo(coin)
	if !ok {
		return Observation{}, false
	}

	base, err := a.resolveBase(ctx)
	if err != nil {
		return Observation{}, false
	}
	endpoint := base + "/sapi/v1/mining/worker/detail"
	params := url.Values{}
	params.Set("algo", algo)
	params.Set("workerName", expectedTail)

	res, page := a.signedGet(ctx, endpoint, params, creds, 0)
	if !res.Ok {
		return Observation{}, false
	}
	var parsed binanceWorkerDetailResponse
	if err := json.Unmarshal(page, &parsed); err != nil || parsed.Code != 0 {
		return Observation{}, false
	}
	return binanceObservation(parsed.Data), true
}

func binanceObservation(w binanceWorker) Observation {
	var statusText string
	if w.Status == 1 {
		statusText = "active"
	}
	return Observation{
		Name:       nameutil.Clean(w.WorkerName),
		Hashrate:   w.HashRate,
		StatusText: statusText,
	}
}

func (a *Binance) signedGet(ctx context.Context, endpoint string, params url.Values, creds Credentials, skew time.Duration) (Result, []byte) {
	now := time.Now().Add(skew)
	params.Set("timestamp", strconv.FormatInt(now.UnixMilli(), 10))
	params.Set("recvWindow", "30000")

	query := params.Encode()
	signature := signBinanceQuery(query, creds.SecretKey)
	fullURL := endpoint + "?" + query + "&signature=" + signature

	out := a.HTTP.Do(ctx, poolhttp.Request{
		Method:  http.MethodGet,
		URL:     fullURL,
		Headers: map[string]string{"X-MBX-APIKEY": creds.APIKey},
	})
	if out.Err != nil {
		return Fail(ReasonTransport, endpoint, out.Err.Error()), nil
	}
	if out.StatusCode == http.StatusUnauthorized || out.StatusCode == http.StatusForbidden {
		return Fail(ReasonAuth, endpoint, out.BodyPrefix), nil
	}
	if out.StatusCode == http.StatusUnavailableForLegalReasons {
		return Fail(ReasonGeoblocked, endpoint, out.BodyPrefix), nil
	}
	if out.StatusCode != http.StatusOK {
		return Fail(HTTPReason(out.StatusCode), endpoint, out.BodyPrefix), out.Body
	}
	return OkResult(endpoint, nil), out.Body
}

func signBinanceQuery(query, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// isClockSkewResponse reports whether a failed call's body carries
// Binance's -1021 "timestamp outside recvWindow" error code.
func isClockSkewResponse(res Result) bool {
	return strings.Contains(string(res.Reason), "-1021") || strings.Contains(res.Diag, "-1021")
}

func (a *Binance) measureSkew(ctx context.Context, base string) (time.Duration, error) {
	out := a.HTTP.Do(ctx, poolhttp.Request{Method: http.MethodGet, URL: base + "/api/v3/time"})
	if out.Err != nil {
		return 0, out.Err
	}
	if out.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("binance /api/v3/time returned %d", out.StatusCode)
	}
	var parsed binanceTimeResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return 0, err
	}
	serverTime := time.UnixMilli(parsed.ServerTime)
	return serverTime.Sub(time.Now()), nil
}
