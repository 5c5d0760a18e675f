package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestFetchMissingDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/exchangeInfo" {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"code":0,"msg":"","data":{"workerName":"w1","hashRate":100,"status":1}}`))
	}))
	defer srv.Close()

	os.Setenv("BINANCE_BASE", srv.URL)
	defer os.Unsetenv("BINANCE_BASE")

	a := NewBinance()
	obs, ok := a.FetchMissingDetail(context.Background(), "BTC", "w1", Credentials{APIKey: "k", SecretKey: "s"})
	if !ok {
		t.Fatal("expected FetchMissingDetail to succeed")
	}
	if obs.Name != "w1" || obs.Hashrate != 100 {
		t.Errorf("obs = %+v, want name=w1 hashrate=100", obs)
	}
}

func TestFetchMissingDetailUnsupportedCoin(t *testing.T) {
	a := NewBinance()
	_, ok := a.FetchMissingDetail(context.Background(), "XYZ", "w1", Credentials{})
	if ok {
		t.Error("expected unsupported coin to fail detail fetch")
	}
}

func TestSignBinanceQueryDeterministic(t *testing.T) {
	sig1 := signBinanceQuery("a=1&b=2", "secret")
	sig2 := signBinanceQuery("a=1&b=2", "secret")
	if sig1 != sig2 {
		t.Error("signature should be deterministic for same input")
	}

	sig3 := signBinanceQuery("a=1&b=3", "secret")
	if sig1 == sig3 {
		t.Error("signature should differ when query differs")
	}
}

func TestIsClockSkewResponse(t *testing.T) {
	tests := []struct {
		res  Result
		want bool
	}{
		{Result{Reason: LogicalReason("-1021")}, true},
		{Result{Reason: LogicalReason("-2015")}, false},
		{Result{Diag: "code -1021 timestamp outside window"}, true},
		{Result{}, false},
	}
	for _, tt := range tests {
		if got := isClockSkewResponse(tt.res); got != tt.want {
			t.Errorf("isClockSkewResponse(%+v) = %v, want %v", tt.res, got, tt.want)
		}
	}
}

func TestBinanceObservationStatus(t *testing.T) {
	on := binanceObservation(binanceWorker{WorkerName: "w1", HashRate: 0, Status: 1})
	if !IsOnline(on, fixedNow()) {
		t.Error("status==1 should be online even with zero hashrate")
	}

	off := binanceObservation(binanceWorker{WorkerName: "w2", HashRate: 0, Status: 0})
	if IsOnline(off, fixedNow()) {
		t.Error("status==0 and zero hashrate should be offline")
	}

	hr := binanceObservation(binanceWorker{WorkerName: "w3", HashRate: 42, Status: 0})
	if !IsOnline(hr, fixedNow()) {
		t.Error("nonzero hashrate should be online regardless of status")
	}
}
