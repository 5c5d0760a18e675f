package adapter

import "testing"

func TestMiningDutchSlug(t *testing.T) {
	tests := []struct {
		coin         string
		wantAlgo     string
		wantCoin     string
		wantFallback string
	}{
		{"BTC", "sha256", "bitcoin", "scrypt"},
		{"LTC", "scrypt", "litecoin", "sha256"},
		{"DOGE", "scrypt", "dogecoin", "sha256"},
	}
	for _, tt := range tests {
		algo, coin, fallback := MiningDutchSlug(tt.coin)
		if algo != tt.wantAlgo || coin != tt.wantCoin || fallback != tt.wantFallback {
			t.Errorf("MiningDutchSlug(%q) = (%q,%q,%q), want (%q,%q,%q)",
				tt.coin, algo, coin, fallback, tt.wantAlgo, tt.wantCoin, tt.wantFallback)
		}
	}
}

func TestF2PoolSlug(t *testing.T) {
	tests := map[string]string{
		"BTC":  "bitcoin",
		"BCH":  "bitcoin-cash",
		"BSV":  "bitcoin-sv",
		"LTC":  "litecoin",
		"KAS":  "kaspa",
		"CFX":  "conflux",
		"ETC":  "ethereum-classic",
		"DASH": "dash",
		"SC":   "sia",
		"XYZ":  "xyz",
	}
	for coin, want := range tests {
		if got := F2PoolSlug(coin); got != want {
			t.Errorf("F2PoolSlug(%q) = %q, want %q", coin, got, want)
		}
	}
}

func TestBinanceAlgo(t *testing.T) {
	tests := []struct {
		coin     string
		wantAlgo string
		wantOK   bool
	}{
		{"BTC", "sha256", true},
		{"LTC", "scrypt", true},
		{"KAS", "kHeavyHash", true},
		{"KASPA", "kHeavyHash", true},
		{"DOGE", "", false},
	}
	for _, tt := range tests {
		algo, ok := BinanceAlgo(tt.coin)
		if algo != tt.wantAlgo || ok != tt.wantOK {
			t.Errorf("BinanceAlgo(%q) = (%q,%v), want (%q,%v)", tt.coin, algo, ok, tt.wantAlgo, tt.wantOK)
		}
	}
}

func TestRequirements(t *testing.T) {
	tests := []struct {
		pool          string
		wantAPIKey    bool
		wantSecretKey bool
	}{
		{"binance", true, true},
		{"Binance", true, true},
		{"viabtc", true, false},
		{"litecoinpool", true, false},
		{"f2pool", true, false},
		{"miningdutch", true, false},
		{"unknown", false, false},
	}
	for _, tt := range tests {
		apiKey, secretKey := Requirements(tt.pool)
		if apiKey != tt.wantAPIKey || secretKey != tt.wantSecretKey {
			t.Errorf("Requirements(%q) = (%v,%v), want (%v,%v)", tt.pool, apiKey, secretKey, tt.wantAPIKey, tt.wantSecretKey)
		}
	}
}
