package adapter

import "strings"

// MiningDutchSlug resolves a coin ticker to the algo-keyed slug MiningDutch
// mounts its per-coin endpoint under, trying algo first and falling back to
// the coin-keyed slug, then the opposite algo, per spec §4.4.3.
func MiningDutchSlug(coin string) (algoSlug, coinSlug, fallbackAlgoSlug string) {
	c := strings.ToUpper(coin)
	switch c {
	case "BTC":
		return "sha256", "bitcoin", "scrypt"
	case "LTC":
		return "scrypt", "litecoin", "sha256"
	case "DOGE":
		return "scrypt", "dogecoin", "sha256"
	default:
		return "sha256", strings.ToLower(c), "scrypt"
	}
}

// F2PoolSlug resolves a coin ticker to the "currency" slug F2Pool's v2 API
// expects, per spec §4.4.4.
func F2PoolSlug(coin string) string {
	switch strings.ToUpper(coin) {
	case "BTC":
		return "bitcoin"
	case "BCH":
		return "bitcoin-cash"
	case "BSV":
		return "bitcoin-sv"
	case "LTC":
		return "litecoin"
	case "KAS":
		return "kaspa"
	case "CFX":
		return "conflux"
	case "ETC":
		return "ethereum-classic"
	case "DASH":
		return "dash"
	case "SC":
		return "sia"
	default:
		return strings.ToLower(coin)
	}
}

// BinanceAlgo resolves a coin ticker to the algo code Binance Pool's mining
// API expects, per spec §4.4.5.
func BinanceAlgo(coin string) (algo string, ok bool) {
	switch strings.ToUpper(coin) {
	case "BTC":
		return "sha256", true
	case "LTC":
		return "scrypt", true
	case "KAS", "KASPA":
		return "kHeavyHash", true
	default:
		return "", false
	}
}

// Requirements reports which credential columns a pool adapter needs
// populated for a miner to be eligible for reconciliation, per spec §4.5.
func Requirements(pool string) (needsAPIKey, needsSecretKey bool) {
	switch strings.ToLower(pool) {
	case "binance":
		return true, true
	case "viabtc", "litecoinpool", "f2pool", "miningdutch":
		return true, false
	default:
		return false, false
	}
}
