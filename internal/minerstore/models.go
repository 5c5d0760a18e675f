// Package minerstore is the typed persistence adapter over the miners
// table: candidate selection, conditional status transition, and hours
// crediting, per spec §4.8.
package minerstore

// Miner is one row of the miners table, per spec §3.
type Miner struct {
	ID               string
	Pool             string
	Coin             string
	WorkerName       string
	APIKey           string
	SecretKey        string
	Status           string
	TotalHorasOnline float64
}

// StatusOnline, StatusOffline and StatusMaintenance are the lifecycle
// labels the engine reasons about; any other value (including empty) is
// treated as "other" and handled like offline for matching purposes but
// never assumed to already be in a terminal state.
const (
	StatusOnline      = "online"
	StatusOffline     = "offline"
	StatusMaintenance = "maintenance"
)
