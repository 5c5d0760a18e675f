package adapter

import (
	"strings"
	"time"
)

// PositiveLabels are free-form status strings pool APIs use to mean "this
// worker is hashing".
var PositiveLabels = map[string]bool{
	"active":    true,
	"online":    true,
	"alive":     true,
	"running":   true,
	"up":        true,
	"ok":        true,
	"connected": true,
	"working":   true,
	"ativo":     true,
	"ligado":    true,
	"ativa":     true,
}

// NegativeLabels are free-form status strings that force a worker offline
// regardless of any unreliable hashrate figure also present.
var NegativeLabels = map[string]bool{
	"unactive":  true,
	"inactive":  true,
	"offline":   true,
	"down":      true,
	"dead":      true,
	"parado":    true,
	"desligado": true,
	"inativa":   true,
}

// LastShareFreshness is how recently a worker must have submitted a share,
// per spec, for F2Pool-style last_share_ms to count as an online signal.
const LastShareFreshness = 90 * time.Minute

// IsOnline applies the uniform observation-classification rule from spec §3:
// a negative label always forces offline; otherwise a positive label,
// hashrate>0, a positive AliveHint, or a sufficiently recent LastShareMS
// each independently mean online.
func IsOnline(o Observation, now time.Time) bool {
	label := strings.ToLower(strings.TrimSpace(o.StatusText))
	if NegativeLabels[label] {
		return false
	}
	if PositiveLabels[label] {
		return true
	}
	if o.Hashrate > 0 {
		return true
	}
	if o.AliveHint != nil && *o.AliveHint > 0 {
		return true
	}
	if o.LastShareMS > 0 {
		age := now.Sub(msToTime(o.LastShareMS))
		if age >= 0 && age < LastShareFreshness {
			return true
		}
	}
	return false
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
