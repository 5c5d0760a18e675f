// Package nameutil normalises worker identifiers reported by pool APIs and
// those stored against miner records, so the two can be matched reliably
// despite per-pool formatting quirks (zero-width characters, account
// prefixes, leading zeros in worker suffixes).
package nameutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// zeroWidth holds the runes stripped by Clean: zero-width space/joiners and
// the BOM, which several pool dashboards have been observed to inject into
// copy-pasted worker names.
var zeroWidth = []rune{
	'​', // zero width space
	'‌', // zero width non-joiner
	'‍', // zero width joiner
	'\uFEFF', // BOM / zero width no-break space
}

// Clean applies Unicode NFKC normalisation, strips zero-width characters,
// and trims ASCII whitespace from the edges of s.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		for _, zw := range zeroWidth {
			if r == zw {
				return true
			}
		}
		return false
	})
	for _, zw := range zeroWidth {
		s = strings.ReplaceAll(s, string(zw), "")
	}
	return strings.TrimSpace(s)
}

// Head returns the portion of s before the first '.', or "" if s has no dot.
// For a worker_name of the canonical form "account.workerSuffix" this is the
// account/sub-account identifier pool adapters group by.
func Head(s string) string {
	s = Clean(s)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return ""
	}
	return s[:i]
}

// Tail returns the portion of s after the last '.', or the whole (cleaned)
// string if s contains no dot.
func Tail(s string) string {
	s = Clean(s)
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return s
	}
	return s[i+1:]
}

// TailKey returns Tail(s) lowercased with leading zeros folded away, so that
// "001", "01" and "1" all compare equal. The literal string "0" is preserved
// rather than folded to the empty string.
func TailKey(s string) string {
	t := strings.ToLower(Tail(s))
	i := 0
	for i < len(t)-1 && t[i] == '0' {
		i++
	}
	return t[i:]
}

// Matches reports whether an adapter-reported observation name and a stored
// miner worker_name refer to the same worker, per the engine's matching
// rule: equality of Tail is authoritative; TailKey equality is a permitted
// fallback for adapters that advertise slightly different zero-padding
// (Binance, F2Pool).
func Matches(observedName, minerWorkerName string) bool {
	if Tail(observedName) == Tail(minerWorkerName) {
		return true
	}
	return TailKey(observedName) == TailKey(minerWorkerName)
}
