package adapter

import "time"

func fixedNow() time.Time {
	return time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
}
