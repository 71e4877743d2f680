package domain

import "github.com/jonboulle/clockwork"

// clock stamps ProcessedAt on daily records. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Stamp sets ProcessedAt on every record to the current clock time.
func Stamp(records []DailyRecord) {
	now := clock.Now().UTC()
	for i := range records {
		records[i].ProcessedAt = now
	}
}
