package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// LatestRecords keeps the most recent daily record per station. It is a
// BatchLoader so it can sit beside the Kafka writer in a MultiLoader, and it
// backs the HTTP status endpoints.
type LatestRecords struct {
	mu      sync.RWMutex
	records map[string]domain.DailyRecord
}

// NewLatestRecords creates an empty store.
func NewLatestRecords() *LatestRecords {
	return &LatestRecords{records: make(map[string]domain.DailyRecord)}
}

// LoadBatch keeps each station's latest day. Older days never replace newer ones.
func (l *LatestRecords) LoadBatch(_ context.Context, records []domain.DailyRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range records {
		if cur, ok := l.records[r.Station]; ok && r.Day.Before(cur.Day) {
			continue
		}
		l.records[r.Station] = r
	}
	return nil
}

// Latest returns the newest record for station.
func (l *LatestRecords) Latest(station string) (domain.DailyRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.records[station]
	return r, ok
}

// Stations lists stations with at least one record, sorted.
func (l *LatestRecords) Stations() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.records))
	for s := range l.records {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
