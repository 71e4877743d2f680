package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// MultiLoader writes each batch to every loader in order. All loaders are
// attempted; their errors are joined.
type MultiLoader []BatchLoader

// LoadBatch implements BatchLoader.
func (m MultiLoader) LoadBatch(ctx context.Context, records []domain.DailyRecord) error {
	var errs []error
	for _, l := range m {
		if err := l.LoadBatch(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
