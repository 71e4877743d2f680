//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "bakersfield", "California")
	require.NoError(t, err)

	assert.InDelta(t, 35.37, result.Lat, 0.2, "lat should be near Bakersfield")
	assert.InDelta(t, -119.02, result.Lon, 0.2, "lon should be near Bakersfield")
	assert.Contains(t, result.FormattedAddress, "Bakersfield")
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	// Lahore GSOD station.
	result, err := c.ReverseGeocode(context.Background(), 31.52, 74.40)
	require.NoError(t, err)

	assert.NotEmpty(t, result.FormattedAddress)
	assert.NotEmpty(t, result.PlaceName)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	cached := NewCachedGeocoder(smokeClient(t), 10, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "fairbanks", "Alaska")
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Fairbanks")

	r2, err := cached.ForwardGeocode(context.Background(), "fairbanks", "Alaska")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
