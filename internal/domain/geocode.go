package domain

import (
	"context"
	"log/slog"
)

// Station.GeoSource values.
const (
	GeoReverse  = "reverse"
	GeoForward  = "forward"
	GeoOriginal = "original"
	GeoFailed   = "failed"
)

// GeocodingResult is a single place match from a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64
}

// Geocoder looks up stations by name or by coordinates. Implementations
// return a zero result, not an error, when nothing matches.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, name, region string) (GeocodingResult, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// EnrichStation attempts to fill a station's place name from its coordinates,
// or its coordinates from its name when they are missing. If geocoder is nil
// or geocoding fails, the station is returned with GeoSource set accordingly.
func EnrichStation(ctx context.Context, st Station, geocoder Geocoder, logger *slog.Logger) Station {
	if geocoder == nil {
		return st
	}

	hasCoords := st.Lat != 0 || st.Lon != 0

	if !hasCoords && st.Name != "" {
		result, err := geocoder.ForwardGeocode(ctx, st.Name, "")
		if err != nil {
			logger.Warn("forward geocoding failed",
				"station", st.ID,
				"name", st.Name,
				"error", err,
			)
			st.GeoSource = GeoFailed
			return st
		}
		if result.Lat != 0 || result.Lon != 0 {
			st.Lat = result.Lat
			st.Lon = result.Lon
			st.PlaceName = result.PlaceName
			st.GeoSource = GeoForward
			return st
		}
		st.GeoSource = GeoOriginal
		return st
	}

	if hasCoords {
		result, err := geocoder.ReverseGeocode(ctx, st.Lat, st.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"station", st.ID,
				"lat", st.Lat,
				"lon", st.Lon,
				"error", err,
			)
			st.GeoSource = GeoFailed
			return st
		}
		if result.FormattedAddress != "" {
			st.PlaceName = result.PlaceName
			st.GeoSource = GeoReverse
			return st
		}
	}

	st.GeoSource = GeoOriginal
	return st
}
