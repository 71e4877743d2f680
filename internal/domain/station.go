package domain

// Station is a monitoring site: a GSOD weather station paired with the
// nearest OpenAQ sensors.
type Station struct {
	ID        string
	Name      string
	Lat       float64
	Lon       float64
	PlaceName string
	GeoSource string // one of the Geo* constants; empty when not geocoded
}

// StationDirectory maps GSOD station ids to stations. It is built once from
// configuration and read concurrently afterwards.
type StationDirectory map[string]Station

// Lookup finds a station by id, falling back to a name match.
func (d StationDirectory) Lookup(key string) (Station, bool) {
	if s, ok := d[key]; ok {
		return s, true
	}
	for _, s := range d {
		if s.Name == key {
			return s, true
		}
	}
	return Station{}, false
}
