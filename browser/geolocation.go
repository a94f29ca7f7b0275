package browser

import (
	"fmt"
	"strconv"
	"strings"
)

type Geolocation struct {
	Latitude  float64
	Longitude float64
}

// Presets are the named geolocations the runner can inject without the user
// supplying raw coordinates.
var Presets = map[string]Geolocation{
	"barcelona": {41.3874, 2.1686},
	"madrid":    {40.4168, -3.7038},
	"london":    {51.5072, -0.1276},
	"paris":     {48.8566, 2.3522},
	"berlin":    {52.5200, 13.4050},
	"rome":      {41.9028, 12.4964},
	"new-york":  {40.7128, -74.0060},
	"athens":    {37.9838, 23.7275},
}

// ResolveGeolocation turns either a preset name or a raw "lat,lng" pair into
// a Geolocation. Empty input means no geolocation injection.
func ResolveGeolocation(preset, coordinates string) (*Geolocation, error) {
	if preset != "" {
		geo, ok := Presets[strings.ToLower(strings.TrimSpace(preset))]
		if !ok {
			return nil, fmt.Errorf("unknown geolocation preset: %s", preset)
		}

		return &geo, nil
	}

	if coordinates == "" {
		return nil, nil
	}

	parts := strings.Split(coordinates, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid geo coordinates: %s", coordinates)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %w", err)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %w", err)
	}

	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid latitude: %f", lat)
	}

	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid longitude: %f", lon)
	}

	return &Geolocation{Latitude: lat, Longitude: lon}, nil
}
