package tools

import (
	"net/http"
)

// GeoOptions configures the built-in geographic tools
type GeoOptions struct {
	NominatimURL   string
	OverpassURL    string
	STACURL        string
	STACCollection string
	STACMaxItems   int
	SearchURL      string
	UserAgent      string
	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
	// NominatimRate is requests per second against Nominatim; 0 means 1
	NominatimRate float64
}

// GeoTools builds the built-in tool set. Nominatim is shared between the
// geocode, geometry and network tools so its rate limit applies to all three.
func GeoTools(opts GeoOptions) []Tool {
	rps := opts.NominatimRate
	if rps == 0 {
		rps = 1
	}
	nominatimHTTP := NewHTTPClient(opts.HTTPClient, opts.UserAgent, rps)
	plainHTTP := NewHTTPClient(opts.HTTPClient, opts.UserAgent, 0)

	geocoder := NewNominatim(opts.NominatimURL, nominatimHTTP)
	overpass := NewOverpass(opts.OverpassURL, geocoder, plainHTTP)

	return []Tool{
		NewGeocodeTool(geocoder),
		NewDistanceTool(),
		NewTileTool(),
		NewGeometryTool(overpass),
		NewNetworkTool(overpass),
		NewSTACTool(opts.STACURL, opts.STACCollection, opts.STACMaxItems, plainHTTP),
		NewWebSearchTool(opts.SearchURL, plainHTTP),
	}
}

// RegisterGeo registers the built-in tools with r
func RegisterGeo(r *Registry, opts GeoOptions) error {
	for _, t := range GeoTools(opts) {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
