package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Place is a Nominatim lookup result
type Place struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	OSMType     string // "node", "way", "relation"
	OSMID       int64
	// South, North, West, East
	BoundingBox [4]float64
}

// AreaID returns the Overpass area id for ways and relations
func (p *Place) AreaID() (int64, bool) {
	switch p.OSMType {
	case "relation":
		return 3600000000 + p.OSMID, true
	case "way":
		return 2400000000 + p.OSMID, true
	}
	return 0, false
}

// Nominatim resolves free-form place names
type Nominatim struct {
	BaseURL string
	http    *HTTPClient
}

// NewNominatim creates a geocoder against baseURL
func NewNominatim(baseURL string, client *HTTPClient) *Nominatim {
	return &Nominatim{BaseURL: strings.TrimRight(baseURL, "/"), http: client}
}

type nominatimResult struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	OSMType     string   `json:"osm_type"`
	OSMID       int64    `json:"osm_id"`
	BoundingBox []string `json:"boundingbox"`
}

// Lookup returns the best match for place
func (n *Nominatim) Lookup(ctx context.Context, place string) (*Place, error) {
	query := url.Values{
		"q":      {place},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	var results []nominatimResult
	if err := n.http.GetJSON(ctx, n.BaseURL+"/search", query, &results); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", place, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%q is not a recognised address", place)
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: bad latitude %q", place, r.Lat)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: bad longitude %q", place, r.Lon)
	}

	p := &Place{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: r.DisplayName,
		OSMType:     r.OSMType,
		OSMID:       r.OSMID,
	}
	if len(r.BoundingBox) == 4 {
		for i, s := range r.BoundingBox {
			p.BoundingBox[i], _ = strconv.ParseFloat(s, 64)
		}
	}
	return p, nil
}

// GeocodeTool turns a place name into coordinates
type GeocodeTool struct {
	BaseTool
	geocoder *Nominatim
}

// NewGeocodeTool creates the geocode tool
func NewGeocodeTool(geocoder *Nominatim) *GeocodeTool {
	return &GeocodeTool{
		geocoder: geocoder,
		BaseTool: BaseTool{
			Def: ToolDefinition{
				Name:        "geocode",
				Description: "Get the latitude and longitude of a place or address",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"place": {
							Type:        "string",
							Description: "Place name or address, e.g. 'Bangalore, India'",
						},
					},
					Required: []string{"place"},
				},
			},
		},
	}
}

// Execute geocodes the place
func (t *GeocodeTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	var in struct {
		Place string `arg:"place"`
	}
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	p, err := t.geocoder.Lookup(ctx, in.Place)
	if err != nil {
		return nil, err
	}
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude, DisplayName: p.DisplayName}, nil
}
