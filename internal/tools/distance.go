package tools

import (
	"context"

	"github.com/tidwall/geodesic"
)

// DistanceTool computes the geodesic distance between two points on WGS84
type DistanceTool struct {
	BaseTool
}

// NewDistanceTool creates the distance tool
func NewDistanceTool() *DistanceTool {
	lat := func(desc string) *JSONSchema {
		return &JSONSchema{Type: "number", Description: desc, Minimum: Bound(-90), Maximum: Bound(90)}
	}
	lon := func(desc string) *JSONSchema {
		return &JSONSchema{Type: "number", Description: desc, Minimum: Bound(-180), Maximum: Bound(180)}
	}
	return &DistanceTool{
		BaseTool: BaseTool{
			Def: ToolDefinition{
				Name:        "distance",
				Description: "Geodesic distance in kilometers between two latitude/longitude points",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"lat1": lat("Latitude of the first point"),
						"lon1": lon("Longitude of the first point"),
						"lat2": lat("Latitude of the second point"),
						"lon2": lon("Longitude of the second point"),
					},
					Required: []string{"lat1", "lon1", "lat2", "lon2"},
				},
			},
		},
	}
}

// Execute returns the distance in kilometers
func (t *DistanceTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	var in struct {
		Lat1 float64 `arg:"lat1"`
		Lon1 float64 `arg:"lon1"`
		Lat2 float64 `arg:"lat2"`
		Lon2 float64 `arg:"lon2"`
	}
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	return Distance{Kilometers: GeodesicKm(in.Lat1, in.Lon1, in.Lat2, in.Lon2)}, nil
}

// GeodesicKm is the WGS84 ellipsoidal distance between two points
func GeodesicKm(lat1, lon1, lat2, lon2 float64) float64 {
	var meters float64
	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &meters, nil, nil)
	return meters / 1000
}
