package tools

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileTool finds the web-mercator tile containing a point
type TileTool struct {
	BaseTool
}

// NewTileTool creates the tile tool
func NewTileTool() *TileTool {
	return &TileTool{
		BaseTool: BaseTool{
			Def: ToolDefinition{
				Name:        "tile",
				Description: "Get the XYZ map tile (x, y, z) containing a latitude/longitude at a zoom level",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"latitude":  {Type: "number", Description: "Latitude in degrees", Minimum: Bound(-85.0511), Maximum: Bound(85.0511)},
						"longitude": {Type: "number", Description: "Longitude in degrees", Minimum: Bound(-180), Maximum: Bound(180)},
						"zoom":      {Type: "integer", Description: "Zoom level, 0 to 22", Minimum: Bound(0), Maximum: Bound(22)},
					},
					Required: []string{"latitude", "longitude", "zoom"},
				},
			},
		},
	}
}

// Execute returns the tile index and bounds
func (t *TileTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	var in struct {
		Latitude  float64 `arg:"latitude"`
		Longitude float64 `arg:"longitude"`
		Zoom      uint32  `arg:"zoom"`
	}
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	return TileAt(in.Latitude, in.Longitude, in.Zoom), nil
}

// TileAt returns the tile containing the point at zoom z
func TileAt(lat, lon float64, z uint32) Tile {
	mt := maptile.At(orb.Point{lon, lat}, maptile.Zoom(z))
	b := mt.Bound()
	return Tile{
		X:     mt.X,
		Y:     mt.Y,
		Z:     uint32(mt.Z),
		West:  b.Min[0],
		South: b.Min[1],
		East:  b.Max[0],
		North: b.Max[1],
	}
}
