package tools

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Kind tags the shape of a successful tool result; renderers switch on it
type Kind string

const (
	KindCoordinates Kind = "coordinates"
	KindDistance    Kind = "distance"
	KindTile        Kind = "tile"
	KindFeatures    Kind = "features"
	KindScenes      Kind = "scenes"
	KindText        Kind = "text"
)

// Payload is the success side of a Result
type Payload interface {
	Kind() Kind
	// Summary is the text handed back to the model
	Summary() string
}

// Coordinates is a geocoded point
type Coordinates struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

func (Coordinates) Kind() Kind { return KindCoordinates }

func (c Coordinates) Summary() string { return compact(c) }

// Point returns the coordinates as an orb point (lon, lat)
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// Distance is a geodesic distance
type Distance struct {
	Kilometers float64 `json:"kilometers"`
}

func (Distance) Kind() Kind { return KindDistance }

func (d Distance) Summary() string {
	return fmt.Sprintf(`{"kilometers":%.3f}`, d.Kilometers)
}

// Tile is a web-mercator XYZ tile index
type Tile struct {
	X     uint32  `json:"x"`
	Y     uint32  `json:"y"`
	Z     uint32  `json:"z"`
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func (Tile) Kind() Kind { return KindTile }

func (t Tile) Summary() string { return compact(t) }

// Bound returns the tile's extent
func (t Tile) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{t.West, t.South}, Max: orb.Point{t.East, t.North}}
}

// Features is a set of named geometries for a place
type Features struct {
	Place      string                     `json:"place"`
	Collection *geojson.FeatureCollection `json:"collection"`
}

func (Features) Kind() Kind { return KindFeatures }

// Summary lists the feature count, names and extent rather than raw geometry
func (f Features) Summary() string {
	out := struct {
		Place string     `json:"place"`
		Count int        `json:"count"`
		Names []string   `json:"names,omitempty"`
		BBox  [4]float64 `json:"bbox"`
	}{Place: f.Place}

	if f.Collection != nil {
		out.Count = len(f.Collection.Features)
		for _, feat := range f.Collection.Features {
			if len(out.Names) >= 25 {
				break
			}
			if name := feat.Properties.MustString("name", ""); name != "" {
				out.Names = append(out.Names, name)
			}
		}
		b := f.Bound()
		out.BBox = [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
	}
	return compact(out)
}

// Bound is the union of all feature bounds
func (f Features) Bound() orb.Bound {
	if f.Collection == nil || len(f.Collection.Features) == 0 {
		return orb.Bound{}
	}
	b := f.Collection.Features[0].Geometry.Bound()
	for _, feat := range f.Collection.Features[1:] {
		b = b.Union(feat.Geometry.Bound())
	}
	return b
}

// Scene is one catalog item from a STAC search
type Scene struct {
	ID         string     `json:"id"`
	Collection string     `json:"collection"`
	Datetime   string     `json:"datetime"`
	CloudCover *float64   `json:"cloud_cover,omitempty"`
	Preview    string     `json:"preview,omitempty"`
	BBox       [4]float64 `json:"bbox"`
}

// Scenes is a satellite catalog search result
type Scenes struct {
	Items []Scene `json:"items"`
}

func (Scenes) Kind() Kind { return KindScenes }

func (s Scenes) Summary() string {
	const limit = 10
	out := struct {
		Count int     `json:"count"`
		Items []Scene `json:"items"`
	}{Count: len(s.Items), Items: s.Items}
	if len(out.Items) > limit {
		out.Items = out.Items[:limit]
	}
	return compact(out)
}

// Text is free-form text, e.g. web search snippets
type Text struct {
	Text string `json:"text"`
}

func (Text) Kind() Kind { return KindText }

func (t Text) Summary() string { return t.Text }

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

// decodePayload rebuilds a payload from its kind and JSON form
func decodePayload(kind Kind, data json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch kind {
	case KindCoordinates:
		var v Coordinates
		err = json.Unmarshal(data, &v)
		p = v
	case KindDistance:
		var v Distance
		err = json.Unmarshal(data, &v)
		p = v
	case KindTile:
		var v Tile
		err = json.Unmarshal(data, &v)
		p = v
	case KindFeatures:
		var v Features
		err = json.Unmarshal(data, &v)
		p = v
	case KindScenes:
		var v Scenes
		err = json.Unmarshal(data, &v)
		p = v
	case KindText:
		var v Text
		err = json.Unmarshal(data, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
