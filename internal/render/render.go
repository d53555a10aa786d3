// Package render turns tool results into map layers and short human-readable
// lines.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/simonyos/geochat/internal/tools"
)

// ErrNothingToMap is returned when no result carries a location
var ErrNothingToMap = errors.New("no mappable results")

// Map is a GeoJSON layer plus the view that frames it
type Map struct {
	Collection *geojson.FeatureCollection `json:"collection"`
	Bound      orb.Bound                  `json:"-"`
	Center     orb.Point                  `json:"center"`
}

// BuildMap collects every located result into one feature collection.
// Failures and non-spatial results are skipped.
func BuildMap(results []tools.Result) (*Map, error) {
	fc := geojson.NewFeatureCollection()

	for _, res := range results {
		if !res.OK() {
			continue
		}
		for _, f := range features(res) {
			f.Properties["tool"] = res.Tool
			f.Properties["call_id"] = res.CallID
			fc.Append(f)
		}
	}

	if len(fc.Features) == 0 {
		return nil, ErrNothingToMap
	}

	b := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return &Map{Collection: fc, Bound: b, Center: b.Center()}, nil
}

// FeatureCollection returns the layer with its bbox and a "center" member
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	fc := *m.Collection
	fc.BBox = geojson.NewBBox(m.Bound)
	fc.ExtraMembers = geojson.Properties{"center": []float64{m.Center[0], m.Center[1]}}
	return &fc
}

func features(res tools.Result) []*geojson.Feature {
	switch p := res.Payload.(type) {
	case tools.Coordinates:
		f := geojson.NewFeature(p.Point())
		if p.DisplayName != "" {
			f.Properties["name"] = p.DisplayName
		}
		return []*geojson.Feature{f}

	case tools.Tile:
		f := geojson.NewFeature(p.Bound().ToPolygon())
		f.Properties["tile"] = fmt.Sprintf("%d/%d/%d", p.Z, p.X, p.Y)
		return []*geojson.Feature{f}

	case tools.Features:
		if p.Collection == nil {
			return nil
		}
		out := make([]*geojson.Feature, 0, len(p.Collection.Features))
		for _, src := range p.Collection.Features {
			f := geojson.NewFeature(src.Geometry)
			f.ID = src.ID
			for k, v := range src.Properties {
				f.Properties[k] = v
			}
			out = append(out, f)
		}
		return out

	case tools.Scenes:
		out := make([]*geojson.Feature, 0, len(p.Items))
		for _, s := range p.Items {
			b := orb.Bound{Min: orb.Point{s.BBox[0], s.BBox[1]}, Max: orb.Point{s.BBox[2], s.BBox[3]}}
			f := geojson.NewFeature(b.ToPolygon())
			f.ID = s.ID
			f.Properties["datetime"] = s.Datetime
			if s.CloudCover != nil {
				f.Properties["cloud_cover"] = *s.CloudCover
			}
			if s.Preview != "" {
				f.Properties["preview"] = s.Preview
			}
			out = append(out, f)
		}
		return out
	}
	return nil
}

// Describe renders a result as one line for terminals
func Describe(res tools.Result) string {
	if !res.OK() {
		return "failed: " + res.Err.Error()
	}

	switch p := res.Payload.(type) {
	case tools.Coordinates:
		s := fmt.Sprintf("%.5f, %.5f", p.Latitude, p.Longitude)
		if p.DisplayName != "" {
			s += " (" + truncate(p.DisplayName, 60) + ")"
		}
		return s
	case tools.Distance:
		return fmt.Sprintf("%.2f km", p.Kilometers)
	case tools.Tile:
		return fmt.Sprintf("tile %d/%d/%d", p.Z, p.X, p.Y)
	case tools.Features:
		n := 0
		if p.Collection != nil {
			n = len(p.Collection.Features)
		}
		return fmt.Sprintf("%d %s in %s", n, plural(n, "feature"), p.Place)
	case tools.Scenes:
		if len(p.Items) == 0 {
			return "no scenes"
		}
		best := p.Items[0]
		s := fmt.Sprintf("%d %s, clearest %s", len(p.Items), plural(len(p.Items), "scene"), best.ID)
		if best.CloudCover != nil {
			s += fmt.Sprintf(" (%.1f%% cloud)", *best.CloudCover)
		}
		return s
	case tools.Text:
		return truncate(strings.Join(strings.Fields(p.Text), " "), 80)
	}
	return truncate(res.Content(), 80)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
