package tools

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Overpass runs OSM queries scoped to a geocoded place
type Overpass struct {
	URL      string
	geocoder *Nominatim
	http     *HTTPClient
}

// NewOverpass creates an Overpass client; geocoder scopes queries to a place
func NewOverpass(endpoint string, geocoder *Nominatim, client *HTTPClient) *Overpass {
	return &Overpass{URL: endpoint, geocoder: geocoder, http: client}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
	Remark   string            `json:"remark"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat"`
	Lon      float64           `json:"lon"`
	Tags     map[string]string `json:"tags"`
	Geometry []overpassPoint   `json:"geometry"`
	Members  []overpassMember  `json:"members"`
}

type overpassMember struct {
	Type     string          `json:"type"`
	Ref      int64           `json:"ref"`
	Role     string          `json:"role"`
	Geometry []overpassPoint `json:"geometry"`
}

type overpassPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// scope returns the Overpass filter that restricts a query to the place
func scope(p *Place) (header, filter string) {
	if id, ok := p.AreaID(); ok {
		return fmt.Sprintf("area(id:%d)->.searchArea;\n", id), "(area.searchArea)"
	}
	b := p.BoundingBox
	return "", fmt.Sprintf("(%f,%f,%f,%f)", b[0], b[2], b[1], b[3])
}

func (o *Overpass) query(ctx context.Context, q string) (*overpassResponse, error) {
	var resp overpassResponse
	if err := o.http.PostForm(ctx, o.URL, url.Values{"data": {q}}, &resp); err != nil {
		return nil, err
	}
	if strings.Contains(resp.Remark, "runtime error") {
		return nil, fmt.Errorf("overpass: %s", resp.Remark)
	}
	return &resp, nil
}

var tagKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_:\-]+$`)

// tagSelectors converts {"amenity": "hospital", "building": true,
// "shop": ["bakery", "butcher"]} into Overpass tag filters.
func tagSelectors(tags map[string]any) ([]string, error) {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	selectors := make([]string, 0, len(keys))
	for _, k := range keys {
		if !tagKeyPattern.MatchString(k) {
			return nil, fmt.Errorf("invalid tag key %q", k)
		}
		switch v := tags[k].(type) {
		case bool:
			if !v {
				continue
			}
			selectors = append(selectors, fmt.Sprintf(`["%s"]`, k))
		case string:
			selectors = append(selectors, fmt.Sprintf(`["%s"="%s"]`, k, escapeQL(v)))
		case []any:
			values := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("tag %q: list values must be strings", k)
				}
				values = append(values, regexp.QuoteMeta(s))
			}
			if len(values) == 0 {
				continue
			}
			selectors = append(selectors, fmt.Sprintf(`["%s"~"^(%s)$"]`, k, escapeQL(strings.Join(values, "|"))))
		default:
			return nil, fmt.Errorf("tag %q: value must be true, a string or a list of strings", k)
		}
	}
	if len(selectors) == 0 {
		return nil, fmt.Errorf("at least one tag is required")
	}
	return selectors, nil
}

func escapeQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func toLine(points []overpassPoint) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return ls
}

func closed(ls orb.LineString) bool {
	return len(ls) >= 4 && ls[0].Equal(ls[len(ls)-1])
}

// assembleRings joins way segments end to end into closed rings. Segments
// that never close are dropped.
func assembleRings(parts []orb.LineString) []orb.Ring {
	var rings []orb.Ring
	pending := make([]orb.LineString, 0, len(parts))
	for _, p := range parts {
		if len(p) < 2 {
			continue
		}
		if closed(p) {
			rings = append(rings, orb.Ring(p))
			continue
		}
		pending = append(pending, p)
	}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]
		for !closed(current) {
			joined := false
			end := current[len(current)-1]
			for i, p := range pending {
				switch {
				case p[0].Equal(end):
					current = append(current, p[1:]...)
				case p[len(p)-1].Equal(end):
					rev := p.Clone()
					rev.Reverse()
					current = append(current, rev[1:]...)
				default:
					continue
				}
				pending = append(pending[:i], pending[i+1:]...)
				joined = true
				break
			}
			if !joined {
				break
			}
		}
		if closed(current) {
			rings = append(rings, orb.Ring(current))
		}
	}
	return rings
}

// relationGeometry builds a (multi)polygon from a multipolygon relation.
// Inner rings are attached to the outer ring that contains them.
func relationGeometry(el overpassElement) orb.Geometry {
	var outers, inners []orb.LineString
	for _, m := range el.Members {
		if m.Type != "way" || len(m.Geometry) == 0 {
			continue
		}
		if m.Role == "inner" {
			inners = append(inners, toLine(m.Geometry))
		} else {
			outers = append(outers, toLine(m.Geometry))
		}
	}

	var polys orb.MultiPolygon
	for _, ring := range assembleRings(outers) {
		polys = append(polys, orb.Polygon{ring})
	}
	for _, inner := range assembleRings(inners) {
		for i := range polys {
			if planar.RingContains(polys[i][0], inner[0]) {
				polys[i] = append(polys[i], inner)
				break
			}
		}
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}
	return polys
}

func newFeature(el overpassElement, geom orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(geom)
	f.ID = fmt.Sprintf("%s/%d", el.Type, el.ID)
	f.Properties["name"] = el.Tags["name"]
	f.Properties["osm_type"] = el.Type
	f.Properties["osm_id"] = el.ID
	return f
}

// GeometryTool returns polygonal OSM features matching tags within a place
type GeometryTool struct {
	BaseTool
	overpass *Overpass
}

// NewGeometryTool creates the geometry tool
func NewGeometryTool(overpass *Overpass) *GeometryTool {
	return &GeometryTool{
		overpass: overpass,
		BaseTool: BaseTool{
			Def: ToolDefinition{
				Name: "geometry",
				Description: "Find OpenStreetMap features (buildings, parks, hospitals, ...) within a place, " +
					"returned as polygons with their names. Tags follow OSM conventions, e.g. {\"amenity\": \"hospital\"}; " +
					"a value of true matches any value, a list matches any of its values.",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"place": {Type: "string", Description: "Place to search within, e.g. 'Bangalore, India'"},
						"tags":  {Type: "object", Description: "OSM tag filters"},
					},
					Required: []string{"place", "tags"},
				},
			},
		},
	}
}

// Execute runs the Overpass query and keeps only Polygon/MultiPolygon features
func (t *GeometryTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	var in struct {
		Place string         `arg:"place"`
		Tags  map[string]any `arg:"tags"`
	}
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	selectors, err := tagSelectors(in.Tags)
	if err != nil {
		return nil, err
	}

	place, err := t.overpass.geocoder.Lookup(ctx, in.Place)
	if err != nil {
		return nil, err
	}
	header, filter := scope(place)

	var q strings.Builder
	q.WriteString("[out:json][timeout:60];\n")
	q.WriteString(header)
	q.WriteString("(\n")
	for _, kind := range []string{"way", "relation"} {
		q.WriteString("  " + kind + strings.Join(selectors, "") + filter + ";\n")
	}
	q.WriteString(");\nout geom;")

	resp, err := t.overpass.query(ctx, q.String())
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, el := range resp.Elements {
		var geom orb.Geometry
		switch el.Type {
		case "way":
			ls := toLine(el.Geometry)
			if closed(ls) {
				geom = orb.Polygon{orb.Ring(ls)}
			}
		case "relation":
			geom = relationGeometry(el)
		}
		if geom == nil {
			continue
		}
		fc.Append(newFeature(el, geom))
	}

	return Features{Place: place.DisplayName, Collection: fc}, nil
}

// networkFilters mirror the usual walk/bike/drive street network definitions
var networkFilters = map[string]string{
	"drive": `["highway"]["area"!~"yes"]["highway"!~"abandoned|bridleway|bus_guideway|construction|corridor|cycleway|elevator|escalator|footway|no|path|pedestrian|planned|platform|proposed|raceway|razed|service|steps|track"]["motor_vehicle"!~"no"]["motorcar"!~"no"]["service"!~"alley|driveway|emergency_access|parking|parking_aisle|private"]`,
	"walk":  `["highway"]["area"!~"yes"]["highway"!~"abandoned|bus_guideway|construction|cycleway|motor|no|planned|platform|proposed|raceway|razed"]["foot"!~"no"]["service"!~"private"]`,
	"bike":  `["highway"]["area"!~"yes"]["highway"!~"abandoned|bus_guideway|construction|corridor|elevator|escalator|footway|motor|no|planned|platform|proposed|raceway|razed|steps"]["bicycle"!~"no"]["service"!~"private"]`,
	"all":   `["highway"]["area"!~"yes"]["highway"!~"abandoned|construction|no|planned|platform|proposed|raceway|razed"]`,
}

// maxNetworkWays caps very large street networks
const maxNetworkWays = 5000

// NetworkTool returns the street network of a place as named lines
type NetworkTool struct {
	BaseTool
	overpass *Overpass
}

// NewNetworkTool creates the network tool
func NewNetworkTool(overpass *Overpass) *NetworkTool {
	return &NetworkTool{
		overpass: overpass,
		BaseTool: BaseTool{
			Def: ToolDefinition{
				Name:        "network",
				Description: "Get the street network (walk, bike, drive or all) of a place as named line geometries",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"place":        {Type: "string", Description: "Place name, e.g. 'Piedmont, California'"},
						"network_type": {Type: "string", Description: "Kind of network", Enum: []string{"walk", "bike", "drive", "all"}},
					},
					Required: []string{"place", "network_type"},
				},
			},
		},
	}
}

// Execute runs the Overpass query for the network
func (t *NetworkTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	var in struct {
		Place       string `arg:"place"`
		NetworkType string `arg:"network_type"`
	}
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}
	selector, ok := networkFilters[in.NetworkType]
	if !ok {
		return nil, fmt.Errorf("unknown network type %q", in.NetworkType)
	}

	place, err := t.overpass.geocoder.Lookup(ctx, in.Place)
	if err != nil {
		return nil, err
	}
	header, filter := scope(place)

	q := fmt.Sprintf("[out:json][timeout:90];\n%sway%s%s;\nout geom %d;", header, selector, filter, maxNetworkWays)
	resp, err := t.overpass.query(ctx, q)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, el := range resp.Elements {
		if el.Type != "way" || len(el.Geometry) < 2 {
			continue
		}
		f := newFeature(el, toLine(el.Geometry))
		f.Properties["highway"] = el.Tags["highway"]
		fc.Append(f)
	}

	return Features{Place: place.DisplayName, Collection: fc}, nil
}
