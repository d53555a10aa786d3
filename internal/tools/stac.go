package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// bboxPad pads a point into the tiny search box used for STAC queries
const bboxPad = 1e-5

// STACTool searches a STAC catalog for scenes covering a point
type STACTool struct {
	BaseTool
	URL        string
	Collection string
	MaxItems   int
	http       *HTTPClient
}

// NewSTACTool creates the satellite scene search tool
func NewSTACTool(endpoint, collection string, maxItems int, client *HTTPClient) *STACTool {
	if maxItems <= 0 {
		maxItems = 100
	}
	return &STACTool{
		URL:        strings.TrimRight(endpoint, "/"),
		Collection: collection,
		MaxItems:   maxItems,
		http:       client,
		BaseTool: BaseTool{
			Def: ToolDefinition{
				Name: "stac_search",
				Description: "Search satellite imagery (" + collection + ") covering a latitude/longitude between two dates. " +
					"Returns scenes with cloud cover and a preview image link, least cloudy first.",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"latitude":  {Type: "number", Description: "Latitude in degrees", Minimum: Bound(-90), Maximum: Bound(90)},
						"longitude": {Type: "number", Description: "Longitude in degrees", Minimum: Bound(-180), Maximum: Bound(180)},
						"start":     {Type: "string", Description: "Start date, YYYY-MM-DD"},
						"end":       {Type: "string", Description: "End date, YYYY-MM-DD"},
					},
					Required: []string{"latitude", "longitude", "start", "end"},
				},
			},
		},
	}
}

type stacSearchRequest struct {
	Collections []string   `json:"collections"`
	BBox        [4]float64 `json:"bbox"`
	Datetime    string     `json:"datetime"`
	Limit       int        `json:"limit"`
}

type stacItemCollection struct {
	Features []stacItem `json:"features"`
}

type stacItem struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	BBox       []float64 `json:"bbox"`
	Properties struct {
		Datetime   string   `json:"datetime"`
		CloudCover *float64 `json:"eo:cloud_cover"`
	} `json:"properties"`
	Assets map[string]struct {
		Href string `json:"href"`
	} `json:"assets"`
}

// Execute runs the catalog search
func (t *STACTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	var in struct {
		Latitude  float64 `arg:"latitude"`
		Longitude float64 `arg:"longitude"`
		Start     string  `arg:"start"`
		End       string  `arg:"end"`
	}
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}

	interval, err := DateInterval(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	req := stacSearchRequest{
		Collections: []string{t.Collection},
		BBox:        [4]float64{in.Longitude - bboxPad, in.Latitude - bboxPad, in.Longitude + bboxPad, in.Latitude + bboxPad},
		Datetime:    interval,
		Limit:       t.MaxItems,
	}

	var resp stacItemCollection
	if err := t.http.PostJSON(ctx, t.URL+"/search", req, &resp); err != nil {
		return nil, fmt.Errorf("stac search: %w", err)
	}

	items := resp.Features
	if len(items) > t.MaxItems {
		items = items[:t.MaxItems]
	}

	scenes := Scenes{Items: make([]Scene, 0, len(items))}
	for _, it := range items {
		s := Scene{
			ID:         it.ID,
			Collection: it.Collection,
			Datetime:   it.Properties.Datetime,
			CloudCover: it.Properties.CloudCover,
			Preview:    previewHref(it),
		}
		if len(it.BBox) >= 4 {
			copy(s.BBox[:], it.BBox[:4])
		}
		scenes.Items = append(scenes.Items, s)
	}
	sortScenes(scenes.Items)

	return scenes, nil
}

func previewHref(it stacItem) string {
	for _, key := range []string{"thumbnail", "visual", "rendered_preview"} {
		if a, ok := it.Assets[key]; ok && a.Href != "" {
			return a.Href
		}
	}
	return ""
}

// sortScenes orders by cloud cover ascending; scenes without cover go last
func sortScenes(items []Scene) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CloudCover, items[j].CloudCover
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
}

// DateInterval turns two dates (YYYY-MM-DD or RFC3339) into a STAC
// datetime interval covering both days in full.
func DateInterval(start, end string) (string, error) {
	s, err := parseDate(start, false)
	if err != nil {
		return "", fmt.Errorf("start: %w", err)
	}
	e, err := parseDate(end, true)
	if err != nil {
		return "", fmt.Errorf("end: %w", err)
	}
	if e.Before(s) {
		return "", fmt.Errorf("end %s is before start %s", end, start)
	}
	return s.Format(time.RFC3339) + "/" + e.Format(time.RFC3339), nil
}

func parseDate(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
