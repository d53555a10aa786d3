package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// maxRelatedTopics bounds how many related topics are returned
const maxRelatedTopics = 5

// WebSearchTool answers general questions via DuckDuckGo instant answers
type WebSearchTool struct {
	BaseTool
	URL  string
	http *HTTPClient
}

// NewWebSearchTool creates the web search tool
func NewWebSearchTool(endpoint string, client *HTTPClient) *WebSearchTool {
	return &WebSearchTool{
		URL:  strings.TrimRight(endpoint, "/"),
		http: client,
		BaseTool: BaseTool{
			Def: ToolDefinition{
				Name:        "web_search",
				Description: "Search the web for general facts that the geographic tools cannot answer",
				Parameters: &JSONSchema{
					Type: "object",
					Properties: map[string]*JSONSchema{
						"query": {Type: "string", Description: "Search query"},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	Answer        string     `json:"Answer"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Definition    string     `json:"Definition"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// Execute runs the query
func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	var in struct {
		Query string `arg:"query"`
	}
	if err := DecodeArgs(args, &in); err != nil {
		return nil, err
	}

	query := url.Values{
		"q":             {in.Query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}
	var resp ddgResponse
	if err := t.http.GetJSON(ctx, t.URL+"/", query, &resp); err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	var sb strings.Builder
	if resp.Heading != "" {
		sb.WriteString(resp.Heading + "\n")
	}
	for _, s := range []string{resp.Answer, resp.AbstractText, resp.Definition} {
		if s != "" {
			sb.WriteString(s + "\n")
		}
	}
	if resp.AbstractURL != "" {
		sb.WriteString("Source: " + resp.AbstractURL + "\n")
	}

	n := 0
	for _, topic := range flattenTopics(resp.RelatedTopics) {
		if n >= maxRelatedTopics {
			break
		}
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", topic.Text, topic.FirstURL))
		n++
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("no results for %q", in.Query)
	}
	return Text{Text: text}, nil
}

func flattenTopics(topics []ddgTopic) []ddgTopic {
	var out []ddgTopic
	for _, t := range topics {
		if t.Text != "" {
			out = append(out, t)
		}
		out = append(out, flattenTopics(t.Topics)...)
	}
	return out
}
