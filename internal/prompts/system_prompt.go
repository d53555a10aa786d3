// Package prompts builds the system instruction sent at the start of every
// conversation.
package prompts

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PromptContext contains runtime context for prompt generation
type PromptContext struct {
	Date        time.Time
	ToolNames   []string // Available tool names
	Collection  string   // Default STAC collection
	CustomRules string   // Profile or user instructions
}

// NewPromptContext creates a context with system defaults
func NewPromptContext() *PromptContext {
	return &PromptContext{
		Date:       time.Now(),
		Collection: "sentinel-2-l2a",
	}
}

// PromptBuilder constructs the system prompt from components
type PromptBuilder struct {
	ctx        *PromptContext
	components []func(*PromptContext) string
}

// NewPromptBuilder creates a new builder with default components
func NewPromptBuilder(ctx *PromptContext) *PromptBuilder {
	return &PromptBuilder{
		ctx: ctx,
		components: []func(*PromptContext) string{
			agentRole,
			capabilities,
			rules,
			systemInfo,
		},
	}
}

// Build generates the complete system prompt
func (b *PromptBuilder) Build() string {
	var sections []string

	for _, component := range b.components {
		section := component(b.ctx)
		if section != "" {
			sections = append(sections, section)
		}
	}

	if b.ctx.CustomRules != "" {
		sections = append(sections, fmt.Sprintf("USER INSTRUCTIONS\n\n%s", b.ctx.CustomRules))
	}

	return strings.Join(sections, "\n\n====\n\n")
}

// WithCustomRules adds user-defined rules
func (b *PromptBuilder) WithCustomRules(rules string) *PromptBuilder {
	b.ctx.CustomRules = strings.TrimSpace(rules)
	return b
}

// WithTools sets the available tool names for capability descriptions
func (b *PromptBuilder) WithTools(tools []string) *PromptBuilder {
	names := append([]string(nil), tools...)
	sort.Strings(names)
	b.ctx.ToolNames = names
	return b
}

// WithCollection names the imagery collection searched by stac_search
func (b *PromptBuilder) WithCollection(collection string) *PromptBuilder {
	if collection != "" {
		b.ctx.Collection = collection
	}
	return b
}

func agentRole(ctx *PromptContext) string {
	return `You are a helpful assistant tasked with answering questions on a set of geographic inputs.`
}

// toolHints holds one line of guidance per known tool
var toolHints = map[string]string{
	"geocode":     "geocode: turn a place name or address into latitude and longitude.",
	"distance":    "distance: great-circle distance in kilometres between two coordinates. Geocode named places first.",
	"tile":        "tile: the web map tile (x, y, z) containing a coordinate at a zoom level.",
	"geometry":    "geometry: polygon features inside a place that carry given OpenStreetMap tags, e.g. {\"amenity\": \"hospital\"} or {\"building\": true}.",
	"network":     "network: the street network of a place for drive, walk, bike or all.",
	"stac_search": "stac_search: satellite scenes over a coordinate between two dates (YYYY-MM-DD) from the %s collection.",
	"web_search":  "web_search: short factual answers from the web for questions the other tools cannot answer.",
}

func capabilities(ctx *PromptContext) string {
	if len(ctx.ToolNames) == 0 {
		return ""
	}
	var lines []string
	for _, name := range ctx.ToolNames {
		hint, ok := toolHints[name]
		if !ok {
			lines = append(lines, "- "+name)
			continue
		}
		if name == "stac_search" {
			hint = fmt.Sprintf(hint, ctx.Collection)
		}
		lines = append(lines, "- "+hint)
	}
	return "CAPABILITIES\n\nYou can call these tools:\n" + strings.Join(lines, "\n")
}

func rules(ctx *PromptContext) string {
	return `RULES

- Call one tool at a time and wait for its result before deciding the next step.
- Use tool results as the source of truth for coordinates, distances and counts. Do not invent them.
- A tool result starting with "error:" means the call failed. Explain what went wrong or try a different input; do not repeat the same call.
- When a question needs no tool, answer directly.
- Keep answers short. Give distances in kilometres and coordinates in decimal degrees.`
}

func systemInfo(ctx *PromptContext) string {
	if ctx.Date.IsZero() {
		return ""
	}
	return fmt.Sprintf(`SYSTEM INFORMATION

Current Date: %s`, ctx.Date.Format("2006-01-02"))
}

// BuildSystemPrompt is a convenience function that builds a prompt for the given tools
func BuildSystemPrompt(toolNames []string) string {
	return NewPromptBuilder(NewPromptContext()).WithTools(toolNames).Build()
}

// BuildSystemPromptWithRules builds a prompt with custom instructions appended
func BuildSystemPromptWithRules(toolNames []string, customRules string) string {
	return NewPromptBuilder(NewPromptContext()).WithTools(toolNames).WithCustomRules(customRules).Build()
}
