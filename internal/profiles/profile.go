// Package profiles loads named assistant configurations: which tools are
// offered, the model call budget, and extra instructions.
package profiles

import (
	"strings"

	"github.com/simonyos/geochat/internal/prompts"
)

// DefaultName is the built-in profile used when none is selected
const DefaultName = "geo"

// Profile is an assistant configuration loaded from a markdown file
type Profile struct {
	Name        string `mapstructure:"name" json:"name"`
	Description string `mapstructure:"description" json:"description"`

	// Tools restricts the registry to these names; empty means all tools
	Tools []string `mapstructure:"tools" json:"tools,omitempty"`

	// MaxModelCalls overrides the configured per-turn budget when positive
	MaxModelCalls int `mapstructure:"max_model_calls" json:"max_model_calls,omitempty"`

	// Instructions is the markdown body after the frontmatter
	Instructions string `mapstructure:"-" json:"instructions,omitempty"`

	FilePath string `mapstructure:"-" json:"file_path,omitempty"`
	BuiltIn  bool   `mapstructure:"-" json:"built_in"`
}

// Builtin returns the default geographic assistant
func Builtin() *Profile {
	return &Profile{
		Name:        DefaultName,
		Description: "Answers geographic questions with geocoding, OSM, imagery and web tools",
		BuiltIn:     true,
	}
}

// Validate checks if the profile is usable
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingName
	}
	if strings.EqualFold(p.Name, DefaultName) && !p.BuiltIn {
		return ErrReservedName
	}
	return nil
}

// HasRestrictedTools returns true if the profile limits the tool set
func (p *Profile) HasRestrictedTools() bool {
	return len(p.Tools) > 0
}

// Budget returns the profile's model call limit, or fallback when unset
func (p *Profile) Budget(fallback int) int {
	if p.MaxModelCalls > 0 {
		return p.MaxModelCalls
	}
	return fallback
}

// SystemPrompt renders the system instruction for the given tools. The
// profile body is appended to the standard geographic instruction.
func (p *Profile) SystemPrompt(toolNames []string, collection string) string {
	return prompts.NewPromptBuilder(prompts.NewPromptContext()).
		WithTools(toolNames).
		WithCollection(collection).
		WithCustomRules(p.Instructions).
		Build()
}
