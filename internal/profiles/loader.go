package profiles

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader handles discovery and parsing of profiles from markdown files
type Loader struct {
	paths  []string
	logger *slog.Logger
}

// NewLoader creates a loader over the given directories. Earlier paths win
// when two files declare the same name.
func NewLoader(paths []string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{paths: paths, logger: logger}
}

// LoadAll discovers and loads every profile in the configured paths
func (l *Loader) LoadAll() ([]*Profile, error) {
	var profiles []*Profile
	seen := make(map[string]bool)

	for _, basePath := range l.paths {
		info, err := os.Stat(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing %s: %w", basePath, err)
		}
		if !info.IsDir() {
			continue
		}

		entries, err := os.ReadDir(basePath)
		if err != nil {
			return nil, fmt.Errorf("error reading directory %s: %w", basePath, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			filePath := filepath.Join(basePath, entry.Name())
			p, err := l.LoadFromFile(filePath)
			if err != nil {
				l.logger.Warn("profile_load_failed", "path", filePath, "error", err.Error())
				continue
			}
			if seen[p.Name] {
				l.logger.Debug("profile_shadowed", "name", p.Name, "path", filePath)
				continue
			}
			seen[p.Name] = true
			profiles = append(profiles, p)
		}
	}

	return profiles, nil
}

// LoadFromFile parses a single markdown file with YAML frontmatter
func (l *Loader) LoadFromFile(filePath string) (*Profile, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	p, err := ParseMarkdown(string(content))
	if err != nil {
		return nil, err
	}

	p.FilePath = filePath
	return p, nil
}

// ParseMarkdown parses markdown content with YAML frontmatter into a Profile
func ParseMarkdown(content string) (*Profile, error) {
	frontmatter, body, err := parseFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(frontmatter), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}

	var p Profile
	if err := decodeFields(fields, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}

	p.Instructions = strings.TrimSpace(body)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// decodeFields maps frontmatter onto a Profile. Keys match case-insensitively
// ignoring dashes and underscores, and scalars are coerced, so
// "max-model-calls: '3'" and "tools: geocode" are both accepted.
func decodeFields(fields map[string]any, p *Profile) error {
	if len(fields) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           p,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	})
	if err != nil {
		return err
	}
	return decoder.Decode(fields)
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	return strings.ReplaceAll(key, "-", "")
}

// parseFrontmatter extracts YAML frontmatter and body from markdown content.
// Frontmatter must be enclosed in --- markers at the start of the file.
func parseFrontmatter(content string) (frontmatter, body string, err error) {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))

	if !strings.HasPrefix(content, "---") {
		return "", "", ErrNoFrontmatter
	}

	rest := strings.TrimLeft(content[3:], "\n")

	endIdx := strings.Index(rest, "\n---")
	if endIdx == -1 {
		return "", "", ErrNoFrontmatter
	}

	frontmatter = strings.TrimSpace(rest[:endIdx])
	body = strings.TrimSpace(rest[endIdx+4:])

	return frontmatter, body, nil
}
