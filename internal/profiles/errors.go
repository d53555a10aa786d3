package profiles

import "errors"

var (
	// ErrMissingName is returned when a profile has no name
	ErrMissingName = errors.New("profile missing required 'name' field")

	// ErrProfileNotFound is returned when a profile is not in the registry
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidFrontmatter is returned when YAML frontmatter parsing fails
	ErrInvalidFrontmatter = errors.New("invalid YAML frontmatter")

	// ErrNoFrontmatter is returned when a markdown file has no frontmatter
	ErrNoFrontmatter = errors.New("markdown file missing YAML frontmatter")

	// ErrReservedName is returned when a file tries to replace the built-in profile
	ErrReservedName = errors.New("profile name is reserved")
)
