package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines all colors for the TUI
type Theme struct {
	// Primary colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Text colors
	Text        lipgloss.Color
	TextMuted   lipgloss.Color
	TextInverse lipgloss.Color

	// Background colors
	Background          lipgloss.Color
	BackgroundSecondary lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Border colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	BorderMuted lipgloss.Color
}

// Current is the active theme
var Current = DefaultTheme()

// Names lists the themes ByName knows
var Names = []string{"default", "tokyonight", "light"}

// ByName returns a theme by name, falling back to the default
func ByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tokyonight", "tokyo-night":
		return TokyoNight()
	case "light":
		return Light()
	}
	return DefaultTheme()
}

// Use makes the named theme current
func Use(name string) {
	Current = ByName(name)
}

// DefaultTheme returns the default theme (map greens on a dark background)
func DefaultTheme() Theme {
	return Theme{
		// Primary colors - vegetation green with a water-blue accent
		Primary:   lipgloss.Color("#7FB77E"),
		Secondary: lipgloss.Color("#3E5641"),
		Accent:    lipgloss.Color("#6CA6C1"),

		// Text colors
		Text:        lipgloss.Color("#F0F0F0"), // Bright white
		TextMuted:   lipgloss.Color("#888888"), // Medium gray
		TextInverse: lipgloss.Color("#1a1a1a"), // Near black

		// Background colors
		Background:          lipgloss.Color("#1a1a1a"), // Dark background
		BackgroundSecondary: lipgloss.Color("#2d2d2d"), // Slightly lighter

		// Status colors
		Success: lipgloss.Color("#10B981"), // Green
		Warning: lipgloss.Color("#F59E0B"), // Amber
		Error:   lipgloss.Color("#EF4444"), // Red
		Info:    lipgloss.Color("#4D4D4D"), // Neutral gray for user

		// Border colors
		Border:      lipgloss.Color("#3d3d3d"), // Subtle border
		BorderFocus: lipgloss.Color("#7FB77E"), // Primary on focus
		BorderMuted: lipgloss.Color("#2d2d2d"), // Very subtle
	}
}

// TokyoNight returns a Tokyo Night inspired theme
func TokyoNight() Theme {
	return Theme{
		Primary:             lipgloss.Color("#7AA2F7"),
		Secondary:           lipgloss.Color("#9ECE6A"),
		Accent:              lipgloss.Color("#FF9E64"),
		Text:                lipgloss.Color("#C0CAF5"),
		TextMuted:           lipgloss.Color("#565F89"),
		TextInverse:         lipgloss.Color("#1A1B26"),
		Background:          lipgloss.Color("#1A1B26"),
		BackgroundSecondary: lipgloss.Color("#24283B"),
		Success:             lipgloss.Color("#9ECE6A"),
		Warning:             lipgloss.Color("#E0AF68"),
		Error:               lipgloss.Color("#F7768E"),
		Info:                lipgloss.Color("#7AA2F7"),
		Border:              lipgloss.Color("#3B4261"),
		BorderFocus:         lipgloss.Color("#7AA2F7"),
		BorderMuted:         lipgloss.Color("#24283B"),
	}
}

// Light suits terminals with a pale background, like a paper map
func Light() Theme {
	return Theme{
		Primary:             lipgloss.Color("#2E7D32"),
		Secondary:           lipgloss.Color("#A5D6A7"),
		Accent:              lipgloss.Color("#1565C0"),
		Text:                lipgloss.Color("#212121"),
		TextMuted:           lipgloss.Color("#757575"),
		TextInverse:         lipgloss.Color("#FAFAFA"),
		Background:          lipgloss.Color("#FAF8F0"),
		BackgroundSecondary: lipgloss.Color("#ECE9DF"),
		Success:             lipgloss.Color("#2E7D32"),
		Warning:             lipgloss.Color("#EF6C00"),
		Error:               lipgloss.Color("#C62828"),
		Info:                lipgloss.Color("#1565C0"),
		Border:              lipgloss.Color("#C8C4B8"),
		BorderFocus:         lipgloss.Color("#2E7D32"),
		BorderMuted:         lipgloss.Color("#ECE9DF"),
	}
}
