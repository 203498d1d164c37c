package theme

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the reader.
type Theme struct {
	Name string

	// Core colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Text colors
	Text       lipgloss.Color
	TextDim    lipgloss.Color
	TextBright lipgloss.Color

	// Page and chrome
	Background  lipgloss.Color
	Surface     lipgloss.Color
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Image       lipgloss.Color

	// Semantic colors
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color
}

var themes = map[string]Theme{
	"default": Default,
	"sepia":   Sepia,
	"nord":    Nord,
}

// Default is a light paper-like day palette.
var Default = Theme{
	Name:        "default",
	Primary:     lipgloss.Color("#7C3AED"),
	Secondary:   lipgloss.Color("#0E7490"),
	Accent:      lipgloss.Color("#B45309"),
	Text:        lipgloss.Color("#1E293B"),
	TextDim:     lipgloss.Color("#64748B"),
	TextBright:  lipgloss.Color("#0F172A"),
	Background:  lipgloss.Color("#F8FAFC"),
	Surface:     lipgloss.Color("#E2E8F0"),
	Border:      lipgloss.Color("#CBD5E1"),
	BorderFocus: lipgloss.Color("#7C3AED"),
	Image:       lipgloss.Color("#0369A1"),
	Error:       lipgloss.Color("#DC2626"),
	Success:     lipgloss.Color("#15803D"),
	Warning:     lipgloss.Color("#B45309"),
	Info:        lipgloss.Color("#1D4ED8"),
}

var Sepia = Theme{
	Name:        "sepia",
	Primary:     lipgloss.Color("#8B4513"),
	Secondary:   lipgloss.Color("#6B8E23"),
	Accent:      lipgloss.Color("#B8860B"),
	Text:        lipgloss.Color("#5B4636"),
	TextDim:     lipgloss.Color("#9C8470"),
	TextBright:  lipgloss.Color("#3E2C1C"),
	Background:  lipgloss.Color("#F4ECD8"),
	Surface:     lipgloss.Color("#E8DCC0"),
	Border:      lipgloss.Color("#D3C4A5"),
	BorderFocus: lipgloss.Color("#8B4513"),
	Image:       lipgloss.Color("#6B8E23"),
	Error:       lipgloss.Color("#A52A2A"),
	Success:     lipgloss.Color("#556B2F"),
	Warning:     lipgloss.Color("#B8860B"),
	Info:        lipgloss.Color("#4682B4"),
}

var Nord = Theme{
	Name:        "nord",
	Primary:     lipgloss.Color("#88C0D0"),
	Secondary:   lipgloss.Color("#81A1C1"),
	Accent:      lipgloss.Color("#EBCB8B"),
	Text:        lipgloss.Color("#ECEFF4"),
	TextDim:     lipgloss.Color("#4C566A"),
	TextBright:  lipgloss.Color("#ECEFF4"),
	Background:  lipgloss.Color("#2E3440"),
	Surface:     lipgloss.Color("#3B4252"),
	Border:      lipgloss.Color("#434C5E"),
	BorderFocus: lipgloss.Color("#88C0D0"),
	Image:       lipgloss.Color("#A3BE8C"),
	Error:       lipgloss.Color("#BF616A"),
	Success:     lipgloss.Color("#A3BE8C"),
	Warning:     lipgloss.Color("#EBCB8B"),
	Info:        lipgloss.Color("#5E81AC"),
}

// Night replaces the selected palette while night mode is on.
var Night = Theme{
	Name:        "night",
	Primary:     lipgloss.Color("#A78BFA"),
	Secondary:   lipgloss.Color("#67E8F9"),
	Accent:      lipgloss.Color("#FBBF24"),
	Text:        lipgloss.Color("#A3A3A3"),
	TextDim:     lipgloss.Color("#525252"),
	TextBright:  lipgloss.Color("#D4D4D4"),
	Background:  lipgloss.Color("#000000"),
	Surface:     lipgloss.Color("#171717"),
	Border:      lipgloss.Color("#262626"),
	BorderFocus: lipgloss.Color("#A78BFA"),
	Image:       lipgloss.Color("#60A5FA"),
	Error:       lipgloss.Color("#F87171"),
	Success:     lipgloss.Color("#4ADE80"),
	Warning:     lipgloss.Color("#FBBF24"),
	Info:        lipgloss.Color("#60A5FA"),
}

// Current is the active day theme.
var Current = Default

// Set changes the active theme by name.
func Set(name string) bool {
	if t, ok := themes[name]; ok {
		Current = t
		return true
	}
	return false
}

// List returns all available theme names, sorted.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the palette for the reader's display settings. Night mode
// wins; otherwise a custom background replaces the current theme's.
func Resolve(night bool, background string) Theme {
	if night {
		return Night
	}
	t := Current
	if c, ok := ParseColor(background); ok {
		t.Background = c
	}
	return t
}

// ParseColor accepts "#RRGGBB" or "#AARRGGBB". The alpha channel is dropped
// since terminals cannot blend.
func ParseColor(s string) (lipgloss.Color, bool) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return "", false
	}
	switch len(hex) {
	case 6:
	case 8:
		hex = hex[2:]
	default:
		return "", false
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", false
		}
	}
	return lipgloss.Color("#" + strings.ToUpper(hex)), true
}
