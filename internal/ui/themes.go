// Package ui provides theme and color support for the application's user interface.
// It defines color schemes on top of github.com/fatih/color and exposes
// helpers that wrap text in the active theme's colors.
//
// This package is designed to be a shared dependency for packages that need
// color output, reducing coupling between business logic and presentation.
package ui

import (
	"os"
	"sort"
	"sync"

	"github.com/fatih/color"
)

// Theme defines a color scheme for UI output.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Primary is the main accent color for important elements.
	Primary *color.Color
	// Secondary is used for less prominent elements.
	Secondary *color.Color
	// Success indicates positive outcomes or completed operations.
	Success *color.Color
	// Warning is used for caution messages or non-critical issues.
	Warning *color.Color
	// Error indicates failures or critical issues.
	Error *color.Color
	// Info is used for informational messages.
	Info *color.Color
	// Bold is used for headings.
	Bold *color.Color
	// Underline is used for table headers.
	Underline *color.Color
}

// fg256 selects a color from the 256-color palette (ESC[38;5;<code>m).
func fg256(code int) *color.Color {
	return color.New(38, 5, color.Attribute(code))
}

func plain() *color.Color {
	c := color.New()
	c.DisableColor()
	return c
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	// Uses bright, vibrant colors for good contrast.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   fg256(39),  // Bright blue
		Secondary: fg256(245), // Grey
		Success:   fg256(82),  // Bright green
		Warning:   fg256(220), // Yellow
		Error:     fg256(196), // Red
		Info:      fg256(141), // Purple
		Bold:      color.New(color.Bold),
		Underline: color.New(color.Underline),
	}

	// LightTheme is optimized for light terminal backgrounds.
	// Uses darker colors for better readability.
	LightTheme = Theme{
		Name:      "light",
		Primary:   fg256(27),  // Dark blue
		Secondary: fg256(240), // Dark grey
		Success:   fg256(28),  // Dark green
		Warning:   fg256(130), // Orange
		Error:     fg256(124), // Dark red
		Info:      fg256(54),  // Dark purple
		Bold:      color.New(color.Bold),
		Underline: color.New(color.Underline),
	}

	// NoColorTheme disables all color output.
	// Used when NO_COLOR is set or --no-color flag is provided.
	NoColorTheme = Theme{
		Name:      "none",
		Primary:   plain(),
		Secondary: plain(),
		Success:   plain(),
		Warning:   plain(),
		Error:     plain(),
		Info:      plain(),
		Bold:      plain(),
		Underline: plain(),
	}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	// currentTheme is the active theme used throughout the application.
	// Defaults to DarkTheme but can be changed via SetTheme or InitTheme.
	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// ThemeNames returns the sorted names accepted by SetTheme.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidTheme reports whether name is a known theme.
func IsValidTheme(name string) bool {
	_, ok := themes[name]
	return ok
}

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name.
// Valid names are: "dark", "light", "none".
// Unknown names default to dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if t, ok := themes[name]; ok {
		currentTheme = t
		return
	}
	currentTheme = DarkTheme
}

// InitTheme selects the theme from the --theme and --no-color flags and the
// environment. It respects the NO_COLOR environment variable
// (https://no-color.org/): if noColor is true or NO_COLOR is set, colors are
// disabled globally, including for github.com/fatih/color output that does
// not go through a theme.
//
// Parameters:
//   - name: The requested theme name ("" keeps the dark default).
//   - noColor: If true, disables all color output regardless of environment.
func InitTheme(name string, noColor bool) {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		noColor = true
	}
	if noColor {
		color.NoColor = true
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetTheme(name)
}
