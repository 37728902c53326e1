package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines a complete color scheme for the application
type Theme struct {
	// Core colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Text colors
	TextPrimary lipgloss.Color
	TextMuted   lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Border  lipgloss.Color
	Surface lipgloss.Color
}

// DarkTheme is the dark mode color scheme
var DarkTheme = Theme{
	Primary:   lipgloss.Color("#D4A72C"), // Throne gold
	Secondary: lipgloss.Color("#90CAF9"),
	Accent:    lipgloss.Color("#FFCC80"),

	TextPrimary: lipgloss.Color("#E0E0E0"),
	TextMuted:   lipgloss.Color("#6B6B7B"),

	Success: lipgloss.Color("#34D399"),
	Warning: lipgloss.Color("#FBBF24"),
	Error:   lipgloss.Color("#EF9A9A"),

	Border:  lipgloss.Color("#333344"),
	Surface: lipgloss.Color("#1E1E2E"),
}

// LightTheme is the light mode color scheme
var LightTheme = Theme{
	Primary:   lipgloss.Color("#A16207"),
	Secondary: lipgloss.Color("#1D4ED8"),
	Accent:    lipgloss.Color("#C2410C"),

	TextPrimary: lipgloss.Color("#18181B"),
	TextMuted:   lipgloss.Color("#71717A"),

	Success: lipgloss.Color("#059669"),
	Warning: lipgloss.Color("#D97706"),
	Error:   lipgloss.Color("#DC2626"),

	Border:  lipgloss.Color("#E4E4E7"),
	Surface: lipgloss.Color("#F4F4F5"),
}

// Adaptive returns an AdaptiveColor that switches between light/dark
type Adaptive = lipgloss.AdaptiveColor

func adaptive(pick func(Theme) lipgloss.Color) Adaptive {
	return Adaptive{Light: string(pick(LightTheme)), Dark: string(pick(DarkTheme))}
}

var (
	Primary     = adaptive(func(t Theme) lipgloss.Color { return t.Primary })
	Secondary   = adaptive(func(t Theme) lipgloss.Color { return t.Secondary })
	Accent      = adaptive(func(t Theme) lipgloss.Color { return t.Accent })
	FgText      = adaptive(func(t Theme) lipgloss.Color { return t.TextPrimary })
	FgMuted     = adaptive(func(t Theme) lipgloss.Color { return t.TextMuted })
	FgError     = adaptive(func(t Theme) lipgloss.Color { return t.Error })
	FgSuccess   = adaptive(func(t Theme) lipgloss.Color { return t.Success })
	FgWarning   = adaptive(func(t Theme) lipgloss.Color { return t.Warning })
	BorderColor = adaptive(func(t Theme) lipgloss.Color { return t.Border })
	BgSurface   = adaptive(func(t Theme) lipgloss.Color { return t.Surface })
)

// GlamourStyle picks the markdown style matching the terminal background.
func GlamourStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
