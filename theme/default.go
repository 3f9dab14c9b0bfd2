package theme

import (
	"github.com/pterm/pterm"
)

// Theme defines the colour scheme and styling for the application
type Theme struct {
	// Log level colours
	Debug *pterm.Style
	Info  *pterm.Style
	Warn  *pterm.Style
	Error *pterm.Style

	Success   *pterm.Style
	Highlight *pterm.Style
	Muted     *pterm.Style
	Accent    *pterm.Style

	// Guard specific
	Identity      *pterm.Style
	Counts        *pterm.Style
	Rule          *pterm.Style
	HealthHealthy *pterm.Style
	HealthWarning *pterm.Style
	HealthError   *pterm.Style
}

func Default() *Theme {
	return &Theme{
		Debug: pterm.NewStyle(pterm.FgLightBlue),
		Info:  pterm.NewStyle(pterm.FgGreen),
		Warn:  pterm.NewStyle(pterm.FgYellow, pterm.Bold),
		Error: pterm.NewStyle(pterm.FgRed, pterm.Bold),

		Success:   pterm.NewStyle(pterm.FgGreen, pterm.Bold),
		Highlight: pterm.NewStyle(pterm.FgCyan, pterm.Bold),
		Muted:     pterm.NewStyle(pterm.FgGray),
		Accent:    pterm.NewStyle(pterm.FgMagenta),

		Identity:      pterm.NewStyle(pterm.FgLightCyan),
		Counts:        pterm.NewStyle(pterm.FgLightYellow),
		Rule:          pterm.NewStyle(pterm.FgLightMagenta),
		HealthHealthy: pterm.NewStyle(pterm.FgGreen, pterm.Bold),
		HealthWarning: pterm.NewStyle(pterm.FgYellow, pterm.Bold),
		HealthError:   pterm.NewStyle(pterm.FgRed, pterm.Bold),
	}
}

func Dark() *Theme {
	return &Theme{
		Debug: pterm.NewStyle(pterm.FgLightBlue),
		Info:  pterm.NewStyle(pterm.FgLightGreen),
		Warn:  pterm.NewStyle(pterm.FgLightYellow, pterm.Bold),
		Error: pterm.NewStyle(pterm.FgLightRed, pterm.Bold),

		Success:   pterm.NewStyle(pterm.FgLightGreen, pterm.Bold),
		Highlight: pterm.NewStyle(pterm.FgLightCyan, pterm.Bold),
		Muted:     pterm.NewStyle(pterm.FgGray),
		Accent:    pterm.NewStyle(pterm.FgLightMagenta),

		Identity:      pterm.NewStyle(pterm.FgCyan),
		Counts:        pterm.NewStyle(pterm.FgYellow),
		Rule:          pterm.NewStyle(pterm.FgMagenta),
		HealthHealthy: pterm.NewStyle(pterm.FgLightGreen, pterm.Bold),
		HealthWarning: pterm.NewStyle(pterm.FgLightYellow, pterm.Bold),
		HealthError:   pterm.NewStyle(pterm.FgLightRed, pterm.Bold),
	}
}

// GetTheme returns the appropriate theme based on environment or preference
func GetTheme(name string) *Theme {
	switch name {
	case "dark":
		return Dark()
	default:
		return Default()
	}
}

// ColourSplash Colours for the splash screen
func ColourSplash(message ...any) string {
	return pterm.LightRed(message...)
}

// ColourVersion Colours Version numbers, used for the splash screen
func ColourVersion(message ...any) string {
	return pterm.LightYellow(message...)
}

// StyleUrl Colours for URLs and hyperlinks
func StyleUrl(message ...any) string {
	return pterm.LightBlue(message...)
}

// Hyperlink creates a hyperlink in the terminal
func Hyperlink(uri string, text string) string {
	return "\x1b]8;;" + uri + "\x07" + text + "\x1b]8;;\x07" + "\u001b[0m"
}
