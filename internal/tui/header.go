package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Config struct {
	App     string
	Version string
	// Extras are appended after the version, e.g. the instance being installed.
	Extras []string
}

var gradient = []string{
	"#89DCEB", "#99C9F5", "#B0B0FF", "#C49FFF", "#DB8AFF",
}

// Header paints a full-width gradient bar carrying the app name, version and extras.
func Header(cfg Config, width int) string {
	parts := append([]string{cfg.App, "v" + cfg.Version}, cfg.Extras...)
	runes := []rune(" " + strings.Join(parts, " | "))

	var out strings.Builder
	for col := 0; col < width; col++ {
		background := gradientAt(col, width)
		foreground := "#FFFFFF"
		if isLight(background) {
			foreground = "#000000"
		}
		glyph := " "
		if col < len(runes) {
			glyph = string(runes[col])
		}
		out.WriteString(lipgloss.NewStyle().
			Background(lipgloss.Color(background)).
			Foreground(lipgloss.Color(foreground)).
			Bold(true).
			Render(glyph))
	}
	return out.String()
}

func gradientAt(col int, width int) string {
	if width < 1 {
		width = 1
	}
	return gradient[col*len(gradient)/width]
}

// isLight is a Rec. 709 luminance check; good enough for pastel vs dark.
func isLight(hex string) bool {
	r, g, b := hexToRGB(hex)
	return 0.2126*r+0.7152*g+0.0722*b > 0.5
}

func hexToRGB(h string) (r, g, b float64) {
	channel := func(s string) float64 {
		v, _ := strconv.ParseUint(s, 16, 8)
		return float64(v) / 255
	}
	h = strings.TrimPrefix(h, "#")
	switch len(h) {
	case 6:
		r, g, b = channel(h[0:2]), channel(h[2:4]), channel(h[4:6])
	case 3:
		r, g, b = channel(strings.Repeat(h[0:1], 2)), channel(strings.Repeat(h[1:2], 2)), channel(strings.Repeat(h[2:3], 2))
	}
	return
}
