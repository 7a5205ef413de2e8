// Package tui renders download progress and shared terminal styling for the command line.
package tui

func SuccessIcon(colorize bool) string {
	icon := "✅"
	if colorize {
		return SuccessStyle.Render(icon)
	}
	return icon
}

func ErrorIcon(colorize bool) string {
	icon := "❌"
	if colorize {
		return ErrorStyle.Render(icon)
	}
	return icon
}
