// Package util holds small display helpers shared by the command
// surface.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI shortens s to maxWidth visual columns, appending "..."
// when anything was cut. Width is measured the way a terminal renders
// it: ANSI escape sequences are free and wide characters count double,
// so styled status rows keep their intended width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail against maxWidth and keeps escape
	// sequences intact.
	return ansi.Truncate(s, maxWidth, "...")
}
