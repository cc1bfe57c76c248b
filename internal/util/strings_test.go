package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	styled := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{
			name:     "short value unchanged",
			input:    "relay-rs",
			maxWidth: 20,
			want:     "relay-rs",
		},
		{
			name:     "exact width unchanged",
			input:    "12345678",
			maxWidth: 8,
			want:     "12345678",
		},
		{
			name:     "long path truncated",
			input:    "/home/user/.local/share/relay-rs/logs/sidecar.log",
			maxWidth: 24,
			want:     "/home/user/.local/sha...",
		},
		{
			name:     "width at the ellipsis floor",
			input:    "sidecar.log",
			maxWidth: 3,
			want:     "...",
		},
		{
			name:     "width below the ellipsis floor",
			input:    "sidecar.log",
			maxWidth: 0,
			want:     "...",
		},
		{
			name:     "empty value unchanged",
			input:    "",
			maxWidth: 10,
			want:     "",
		},
		{
			name:     "styled value below width keeps its escapes",
			input:    styled.Render("ok"),
			maxWidth: 10,
			want:     styled.Render("ok"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateANSI(tt.input, tt.maxWidth)
			if got != tt.want {
				t.Errorf("TruncateANSI(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
			if w := lipgloss.Width(got); tt.maxWidth > 3 && w > tt.maxWidth {
				t.Errorf("result width %d exceeds %d", w, tt.maxWidth)
			}
		})
	}
}

func TestTruncateANSIStyledValue(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("/var/lib/relay-rs/data/credentials.json")

	got := TruncateANSI(styled, 16)
	if w := lipgloss.Width(got); w > 16 {
		t.Errorf("styled result width = %d, want at most 16", w)
	}
}

func TestTruncateANSIWideRunes(t *testing.T) {
	got := TruncateANSI("日本語テスト", 8)
	if w := lipgloss.Width(got); w > 8 {
		t.Errorf("wide-rune result width = %d, want at most 8", w)
	}
}
