// Package theme provides the Lip Gloss color palette and reusable styles
// for the trainer TUI. It is a leaf package with no internal imports to
// avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Verdict colors.
var (
	ColorCorrect   = lipgloss.Color("#16a34a")
	ColorPartial   = lipgloss.Color("#d97706")
	ColorIncorrect = lipgloss.Color("#dc2626")
	ColorOpen      = lipgloss.Color("#9ca3af")
)

// Event level colors.
var (
	ColorInfo     = lipgloss.Color("#3b82f6")
	ColorWarn     = lipgloss.Color("#f59e0b")
	ColorCritical = lipgloss.Color("#ef4444")
)

// Grade colors.
var (
	ColorGradeA = lipgloss.Color("#22c55e")
	ColorGradeB = lipgloss.Color("#84cc16")
	ColorGradeC = lipgloss.Color("#f59e0b")
	ColorGradeD = lipgloss.Color("#f97316")
	ColorGradeF = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#7c3aed")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// VerdictColor returns the color for a verdict name as produced by
// report.Verdict.String.
func VerdictColor(verdict string) lipgloss.Color {
	switch verdict {
	case "fully-correct":
		return ColorCorrect
	case "partially-correct":
		return ColorPartial
	case "incorrect":
		return ColorIncorrect
	default:
		return ColorOpen
	}
}

// VerdictGlyph returns a single-cell glyph for a verdict name.
func VerdictGlyph(verdict string) string {
	switch verdict {
	case "fully-correct":
		return "✓"
	case "partially-correct":
		return "◐"
	case "incorrect":
		return "✗"
	default:
		return "○"
	}
}

// LevelColor returns the color for an event level.
func LevelColor(level string) lipgloss.Color {
	switch level {
	case "CRITICAL":
		return ColorCritical
	case "WARNING":
		return ColorWarn
	case "INFO":
		return ColorInfo
	default:
		return ColorDimmed
	}
}

// GradeColor returns the color for a letter grade.
func GradeColor(grade string) lipgloss.Color {
	switch grade {
	case "A":
		return ColorGradeA
	case "B":
		return ColorGradeB
	case "C":
		return ColorGradeC
	case "D":
		return ColorGradeD
	default:
		return ColorGradeF
	}
}

// AccuracyColor returns the color for an accuracy percentage.
func AccuracyColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 80:
		return ColorCorrect
	case pct >= 50:
		return ColorPartial
	default:
		return ColorIncorrect
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)
)
