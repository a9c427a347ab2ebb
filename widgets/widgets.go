package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-drumseq/theme"
)

// StepRow renders one channel's steps, one cell per step. cursor and
// playhead are step indices, or -1 for none. dim renders active steps in
// the muted color (muted or non-soloed channel).
func StepRow(th *theme.Theme, steps []bool, cursor, playhead int, dim bool) string {
	sym := th.Symbols
	activeStyle := lipgloss.NewStyle().Foreground(th.Active())
	if dim {
		activeStyle = lipgloss.NewStyle().Foreground(th.Muted())
	}
	emptyStyle := lipgloss.NewStyle().Foreground(th.Muted())
	playStyle := lipgloss.NewStyle().Foreground(th.Success())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor())

	var out strings.Builder
	for s, on := range steps {
		if s > 0 && s%4 == 0 {
			out.WriteString(" ")
		}
		isCursor := s == cursor

		var char rune
		style := emptyStyle
		switch {
		case s == playhead:
			char = sym.StepPlayhead
			if isCursor {
				char = sym.CursorPlayhead
			}
			style = playStyle
		case on:
			char = sym.StepActive
			if isCursor {
				char = sym.CursorActive
			}
			style = activeStyle
		default:
			char = sym.StepEmpty
			if s%4 == 0 {
				char = sym.StepBeat
			}
			if isCursor {
				char = sym.CursorEmpty
			}
		}
		if isCursor && s != playhead {
			style = cursorStyle
		}
		out.WriteString(style.Render(string(char)))
	}
	return out.String()
}

// VelocityBar renders one level glyph per step, blank for inactive steps.
func VelocityBar(th *theme.Theme, steps []bool, velocity []int, cursor int) string {
	levels := th.Symbols.Levels
	var out strings.Builder
	for s := range steps {
		if s > 0 && s%4 == 0 {
			out.WriteString(" ")
		}
		if !steps[s] || s >= len(velocity) {
			out.WriteString(" ")
			continue
		}
		idx := (velocity[s] - 1) * len(levels) / 127
		idx = max(0, min(len(levels)-1, idx))
		color := th.Color(float64(velocity[s]) / 127)
		if s == cursor {
			color = th.Cursor()
		}
		out.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(levels[idx])))
	}
	return out.String()
}

// ProgressBar renders frac (0-1) as a bar of width cells with a percentage.
func ProgressBar(th *theme.Theme, frac float64, width int) string {
	frac = math.Max(0, math.Min(1, frac))
	filled := int(math.Round(frac * float64(width)))
	bar := lipgloss.NewStyle().Foreground(th.Accent()).Render(strings.Repeat(string(th.Symbols.Filled), filled)) +
		lipgloss.NewStyle().Foreground(th.Muted()).Render(strings.Repeat(string(th.Symbols.Blank), width-filled))
	return fmt.Sprintf("%s %3d%%", bar, int(math.Round(frac*100)))
}

// Pan renders a pan position (-1..1) as L/C/R with a percentage.
func Pan(pan float64) string {
	pct := int(math.Round(math.Abs(pan) * 100))
	switch {
	case pct == 0:
		return "C"
	case pan < 0:
		return fmt.Sprintf("L%d", pct)
	default:
		return fmt.Sprintf("R%d", pct)
	}
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
