package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/riffloop/internal/cli"
	"github.com/linuxmatters/riffloop/internal/config"
	"github.com/linuxmatters/riffloop/internal/loop"
)

var (
	faintStyle = lipgloss.NewStyle().Faint(true)

	recStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cli.WarmGray)

	stopStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cli.FireCrimson).
			Blink(true)

	loopStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(cli.FireCrimson).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cli.FireRed)
)

// View renders the UI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	st := m.status

	// Title
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.FireYellow).Render("riffloop 🔁"))
	s.WriteString("\n")
	if st.Track != nil {
		track := st.Track.Title
		if st.Track.Artist != "" {
			track += " · " + st.Track.Artist
		}
		s.WriteString(lipgloss.NewStyle().Foreground(m.accent).Render(track))
	}
	s.WriteString("\n\n")

	// Position
	bar := m.bar
	if st.Loop != loop.Idle {
		bar = m.armBar
	}
	s.WriteString(bar.ViewAs(ratio(st.Position, st.Duration)))
	s.WriteString(fmt.Sprintf("  %s / %s", cli.FormatClock(st.Position), cli.FormatClock(st.Duration)))
	s.WriteString("\n\n")

	// Transport and loop state
	if st.Playing {
		s.WriteString(lipgloss.NewStyle().Foreground(m.accent).Render("▶ Playing"))
	} else {
		s.WriteString(faintStyle.Render("⏸ Paused "))
	}
	s.WriteString("   ")
	s.WriteString(loopIndicator(st.Loop, st.Playing))
	if st.HasVolume {
		s.WriteString("   ")
		s.WriteString(faintStyle.Render("vol "))
		s.WriteString(volumeMeter(st.Volume, 10))
	}
	s.WriteString("\n")

	s.WriteString(faintStyle.Render(regionLine(st.Loop, st.Start, st.End, st.Cycle)))
	s.WriteString("\n")

	// Last notice or error
	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(errorText(m.err)))
	case m.notice != "":
		s.WriteString(lipgloss.NewStyle().Foreground(cli.FireOrange).Render(m.notice))
	}
	s.WriteString("\n\n")

	s.WriteString(m.help.View(m.keys))

	border := cli.FireOrange
	if st.Loop != loop.Idle {
		border = cli.FireCrimson
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Render(s.String()) + "\n"
}

// loopIndicator mirrors the loop button: REC marks the start, STOP marks
// the end, LOOP shows an active region. REC is dimmed while it cannot be
// pressed.
func loopIndicator(state loop.State, playing bool) string {
	label := "● REC"
	switch state {
	case loop.Armed:
		label = "■ STOP"
	case loop.Looping:
		label = "⟳ LOOP"
	}
	return indicatorStyle(state, playing).Render(label)
}

func indicatorStyle(state loop.State, playing bool) lipgloss.Style {
	switch state {
	case loop.Armed:
		return stopStyle
	case loop.Looping:
		return loopStyle
	}
	if !playing {
		return faintStyle
	}
	return recStyle
}

func regionLine(state loop.State, start, end time.Duration, cycle int) string {
	switch state {
	case loop.Armed:
		return fmt.Sprintf("loop from %s …", cli.FormatClock(start))
	case loop.Looping:
		return fmt.Sprintf("loop %s → %s  pass %d", cli.FormatClock(start), cli.FormatClock(end), cycle+1)
	default:
		return "no loop"
	}
}

// Helper functions

func ratio(pos, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return max(0, min(float64(pos)/float64(total), 1))
}

// volumeMeter draws the volume exponent as a fire-coloured block meter
func volumeMeter(volume float64, width int) string {
	filled := int((volume - config.MinVolume) / (config.MaxVolume - config.MinVolume) * float64(width))
	filled = max(0, min(filled, width))

	var result strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			// Fire gradient: dark red → red → orange → yellow based on position
			pos := float64(i) / float64(width)
			var color lipgloss.Color
			if pos < 0.25 {
				color = cli.FireEmber
			} else if pos < 0.5 {
				color = cli.FireCrimson
			} else if pos < 0.75 {
				color = cli.FireOrange
			} else {
				color = cli.FireYellow
			}
			result.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		} else {
			// Empty block in dark gray
			result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A")).Render("░"))
		}
	}

	return result.String()
}
