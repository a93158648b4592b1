package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/riffloop/internal/audio"
)

// Color palette
var (
	primaryColor   = FireCrimson
	accentColor    = FireOrange
	successColor   = lipgloss.Color("#00AA00") // Green
	mutedColor     = lipgloss.Color("#888888") // Gray
	highlightColor = FireYellow
	textColor      = lipgloss.Color("#FFFFFF") // White
)

// Styles
var (
	// Title style - bold crimson
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// Subtitle style - muted gray
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Section header style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1).
			MarginBottom(1)

	// Success message style
	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	// Error message style
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// Highlight style for important values
	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	// Box style for framed content
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

const (
	appName    = "riffloop 🔁"
	appTagline = "Loop a passage of any track until your fingers know it."
)

// PrintBanner prints the application banner
func PrintBanner() {
	fmt.Println(TitleStyle.Render(appName))
	fmt.Println(SubtitleStyle.Render(appTagline))
	fmt.Println()
}

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render(appName))
	PrintInfo("Version", version)
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning to stderr
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", HighlightStyle.Render("Warning:"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("✓"), message)
}

// PrintInfo prints a key-value line
func PrintInfo(key, value string) {
	fmt.Println(InfoLine(key, value, 0))
}

// InfoLine renders "key: value" with the key padded to width
func InfoLine(key, value string, width int) string {
	return KeyStyle.Render(fmt.Sprintf("%-*s", width, key+":")) + " " + ValueStyle.Render(value)
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Println(HeaderStyle.Render(title))
}

// StopSummary describes where playback ended, e.g. "Stopped at 1:23 of 4:05"
func StopSummary(position, duration time.Duration) string {
	return fmt.Sprintf("Stopped at %s of %s", FormatClock(position), FormatClock(duration))
}

// FormatClock formats a playback position as m:ss, or h:mm:ss past an hour.
// Negative durations are shown as 0:00.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// PrintBox prints content in a styled box
func PrintBox(content string) {
	fmt.Println(BoxStyle.Render(content))
}

// TrackSummary renders the track details shown before playback starts
func TrackSummary(info *audio.TrackInfo) string {
	var b strings.Builder

	b.WriteString(HighlightStyle.Render(info.Title))
	if info.Artist != "" {
		b.WriteString(KeyStyle.Render(" by "))
		b.WriteString(ValueStyle.Render(info.Artist))
	}
	b.WriteString("\n\n")

	if info.Album != "" {
		b.WriteString(InfoLine("Album", info.Album, 9))
		b.WriteString("\n")
	}

	b.WriteString(InfoLine("Format", fmt.Sprintf("%s %d Hz, %d ch", info.Format, info.SampleRate, info.Channels), 9))
	b.WriteString("\n")
	b.WriteString(InfoLine("Duration", FormatClock(info.Duration), 9))

	return b.String()
}

// PrintTrackSummary prints the track details in a box
func PrintTrackSummary(info *audio.TrackInfo) {
	PrintBox(TrackSummary(info))
}
