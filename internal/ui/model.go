// Package ui is the Bubbletea player screen: a position bar, the loop
// indicator and the key bindings that drive a session.
package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/riffloop/internal/cli"
	"github.com/linuxmatters/riffloop/internal/config"
	"github.com/linuxmatters/riffloop/internal/loop"
	"github.com/linuxmatters/riffloop/internal/session"
)

// Controls is the part of a session the screen drives
type Controls interface {
	TogglePlay() (bool, error)
	Loop() (loop.State, error)
	CancelLoop()
	SeekBy(delta time.Duration) error
	AdjustVolume(delta float64) (float64, error)
	Status() session.Status
}

// Options tunes the screen; zero fields take the config defaults
type Options struct {
	Refresh    time.Duration
	SeekStep   time.Duration
	VolumeStep float64
	Accent     string
}

// LoopEventMsg carries a loop event into the Bubbletea update loop
type LoopEventMsg loop.Event

// tickMsg drives the position refresh
type tickMsg time.Time

// Buffered so a burst of rewinds never blocks the loop timer
const eventBuffer = 64

// Model implements the Bubbletea model for the player screen
type Model struct {
	ctl    Controls
	keys   keyMap
	help   help.Model
	bar    progress.Model
	armBar progress.Model // solid red while a region is marked
	events chan loop.Event

	status session.Status
	notice string
	err    error

	refresh    time.Duration
	seekStep   time.Duration
	volumeStep float64
	accent     lipgloss.Color

	width    int
	quitting bool
}

// NewModel creates the player screen for ctl
func NewModel(ctl Controls, opts Options) *Model {
	if opts.Refresh <= 0 {
		opts.Refresh = config.RefreshInterval
	}
	if opts.SeekStep <= 0 {
		opts.SeekStep = config.SeekStep
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = config.VolumeStep
	}
	if opts.Accent == "" {
		opts.Accent = config.AccentColor
	}

	// Fire gradient: deep red → accent
	bar := progress.New(
		progress.WithGradient(string(cli.FireCrimson), opts.Accent),
		progress.WithWidth(config.ProgressWidth),
		progress.WithoutPercentage(),
	)
	armBar := progress.New(
		progress.WithSolidFill(string(cli.FireCrimson)),
		progress.WithWidth(config.ProgressWidth),
		progress.WithoutPercentage(),
	)

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(cli.FireYellow)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(cli.WarmGray)
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.FullDesc = h.Styles.ShortDesc

	return &Model{
		ctl:        ctl,
		keys:       defaultKeyMap(),
		help:       h,
		bar:        bar,
		armBar:     armBar,
		events:     make(chan loop.Event, eventBuffer),
		status:     ctl.Status(),
		refresh:    opts.Refresh,
		seekStep:   opts.SeekStep,
		volumeStep: opts.VolumeStep,
		accent:     lipgloss.Color(opts.Accent),
	}
}

// Observe is a session subscriber feeding loop events to the screen. It
// never blocks; events beyond the buffer are dropped and the next refresh
// picks up the state anyway.
func (m *Model) Observe(ev loop.Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// Init starts the refresh ticker and the event listener
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForEvent())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return LoopEventMsg(<-m.events)
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(msg.Width-24, config.ProgressWidth))
		m.armBar.Width = m.bar.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.status = m.ctl.Status()
		return m, m.tick()

	case LoopEventMsg:
		m.status = m.ctl.Status()
		m.handleEvent(loop.Event(msg))
		return m, m.waitForEvent()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Play):
		_, err = m.ctl.TogglePlay()

	case key.Matches(msg, m.keys.Loop):
		_, err = m.ctl.Loop()

	case key.Matches(msg, m.keys.Cancel):
		m.ctl.CancelLoop()

	case key.Matches(msg, m.keys.Back):
		err = m.ctl.SeekBy(-m.seekStep)

	case key.Matches(msg, m.keys.Forward):
		err = m.ctl.SeekBy(m.seekStep)

	case key.Matches(msg, m.keys.VolUp):
		_, err = m.ctl.AdjustVolume(m.volumeStep)

	case key.Matches(msg, m.keys.VolDown):
		_, err = m.ctl.AdjustVolume(-m.volumeStep)

	default:
		return m, nil
	}

	m.err = err
	if err != nil {
		m.notice = ""
	}
	m.status = m.ctl.Status()
	return m, nil
}

func (m *Model) handleEvent(ev loop.Event) {
	switch ev.Kind {
	case loop.EventArmed:
		m.notice = "start marked at " + cli.FormatClock(ev.Position)
		m.err = nil
	case loop.EventLooping:
		m.notice = fmt.Sprintf("looping %s → %s", cli.FormatClock(ev.Region.Start), cli.FormatClock(ev.Region.End))
		m.err = nil
	case loop.EventCancelled:
		m.notice = "loop cleared"
	case loop.EventFinished:
		m.notice = "end of track"
	case loop.EventInvalidRegion, loop.EventTransportUnavailable:
		m.err = ev.Err
	}
}

// Quitting reports whether the user asked to quit
func (m *Model) Quitting() bool {
	return m.quitting
}

// errorText turns command errors into short user-facing messages
func errorText(err error) string {
	var rerr *loop.RegionError
	switch {
	case errors.As(err, &rerr):
		return fmt.Sprintf("loop end must be after the start (%s)", cli.FormatClock(rerr.Start))
	case errors.Is(err, session.ErrLoopDisabled):
		return "start playback to set a loop"
	case errors.Is(err, session.ErrSeekLocked):
		return "seeking is locked while a loop is set"
	case errors.Is(err, loop.ErrTransportUnavailable):
		return "audio output unavailable: " + err.Error()
	}
	return err.Error()
}
