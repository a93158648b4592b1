// Package console is a line-oriented front end for terminals where the full
// screen UI is unwanted, built on readline.
package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/linuxmatters/riffloop/internal/cli"
	"github.com/linuxmatters/riffloop/internal/loop"
	"github.com/linuxmatters/riffloop/internal/session"
)

// ErrUnknownCommand is returned by Execute for unrecognised input
var ErrUnknownCommand = errors.New("unknown command")

// Controls is the part of a session the console drives
type Controls interface {
	Play() error
	Pause() error
	TogglePlay() (bool, error)
	Loop() (loop.State, error)
	CancelLoop()
	Seek(pos time.Duration) error
	SeekBy(delta time.Duration) error
	AdjustVolume(delta float64) (float64, error)
	Status() session.Status
}

type command struct {
	name  string
	usage string
	help  string
}

var commands = []command{
	{"play", "play", "start or resume playback"},
	{"pause", "pause", "pause playback; drops an active loop"},
	{"toggle", "toggle", "play or pause"},
	{"loop", "loop", "mark start, mark end, or stop looping"},
	{"cancel", "cancel", "cancel the loop"},
	{"seek", "seek <pos>", "jump to seconds or m:ss"},
	{"ff", "ff [sec]", "seek forward"},
	{"rw", "rw [sec]", "seek back"},
	{"vol", "vol +|-", "volume up or down"},
	{"status", "status", "show position and loop"},
	{"help", "help", "list commands"},
	{"quit", "quit", "exit"},
}

// Console dispatches typed commands to a session
type Console struct {
	ctl        Controls
	seekStep   time.Duration
	volumeStep float64

	mu  sync.Mutex
	out io.Writer // event output while Run is active
}

// New creates a console for ctl
func New(ctl Controls, seekStep time.Duration, volumeStep float64) *Console {
	return &Console{ctl: ctl, seekStep: seekStep, volumeStep: volumeStep}
}

// Run reads commands until quit, EOF or an interrupt on an empty line
func (c *Console) Run() error {
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, cmd := range commands {
		items[i] = readline.PcItem(cmd.name)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "riffloop> ",
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		HistoryLimit:    200,
	})
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer rl.Close()

	c.mu.Lock()
	c.out = rl.Stdout()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.out = nil
		c.mu.Unlock()
	}()

	fmt.Fprintln(rl.Stdout(), cli.SubtitleStyle.Render("type help for commands"))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}

		quit, err := c.Execute(line, rl.Stdout())
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "%s %s\n", cli.ErrorStyle.Render("Error:"), err)
		}
		if quit {
			return nil
		}
	}
}

// Observe prints loop events while Run is active. It is a session
// subscriber.
func (c *Console) Observe(ev loop.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out == nil || ev.Kind == loop.EventRewound {
		return
	}
	fmt.Fprintln(c.out, describe(ev))
}

// Execute runs one command line and writes any output to out
func (c *Console) Execute(line string, out io.Writer) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "play":
		err = c.ctl.Play()
	case "pause":
		err = c.ctl.Pause()
	case "toggle", "p":
		var playing bool
		if playing, err = c.ctl.TogglePlay(); err == nil && playing {
			fmt.Fprintln(out, "playing")
		} else if err == nil {
			fmt.Fprintln(out, "paused")
		}
	case "loop", "l":
		var state loop.State
		if state, err = c.ctl.Loop(); err == nil {
			fmt.Fprintln(out, "loop", state)
		}
	case "cancel", "c":
		c.ctl.CancelLoop()
	case "seek":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: seek <pos>")
		}
		var pos time.Duration
		if pos, err = ParsePosition(args[0]); err == nil {
			err = c.ctl.Seek(pos)
		}
	case "ff", "rw":
		step := c.seekStep
		if len(args) > 0 {
			if step, err = ParsePosition(args[0]); err != nil {
				return false, err
			}
		}
		if name == "rw" {
			step = -step
		}
		err = c.ctl.SeekBy(step)
	case "vol":
		if len(args) != 1 || (args[0] != "+" && args[0] != "-") {
			return false, fmt.Errorf("usage: vol +|-")
		}
		delta := c.volumeStep
		if args[0] == "-" {
			delta = -delta
		}
		var v float64
		if v, err = c.ctl.AdjustVolume(delta); err == nil {
			fmt.Fprintf(out, "volume %+.1f\n", v)
		}
	case "status", "s":
		fmt.Fprintln(out, FormatStatus(c.ctl.Status()))
	case "help", "?":
		for _, cmd := range commands {
			fmt.Fprintf(out, "  %-12s %s\n", cmd.usage, cmd.help)
		}
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	return false, err
}

// ParsePosition accepts plain seconds ("12.5") or m:ss ("1:15")
func ParsePosition(s string) (time.Duration, error) {
	if m, sec, ok := strings.Cut(s, ":"); ok {
		mins, err := strconv.Atoi(m)
		if err != nil || mins < 0 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		secs, err := strconv.ParseFloat(sec, 64)
		if err != nil || secs < 0 || secs >= 60 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		return time.Duration(mins)*time.Minute + time.Duration(secs*float64(time.Second)), nil
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// FormatStatus renders a one-line status summary
func FormatStatus(st session.Status) string {
	var b strings.Builder

	if st.Playing {
		b.WriteString("playing ")
	} else {
		b.WriteString("paused  ")
	}
	fmt.Fprintf(&b, "%s / %s", cli.FormatClock(st.Position), cli.FormatClock(st.Duration))

	switch st.Loop {
	case loop.Armed:
		fmt.Fprintf(&b, "  loop armed at %s", cli.FormatClock(st.Start))
	case loop.Looping:
		fmt.Fprintf(&b, "  looping %s → %s pass %d", cli.FormatClock(st.Start), cli.FormatClock(st.End), st.Cycle+1)
	}

	if st.HasVolume {
		fmt.Fprintf(&b, "  vol %+.1f", st.Volume)
	}
	if st.Err != nil {
		fmt.Fprintf(&b, "  (%v)", st.Err)
	}
	return b.String()
}

func describe(ev loop.Event) string {
	switch ev.Kind {
	case loop.EventArmed:
		return "loop start marked at " + cli.FormatClock(ev.Position)
	case loop.EventLooping:
		return fmt.Sprintf("looping %s → %s", cli.FormatClock(ev.Region.Start), cli.FormatClock(ev.Region.End))
	case loop.EventCancelled:
		return "loop cleared"
	case loop.EventFinished:
		return "end of track"
	default:
		if ev.Err != nil {
			return fmt.Sprintf("%s: %v", ev.Kind, ev.Err)
		}
		return ev.Kind.String()
	}
}
