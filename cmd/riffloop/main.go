package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"

	"github.com/linuxmatters/riffloop/internal/audio"
	"github.com/linuxmatters/riffloop/internal/cli"
	"github.com/linuxmatters/riffloop/internal/config"
	"github.com/linuxmatters/riffloop/internal/console"
	"github.com/linuxmatters/riffloop/internal/logging"
	"github.com/linuxmatters/riffloop/internal/player"
	"github.com/linuxmatters/riffloop/internal/session"
	"github.com/linuxmatters/riffloop/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input    string `arg:"" name:"input" help:"Audio file to play (WAV, MP3 or FLAC)" optional:""`
	Title    string `help:"Override the track title"`
	Artist   string `help:"Override the track artist"`
	Config   string `help:"Path to a TOML settings file" type:"path" placeholder:"file"`
	LogFile  string `help:"Write debug logs to this file" type:"path" placeholder:"file"`
	LogLevel string `help:"Log level: debug, info, warn or error" placeholder:"level"`
	Console  bool   `help:"Use the line console instead of the full screen UI"`
	Paused   bool   `help:"Load the track without starting playback"`
	Version  bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("riffloop"),
		kong.Description("Loop a passage of any track until your fingers know it."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate required arguments when not showing version
	if CLI.Input == "" {
		cli.PrintError("<input> is required")
		os.Exit(1)
	}

	// Validate input file exists
	if _, err := os.Stat(CLI.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}

	if err := run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	// Flags win over the settings file
	logFile, logLevel := cfg.Log.File, cfg.Log.Level
	if CLI.LogFile != "" {
		logFile = CLI.LogFile
	}
	if CLI.LogLevel != "" {
		logLevel = CLI.LogLevel
		if logFile == "" {
			cli.PrintWarning("--log-level has no effect without a log file")
		}
	}
	log, logCloser, err := logging.New(logFile, logLevel)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	info, err := audio.ReadTrackInfo(CLI.Input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", CLI.Input, err)
	}
	if CLI.Title != "" {
		info.Title = CLI.Title
	}
	if CLI.Artist != "" {
		info.Artist = CLI.Artist
	}

	clip, err := audio.LoadClip(CLI.Input)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", CLI.Input, err)
	}
	log.Info().
		Str("file", CLI.Input).
		Str("format", info.Format).
		Int("sample_rate", clip.SampleRate()).
		Dur("duration", clip.Duration()).
		Msg("track loaded")

	sink, err := player.NewSpeakerSink(beep.SampleRate(clip.SampleRate()), cfg.Buffer())
	if err != nil {
		return err
	}
	defer sink.Close()

	pl := player.New(clip, sink,
		player.WithLogger(log),
		player.WithVolume(cfg.Playback.Volume),
	)
	defer pl.Close()

	sess := session.New(pl,
		session.WithLogger(log),
		session.WithTrack(info),
	)
	defer sess.Close()

	if !CLI.Paused {
		if err := sess.Play(); err != nil {
			return err
		}
	}

	if CLI.Console {
		err = runConsole(sess, info, cfg)
	} else {
		err = runUI(sess, cfg)
	}
	if err != nil {
		return err
	}

	st := sess.Status()
	log.Info().Dur("position", st.Position).Stringer("loop", st.Loop).Msg("quit")
	cli.PrintSuccess(cli.StopSummary(st.Position, st.Duration))
	return nil
}

func runConsole(sess *session.Session, info *audio.TrackInfo, cfg config.Config) error {
	cli.PrintBanner()
	cli.PrintTrackSummary(info)
	cli.PrintSection("Console")
	cli.PrintInfo("Seek step", cfg.SeekStep().String())
	cli.PrintInfo("Commands", "type help to list them, quit to leave")

	con := console.New(sess, cfg.SeekStep(), config.VolumeStep)
	sess.Subscribe(con.Observe)
	return con.Run()
}

func runUI(sess *session.Session, cfg config.Config) error {
	model := ui.NewModel(sess, ui.Options{
		Refresh:    cfg.Refresh(),
		SeekStep:   cfg.SeekStep(),
		VolumeStep: config.VolumeStep,
		Accent:     cfg.UI.AccentColor,
	})
	sess.Subscribe(model.Observe)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
