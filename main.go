package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/guptarohit/asciigraph"
	"github.com/ncruces/zenity"
	"github.com/spf13/cobra"

	"github.com/iburimskiy/gridscan/internal/admin"
	"github.com/iburimskiy/gridscan/internal/chime"
	"github.com/iburimskiy/gridscan/internal/config"
	"github.com/iburimskiy/gridscan/internal/effect"
	"github.com/iburimskiy/gridscan/internal/game"
	"github.com/iburimskiy/gridscan/internal/relay"
	"github.com/iburimskiy/gridscan/internal/scan"
	"github.com/iburimskiy/gridscan/internal/term"
)

var (
	configFile string
	pickConfig bool
	logLevel   string
	logFile    string
	logOut     *os.File
	dialog     bool
	withChime  bool

	termFPS int

	traceTime   float64
	traceDT     float64
	traceHeight int

	relayCfg = config.DefaultRelay()
	pollSecs float64

	adminURL string

	// staged receives effect flag values; only flags set on the command
	// line are copied over the loaded file.
	staged = config.DefaultEffect()
)

func main() {
	rootCmd := &cobra.Command{
		Use:                "gridscan",
		Short:              "animated perspective grid with scan pulses",
		SilenceUsage:       true,
		PersistentPreRunE:  setupLogging,
		PersistentPostRunE: closeLogging,
		RunE:               runWindow,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&dialog, "dialog", false, "report startup errors in a native dialog")

	effectFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "effect config file (yaml)")
		cmd.Flags().BoolVar(&pickConfig, "pick-config", false, "choose the effect config file in a native file dialog")
		bindEffectFlags(cmd, staged)
	}
	effectFlags(rootCmd)
	rootCmd.Flags().BoolVar(&withChime, "chime", false, "play a tone on every scan pulse")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "show the effect in a window",
		RunE:  runWindow,
	}
	effectFlags(runCmd)
	runCmd.Flags().BoolVar(&withChime, "chime", false, "play a tone on every scan pulse")

	termCmd := &cobra.Command{
		Use:   "term",
		Short: "render the effect in the terminal",
		RunE:  runTerm,
	}
	effectFlags(termCmd)
	termCmd.Flags().IntVar(&termFPS, "fps", config.TerminalFPS, "frame rate")
	termCmd.Flags().BoolVar(&withChime, "chime", false, "play a tone on every scan pulse")

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "plot the damped camera motion and scan schedule",
		RunE:  runTrace,
	}
	effectFlags(traceCmd)
	traceCmd.Flags().Float64Var(&traceTime, "time", 20, "simulated seconds")
	traceCmd.Flags().Float64Var(&traceDT, "dt", 1.0/60, "frame interval in seconds")
	traceCmd.Flags().IntVar(&traceHeight, "height", 10, "plot height")

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default effect config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveEffect(args[0], config.DefaultEffect()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the question relay server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&relayCfg.Addr, "addr", relayCfg.Addr, "listen address")
	serveCmd.Flags().StringVar(&relayCfg.PublicDir, "public", relayCfg.PublicDir, "static files directory")
	serveCmd.Flags().StringVar(&relayCfg.SpreadsheetID, "spreadsheet", "", "Google spreadsheet id")
	serveCmd.Flags().StringVar(&relayCfg.CredentialsFile, "credentials", relayCfg.CredentialsFile, "service account JSON file, used when GOOGLE_CREDS is unset")
	serveCmd.Flags().Float64Var(&pollSecs, "poll", config.DefaultPollInterval, "sheet poll interval in seconds")
	serveCmd.Flags().StringVar(&relayCfg.MQTTBroker, "mqtt-broker", "", "mirror broadcasts to this MQTT broker (host:port)")
	serveCmd.Flags().StringVar(&relayCfg.MQTTTopic, "mqtt-topic", relayCfg.MQTTTopic, "MQTT topic prefix")

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "moderate questions from the terminal",
		RunE:  runAdmin,
	}
	adminCmd.Flags().StringVar(&adminURL, "url", "ws://localhost:3000/ws", "relay websocket URL")

	rootCmd.AddCommand(runCmd, termCmd, traceCmd, initCmd, serveCmd, adminCmd)

	if err := rootCmd.Execute(); err != nil {
		// post-run hooks are skipped when RunE fails
		_ = closeLogging(rootCmd, nil)
		if dialog {
			_ = zenity.Error(err.Error(), zenity.Title("gridscan"), zenity.ErrorIcon)
		}
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var out io.Writer = os.Stderr
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		logOut = f
		out = f
	case cmd.Name() == "term" || cmd.Name() == "admin":
		// the screen owns the terminal
		out = io.Discard
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return nil
}

// closeLogging closes the --log-file handle, if one was opened.
func closeLogging(*cobra.Command, []string) error {
	if logOut == nil {
		return nil
	}
	f := logOut
	logOut = nil
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := f.Close(); err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	return nil
}

// loadEffect builds the effect config: defaults, then the file, then flags.
func loadEffect(cmd *cobra.Command) (*config.Effect, error) {
	path := configFile
	if pickConfig {
		picked, err := zenity.SelectFile(
			zenity.Title("Open effect config"),
			zenity.FileFilters{{Name: "YAML files", Patterns: []string{"*.yaml", "*.yml"}, CaseFold: true}},
		)
		switch {
		case errors.Is(err, zenity.ErrCanceled):
			slog.Info("config: selection cancelled, using defaults")
		case err != nil:
			return nil, fmt.Errorf("config: file dialog: %w", err)
		default:
			path = picked
		}
	}

	cfg := config.DefaultEffect()
	if path != "" {
		loaded, err := config.LoadEffect(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		slog.Info("config: loaded", "path", path)
	}
	applyEffectFlags(cmd, staged, cfg)
	if err := cfg.Sanitize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDriver(cmd *cobra.Command) (*effect.Driver, error) {
	cfg, err := loadEffect(cmd)
	if err != nil {
		return nil, err
	}
	return effect.New(cfg)
}

// attachChime rings on every pulse reset when --chime is set. The returned
// chime is nil otherwise.
func attachChime(d *effect.Driver) *chime.Chime {
	if !withChime {
		return nil
	}
	c, err := chime.Open()
	if err != nil {
		slog.Warn("chime: audio unavailable", "error", err)
		return nil
	}
	d.OnScanReset(c.Ring)
	return c
}

func runWindow(cmd *cobra.Command, _ []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	g, err := game.NewGame(d)
	if err != nil {
		return err
	}
	if c := attachChime(d); c != nil {
		defer c.Close()
		g.ShowChimeLevel(c.Level)
	}
	return game.Run(g, config.WindowWidth, config.WindowHeight, config.WindowTitle)
}

func runTerm(cmd *cobra.Command, _ []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	if c := attachChime(d); c != nil {
		defer c.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return term.New(screen, d, termFPS).Run(ctx)
}

func runTrace(cmd *cobra.Command, _ []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	if traceDT <= 0 || traceTime <= 0 {
		return fmt.Errorf("trace: time and dt must be positive")
	}

	type pulse struct {
		at  float64
		dir scan.Direction
	}
	var pulses []pulse
	now := 0.0
	d.OnScanReset(func(dir scan.Direction) { pulses = append(pulses, pulse{now, dir}) })

	frames := int(math.Ceil(traceTime / traceDT))
	lookX := make([]float64, 0, frames)
	lookY := make([]float64, 0, frames)
	tilt := make([]float64, 0, frames)
	for i := 0; i <= frames; i++ {
		now = float64(i) * traceDT
		d.Tick(now)
		m := d.Motion()
		lookX = append(lookX, m.Look.X)
		lookY = append(lookY, m.Look.Y)
		tilt = append(tilt, d.Uniforms().Tilt)
	}

	for _, s := range []struct {
		caption string
		data    []float64
	}{
		{"look x (sway, damped)", lookX},
		{"look y (sway, damped)", lookY},
		{"tilt uniform", tilt},
	} {
		fmt.Println(asciigraph.Plot(s.data,
			asciigraph.Height(traceHeight),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}

	var b strings.Builder
	for _, p := range pulses {
		fmt.Fprintf(&b, "  %7.2fs  %s\n", p.at, p.dir)
	}
	fmt.Printf("scan pulses (%d):\n%s", len(pulses), b.String())
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	if pollSecs <= 0 {
		return fmt.Errorf("serve: poll interval must be positive")
	}
	relayCfg.PollInterval = time.Duration(pollSecs * float64(time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return relay.Run(ctx, relayCfg)
}

func runAdmin(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := admin.Dial(ctx, adminURL)
	if err != nil {
		return err
	}
	defer c.Close()
	return admin.Run(c)
}
