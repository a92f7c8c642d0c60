package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	Pd "github.com/maroda/pulsemon/display"
	Pm "github.com/maroda/pulsemon/monitor"
	Po "github.com/maroda/pulsemon/obvy"
	Px "github.com/maroda/pulsemon/transport"
	"github.com/spf13/cobra"
)

var version = "dev"

type runOptions struct {
	config  string
	backend string
	tick    time.Duration
	web     string
	otel    string
	outputs []string
	tui     bool
	logFile string
	debug   bool
}

func main() {
	Pd.Version = version

	cmd := &cobra.Command{
		Use:   "pulsemon",
		Short: "Heart rate monitor with trend alerts",
		Long: `pulsemon samples a heart rate once per tick from a MAX30102 pulse sensor
or a simulator, keeps a short history, and shows either the latest value,
an on-demand reading, or a trend alert (HIGH, LOW, rising or falling rapidly).`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.AddCommand(runCmd(), dashboardCmd())

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runMonitor(cmd.Context(), cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "JSON config file")
	f.StringVarP(&opts.backend, "backend", "b", "simulator", "sample source: simulator or sensor")
	f.DurationVar(&opts.tick, "tick", time.Second, "monitor cycle period")
	f.StringVar(&opts.web, "web", ":8090", "web server address, empty to disable")
	f.StringVar(&opts.otel, "otel", "", "trace exporter: honeycomb or grafana")
	f.StringSliceVarP(&opts.outputs, "output", "o", nil, "outputs to enable: badger, midi, nats, mqtt, serial")
	f.BoolVar(&opts.tui, "tui", false, "show the terminal LED view")
	f.StringVar(&opts.logFile, "log", "pulsemon.log", "log file used while the terminal view is up")
	f.BoolVar(&opts.debug, "debug", false, "debug logging")
	return cmd
}

func dashboardCmd() *cobra.Command {
	var device, web string
	var baud int
	var debug bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the web dashboard for a monitor on a serial line",
		Long: `dashboard follows the BEAT, RATE and MODE lines a monitor writes to its
serial console and serves them as the web dashboard. A regular file
is read as a recording.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(os.Stderr, debug, false)
			if port := Pm.FillEnvVar("PORT"); port != "ENOENT" && !cmd.Flags().Changed("web") {
				web = ":" + port
			}
			return runDashboard(cmd.Context(), device, web, baud)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&device, "device", "d", "", "serial device or capture file, - for stdin")
	f.StringVar(&web, "web", ":3000", "web server address")
	f.IntVar(&baud, "baud", Px.DefaultBaud, "serial baud rate")
	f.BoolVar(&debug, "debug", false, "debug logging")
	cmd.MarkFlagRequired("device")
	return cmd
}

// loadConfig layers defaults, the config file, PULSEMON_* env and then flags
func loadConfig(cmd *cobra.Command, opts *runOptions) (*Pm.Config, error) {
	cfg := Pm.DefaultConfig()
	if opts.config != "" {
		var err error
		cfg, err = Pm.LoadConfigFileName(opts.config)
		if err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if flags.Changed("tick") {
		cfg.TickMillis = int(opts.tick / time.Millisecond)
	}
	if flags.Changed("web") {
		cfg.WebAddr = opts.web
	}
	if flags.Changed("output") {
		cfg.Outputs.Enabled = opts.outputs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogging sends colored logs to w, or plain text when w is a log file
func setupLogging(w io.Writer, debug, plain bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    plain,
	})))
}

// openTransport picks the sensor bus, the closer is never nil
func openTransport(cfg *Pm.Config) (Pm.Transport, func() error, error) {
	nop := func() error { return nil }
	if cfg.Backend != "sensor" {
		return nil, nop, nil
	}

	switch cfg.Transport {
	case "i2c":
		bus, err := Px.OpenLinuxBus(cfg.I2CDevice)
		if err != nil {
			return nil, nop, err
		}
		return Px.NewMAX30102(bus, cfg.I2CAddr), bus.Close, nil
	default:
		return Px.NewSynth(cfg.Sensor.SamplingRate, 72), nop, nil
	}
}

func runMonitor(ctx context.Context, cfg *Pm.Config, opts *runOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.tui {
		lf, err := os.OpenFile(opts.logFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		setupLogging(lf, opts.debug, true)
	} else {
		setupLogging(os.Stderr, opts.debug, false)
	}

	otelShutdown, err := Po.InitOTel(opts.otel)
	if err != nil {
		slog.Error("Tracing disabled", slog.Any("error", err))
	}
	defer otelShutdown()

	stats := Po.NewStatsInternal()

	tr, closeBus, err := openTransport(cfg)
	if err != nil {
		slog.Error("Could not open sensor bus", slog.Any("error", err))
		return err
	}
	defer closeBus()

	backend, err := Pm.BackendLookup(cfg.Backend, cfg, tr)
	if err != nil {
		return err
	}
	if sensor, ok := backend.(*Pm.Sensor); ok {
		sensor.OnBeat = func(_ float64, accepted bool) {
			stats.RecBeat(accepted)
		}
	}

	m := Pm.NewMonitor(backend, nil, cfg.Thresholds)
	m.Stats = stats

	var view *Pd.View
	if opts.tui {
		screen, err := Pd.GetTTY()
		if err != nil {
			return err
		}
		view = Pd.NewView(m, screen, stats)
		m.Renderer = view
	} else {
		view = Pd.NewView(m, nil, stats)
		m.Renderer = Pm.MultiRenderer{view, Pm.LogRenderer{}}
	}

	if err := Pd.InitOutputs(view, cfg.Outputs); err != nil {
		slog.Warn("Some outputs are disabled", slog.Any("error", err))
	}

	if err := startMonitor(m, view); err != nil {
		return err
	}

	sup := Pm.NewSupervisor(m, cfg.TickPeriod())
	sup.Start()

	if cfg.WebAddr != "" {
		view.Serve(cfg.WebAddr)
	}

	if view.Screen != nil {
		go func() {
			// a signal finalizes the screen, which ends Run
			<-ctx.Done()
			view.Screen.Fini()
		}()
		view.Run()
	} else {
		<-ctx.Done()
	}

	slog.Info("Shutting down", slog.String("session", m.Session))
	sup.Stop()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := view.Shutdown(shutCtx); err != nil {
		slog.Error("Web server shutdown", slog.Any("error", err))
	}

	m.Dump()
	return m.Close()
}

// startMonitor runs the backend Setup, on failure the screen and any
// outputs opened for the monitor are released
func startMonitor(m *Pm.Monitor, view *Pd.View) error {
	err := m.Start()
	if err == nil {
		return nil
	}

	if view.Screen != nil {
		view.Screen.Fini()
	}
	slog.Error("Monitor could not start", slog.Any("error", err))
	if cerr := m.Close(); cerr != nil {
		slog.Error("Closing outputs", slog.Any("error", cerr))
	}
	return err
}

func runDashboard(ctx context.Context, device, web string, baud int) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var in *os.File
	if device == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(device)
		if err != nil {
			return fmt.Errorf("open device: %w", err)
		}
		defer f.Close()
		if err := Px.SetRaw(f, baud); err != nil {
			return err
		}
		in = f
	}

	view := Pd.NewView(nil, nil, Po.NewStatsInternal())
	view.Serve(web)

	fed := make(chan error, 1)
	go func() {
		fed <- view.Dash.Feed(ctx, in)
	}()

	select {
	case err := <-fed:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Device read failed", slog.Any("error", err))
			return err
		}
		// a finished recording keeps serving its final state
		slog.Info("Device reached EOF, still serving", slog.String("device", device))
		<-ctx.Done()
	case <-ctx.Done():
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	return view.Shutdown(shutCtx)
}
