// Package main provides the music library browser entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	apiconnect "github.com/osa030/discographic/internal/api/connect"
	"github.com/osa030/discographic/internal/app/browser"
	"github.com/osa030/discographic/internal/app/notification"
	"github.com/osa030/discographic/internal/infra/catalog"
	"github.com/osa030/discographic/internal/infra/config"
	"github.com/osa030/discographic/internal/infra/logger"
	"github.com/osa030/discographic/internal/infra/player"
	"github.com/osa030/discographic/internal/ui"
)

var (
	app        = kingpin.New("discographic", "Music library browser")
	configPath = app.Flag("config", "Path to config file").Default("config/discographic.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout, discographic.log for tui)").String()

	// tui command
	tuiCmd = app.Command("tui", "Browse the collection in the terminal")
)

func init() {
	app.Command("serve", "Start the remote control server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// The terminal belongs to the UI, so the tui logs to a file
	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if command == tuiCmd.FullCommand() {
		loggerConfig.Output, loggerConfig.File = "file", "discographic.log"
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output, loggerConfig.File = "file", *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Error().Msgf("Failed to load config: %v", err)
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if command == tuiCmd.FullCommand() {
		err = runTUI(cfg)
	} else {
		err = runServer(cfg)
	}
	if err != nil {
		zlog.Error().Msgf("Exited with error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup wires the catalog client, playback device and controller.
// The returned cleanup closes the controller and the device.
func setup(ctx context.Context, cfg *config.Config) (*browser.Controller, func(), error) {
	client, err := catalog.New(catalog.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.CatalogTimeout(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create catalog client")
	}

	device, err := player.NewFromConfig(cfg.Playback)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create playback device")
	}
	if err := device.Open(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "failed to open playback device")
	}

	ctrl, err := browser.New(client, device, browser.Config{
		SourcePrefix:        client.SongURLPrefix(),
		MetadataConcurrency: cfg.Controller.MetadataConcurrency,
		AllowStaleResults:   !cfg.FenceStale(),
		EventBuffer:         cfg.Controller.EventBuffer,
	})
	if err != nil {
		_ = device.Close()
		return nil, nil, errors.Wrap(err, "failed to create controller")
	}

	cleanup := func() {
		ctrl.Close()
		if err := device.Close(); err != nil {
			zlog.Error().Msgf("Failed to close playback device: %v", err)
		}
	}
	return ctrl, cleanup, nil
}

// runTUI runs the terminal browser until the user quits.
func runTUI(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl, cleanup, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	go ctrl.Run(ctx)

	program := tea.NewProgram(ui.New(ctrl), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "terminal UI failed")
	}
	return nil
}

// runServer serves the remote control API until a shutdown signal arrives.
func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, cleanup, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	err = ctrl.LoadCollection(loadCtx)
	cancelLoad()
	if err != nil {
		// Clients can retry through LoadCollection
		zlog.Warn().Msgf("Initial collection load failed: %v", err)
	}

	notifications := notification.NewManager()
	svc := apiconnect.NewRemoteService(ctrl, notifications)

	mux := http.NewServeMux()
	path, handler := apiconnect.NewRemoteServiceHandler(svc)
	mux.Handle(path, handler)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Remote.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ctrl.Run(gctx)
		return nil
	})
	g.Go(func() error {
		notifications.Pump(gctx, ctrl.Events())
		return nil
	})
	g.Go(func() error {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Remote.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Terminate watch streams first so Shutdown does not wait on them
		svc.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Msgf("Failed to shutdown server: %v", err)
		}
		notifications.Close()
		return nil
	})

	err = g.Wait()
	zlog.Info().Msg("Server stopped")
	return err
}
