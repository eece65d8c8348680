package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akmonengine/farmtruck/input"
	"github.com/akmonengine/farmtruck/internal/config"
	"github.com/akmonengine/farmtruck/internal/effects"
	"github.com/akmonengine/farmtruck/internal/journal"
	"github.com/akmonengine/farmtruck/internal/telemetry"
	"github.com/akmonengine/farmtruck/internal/transport/ws"
	"github.com/akmonengine/farmtruck/sim"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file (defaults when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("loading config")
	}
	logger := newLogger(cfg.Log)

	metrics, err := telemetry.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("creating metrics")
	}
	sink := effects.New(logger, metrics)
	keyboard := input.NewKeyboard()

	open := func() (*sim.Session, error) {
		opts := sim.Options{
			Config:   cfg,
			Logger:   logger,
			Effects:  sink,
			Keyboard: keyboard,
			Metrics:  metrics,
		}
		if cfg.Journal.Dir != "" {
			opts.Journal = journal.New(cfg.Journal.Dir)
		}
		return sim.NewSession(opts)
	}

	session, err := open()
	if err != nil {
		logger.Fatal().Err(err).Msg("starting session")
	}

	ctx, cancel := signalContext()
	defer cancel()

	server := ws.NewServer(keyboard, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ws", server.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	run(ctx, cancel, cfg, logger, server, &session, open)

	if err := session.Close(); err != nil {
		logger.Error().Err(err).Msg("closing session")
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

// run ticks the session at the physics rate until ctx ends or the session
// asks to exit. A reload swaps the session in place.
func run(ctx context.Context, cancel context.CancelFunc, cfg config.Config, logger zerolog.Logger, server *ws.Server, session **sim.Session, open func() (*sim.Session, error)) {
	ticker := time.NewTicker(time.Duration(cfg.Physics.Timestep * float64(time.Second)))
	defer ticker.Stop()

	every := uint64(max(cfg.Server.SnapshotEvery, 1))
	var ticks uint64
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-(*session).Requests():
			switch req {
			case sim.RequestExit:
				logger.Info().Msg("exit requested")
				cancel()
				return
			case sim.RequestReload:
				logger.Info().Msg("reloading")
				if err := (*session).Close(); err != nil {
					logger.Error().Err(err).Msg("closing session")
				}
				next, err := open()
				if err != nil {
					logger.Error().Err(err).Msg("reloading session")
					cancel()
					return
				}
				*session = next
			}
		case <-ticker.C:
			if _, err := (*session).Tick(ctx); err != nil {
				logger.Error().Err(err).Msg("tick failed")
				continue
			}
			ticks++
			if ticks%every == 0 {
				if err := server.Broadcast((*session).Snapshot()); err != nil {
					logger.Error().Err(err).Msg("broadcasting snapshot")
				}
			}
		}
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
