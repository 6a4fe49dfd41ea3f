package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keymeter/typespeed/pkg/config"
	"github.com/keymeter/typespeed/pkg/meter"
	"github.com/keymeter/typespeed/pkg/source"
	"github.com/keymeter/typespeed/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configPath = flag.String("config", "/etc/typespeed/typespeedd.yaml", "Config file path")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	Version    = "dev"
)

// Daemon wires the meter to its HTTP surface and optional sample journal.
type Daemon struct {
	meter      *meter.Meter
	journal    *Journal
	logger     zerolog.Logger
	started    time.Time
	subscribed atomic.Bool
	version    string
}

func main() {
	flag.Parse()

	configureLogger()
	log.Info().Str("version", Version).Msg("typespeedd starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	applyLogging(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Endpoint != "" || cfg.Tracing.LogSpans {
		provider, err := telemetry.Setup(ctx, telemetry.Options{
			ServiceName:    "typespeedd",
			ServiceVersion: Version,
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRatio:    cfg.Tracing.SampleRatio,
			LogSpans:       cfg.Tracing.LogSpans,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	m := meter.New()
	m.Start()
	defer m.Stop()

	d := &Daemon{
		meter:   m,
		logger:  log.Logger,
		started: time.Now(),
		version: Version,
	}

	if cfg.History.Enable {
		journal, err := OpenJournal(cfg.History.Path, time.Duration(cfg.History.Interval)*time.Second, m)
		if err != nil {
			m.Stop() // leave no timer behind the fatal exit
			log.Fatal().Err(err).Msg("Failed to open sample journal")
		}
		journal.Start()
		defer journal.Stop()
		d.journal = journal
		log.Info().Str("path", cfg.History.Path).Int("interval_s", cfg.History.Interval).Msg("Sample journal enabled")
	}

	// A failed subscription degrades to a permanently zero rate; the
	// endpoint and the rotation tick do not depend on it.
	if cfg.Input.Enable {
		src := &source.Evdev{Dir: cfg.Input.Dir, Logger: log.Logger}
		d.subscribed.Store(true)
		go func() {
			err := src.Run(ctx, func(ev source.KeyEvent) {
				if meter.Countable(ev.Type, ev.Code, ev.Value) {
					m.Record()
				}
			})
			if err != nil && ctx.Err() == nil {
				d.subscribed.Store(false)
				log.Warn().Err(err).Msg("Keyboard subscription failed; rate stays at zero")
			}
		}()
	} else {
		log.Info().Msg("Keyboard capture disabled; rate stays at zero")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestContext(log.Logger))
	d.registerRoutes(r)

	srv := &http.Server{Addr: cfg.Listen, Handler: r}
	go func() {
		log.Info().Str("listen", cfg.Listen).Msg("Status endpoint published")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown failed")
	}

	log.Info().Uint64("total", m.Snapshot().Total).Msg("typespeedd exiting")
}

func configureLogger() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	level := zerolog.InfoLevel
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("TYPESPEED_LOG_LEVEL"))); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	log.Logger = newLogger(strings.EqualFold(os.Getenv("TYPESPEED_LOG_FORMAT"), "json")).Level(level)
	zerolog.SetGlobalLevel(level)
}

func applyLogging(cfg config.LoggingConfig) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil {
		level = parsed
	}
	log.Logger = newLogger(cfg.JSON).Level(level)
	zerolog.SetGlobalLevel(level)
}

func newLogger(json bool) zerolog.Logger {
	if json {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(writer).With().Timestamp().Logger()
}
