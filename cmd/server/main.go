package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/yuvamcybercure/hrsync/internal/adapters/http"
	signalws "github.com/yuvamcybercure/hrsync/internal/adapters/signal"
	"github.com/yuvamcybercure/hrsync/internal/app"
	"github.com/yuvamcybercure/hrsync/internal/automation"
	"github.com/yuvamcybercure/hrsync/internal/config"
	"github.com/yuvamcybercure/hrsync/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	presence := app.NewPresence()
	rooms := app.NewRooms()
	ctrl := signalws.NewController(presence, rooms, signalws.Options{
		ReadLimit:       cfg.ReadLimit,
		PingPeriod:      cfg.PingPeriod,
		RingTimeout:     cfg.RingTimeout,
		EventRateLimit:  cfg.EventRateLimit,
		EventRateWindow: cfg.EventRateWindow,
	})

	if cfg.Automation.Enabled {
		loc, err := time.LoadLocation(cfg.Automation.Timezone)
		if err != nil {
			log.Fatal().Err(err).Str("tz", cfg.Automation.Timezone).Msg("bad automation timezone")
		}
		autoLogout := automation.NewAutoLogout(db.Organizations(), db.Attendance(), loc)
		autoAbsent := automation.NewAutoAbsent(db.Organizations(), db.Employees(), db.Attendance(), loc)
		sched, err := automation.NewScheduler(automation.SchedulerConfig{
			AutoLogoutSpec: cfg.Automation.AutoLogoutSpec,
			AutoAbsentSpec: cfg.Automation.AutoAbsentSpec,
			Location:       loc,
		}, autoLogout, autoAbsent)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build scheduler")
		}
		sched.Start()
		defer sched.Stop()
	}

	r := router.SetupRouter(ctx, cfg, ctrl, db)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("hrsync server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
