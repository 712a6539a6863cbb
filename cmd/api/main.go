package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-recorder/internal/config"
	"voice-recorder/internal/dialer"
	"voice-recorder/internal/events"
	"voice-recorder/internal/recordings"
	"voice-recorder/internal/telephony"
	"voice-recorder/pkg/logger"
	"voice-recorder/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	gateway, err := telephony.NewTwilioGateway(telephony.TwilioConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.FromNumber,
	})
	if err != nil {
		log.Error("telephony init failed", "err", err)
		os.Exit(1)
	}

	eventLog := events.NewService(events.NewPostgresRepo(db))

	recSvc := recordings.NewService(recordings.NewPostgresRepo(db), eventLog, recordings.ServiceConfig{
		FailureStatuses: cfg.Recording.FailureStatuses,
		MediaURL:        gateway.RecordingMediaURL,
	})

	limiter := dialer.NewRedisRateLimiter(rdb, "", cfg.Dialer.RatePerSecond, time.Second)
	dial := dialer.New(gateway, recSvc, limiter, eventLog, log, dialer.Config{
		MaxAttempts: cfg.Dialer.MaxAttempts,
		QueueSize:   cfg.Dialer.QueueSize,
	})
	go dial.Run(rootCtx)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, cfg, recSvc, dial)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
