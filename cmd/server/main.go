package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chall_zone/internal/api"
	"chall_zone/internal/app/service"
	"chall_zone/internal/common/security"
	"chall_zone/internal/domain/repository"
	"chall_zone/internal/platform/config"
	"chall_zone/internal/platform/database"
	"chall_zone/internal/platform/logger"
	"chall_zone/internal/platform/metrics"
	"chall_zone/internal/platform/session"
)

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	log := logger.New("chall_zone", cfg.LogLevel)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// 2. Database; the schema is in place before anything else touches it
	db, err := database.Open(startupCtx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("could not open database")
	}
	defer db.Close()

	m := metrics.New()
	m.WatchDB(db.DB(), "postgres")

	// 3. Redis session state
	rdb, err := session.Connect(startupCtx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("could not connect to redis")
	}
	defer rdb.Close()
	revocations := session.NewRevocationStore(rdb)

	// 4. Services
	tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)
	store := service.NewStore(db, repository.WithObserver(m))

	router := api.NewRouter(api.Deps{
		Auth:           service.NewAuthService(store, tokens, revocations, log),
		Challenges:     service.NewChallengeService(store, log),
		Replies:        service.NewReplyService(store, log),
		Votes:          service.NewVoteService(store),
		Profiles:       service.NewProfileService(store, log),
		Tokens:         tokens,
		Revocations:    revocations,
		Metrics:        m,
		Log:            log,
		MaxUploadBytes: cfg.MaxUploadBytes,
		HealthChecks: map[string]api.HealthCheck{
			"postgres": db.DB().PingContext,
			"redis":    revocations.Ping,
		},
	})

	// 5. HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.APIPort).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("could not listen")
		}
	}()

	<-stop

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
		return
	}
	log.Info("server stopped")
}
