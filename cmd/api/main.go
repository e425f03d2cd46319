package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ieeesb/interviewhub/internal/config"
	"github.com/ieeesb/interviewhub/internal/db"
	httpx "github.com/ieeesb/interviewhub/internal/http"
	"github.com/ieeesb/interviewhub/internal/mail"
	"github.com/ieeesb/interviewhub/internal/observability"
	"github.com/ieeesb/interviewhub/internal/realtime"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing
	shutdownTracer, err := observability.InitTracer(context.Background(), "interviewhub", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracing disabled", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// metrics registry
	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	// postgres
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureAdminUser(context.Background(), pool, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	// redis, for the realtime broadcast channel
	redisClient := realtime.New(realtime.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	// mail provider; without SMTP config credential mails only get logged
	var mailer mail.Mailer

	if cfg.SMTPHost != "" {
		mailer = mail.NewProtectedMailer(
			mail.NewSMTPMailer(mail.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.MailFrom,
			}),
			mail.ProtectedMailerConfig{},
		)
	} else {
		log.Warn("SMTP_HOST not set, using log mailer")
		mailer = mail.NewLogMailer()
	}

	// set up router
	router := httpx.NewRouter(httpx.Dependencies{
		Config:   cfg,
		Logger:   log,
		Pool:     pool,
		Redis:    redisClient,
		Mailer:   mailer,
		Prom:     prom,
		Registry: registry,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
