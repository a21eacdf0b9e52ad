package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchbook/api/server"
	"matchbook/infra/config"
	"matchbook/infra/feed"
	"matchbook/infra/log"
	"matchbook/infra/metrics"
	"matchbook/infra/outbox"
	"matchbook/jobs/broadcaster"
	"matchbook/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := log.New("info", false)
		l.Fatal().Err(err).Msg("config load failed")
	}
	logger := log.New(cfg.Logging.Level, cfg.Logging.Pretty)

	strategy, err := cfg.Strategy()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid fill strategy")
	}

	registry := metrics.Init()

	// ---------------- Outbox ----------------

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("outbox init failed")
	}
	defer ob.Close()

	// ---------------- Tape feed ----------------

	var tape feed.Publisher
	if cfg.Kafka.Enabled {
		kp := feed.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TapeTopic)
		defer kp.Close()
		tape = kp
	}

	// ---------------- Service ----------------

	svc, err := service.NewOrderService(cfg.Symbol, strategy, service.Options{
		Outbox: ob,
		Tape:   tape,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("service init failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---------------- Broadcaster ----------------

	if cfg.Kafka.Enabled {
		bc, err := broadcaster.New(
			ob,
			cfg.Kafka.Brokers,
			cfg.Kafka.FillTopic,
			time.Duration(cfg.Outbox.IntervalMillis)*time.Millisecond,
			logger,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("broadcaster init failed")
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	// ---------------- HTTP API ----------------

	srv := server.New(svc, registry, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("symbol", cfg.Symbol).Msg("matchbook listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---------------- Shutdown ----------------

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
}
