package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"snackzinabi/internal/api"
	"snackzinabi/internal/assistant"
	"snackzinabi/internal/config"
	"snackzinabi/internal/database"
	"snackzinabi/internal/extraction"
	"snackzinabi/internal/kitchen"
	"snackzinabi/internal/metrics"
	"snackzinabi/internal/repository"
	"snackzinabi/internal/workflow"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	if err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	bot, err := assistant.New(cfg.LLM, cfg.Menu)
	if err != nil {
		log.Fatalf("Failed to initialize assistant: %v", err)
	}

	collector := metrics.NewCollector()
	hub := kitchen.NewHub(log, collector)
	extractor := extraction.NewExtractor(cfg.ExtractionConfig())

	db := database.GetDB()
	transcripts := repository.NewTranscripts(db)
	orders := repository.NewOrders(db)
	users := repository.NewUsers(db)

	flow := workflow.New(extractor, transcripts, orders, hub, log, collector)

	server := api.NewServer(api.Deps{
		Users:       users,
		Transcripts: transcripts,
		Orders:      orders,
		Assistant:   bot,
		Flow:        flow,
		Extractor:   extractor,
		Hub:         hub,
		Auth: api.AuthConfig{
			Secret:   cfg.Auth.Secret,
			TokenTTL: time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
		},
		Log:     log,
		Metrics: collector,
	})

	go startMetricsServer(log, collector, cfg.Server.MetricsPort)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router,
	}

	// Graceful shutdown: stop accepting requests, then drain the in-flight
	// kitchen notifications before exiting.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("API server shutdown error")
		}
		flow.Wait()
	}()

	log.WithField("port", cfg.Server.Port).Info("Starting API server")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func startMetricsServer(log *logrus.Logger, collector *metrics.Collector, port int) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(collector.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.WithField("port", port).Info("Starting metrics server")
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Warn("Metrics server error")
	}
}
