package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wnt/lpscout/internal/config"
	"github.com/wnt/lpscout/internal/database"
	"github.com/wnt/lpscout/internal/dexscreener"
	"github.com/wnt/lpscout/internal/jupiter"
	"github.com/wnt/lpscout/internal/leaderboard"
	"github.com/wnt/lpscout/internal/logger"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/opportunity"
	"github.com/wnt/lpscout/internal/queue"
	"github.com/wnt/lpscout/internal/worker"
)

func main() {
	envFile := flag.String("envFile", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	baseLogger := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(&cfg)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	meteoraClient := meteora.NewClient(cfg.MeteoraAPIURL, cfg.MeteoraAPIMaxTPS)
	marketClient := dexscreener.NewClient(cfg.DexScreenerAPIURL, cfg.MaxAddressesPerBatch, cfg.MaxURLLength, baseLogger)
	tokenClient := jupiter.NewClient(cfg.JupiterStrictURL, cfg.JupiterAllURL, cfg.JupiterPriceURL, baseLogger)

	engine := opportunity.NewEngine(meteoraClient, marketClient, tokenClient, cfg.MinLiquidityUSD, baseLogger)
	refresher := opportunity.NewRefresher(engine, cfg.RefreshInterval, baseLogger)
	go refresher.Run(ctx)

	store := leaderboard.NewStore(db, baseLogger)
	backfiller := leaderboard.NewBackfiller(store, meteoraClient, baseLogger)

	queueClient, err := queue.NewClient(cfg.RedisURL, baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer queueClient.Close()

	manager := worker.NewManager(&cfg, queueClient, backfiller, store, baseLogger)
	if err := manager.Start(); err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to start worker manager")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/opportunities", func(w http.ResponseWriter, r *http.Request) {
		snapshot := refresher.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			baseLogger.Error().Err(err).Msg("Failed to encode opportunities")
		}
	})
	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.Rankings(r.Context(), 100)
		if err != nil {
			http.Error(w, "failed to load rankings", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			baseLogger.Error().Err(err).Msg("Failed to encode leaderboard")
		}
	})

	server := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: mux,
	}
	go func() {
		baseLogger.Info().Str("port", cfg.MetricsPort).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			baseLogger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	baseLogger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := manager.Stop(); err != nil {
		baseLogger.Error().Err(err).Msg("Worker manager shutdown failed")
	}
}
