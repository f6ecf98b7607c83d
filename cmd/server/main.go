package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
	"github.com/quantdesk/screener/internal/config"
	"github.com/quantdesk/screener/internal/scan"
	"github.com/quantdesk/screener/internal/screener"
	"github.com/quantdesk/screener/internal/server"
	"github.com/quantdesk/screener/internal/signal"
	"github.com/quantdesk/screener/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("SCREENER_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("brokerBaseURL", cfg.Broker.BaseURL),
		zap.Int("scanWorkers", cfg.Scan.Workers),
		zap.Int("watchlists", len(cfg.Watchlists)),
		zap.Bool("streamEnabled", cfg.Stream.Enabled),
	)

	// Build the broker client and the two scan pipelines on top of it
	client := broker.NewClient(
		cfg.Broker.BaseURL,
		cfg.Broker.APIKey,
		cfg.Broker.RatePerSecond,
		time.Duration(cfg.Broker.TimeoutSec)*time.Second,
		time.Duration(cfg.Broker.RetryDelaySec)*time.Second,
		cfg.Broker.RetryCount,
		logger,
	)

	params := signalParams(cfg)

	engine := signal.NewEngine(client, logger)
	income := scan.NewIncomeScanner(screener.New(client, logger), cfg.Scan.Workers, logger)
	signals := scan.NewSignalScanner(engine, params, cfg.Scan.Workers, logger)

	srv := server.NewServer(income, signals, engine, params, cfg, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal stream (optional)
	var hub *ws.Hub
	if cfg.Stream.Enabled {
		if _, ok := cfg.Watchlist(cfg.Stream.Watchlist); !ok {
			logger.Error("stream watchlist not found", zap.String("watchlist", cfg.Stream.Watchlist))
			return 1
		}

		validGroup := func(name string) bool {
			_, ok := cfg.Watchlist(name)
			return ok
		}
		hub = ws.NewHub(cfg.Stream.Watchlist, validGroup, logger)
		go hub.Run(ctx)

		interval := time.Duration(cfg.Stream.IntervalSec) * time.Second
		streamer := ws.NewStreamer(hub, signals, cfg.Watchlist, interval, logger)
		go streamer.Run(ctx)

		logger.Info("signal stream enabled",
			zap.String("defaultWatchlist", cfg.Stream.Watchlist),
			zap.Duration("interval", interval),
		)
	}

	router := server.NewRouter(srv, hub, logger)

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Cancel context to stop the stream components
	cancel()

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func signalParams(cfg *config.Config) signal.Params {
	params := signal.DefaultParams()
	if cfg.Signal.RSIPeriod > 0 {
		params.RSIPeriod = cfg.Signal.RSIPeriod
	}
	if cfg.Signal.BBPeriod > 0 {
		params.BBPeriod = cfg.Signal.BBPeriod
	}
	if cfg.Signal.BBDev > 0 {
		params.BBDev = cfg.Signal.BBDev
	}
	if cfg.Signal.ChartPeriodDays > 0 {
		params.ChartPeriodDays = cfg.Signal.ChartPeriodDays
	}
	if cfg.Signal.Oversold > 0 {
		params.Oversold = cfg.Signal.Oversold
	}
	if cfg.Signal.Overbought > 0 {
		params.Overbought = cfg.Signal.Overbought
	}
	return params
}
