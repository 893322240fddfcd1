package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pdrew/stockfeed/internal/config"
	"github.com/pdrew/stockfeed/internal/connection"
	"github.com/pdrew/stockfeed/internal/feed"
	"github.com/pdrew/stockfeed/internal/metrics"
	"github.com/pdrew/stockfeed/internal/model"
	"github.com/pdrew/stockfeed/internal/pricegen"
	"github.com/pdrew/stockfeed/internal/store"
	"github.com/pdrew/stockfeed/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (built-in defaults if empty)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting feed",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	var cfg *config.FeedConfig
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"endpoint", cfg.Transport.URL,
		"instruments", len(cfg.Instruments),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Seed the instrument universe and its generators
	seed := make([]model.Instrument, 0, len(cfg.Instruments))
	for _, s := range cfg.Instruments {
		seed = append(seed, s.ToModel())
	}

	st := store.New(store.Config{FlashDuration: cfg.Feed.FlashDuration}, seed, logger)
	defer st.Close()

	genCfg := pricegen.Config{Volatility: cfg.Feed.Volatility}
	gens := make(map[string]*pricegen.Generator, len(seed))
	for _, inst := range seed {
		gens[inst.Symbol] = pricegen.New(genCfg, inst.Price, nil)
	}

	// Transport connection
	clientCfg := connection.ClientConfig{
		URL:              cfg.Transport.URL,
		HandshakeTimeout: cfg.Transport.HandshakeTimeout,
		WriteTimeout:     cfg.Transport.WriteTimeout,
		BufferSize:       cfg.Transport.BufferSize,
	}
	conn := connection.NewClient(clientCfg, logger)

	// Scheduler
	reg := metrics.NewRegistry()
	schedCfg := feed.Config{
		TickInterval: cfg.Feed.TickInterval,
		ConnectGrace: cfg.Feed.ConnectGrace,
	}
	sched := feed.New(schedCfg, conn, st, gens, logger, reg)

	// Ops HTTP server
	opsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createOpsHandler(ctx, cfg, sched, conn, st, reg, logger),
	}

	go func() {
		logger.Info("starting ops server", "port", cfg.Metrics.Port)
		if err := opsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("ops server error", "error", err)
		}
	}()

	// Start the feed
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start feed", "error", err)
		os.Exit(1)
	}

	logger.Info("feed process running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	opsServer.Shutdown(shutdownCtx)

	logger.Info("feed stopped")
}

// instrumentView is the JSON shape served for one instrument.
type instrumentView struct {
	Symbol        string    `json:"symbol"`
	CompanyName   string    `json:"company_name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	PreviousPrice float64   `json:"previous_price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	LastUpdated   time.Time `json:"last_updated"`
	Flashing      bool      `json:"flashing"`
}

func toView(inst model.Instrument, flashing bool) instrumentView {
	return instrumentView{
		Symbol:        inst.Symbol,
		CompanyName:   inst.CompanyName,
		Description:   inst.Description,
		Price:         inst.Price,
		PreviousPrice: inst.PreviousPrice,
		Change:        inst.PriceChange(),
		ChangePercent: inst.PriceChangePercent(),
		LastUpdated:   inst.LastUpdated,
		Flashing:      flashing,
	}
}

// createOpsHandler builds the HTTP surface: health, instrument views,
// deep-link lookup, start/stop toggles, and metrics.
func createOpsHandler(
	ctx context.Context,
	cfg *config.FeedConfig,
	sched *feed.Scheduler,
	conn connection.Client,
	st *store.Store,
	reg *metrics.Registry,
	logger *slog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status      string `json:"status"`
			Running     bool   `json:"running"`
			Connection  string `json:"connection"`
			Instruments int    `json:"instruments"`
			LastError   string `json:"last_error,omitempty"`
		}{
			Status:      "healthy",
			Running:     sched.Running(),
			Connection:  string(conn.State()),
			Instruments: st.Len(),
		}

		if err := conn.LastError(); err != nil {
			health.LastError = err.Error()
		}
		if !health.Running {
			health.Status = "inactive"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("GET /instruments", func(w http.ResponseWriter, r *http.Request) {
		snap := st.Snapshot()

		views := make([]instrumentView, 0, len(snap))
		for _, inst := range snap {
			views = append(views, toView(inst, st.IsFlashing(inst.Symbol)))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":       len(views),
			"instruments": views,
		})
	})

	// Deep-link lookup: symbols are case-normalized at this boundary.
	mux.HandleFunc("GET /instruments/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(r.PathValue("symbol"))

		inst, ok := st.SelectBySymbol(symbol)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown symbol %q", symbol), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toView(inst, st.IsFlashing(symbol)))
	})

	mux.HandleFunc("POST /feed/start", func(w http.ResponseWriter, r *http.Request) {
		if err := sched.Start(ctx); err != nil {
			logger.Error("start request failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"running": sched.Running()})
	})

	mux.HandleFunc("POST /feed/stop", func(w http.ResponseWriter, r *http.Request) {
		sched.Stop()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"running": sched.Running()})
	})

	mux.Handle("GET "+cfg.Metrics.Path, reg.Handler())

	return mux
}
