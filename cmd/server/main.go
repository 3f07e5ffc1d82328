package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/pgdash/canvaschart/internal/asset"
	"github.com/pgdash/canvaschart/internal/auth"
	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/config"
	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/export"
	"github.com/pgdash/canvaschart/internal/live"
	mw "github.com/pgdash/canvaschart/internal/middleware"
	"github.com/pgdash/canvaschart/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fonts, err := engine.NewFontMeasurer()
	if err != nil {
		slog.Error("load fonts", "error", err)
		os.Exit(1)
	}
	defer fonts.Close()

	// The sample source is optional; without it documents must carry
	// their samples inline.
	var (
		loader      document.Loader
		seriesStore *store.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		seriesStore = store.New(pool, cfg.MaxSamples, logger)
		if err := seriesStore.Migrate(ctx); err != nil {
			slog.Error("migrate", "error", err)
			os.Exit(1)
		}
		loader = seriesStore
	} else {
		slog.Warn("DATABASE_URL not set, stored series are unavailable")
	}

	authService := auth.NewService(cfg.AuthSecret)
	if !authService.Enabled() {
		slog.Warn("AUTH_SECRET not set, API is open")
	}

	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(&export.Renderer{
		Fonts:    fonts,
		Images:   assetHandler,
		Loader:   loader,
		Logger:   logger,
		Defaults: cfg.ChartDefaults(),
	})

	hub := live.NewHub(live.Options{
		Chart: chart.Options{
			Measurer:       fonts,
			ExtentDebounce: cfg.ExtentDebounce,
			ResizeSettle:   cfg.ResizeSettle,
			Logger:         logger,
		},
		Loader:   loader,
		Defaults: cfg.ChartDefaults(),
	})
	go hub.Run(ctx)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, hub.Sessions())
	}).Methods("GET")

	// Stored assets are public so exported SVGs can reference them.
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// API routes, protected when AUTH_SECRET is set
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/render", exportHandler.Render).Methods("POST", "OPTIONS")
	for _, kind := range []string{document.SampleTimeSeries, document.SampleDiagram} {
		api.HandleFunc("/samples/"+kind, exportHandler.Sample(kind)).Methods("GET")
	}
	api.HandleFunc("/assets", assetHandler.Upload).Methods("POST", "OPTIONS")
	if seriesStore != nil {
		seriesHandler := store.NewHandler(seriesStore)
		api.HandleFunc("/series", seriesHandler.List).Methods("GET")
		api.HandleFunc("/series/{name}/samples", seriesHandler.Append).Methods("POST", "OPTIONS")
	}

	// WebSocket endpoints. Browsers cannot set headers on the upgrade, so
	// the token travels as ?token=.
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authService.AuthMiddleware)
	serveWS := hub.ServeWS(cfg.OriginHosts())
	ws.HandleFunc("/sessions", serveWS)
	ws.HandleFunc("/sessions/{sessionId}", serveWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Close live sessions first so their clients see a clean close.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "database", cfg.DatabaseURL != "", "auth", authService.Enabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
