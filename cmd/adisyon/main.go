package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"adisyon-go/internal/app"
	"adisyon-go/internal/handlers"
	"adisyon-go/internal/ledger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, using environment variables")
	}

	cfg := app.Config{
		Addr:        getenv("ADDR", ":8080"),
		StaticDir:   getenv("STATIC_DIR", "public"),
		DatabaseURL: getenv("DATABASE_URL", "postgres://localhost:5432/adisyon?sslmode=disable"),
		TokenSecret: os.Getenv("TOKEN_SECRET"),
		TokenTTL:    24 * time.Hour,
		SeedUsers:   os.Getenv("SEED_USERS"),
	}
	if cfg.TokenSecret == "" {
		logger.Warn("TOKEN_SECRET not set, sessions will not survive a restart")
		cfg.TokenSecret = randomSecret()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The pool connects lazily: a briefly unreachable database delays the
	// first ledger write, never the boot.
	pg, err := ledger.OpenPG(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("ledger init failed", "err", err)
		os.Exit(1)
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		logger.Warn("ledger schema bootstrap failed, writes will retry against the existing schema", "err", err)
	}

	a := app.New(cfg, logger, pg)
	go a.Audit.Run(ctx)

	h := &handlers.Server{App: a, Log: logger}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", h.ServeWS)

	// The terminal pages themselves; the coordinator only hosts the files.
	if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 90 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	<-a.Audit.Done()
	logger.Info("shutdown complete")
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func randomSecret() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "adisyon-ephemeral-secret"
	}
	return hex.EncodeToString(b[:])
}
