package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/billed/internal/auth"
	"github.com/mmynk/billed/internal/blob"
	"github.com/mmynk/billed/internal/config"
	"github.com/mmynk/billed/internal/middleware"
	"github.com/mmynk/billed/internal/rpc"
	"github.com/mmynk/billed/internal/service"
	"github.com/mmynk/billed/internal/storage"
	"github.com/mmynk/billed/internal/storage/bolt"
	"github.com/mmynk/billed/internal/storage/sqlite"
	"github.com/mmynk/billed/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.StoreDriver, "database", cfg.DBPath)

	receipts, err := openReceipts(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize receipt storage", "backend", cfg.ReceiptsBackend, "error", err)
		os.Exit(1)
	}
	defer receipts.Close()
	logger.Info("Receipt storage initialized", "backend", cfg.ReceiptsBackend)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	if cfg.AdminEmail != "" {
		created, err := service.SeedAdmin(ctx, authenticator, store, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Error("Failed to seed admin account", "email", cfg.AdminEmail, "error", err)
			os.Exit(1)
		}
		if created {
			logger.Info("Admin account created", "email", cfg.AdminEmail)
		}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Register Connect services
	billPath, billHandler := rpc.NewBillServiceHandler(
		service.NewBillService(store, receipts, cfg.MaxReceiptBytes, logger),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor(logger)),
		connect.WithReadMaxBytes(int(cfg.MaxReceiptBytes*2)),
	)
	r.Mount(billPath, billHandler)

	authPath, authHandler := rpc.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, store, logger),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor(logger)),
	)
	r.Mount(authPath, authHandler)

	r.Get("/receipts/{key}", receiptHandler(receipts, logger))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr: addr,
		// Wrap with h2c for HTTP/2 without TLS (required for Connect)
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "bolt":
		return bolt.New(cfg.DBPath)
	default:
		return sqlite.New(cfg.DBPath)
	}
}

func openReceipts(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.ReceiptsBackend {
	case "gcs":
		return blob.NewGCSStore(ctx, cfg.GCSBucket)
	default:
		return blob.NewLocalStore(cfg.ReceiptsDir, cfg.PublicURL)
	}
}

// receiptHandler serves stored receipts for the preview modal.
func receiptHandler(receipts blob.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		rc, contentType, err := receipts.Open(r.Context(), key)
		switch {
		case errors.Is(err, blob.ErrNotFound), errors.Is(err, blob.ErrInvalidKey):
			http.NotFound(w, r)
			return
		case err != nil:
			logger.Error("Failed to open receipt", "key", key, "error", err)
			http.Error(w, "failed to open receipt", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "private, max-age=3600")
		if _, err := io.Copy(w, rc); err != nil {
			logger.Warn("Failed to stream receipt", "key", key, "error", err)
		}
	}
}
