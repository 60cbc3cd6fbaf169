package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mmynk/billed/internal/auth"
	"github.com/mmynk/billed/internal/client"
	"github.com/mmynk/billed/internal/config"
	"github.com/mmynk/billed/internal/web"
	"github.com/mmynk/billed/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(&http.Client{Timeout: cfg.RequestTimeout}, cfg.APIURL)
	front := web.New(web.NewClientAPI(api), auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL), web.Options{
		RequestTimeout:  cfg.RequestTimeout,
		FormTTL:         cfg.FormTTL,
		MaxReceiptBytes: cfg.MaxReceiptBytes,
		SecureCookie:    strings.HasPrefix(cfg.PublicURL, "https://"),
		Logger:          logger,
	})

	addr := fmt.Sprintf(":%d", cfg.WebPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           front.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down web front")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Web front shutdown error", "error", err)
		}
	}()

	logger.Info("Web front starting", "address", addr, "api", cfg.APIURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Web front failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Web front stopped")
}
