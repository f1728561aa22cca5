package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/noah-isme/sicali-client/api/swagger"
	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/gateway"
	"github.com/noah-isme/sicali-client/pkg/config"
	"github.com/noah-isme/sicali-client/pkg/logger"
)

// @title SICALI Dev Gateway
// @version 0.1.0
// @description Local proxy in front of the SICALI backend with health, metrics and export downloads
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	a, err := app.New(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to build application", "error", err)
	}
	defer a.Close()

	router, err := gateway.NewRouter(a)
	if err != nil {
		logr.Sugar().Fatalw("failed to build router", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("gateway starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("gateway failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("gateway shutdown", "error", err)
	}
	logr.Sugar().Info("gateway stopped")
}
