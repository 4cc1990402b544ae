package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "github.com/noah-isme/openedx-sample-plugin/api/swagger"
	"github.com/noah-isme/openedx-sample-plugin/internal/server"
	"github.com/noah-isme/openedx-sample-plugin/pkg/config"
	"github.com/noah-isme/openedx-sample-plugin/pkg/logger"
	"github.com/noah-isme/openedx-sample-plugin/pkg/plugin"
)

// @title Open edX Sample Plugin
// @version 0.1.0
// @description Learning host with the sample plugin installed
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, err := server.Build(ctx, plugin.LMS, cfg, logger.Named(logr, "lms"))
	if err != nil {
		logr.Fatal("failed to build lms", zap.Error(err))
	}
	defer host.Close(context.Background()) //nolint:errcheck

	if err := host.Serve(ctx); err != nil {
		logr.Error("server failed", zap.Error(err))
	}
}
