package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"venuedir/internal/app"
	"venuedir/pkg/config"
	"venuedir/pkg/logger"
)

// build metadata, set via ldflags during release
var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseFlags()
	cfg, err := config.LoadEffective(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.Logging.Level)
	defer logger.Sync()

	a, err := app.New(cfg, version)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
