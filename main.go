package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/qqewq/harmonized-mind/internal"
	"github.com/qqewq/harmonized-mind/internal/config"
	"github.com/qqewq/harmonized-mind/internal/container"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level), appConfig.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		logger.Error("Failed to create application container: %v", err)
		os.Exit(1)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitHistory(ctx); err != nil {
		logger.Error("Failed to initialize history store: %v", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return appContainer.APIServer().Start(gctx)
	})
	if appConfig.Admin.Enabled {
		g.Go(func() error {
			return appContainer.AdminApp().Start(gctx)
		})
	}

	logger.Info("Harmonized Mind HRE serving on :%s (admin enabled: %t)", appConfig.Server.Port, appConfig.Admin.Enabled)
	if err := g.Wait(); err != nil {
		logger.Error("Server stopped: %v", err)
		appContainer.Shutdown(context.Background())
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
