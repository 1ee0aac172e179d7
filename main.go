package main

import (
	"context"
	"log"

	"ecttool/internal"
	"ecttool/internal/config"
	"ecttool/internal/container"
	"ecttool/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Logging.Level))
	internal.DefaultLogger = logger

	// Load the cohort and wire the services
	appContainer, err := container.FromConfig(context.Background(), appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	server, err := ui.NewServer(ui.ServerConfig{
		GinMode:        appConfig.Server.GinMode,
		RequestTimeout: appConfig.Server.RequestTimeout,
	}, appContainer.Reports, appContainer.Cohort, logger)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Health and metrics on their own port
	ops := ui.NewApp(appContainer.Registry, appContainer.Status)
	go func() {
		log.Printf("Ops server starting on :%s", appConfig.Server.MetricsPort)
		if err := ops.Start(":" + appConfig.Server.MetricsPort); err != nil {
			log.Printf("Ops server stopped: %v", err)
		}
	}()

	log.Printf("Server starting on :%s with %d patients", appConfig.Server.Port, appContainer.Cohort.Len())
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
