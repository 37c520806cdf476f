package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"coursehub/backend/config"
	"coursehub/backend/routes"
	"coursehub/backend/services"
	"coursehub/backend/utils"
)

// @title Online Courses Platform API
// @version 1.0
// @description Courses, lessons, tasks, grading, comments, notifications and certificates.
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{Mode: cfg.LogMode})
	defer logger.Sync()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", "error", err)
	}

	svc, err := services.New(db, cfg, logger)
	if err != nil {
		logger.Fatal("Error initializing services", "error", err)
	}

	app := routes.NewApp(db, cfg, svc, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	// Start server
	logger.Info("server starting", "port", cfg.ServerPort, "prefix", cfg.APIPrefix)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
