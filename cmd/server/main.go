package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/empathyengine/resonance/internal/config"
	"github.com/empathyengine/resonance/internal/logger"
	"github.com/empathyengine/resonance/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	srv, err := server.NewServer(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize server", "error", err.Error())
	}

	r := srv.SetupRouter()
	zlog.Info("starting server", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("server stopped", "error", err.Error())
	}
}
