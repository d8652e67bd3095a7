package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vetroai/vetro/config"
	httpHandler "github.com/vetroai/vetro/internal/adapters/primary/http"
	"github.com/vetroai/vetro/internal/adapters/secondary/llm"
	"github.com/vetroai/vetro/internal/adapters/secondary/repository"
	"github.com/vetroai/vetro/internal/adapters/secondary/websearch"
	"github.com/vetroai/vetro/internal/core/ports"
	"github.com/vetroai/vetro/internal/core/services"
	"github.com/vetroai/vetro/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debugMode {
		logLevel = slog.LevelDebug
	}
	log := logger.New(logLevel, os.Stdout)
	log.Info("Starting VetroAI server")

	// Secrets (API keys, JWT secret) live in the environment, optionally
	// seeded from a local .env file
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded environment from .env")
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	var cfg *config.Config
	var err error

	if _, statErr := os.Stat(path); statErr == nil {
		log.Info("Loading configuration", "path", path)
		cfg, err = config.LoadConfig(path)
		if err != nil {
			log.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	} else {
		log.Info("No config file found, using defaults", "path", path)
		cfg = config.DefaultConfig()
		cfg.ApplyEnv()
		// First run: write the defaults so operators have a file to edit.
		// Secrets are excluded by their json tags and stay in the env.
		if err := config.SaveConfig(cfg, path); err != nil {
			log.Warn("Could not write default configuration", "path", path, "error", err)
		} else {
			log.Info("Wrote default configuration", "path", path)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		log.Error("VETRO_JWT_SECRET is not set")
		os.Exit(1)
	}

	log.Info("Initializing adapters")

	llmAdapter, err := llm.NewOllamaAdapter(&cfg.LLM, log)
	if err != nil {
		log.Error("Failed to initialize LLM adapter", "error", err)
		os.Exit(1)
	}

	repo, err := repository.NewSQLiteRepository(cfg.Auth.DatabasePath, log)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Auth.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	var webSearchAdapter ports.WebSearchPort
	if cfg.WebSearch.Enabled {
		log.Info("Initializing web search adapter", "provider", cfg.WebSearch.Provider)
		switch cfg.WebSearch.Provider {
		case "serpapi":
			webSearchAdapter = websearch.NewSerpAPIAdapter(&cfg.WebSearch, log)
		case "serper", "":
			webSearchAdapter = websearch.NewSerperAdapter(&cfg.WebSearch, log)
		default:
			log.Warn("Unknown web search provider, falling back to serper", "provider", cfg.WebSearch.Provider)
			webSearchAdapter = websearch.NewSerperAdapter(&cfg.WebSearch, log)
		}
	}

	chatService := services.NewChatService(llmAdapter, repo, webSearchAdapter, cfg, log)
	authService := services.NewAuthService(repo, &cfg.Auth, log)

	handler := httpHandler.NewHandler(chatService, authService, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // streamed LLM replies can run long
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
