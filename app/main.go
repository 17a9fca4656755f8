package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulstaab/headless-rss/app/api"
	"github.com/paulstaab/headless-rss/app/cfg"
	"github.com/paulstaab/headless-rss/app/content"
	"github.com/paulstaab/headless-rss/app/database"
	"github.com/paulstaab/headless-rss/app/email"
	"github.com/paulstaab/headless-rss/app/feed"
	"github.com/paulstaab/headless-rss/app/folder"
	"github.com/paulstaab/headless-rss/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting headless-rss", "version", c.Version)

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", c.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	folderRepo := database.NewFolderRepository(db)
	credentialRepo := database.NewCredentialRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	parser := feed.NewParser(c.UserAgent, c.AllowLocalURLs)
	extractor := content.NewExtractor(httpClient, c.UserAgent, c.AllowLocalURLs)
	llm := content.NewLLMClient(c.OpenAIAPIKey, c.OpenAIModel)
	if llm.Enabled() {
		slog.Info("LLM features enabled", "model", c.OpenAIModel)
	}

	feedService := feed.NewService(feedRepo, articleRepo, folderRepo, parser, extractor, llm)
	folderService := folder.NewService(folderRepo)
	emailService := email.NewService(credentialRepo, feedRepo, articleRepo, folderRepo, llm, nil)

	slog.Info("Starting background scheduler", "workers", c.WorkerCount,
		"sweep_interval_min", c.UpdateFrequencyMin)
	scheduler := tasks.NewScheduler(feedService, emailService)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(feedService, folderService, emailService, feedRepo, articleRepo)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
