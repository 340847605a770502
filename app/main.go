package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/leafmark/leafmark/app/api"
	"github.com/leafmark/leafmark/app/archive"
	"github.com/leafmark/leafmark/app/cfg"
	"github.com/leafmark/leafmark/app/database"
	"github.com/leafmark/leafmark/app/jobs"
	"github.com/leafmark/leafmark/app/refresh"
	"github.com/leafmark/leafmark/app/scraper"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Leafmark server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	bookmarkRepo := database.NewBookmarkRepository(db)
	jobRepo := database.NewJobRepository(db)

	archiveStorage, err := archive.NewStorage(appCfg.ArchiveDir)
	if err != nil {
		slog.Error("Failed to initialize archive storage", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	downloader := scraper.NewHTTPDownloader(httpClient, appCfg.UserAgent)
	postprocessor := scraper.NewPostprocessor()

	feedScraper := scraper.NewFeedScraper(downloader, scraper.NewFeedExtractor(), postprocessor)
	bookmarkScraper := scraper.NewBookmarkScraper(downloader, scraper.NewBookmarkExtractor(), postprocessor)

	refresher := refresh.NewService(feedScraper, feedRepo, appCfg.RefreshConcurrency)

	queue := jobs.NewQueue(300)
	enqueuer := jobs.NewEnqueuer(queue, jobRepo)

	worker := jobs.NewWorker(queue, jobRepo)
	worker.Register(jobs.JobTypeScrapeFeed, jobs.NewScrapeFeedHandler(refresher))
	worker.Register(jobs.JobTypeScrapeBookmark, jobs.NewScrapeBookmarkHandler(bookmarkScraper, bookmarkRepo, enqueuer))
	worker.Register(jobs.JobTypeArchiveThumbnail, jobs.NewArchiveThumbnailHandler(downloader, archiveStorage, bookmarkRepo))
	worker.Register(jobs.JobTypeImportFeeds, jobs.NewImportFeedsHandler(feedRepo, enqueuer, appCfg.RefreshInterval))

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var workerWg sync.WaitGroup
	for i := 0; i < appCfg.WorkerCount; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			worker.Run(workerCtx)
		}()
	}
	slog.Info("Job workers started", "count", appCfg.WorkerCount)

	// Periodic refresh of all known feeds
	var tickerWg sync.WaitGroup
	tickerWg.Add(1)
	go func() {
		defer tickerWg.Done()

		ticker := time.NewTicker(time.Duration(appCfg.RefreshInterval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if err := refresher.RefreshAll(workerCtx); err != nil {
					slog.Error("Scheduled refresh batch failed", "error", err)
				}
			}
		}
	}()

	apiHandler := api.NewHandler(feedRepo, bookmarkRepo, jobRepo, refresher, feedScraper, bookmarkScraper, enqueuer)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Workers drain the buffered ids and exit once the closed queue is
	// empty; the context cancel only stops the refresh ticker.
	queue.Close()
	workerWg.Wait()
	cancelWorkers()
	tickerWg.Wait()

	slog.Info("Shutdown complete")
}
