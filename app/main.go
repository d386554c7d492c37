package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wanderpress/wanderpress/app/aggregator"
	"github.com/wanderpress/wanderpress/app/api"
	"github.com/wanderpress/wanderpress/app/cfg"
	"github.com/wanderpress/wanderpress/app/database"
	"github.com/wanderpress/wanderpress/app/feed"
	"github.com/wanderpress/wanderpress/app/generator"
	"github.com/wanderpress/wanderpress/app/images"
	"github.com/wanderpress/wanderpress/app/jobqueue"
	"github.com/wanderpress/wanderpress/app/notify"
	"github.com/wanderpress/wanderpress/app/scheduler"
	"github.com/wanderpress/wanderpress/app/translation"
)

// cleanupRetention is how long finished clusters and orphaned
// fingerprints are kept before the daily cleanup job removes them.
const cleanupRetention = 30 * 24 * time.Hour

func main() {
	// Optional .env for local development; env vars win in production.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
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

	slog.Info("Starting WanderPress", "version", appCfg.Version)

	if appCfg.CohereAPIKey == "" {
		log.Fatal("COHERE_API_KEY is required: article generation cannot run without it")
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	fingerprintRepo := database.NewFingerprintRepository(db)
	clusterRepo := database.NewClusterRepository(db)
	contentRepo := database.NewContentRepository(db)
	translationRepo := database.NewTranslationRepository(db)

	registerFeeds(appCfg.FeedsDir, feedRepo)

	jobs := jobqueue.New(appCfg.JobMaxConcurrent, time.Duration(appCfg.JobTickInterval)*time.Second)

	textGen := generator.NewCohereGenerator(appCfg.CohereAPIKey, appCfg.CohereModel)

	var imageResolver images.Resolver
	if appCfg.UnsplashKey != "" {
		imageResolver = images.NewUnsplashResolver(appCfg.UnsplashKey)
	} else {
		slog.Warn("UNSPLASH_ACCESS_KEY not set, articles will be published without hero images")
	}

	// Without a translator there is no handler for translate jobs, so
	// merged articles must not enqueue them: pending jobs are exempt from
	// retention and would pile up for the process lifetime.
	var enqueueTranslation func(contentID string)
	if appCfg.GeminiAPIKey != "" {
		translator, err := translation.NewGeminiTranslator(context.Background(), appCfg.GeminiAPIKey, appCfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to create translator: %v", err)
		}
		fanout := translation.NewFanout(translator, contentRepo, translationRepo)

		jobs.RegisterHandler("translate", func(ctx context.Context, data any) (any, error) {
			contentID, ok := data.(string)
			if !ok {
				return nil, fmt.Errorf("translate job expects a content ID, got %T", data)
			}
			return fanout.TranslateContent(ctx, contentID)
		})
		enqueueTranslation = func(contentID string) {
			jobs.Add("translate", contentID, jobqueue.Options{Priority: 1})
		}
	} else {
		slog.Warn("GEMINI_API_KEY not set, articles will be published without translations")
	}

	orchestrator := generator.NewOrchestrator(textGen, imageResolver,
		clusterRepo, contentRepo, fingerprintRepo,
		time.Duration(appCfg.GenerateTimeout)*time.Second,
		enqueueTranslation)

	registerJobHandlers(jobs, appCfg, clusterRepo, fingerprintRepo)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	poller := feed.NewPoller(httpClient, appCfg.UserAgent)
	pipeline := aggregator.NewPipeline(poller, feedRepo, fingerprintRepo, clusterRepo, orchestrator)

	jobs.Start()
	defer jobs.Stop()

	emailEnabled := appCfg.SMTPAddr != "" && appCfg.SMTPFrom != "" && appCfg.SMTPTo != ""
	aggScheduler := scheduler.New(pipeline, time.Duration(appCfg.SchedulerInterval)*time.Minute,
		func(summary aggregator.RunSummary) {
			if !emailEnabled || len(summary.Errors) == 0 {
				return
			}
			jobs.Add("email", notify.Email{
				Subject: fmt.Sprintf("WanderPress: %d errors in last aggregation pass", len(summary.Errors)),
				Body: fmt.Sprintf("Feeds processed: %d\nItems found: %d\nDuplicates skipped: %d\n"+
					"Clusters created: %d\nArticles generated: %d\n\nErrors:\n%s",
					summary.FeedsProcessed, summary.ItemsFound, summary.DuplicatesSkipped,
					summary.ClustersCreated, summary.ArticlesGenerated, strings.Join(summary.Errors, "\n")),
			}, jobqueue.Options{})
		})
	aggScheduler.Start()
	defer aggScheduler.Stop()

	// Daily cleanup of finished clusters and orphaned fingerprints.
	cleanupDone := make(chan struct{})
	defer close(cleanupDone)
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupDone:
				return
			case <-ticker.C:
				jobs.Add("cleanup", nil, jobqueue.Options{})
			}
		}
	}()

	apiHandler := api.NewHandler(feedRepo, clusterRepo, pipeline, jobs)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // a synchronous pipeline run can be slow
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		baseUrl := appCfg.BaseUrl
		if baseUrl == "" {
			baseUrl = "http://localhost:" + appCfg.Port
		}
		slog.Info("HTTP server listening", "port", appCfg.Port, "base_url", baseUrl)
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

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and job queue are stopped via defer
	slog.Info("Shutdown complete")
}

// registerFeeds syncs the feed definition files into the feeds table.
// A broken definition is logged and skipped, it never blocks startup.
func registerFeeds(feedsDir string, feedRepo database.FeedRepository) {
	configs, err := feed.LoadConfigs(feedsDir)
	if err != nil {
		log.Fatalf("Failed to load feed definitions: %v", err)
	}
	if len(configs) == 0 {
		slog.Warn("No feed definitions found", "dir", feedsDir)
		return
	}

	registered := 0
	for _, fc := range configs {
		id, err := feedRepo.UpsertFeed(fc.Name, fc.URL, fc.Category, fc.Enabled)
		if err != nil {
			slog.Warn("Failed to register feed", "feed", fc.Name, "error", err)
			continue
		}
		slog.Info("Registered feed", "feed", fc.Name, "id", id, "category", fc.Category, "enabled", fc.Enabled)
		registered++
	}
	slog.Info("Feed registration complete", "registered", registered, "total", len(configs))
}

func registerJobHandlers(jobs *jobqueue.Queue, appCfg *cfg.Cfg,
	clusterRepo database.ClusterRepository, fingerprintRepo database.FingerprintRepository) {

	jobs.RegisterHandler("cleanup", func(ctx context.Context, _ any) (any, error) {
		cutoff := time.Now().UTC().Add(-cleanupRetention)

		clusters, err := clusterRepo.DeleteFinishedBefore(cutoff)
		if err != nil {
			return nil, err
		}
		fingerprints, err := fingerprintRepo.DeleteOrphanedBefore(cutoff)
		if err != nil {
			return nil, err
		}

		slog.Info("Cleanup completed", "clusters_deleted", clusters, "fingerprints_deleted", fingerprints)
		return map[string]int64{"clusters": clusters, "fingerprints": fingerprints}, nil
	})

	if appCfg.SMTPAddr != "" && appCfg.SMTPFrom != "" && appCfg.SMTPTo != "" {
		mailer := notify.NewMailer(appCfg.SMTPAddr, appCfg.SMTPFrom, appCfg.SMTPTo)
		jobs.RegisterHandler("email", func(ctx context.Context, data any) (any, error) {
			email, ok := data.(notify.Email)
			if !ok {
				return nil, fmt.Errorf("email job expects a notify.Email payload, got %T", data)
			}
			if strings.TrimSpace(email.Subject) == "" {
				return nil, fmt.Errorf("email job payload is missing a subject")
			}
			return nil, mailer.Send(email)
		})
	}
}
