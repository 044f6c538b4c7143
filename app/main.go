package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/listing-comb/app/api"
	"github.com/lysyi3m/listing-comb/app/cfg"
	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/extract"
	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/lock"
	"github.com/lysyi3m/listing-comb/app/metrics"
	"github.com/lysyi3m/listing-comb/app/oracle"
	"github.com/lysyi3m/listing-comb/app/page"
	"github.com/lysyi3m/listing-comb/app/pipeline"
	"github.com/lysyi3m/listing-comb/app/store"
	"github.com/lysyi3m/listing-comb/app/tasks"
	"google.golang.org/api/sheets/v4"
)

func main() {
	config, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if config == nil {
		return
	}

	logLevel := slog.LevelInfo
	if config.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := run(config); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

type app struct {
	db          *database.DB
	table       store.Table
	configCache *feed.ConfigCache
	collector   *tasks.Collector
	runRepo     database.RunRepository
	cleanup     []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func run(config *cfg.Cfg) error {
	slog.Info("Starting Listing Comb",
		"version", config.Version,
		"mode", config.Mode,
		"feed_source", config.FeedSource,
		"store", config.Store,
		"timezone", config.Location.String())

	metrics.Init(config.Version, config.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, config)
	if err != nil {
		return err
	}
	defer a.close()

	if config.Mode == cfg.ModeServe {
		return serve(ctx, config, a)
	}

	task := tasks.NewCollectListingsTask(tasks.TriggerCLI, config.Location, a.collector)
	task.Start()
	if err := task.Execute(ctx); err != nil {
		return err
	}

	summary := task.Summary()
	slog.Info("Listing Comb run complete",
		"selected", summary.Selected,
		"processed", summary.Processed,
		"skipped", summary.Skipped)

	return nil
}

func build(ctx context.Context, config *cfg.Cfg) (*app, error) {
	a := &app{}

	db, err := database.NewConnection(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.cleanup = append(a.cleanup, func() { db.Close() })

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Database ready", "path", config.DBPath, "migration_version", version, "dirty", dirty)

	a.runRepo = database.NewRunRepository(db)

	var sheetsService *sheets.Service
	if config.UsesSheets() {
		credentials, err := config.GoogleCredentials()
		if err != nil {
			a.close()
			return nil, err
		}
		sheetsService, err = store.NewSheetsService(ctx, credentials)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	switch config.Store {
	case cfg.StoreSheets:
		a.table = store.NewSheetsTable(sheetsService, config.ResultSheetID, config.ResultSheetName)
	case cfg.StoreCSV:
		a.table, err = store.NewCSVTable(config.CSVPath)
		if err != nil {
			a.close()
			return nil, err
		}
	case cfg.StoreSQLite:
		a.table = database.NewRecordTable(db)
	default:
		a.close()
		return nil, fmt.Errorf("unknown store %q", config.Store)
	}

	httpClient := &http.Client{}

	var source feed.Source
	switch config.FeedSource {
	case cfg.SourceSheets:
		source = feed.NewSheetSource(store.NewSheetsTable(sheetsService, config.FeedSheetID, config.FeedSheetName))
	case cfg.SourceRSS:
		a.configCache = feed.NewConfigCache(config.FeedsDir)
		if err := a.configCache.Run(); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to load feed configurations: %w", err)
		}
		slog.Info("Feed configurations loaded", "dir", config.FeedsDir, "count", a.configCache.GetConfigCount())
		source = feed.NewRSSSource(a.configCache, httpClient, feed.NewParser(), config.UserAgent)
	default:
		a.close()
		return nil, fmt.Errorf("unknown feed source %q", config.FeedSource)
	}

	completer := oracle.NewClient(oracle.Options{
		APIKey:  config.OpenAIAPIKey,
		BaseURL: config.OpenAIBaseURL,
		Model:   config.OpenAIModel,
		Timeout: config.OracleTimeout,
	}, httpClient)

	fetcher := page.NewFetcher(httpClient, page.Options{
		UserAgent:       config.UserAgent,
		FrameSelector:   config.FrameSelector,
		ContentSelector: config.ContentSelector,
		Timeout:         config.FetchTimeout,
		Fallback:        config.ContentFallback == cfg.FallbackReadability,
	})

	runner := pipeline.NewRunner(fetcher, extract.NewExtractor(completer), a.table,
		pipeline.FixedPacer{Delay: config.PacingDelay})

	var locker lock.Locker = lock.NewLocalLocker()
	if config.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.cleanup = append(a.cleanup, func() { client.Close() })
		locker = lock.Chain(locker, lock.NewRedisLocker(client, lock.DefaultKey, config.LockTTL))
		slog.Info("Redis run lock enabled", "ttl", config.LockTTL)
	}

	a.collector = tasks.NewCollector(source, a.table, feed.NewSelector(config.Location), runner, a.runRepo, locker)

	return a, nil
}

func serve(ctx context.Context, config *cfg.Cfg, a *app) error {
	scheduler, err := tasks.NewScheduler(a.collector, a.configCache, config.Schedule, config.Location)
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	var records api.RecordCounter
	if counter, ok := a.table.(api.RecordCounter); ok {
		records = counter
	}

	handler := api.NewHandler(a.runRepo, records, a.configCache, scheduler, config.Version)
	server := api.NewServer(handler, config.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case serveErr = <-serverErrChan:
		slog.Error("Server error", "error", serveErr)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serveErr
}
