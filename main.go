package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kova98/threadharvest/collector"
	"github.com/kova98/threadharvest/config"
	"github.com/kova98/threadharvest/data"
	"github.com/kova98/threadharvest/data/repos"
	"github.com/kova98/threadharvest/enums"
	"github.com/kova98/threadharvest/matchers"
	"github.com/kova98/threadharvest/metrics"
	"github.com/kova98/threadharvest/output"
	"github.com/kova98/threadharvest/seen"
	"github.com/kova98/threadharvest/sources"
)

func main() {
	config.LoadConfig()
	cfg := config.Config

	opts := slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(logger)

	runID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down, saving the current subreddit...")
		cancel()
	}()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewCollector(registry)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, registry, logger); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	pool, err := sources.NewClientPool(logger, cfg.ProxyURLs, cfg.HTTPTimeout, cfg.ProxyMinInterval)
	if err != nil {
		slog.Error("failed to create http clients", "error", err)
		os.Exit(1)
	}
	reddit := sources.NewRedditClient(logger, pool, recorder, sources.RedditConfig{
		ClientID:          cfg.RedditClientID,
		ClientSecret:      cfg.RedditClientSecret,
		UserAgent:         cfg.RedditUserAgent,
		AuthURL:           cfg.RedditAuthURL,
		APIURL:            cfg.RedditAPIURL,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	store, closeStore, err := seenStore(ctx, cfg, runID)
	if err != nil {
		slog.Error("failed to open seen store", "backend", cfg.SeenBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	seenSet := seen.NewLayered(logger, store)

	if err := output.PrepareDir(logger, cfg.DataDir, cfg.ClearDataDir); err != nil {
		slog.Error("failed to prepare data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	writer := output.NewWriter(logger, cfg.DataDir, cfg.Mode.Variant(), cfg.OutputFormat)

	var detector collector.LanguageDetector
	if cfg.DetectLanguage {
		detector = matchers.NewLanguageDetector()
	}
	extractor := collector.NewExtractor(logger, recorder, detector, cfg.ExcludedAuthors, cfg.Enrich)
	comments := collector.NewCommentCollector(logger, reddit, extractor, recorder, cfg.ExcludedAuthors, cfg.MaxComments)

	c := collector.NewCollector(logger, reddit, writer, comments, extractor, recorder, collector.Options{
		Mode:             cfg.Mode,
		Subreddits:       cfg.Subreddits,
		Keywords:         cfg.Keywords,
		ListingSort:      cfg.ListingSort,
		SearchSort:       cfg.SearchSort,
		SearchTimeFilter: cfg.SearchTimeFilter,
		WindowStart:      cfg.WindowStart,
		WindowEnd:        cfg.WindowEnd,
		MaxPosts:         cfg.MaxPosts,
		KeywordDelay:     cfg.KeywordDelay,
		SubredditDelay:   cfg.SubredditDelay,
		KeywordMatchMode: cfg.KeywordMatchMode,
	})

	summary := c.Run(ctx, runID, seenSet)
	summary.Print(os.Stdout)
	slog.Info("seen posts this run", "count", seenSet.Len(), "backend", cfg.SeenBackend)

	for host, stats := range pool.Stats() {
		slog.Debug("client stats", "host", host, "successes", stats.Successes, "failures", stats.Failures)
	}
}

// seenStore opens the persistent store shared between runs. The memory
// backend has none.
func seenStore(ctx context.Context, cfg config.AppConfig, runID uuid.UUID) (seen.Store, func(), error) {
	noop := func() {}

	switch cfg.SeenBackend {
	case enums.SeenBackendPostgres:
		db, err := sqlx.Connect("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		db.SetMaxOpenConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := data.RunMigrations(db.DB); err != nil {
			db.Close()
			return nil, noop, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				slog.Error("failed to close database connection", "error", err)
			}
		}
		return seen.NewPostgresStore(repos.NewSeenRepo(db), runID), closeDB, nil

	case enums.SeenBackendRedis:
		store, err := seen.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisSeenKey, cfg.SeenTTL)
		if err != nil {
			return nil, noop, err
		}
		closeRedis := func() {
			if err := store.Close(); err != nil {
				slog.Error("failed to close redis connection", "error", err)
			}
		}
		return store, closeRedis, nil

	case enums.SeenBackendMemcache:
		store, err := seen.NewMemcacheStore(cfg.MemcacheAddr, runID.String(), cfg.SeenTTL)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}

	return nil, noop, nil
}
