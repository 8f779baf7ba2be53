package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/clock/system"
	"github.com/JakeFAU/catalog-crawler/internal/config"
	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/dispatcher"
	collyfetcher "github.com/JakeFAU/catalog-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/catalog-crawler/internal/fetcher/headless"
	"github.com/JakeFAU/catalog-crawler/internal/hash/sha256"
	"github.com/JakeFAU/catalog-crawler/internal/headlines"
	"github.com/JakeFAU/catalog-crawler/internal/id/uuid"
	"github.com/JakeFAU/catalog-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/catalog-crawler/internal/storage/memory"
	"github.com/JakeFAU/catalog-crawler/internal/storage/postgres"
	redisstore "github.com/JakeFAU/catalog-crawler/internal/storage/redis"
)

// App holds the long-lived services built at startup and releases them on Close.
type App struct {
	Service *Service
	IDs     crawler.IDGenerator

	closers []func()
}

// Build constructs every dependency from cfg. It fails fast when the item
// store or the optional run ledger cannot be reached.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{IDs: uuid.New()}

	hasher := sha256.New()
	store, err := a.buildItemStore(ctx, cfg, hasher, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	history := memory.NewRunStore()
	recorders := fanoutRecorder{history}
	if cfg.DB.DSN != "" {
		runs, err := postgres.NewRunStore(ctx, postgres.RunStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect run ledger: %w", err)
		}
		a.closers = append(a.closers, runs.Close)
		if err := runs.EnsureTable(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("prepare run ledger: %w", err)
		}
		recorders = append(recorders, runs)
	}

	httpFetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
		Limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.HTTP.RatePerSecond,
			DefaultBurst: cfg.HTTP.RateBurst,
		}),
	})
	a.closers = append(a.closers, func() { _ = httpFetcher.Close() })

	var renderer crawler.Renderer = headless.NewStatic(httpFetcher)
	var catalogFetcher crawler.Fetcher = httpFetcher
	if cfg.Headless.Enabled {
		chrome := headless.NewChromedp(headless.Config{
			Endpoint:          cfg.Headless.Endpoint,
			UserAgent:         cfg.HTTP.UserAgent,
			NavigationTimeout: cfg.NavigationTimeout(),
			OpenTimeout:       cfg.SessionOpenTimeout(),
		})
		a.closers = append(a.closers, chrome.Close)
		renderer = chrome
		if cfg.Catalog.UseHeadless {
			catalogFetcher = chrome
		}
	}

	engine, err := catalog.New(catalog.Config{
		BaseURL:  cfg.Catalog.BaseURL,
		MinItems: cfg.Catalog.MinItems,
		MaxItems: cfg.Catalog.MaxItems,
		MaxPrice: cfg.Catalog.MaxPrice,
		Delay:    cfg.PolitenessDelay(),
	}, catalog.Deps{
		Fetcher:  catalogFetcher,
		Store:    store,
		Pool:     dispatcher.New(dispatcher.Policy{Workers: cfg.Catalog.Concurrency}),
		Clock:    system.New(),
		IDs:      a.IDs,
		Recorder: recorders,
		Logger:   logger.Named("catalog"),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build catalog engine: %w", err)
	}

	news, err := headlines.New(headlines.Config{
		BaseURL: cfg.Headlines.BaseURL,
		Wait:    cfg.HeadlineWait(),
	}, renderer, dispatcher.New(dispatcher.Policy{Workers: cfg.Headlines.Concurrency}), logger.Named("headlines"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build headline crawler: %w", err)
	}

	a.Service = NewService(engine, store, news, logger.Named("service")).WithRunHistory(history)
	logger.Info("application services initialized",
		zap.String("store", cfg.Storage.Backend),
		zap.Bool("headless", cfg.Headless.Enabled),
		zap.Bool("run_ledger", cfg.DB.DSN != ""),
	)
	return a, nil
}

func (a *App) buildItemStore(ctx context.Context, cfg config.Config, hasher crawler.Hasher, logger *zap.Logger) (crawler.ItemStore, error) {
	if cfg.Storage.Backend == config.StorageMemory {
		return memory.NewItemStore(hasher), nil
	}
	client, err := redisstore.NewClient(ctx, redisstore.ClientConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect item store: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	})
	return redisstore.New(client, hasher, logger.Named("store")), nil
}

// Close releases resources in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
