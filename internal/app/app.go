// Package app assembles the store, cache, assistant and services from
// configuration. The HTTP server and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"salesdesk/internal/cache"
	"salesdesk/internal/catalog"
	"salesdesk/internal/config"
	"salesdesk/internal/handler"
	"salesdesk/internal/logger"
	"salesdesk/internal/pipeline"
	"salesdesk/internal/repository"
	"salesdesk/internal/service"
)

// App holds everything a process needs to answer queries.
type App struct {
	Config   *config.Config
	Store    catalog.Store
	Repo     *repository.SQLRepository // nil with the memory store
	Cache    cache.Client
	OpenAI   *service.OpenAIClient
	Services handler.Services

	logger *zap.Logger
}

// New wires an App from cfg. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Config: cfg, logger: log}

	store, repo, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.Repo = repo

	a.Cache = OpenCache(ctx, cfg, log)
	a.OpenAI = service.NewOpenAIClient(&cfg.OpenAI, log)

	assistant := service.NewAssistantService(a.remote(), a.Cache, service.AssistantOptions{
		MaxContextUnits: cfg.Pipeline.MaxContextUnits,
		MaxContextFAQs:  cfg.Pipeline.MaxContextFAQs,
		CacheTTL:        cfg.Redis.TTL,
	}, log)
	if cfg.Store.SeedOnStart {
		// answers cached before the reseed may quote old prices
		if _, err := assistant.ForgetAnswers(ctx); err != nil {
			log.Warn("⚠️ could not drop cached answers after seeding", zap.Error(err))
		}
	}
	if cfg.Assistant.SemanticFAQs {
		if a.vectorsAvailable() {
			assistant.UseSemanticFAQs(a.OpenAI, repo)
			log.Info("✅ semantic FAQ selection enabled")
		} else {
			log.Warn("⚠️ semantic FAQ selection needs PostgreSQL and an embedding API, using leading FAQs")
		}
	}

	// a disabled assistant must reach the orchestrator as a nil interface
	var remoteStage pipeline.Assistant
	if assistant.Enabled() {
		remoteStage = assistant
	}
	orchestrator := pipeline.New(remoteStage, pipeline.Options{
		RemoteFirst:              cfg.Pipeline.RemoteFirst,
		NaturalLanguageMinLength: cfg.Pipeline.NaturalLangMinLen,
	}, log)

	var queryLog service.QueryLog
	if repo != nil && cfg.Store.LogQueries {
		queryLog = repo
	}

	var (
		embedder service.Embedder
		vectors  service.FAQVectorStore
	)
	if a.vectorsAvailable() {
		embedder = a.OpenAI
		vectors = repo
	}

	a.Services = handler.Services{
		Store:     store,
		Queries:   service.NewQueryService(store, orchestrator, queryLog, log),
		Search:    service.NewSearchService(store, nil, log),
		Assistant: assistant,
		Indexer:   service.NewFAQIndexer(store, embedder, vectors, log),
	}
	return a, nil
}

// remote picks the model behind the assistant, or nil when there is none.
func (a *App) remote() service.Answerer {
	cfg := a.Config
	switch cfg.Assistant.Mode {
	case "openai":
		if !a.OpenAI.IsEnabled() {
			a.logger.Warn("⚠️ OpenAI is disabled, the remote assistant stage is off",
				zap.String("hint", "set OPENAI_API_KEY to enable it"))
			return nil
		}
		a.logger.Info("✅ assistant uses the chat completion API",
			zap.String("api_base", cfg.OpenAI.APIBase),
			zap.String("model", cfg.OpenAI.ChatModel),
		)
		return service.NewLLMAssistant(a.OpenAI, service.LLMOptions{
			Model:            cfg.OpenAI.ChatModel,
			Temperature:      cfg.OpenAI.ChatTemperature,
			MaxTokens:        cfg.OpenAI.ChatMaxTokens,
			MaxPromptUnits:   cfg.Pipeline.MaxContextUnits,
			MaxPromptFAQs:    cfg.Pipeline.MaxContextFAQs,
			MaxRelevantUnits: cfg.Pipeline.MaxRelevantUnits,
		}, a.logger)
	case "http":
		a.logger.Info("✅ assistant uses an external endpoint", zap.String("url", cfg.Assistant.EndpointURL))
		return service.NewHTTPAssistant(cfg.Assistant.EndpointURL, cfg.Assistant.EndpointKey, cfg.Assistant.Timeout)
	default:
		a.logger.Info("remote assistant stage is off")
		return nil
	}
}

func (a *App) vectorsAvailable() bool {
	return a.Repo != nil && a.Repo.SupportsVectors() && a.OpenAI.IsEnabled()
}

// Close waits for pending query log writes, then closes the cache and the
// database.
func (a *App) Close() error {
	if a.Services.Queries != nil {
		a.Services.Queries.Wait()
	}
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Repo != nil {
		errs = append(errs, a.Repo.Close())
	}
	return errors.Join(errs...)
}

// OpenStore opens the configured store. SQL stores are migrated, and seeded
// from the fixture when SeedOnStart is set.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalog.Store, *repository.SQLRepository, error) {
	log = logger.OrNop(log)

	if cfg.Store.Driver == "memory" {
		f, err := catalog.LoadFixture(cfg.Store.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("✅ using in-memory catalogue",
			zap.Int("projects", len(f.Projects)),
			zap.Int("units", len(f.Units)),
			zap.Int("faqs", len(f.FAQs)),
		)
		return catalog.NewMemoryStore(f), nil, nil
	}

	repo, err := OpenRepository(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, err
	}
	if cfg.Store.SeedOnStart {
		f, err := catalog.LoadFixture(cfg.Store.FixturePath)
		if err == nil {
			err = repo.Seed(ctx, f)
		}
		if err != nil {
			_ = repo.Close()
			return nil, nil, err
		}
	}
	log.Info("✅ connected to database", zap.String("driver", repo.Driver()))
	return repo, repo, nil
}

// OpenRepository connects to the configured SQL database without migrating.
func OpenRepository(cfg *config.Config) (*repository.SQLRepository, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
			cfg.OpenAI.EmbeddingDimensions,
		)
	case "sqlite":
		return repository.NewSQLiteRepository(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("store driver %q has no database", cfg.Store.Driver)
	}
}

// OpenCache connects to Redis when configured. An unreachable Redis is not
// fatal; answers are then cached in memory.
func OpenCache(ctx context.Context, cfg *config.Config, log *zap.Logger) cache.Client {
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err == nil {
			log.Info("✅ connected to Redis", zap.String("addr", cfg.Redis.Addr))
			return client
		}
		log.Warn("⚠️ Redis unavailable, caching answers in memory", zap.Error(err))
	}
	return cache.NewMemoryClient(0)
}
