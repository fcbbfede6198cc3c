// Package daemon implements the grootd commands.
package daemon

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/grootai/internal/config"
	"github.com/cloo-solutions/grootai/internal/conversation"
	"github.com/cloo-solutions/grootai/internal/database"
	"github.com/cloo-solutions/grootai/internal/fetch"
	"github.com/cloo-solutions/grootai/internal/jobs"
	"github.com/cloo-solutions/grootai/internal/openai"
	"github.com/cloo-solutions/grootai/internal/repository"
	"github.com/cloo-solutions/grootai/internal/search"
	"github.com/cloo-solutions/grootai/internal/service"
	"github.com/cloo-solutions/grootai/internal/storage"
	"github.com/cloo-solutions/grootai/internal/tools"
	"github.com/cloo-solutions/grootai/internal/weather"
	goopenai "github.com/sashabaranov/go-openai"
)

// scratchStore is satisfied by both the local and the S3 scratch stores.
type scratchStore interface {
	service.ScratchStore
	jobs.ScratchPruner
}

// Runtime holds everything one grootd process shares across tool calls.
type Runtime struct {
	Directory     *tools.Directory
	Conversations *conversation.Store
	Maintenance   *jobs.MaintenanceProcessor

	closers []func()
}

// Close releases database connections and other held resources.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

type runtimeOptions struct {
	migrate bool
}

// newRuntime wires providers from cfg. Tools whose provider is not
// configured stay listed and fail with PROVIDER_ERROR.
func newRuntime(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*Runtime, error) {
	rt := &Runtime{Conversations: conversation.NewStore()}

	scratch, err := newScratchStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Config{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.FetchMaxBytes,
	})

	maintenance := jobs.MaintenanceConfig{Scratch: scratch, ScratchTTL: cfg.ScratchTTL}
	var svc tools.Services

	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
			VisionModel:         cfg.VisionModel,
		})

		var embedder service.EmbeddingClient = client
		if cfg.HasEmbeddingCache() {
			cache, closePool, err := newEmbeddingCache(ctx, cfg, opts)
			if err != nil {
				rt.Close()
				return nil, err
			}
			rt.closers = append(rt.closers, closePool)
			embedder = service.NewCachedEmbeddingClient(client, cache, client.Model(), cfg.EmbeddingCacheTTL)
			maintenance.Cache = cache
			maintenance.CacheTTL = cfg.EmbeddingCacheTTL
			log.Printf("embedding cache enabled (ttl %s)", cfg.EmbeddingCacheTTL)
		}

		tokenizer, err := service.NewTiktokenTokenizer(cfg.TokenizerEncoding)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to load tokenizer: %w", err)
		}
		chunker := service.NewTokenChunker(tokenizer, service.ChunkConfig{
			MaxTokens: cfg.ChunkTokens,
			Overlap:   cfg.ChunkOverlap,
		})

		searcher := search.NewDuckDuckGoClient(search.Config{
			BaseURL:  cfg.SearchURL,
			Interval: cfg.SearchInterval,
		})

		svc.WebSearch = service.NewWebSearchService(searcher, fetcher, chunker, embedder, service.WebSearchConfig{
			MaxResults:       cfg.SearchMaxResults,
			TopK:             cfg.RetrieverK,
			FetchConcurrency: cfg.FetchConcurrency,
			Timeout:          cfg.PipelineTimeout,
		})
		svc.Visual = service.NewVisualService(fetcher, scratch, client)
	} else {
		log.Println("GROOT_OPENAI_API_KEY not set: web search and vision tools are unavailable")
	}

	if cfg.HasWeather() {
		client, err := weather.NewClient(weather.Config{
			BaseURL: cfg.WeatherAPIURL,
			APIKey:  cfg.WeatherAPIKey,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to create weather client: %w", err)
		}
		svc.Weather = service.NewWeatherService(client)
	} else {
		log.Println("GROOT_WEATHER_API_KEY not set: weather tool is unavailable")
	}

	dir, err := tools.Builtins(svc)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build tool directory: %w", err)
	}
	rt.Directory = dir
	rt.Maintenance = jobs.NewMaintenanceProcessor(maintenance)

	return rt, nil
}

func newScratchStore(ctx context.Context, cfg *config.Config) (scratchStore, error) {
	if !cfg.HasS3() {
		store, err := storage.NewLocalStore(cfg.ScratchDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch dir: %w", err)
		}
		return store, nil
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
	return client, nil
}

func newEmbeddingCache(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*repository.EmbeddingCacheRepository, func(), error) {
	if opts.migrate {
		if err := database.Migrate(cfg.DatabaseURL, database.DefaultMigrationsSource); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	return repository.NewEmbeddingCacheRepository(pool), pool.Close, nil
}
