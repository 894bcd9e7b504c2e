// Command catloader crawls a GeoNetwork catalog and ingests every record
// into the retrieval stores. It is a one-shot batch job: run it, let it
// drain the catalog, read the summary line.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terralab/georag/internal/config"
	"github.com/terralab/georag/internal/db"
	dbMemory "github.com/terralab/georag/internal/db/memory"
	dbRedis "github.com/terralab/georag/internal/db/redis"
	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/record"
	logpkg "github.com/terralab/georag/internal/logger"
	"github.com/terralab/georag/internal/metrics"
	"github.com/terralab/georag/internal/repository/embcache"
	lexindexrepo "github.com/terralab/georag/internal/repository/lexindex"
	recordrepo "github.com/terralab/georag/internal/repository/record"
	vecindexrepo "github.com/terralab/georag/internal/repository/vecindex"
	"github.com/terralab/georag/internal/transport/geonetwork"
	openaiTransport "github.com/terralab/georag/internal/transport/openai"
	ingestuc "github.com/terralab/georag/internal/usecase/ingest"
	"github.com/terralab/georag/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalog loader",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("catalog", cfg.Catalog.BaseURL),
		zap.Int("batch_size", cfg.Catalog.BatchSize),
		zap.Int("workers", cfg.Catalog.Workers),
	)

	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	var embedder domain.Embedder = embcache.New(
		baseEmbedder, store,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)

	recordRepo := recordrepo.New(store)
	vecRepo := vecindexrepo.New(store, cfg.Embedding.Dimensions).WithHNSW(vecindexrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	lexRepo := lexindexrepo.New(store)

	if err := vecRepo.Ensure(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}
	if err := lexRepo.Ensure(ctx); err != nil {
		logger.Fatal("Failed to ensure lexical index", zap.Error(err))
	}

	ingestSvc := ingestuc.New(recordRepo, lexRepo, vecRepo, embedder, cfg.Ingest.LockShards)

	client := geonetwork.New(geonetwork.Config{
		BaseURL:        cfg.Catalog.BaseURL,
		SearchEndpoint: cfg.Catalog.SearchEndpoint,
		BatchSize:      cfg.Catalog.BatchSize,
		RequestsPerSec: cfg.Catalog.RequestsPerSec,
		UserAgent:      cfg.Catalog.UserAgent,
		Timeout:        time.Duration(cfg.Catalog.TimeoutSec) * time.Second,
	})

	stats, err := load(ctx, logger, client, ingestSvc, cfg.Catalog.Workers)
	if err != nil {
		logger.Fatal("Catalog load failed", zap.Error(err),
			zap.Int64("ingested", stats.ingested.Load()),
			zap.Int64("failed", stats.failed.Load()),
		)
	}

	logger.Info("Catalog load complete",
		zap.Int64("ingested", stats.ingested.Load()),
		zap.Int64("failed", stats.failed.Load()),
	)
}

type loadStats struct {
	ingested atomic.Int64
	failed   atomic.Int64
}

// load pages through the catalog and fans records out to a fixed worker
// pool. A dimension mismatch halts ingestion, so it aborts the crawl;
// individual record failures are logged and counted but do not stop it.
func load(
	ctx context.Context,
	logger *zap.Logger,
	client *geonetwork.Client,
	ingest *ingestuc.Service,
	workers int,
) (*loadStats, error) {
	if workers <= 0 {
		workers = 1
	}

	stats := &loadStats{}
	records := make(chan record.Record)

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for rec := range records {
				err := ingest.Ingest(ctx, rec)
				switch {
				case err == nil:
					stats.ingested.Add(1)
				case errors.Is(err, domain.ErrDimensionMismatch),
					errors.Is(err, domain.ErrIngestionHalted):
					// The halt is global: draining the rest of the
					// channel would only fail record by record.
					stats.failed.Add(1)
					return err
				default:
					stats.failed.Add(1)
					logger.Warn("record ingest failed",
						zap.String("record_id", rec.ID()), zap.Error(err))
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(records)
		_, err := client.Crawl(ctx, func(ctx context.Context, rec record.Record) error {
			select {
			case records <- rec:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		return err
	})

	return stats, g.Wait()
}
