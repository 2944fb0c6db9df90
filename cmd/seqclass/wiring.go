package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/db"
	dbRedis "github.com/kailas-cloud/seqclass/internal/db/redis"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/metrics"
	"github.com/kailas-cloud/seqclass/internal/repository/hitcache"
	"github.com/kailas-cloud/seqclass/internal/repository/runs"
	"github.com/kailas-cloud/seqclass/internal/transport/blast"
	classifyuc "github.com/kailas-cloud/seqclass/internal/usecase/classify"
	evaluateuc "github.com/kailas-cloud/seqclass/internal/usecase/evaluate"
	healthuc "github.com/kailas-cloud/seqclass/internal/usecase/health"
	provisionuc "github.com/kailas-cloud/seqclass/internal/usecase/provision"
)

// services is the composition root shared by the subcommands.
type services struct {
	runner    *blast.Runner
	store     db.Store
	hits      *hitcache.CachedSearcher
	runs      *runs.Store
	classify  *classifyuc.Service
	provision *provisionuc.Service
	evaluate  *evaluateuc.Service
	health    *healthuc.Service
}

type wireOptions struct {
	cache bool // connect the hit cache when enabled in config
	runs  bool // open the run store
}

func (a *app) wire(ctx context.Context, opts wireOptions) (*services, error) {
	cfg := a.cfg
	logger := a.logger

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	s := &services{}
	s.runner = blast.NewRunner(&blast.Config{
		Program:       cfg.Blast.Program,
		BinDir:        cfg.Blast.BinDir,
		EValue:        cfg.Blast.EValue,
		WordSize:      cfg.Blast.WordSize,
		MaxTargetSeqs: cfg.Blast.MaxTargetSeqs,
		Threads:       cfg.Blast.Threads,
		Timeout:       cfg.SearchTimeout(),
		Logger:        logger,
	})

	var searcher classifyuc.Searcher = s.runner
	// Pass nil interfaces (not typed nil pointers) when a component is off.
	var purger provisionuc.CachePurger
	var cachePinger, runsPinger healthuc.Pinger

	if opts.cache && cfg.Cache.Enabled {
		logger.Info("Connecting to hit cache",
			zap.String("driver", cfg.Cache.Driver),
			zap.Strings("addrs", cfg.Cache.Addrs),
		)
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		s.store = store
		s.hits = hitcache.New(s.runner, store, hitcache.Config{
			KeyPrefix: cfg.Cache.KeyPrefix,
			TTL:       cfg.CacheTTL(),
		}, metrics.HitCacheTotal, logger)
		searcher = s.hits
		purger = s.hits
		cachePinger = store
	}

	var runStore evaluateuc.RunStore
	if opts.runs {
		rs, err := runs.Open(cfg.Storage.RunsDB)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open run store: %w", err)
		}
		s.runs = rs
		runStore = rs
		runsPinger = rs
	}

	s.classify = classifyuc.New(searcher, classifyuc.Config{
		Thresholds:       cfg.Thresholds(),
		Workers:          cfg.Classification.Workers,
		ParallelSearches: cfg.Blast.ParallelSearches,
	}, logger)
	s.provision = provisionuc.New(blast.NewBuilder(cfg.Blast.BinDir, logger), purger, logger)
	s.evaluate = evaluateuc.New(runStore, evaluation.Options{IgnoreCase: cfg.Evaluation.IgnoreCase}, logger)
	s.health = healthuc.New(s.runner, cachePinger, runsPinger)
	return s, nil
}

// Close releases the cache connection and the run store.
func (s *services) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.runs != nil {
		_ = s.runs.Close()
	}
}
