package seqclass

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/db"
	dbRedis "github.com/kailas-cloud/seqclass/internal/db/redis"
	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
	"github.com/kailas-cloud/seqclass/internal/metrics"
	"github.com/kailas-cloud/seqclass/internal/repository/hitcache"
	"github.com/kailas-cloud/seqclass/internal/repository/runs"
	"github.com/kailas-cloud/seqclass/internal/transport/blast"
	classifyuc "github.com/kailas-cloud/seqclass/internal/usecase/classify"
	evaluateuc "github.com/kailas-cloud/seqclass/internal/usecase/evaluate"
	healthuc "github.com/kailas-cloud/seqclass/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced by mocks in tests.
type classifyUseCase interface {
	Search(ctx context.Context, queries []sequence.Record, dbs []database.Database) (hit.ResultSet, error)
	ClassifyResults(ctx context.Context, set hit.ResultSet, th classification.Thresholds) (classification.Outcome, error)
	SelectBest(hits []hit.Hit, th classification.Thresholds) (hit.Scored, bool, error)
}

type evaluateUseCase interface {
	Evaluate(ctx context.Context, params evaluation.Params, pred, truth map[string]string) (*evaluation.Run, error)
}

// Client is the seqclass SDK entry point.
type Client struct {
	cfg         *clientConfig
	store       db.Store
	runs        *runs.Store
	classifySvc classifyUseCase
	evalSvc     evaluateUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New creates a Client. When a cache is configured the provided context is
// used for its readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.thresholds.toDomain().Validate(); err != nil {
		return nil, fmt.Errorf("seqclass: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, obs: obs}
	if len(cfg.cacheAddrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("seqclass: create cache store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("seqclass: cache not ready: %w", err)
		}
		c.store = store
	}
	if cfg.runsDB != "" {
		rs, err := runs.Open(cfg.runsDB)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("seqclass: open run store: %w", err)
		}
		c.runs = rs
	}

	c.wire()
	return c, nil
}

func (c *Client) wire() {
	cfg := c.cfg
	runner := blast.NewRunner(&blast.Config{
		Program:       cfg.program,
		BinDir:        cfg.binDir,
		EValue:        cfg.searchEValue,
		WordSize:      cfg.wordSize,
		MaxTargetSeqs: cfg.maxTargetSeqs,
		Threads:       cfg.threads,
		Timeout:       cfg.timeout,
	})

	var searcher classifyuc.Searcher = runner
	var cachePinger healthuc.Pinger
	if c.store != nil {
		searcher = hitcache.New(runner, c.store, hitcache.Config{TTL: cfg.cacheTTL}, metrics.HitCacheTotal, zap.NewNop())
		cachePinger = c.store
	}

	// nil interface, not a typed nil pointer, when no run store is configured
	var runStore evaluateuc.RunStore
	var runsPinger healthuc.Pinger
	if c.runs != nil {
		runStore = c.runs
		runsPinger = c.runs
	}

	c.classifySvc = classifyuc.New(searcher, classifyuc.Config{
		Thresholds:       cfg.thresholds.toDomain(),
		Workers:          cfg.workers,
		ParallelSearches: cfg.parallelSearches,
	}, zap.NewNop())
	c.evalSvc = evaluateuc.New(runStore, evaluation.Options{IgnoreCase: cfg.ignoreCase}, zap.NewNop())
	c.healthSvc = healthuc.New(runner, cachePinger, runsPinger)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.runs != nil {
		_ = c.runs.Close()
	}
}

// Classify searches every query against every database and labels each query
// with its best accepted hit.
func (c *Client) Classify(ctx context.Context, queries []Query, dbs []Database) (res *Classification, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opClassify, start, err) }()

	if len(dbs) == 0 {
		return nil, fmt.Errorf("classify: at least one database is required: %w", ErrInvalidInput)
	}
	domDBs, err := databasesToDomain(dbs)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	set, err := c.classifySvc.Search(ctx, queriesToDomain(queries), domDBs)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	out, err := c.classifySvc.ClassifyResults(ctx, set, c.cfg.thresholds.toDomain())
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	res = classificationFromDomain(out)
	c.obs.observeClassification(res)
	return res, nil
}

// ClassifyHits labels queries from precomputed hits keyed by query id.
// One malformed hit fails the whole batch.
func (c *Client) ClassifyHits(ctx context.Context, results map[string][]Hit) (res *Classification, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opClassifyHits, start, err) }()

	set := make(hit.ResultSet, len(results))
	for q, hits := range results {
		set[q] = hitsToDomain(hits)
	}
	out, err := c.classifySvc.ClassifyResults(ctx, set, c.cfg.thresholds.toDomain())
	if err != nil {
		return nil, fmt.Errorf("classify hits: %w", err)
	}
	res = classificationFromDomain(out)
	c.obs.observeClassification(res)
	return res, nil
}

// SelectBest returns the best accepted hit of a single query. ok is false
// when no hit passes the thresholds.
func (c *Client) SelectBest(hits []Hit) (best ScoredHit, ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSelectBest, start, err) }()

	s, ok, err := c.classifySvc.SelectBest(hitsToDomain(hits), c.cfg.thresholds.toDomain())
	if err != nil {
		return ScoredHit{}, false, fmt.Errorf("select best: %w", err)
	}
	if !ok {
		return ScoredHit{}, false, nil
	}
	return scoredFromDomain(s), true, nil
}

// Evaluate scores predictions against ground truth. The run is persisted
// when a run store is configured.
func (c *Client) Evaluate(ctx context.Context, predictions, truth map[string]string) (ev *Evaluation, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opEvaluate, start, err) }()

	params := evaluation.Params{
		EValueThreshold:   c.cfg.thresholds.EValue,
		IdentityThreshold: c.cfg.thresholds.Identity,
		Program:           c.cfg.program,
		SearchEValue:      c.cfg.searchEValue,
		WordSize:          c.cfg.wordSize,
	}
	run, err := c.evalSvc.Evaluate(ctx, params, predictions, truth)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return &Evaluation{
		RunID:        run.ID,
		Total:        run.Metrics.Total,
		Correct:      run.Metrics.Correct,
		Accuracy:     run.Metrics.Accuracy,
		Unclassified: run.Metrics.Unclassified,
		Missing:      run.Metrics.Missing,
		Confusion:    run.Metrics.Confusion,
	}, nil
}
