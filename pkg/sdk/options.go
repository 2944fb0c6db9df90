package seqclass

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	thresholds       Thresholds
	workers          int
	parallelSearches int

	program       string
	binDir        string
	searchEValue  float64
	wordSize      int
	maxTargetSeqs int
	threads       int
	timeout       time.Duration

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	runsDB     string
	ignoreCase bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		thresholds:    DefaultThresholds(),
		program:       "blastn",
		searchEValue:  10,
		maxTargetSeqs: 5,
		threads:       1,
		timeout:       5 * time.Minute,
		cacheTTL:      7 * 24 * time.Hour,
	}
}

// WithThresholds sets the acceptance thresholds.
// Defaults: e-value <= 1e-5, identity >= 70.
func WithThresholds(t Thresholds) Option {
	return optionFunc(func(c *clientConfig) {
		c.thresholds = t
	})
}

// WithWorkers sets how many queries are ranked concurrently.
// Defaults to the number of CPUs.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithParallelSearches sets how many searches run at once.
// Defaults to the number of CPUs.
func WithParallelSearches(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.parallelSearches = n
	})
}

// WithBlast selects the search program (blastn, blastp, ...) and the
// directory holding the BLAST+ binaries. An empty binDir uses PATH.
func WithBlast(program, binDir string) Option {
	return optionFunc(func(c *clientConfig) {
		if program != "" {
			c.program = program
		}
		c.binDir = binDir
	})
}

// WithSearchParams sets the search cutoff e-value, word size (0 = tool
// default), the number of target sequences kept per database and threads
// per search.
func WithSearchParams(evalue float64, wordSize, maxTargetSeqs, threads int) Option {
	return optionFunc(func(c *clientConfig) {
		if evalue > 0 {
			c.searchEValue = evalue
		}
		c.wordSize = wordSize
		if maxTargetSeqs > 0 {
			c.maxTargetSeqs = maxTargetSeqs
		}
		if threads > 0 {
			c.threads = threads
		}
	})
}

// WithSearchTimeout bounds a single search. Default: 5 minutes.
func WithSearchTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRedisCache caches search hits in a Redis or Valkey instance.
// A ttl <= 0 keeps the default of 7 days.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	})
}

// WithRunStore persists evaluation runs in a SQLite file at path.
func WithRunStore(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.runsDB = path
	})
}

// WithIgnoreCase makes Evaluate compare labels case-insensitively.
func WithIgnoreCase() Option {
	return optionFunc(func(c *clientConfig) {
		c.ignoreCase = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
