package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
)

// Config holds the seqclass configuration.
type Config struct {
	Databases      []DatabaseConfig     `yaml:"databases" toml:"databases"`
	Blast          BlastConfig          `yaml:"blast" toml:"blast"`
	Classification ClassificationConfig `yaml:"classification" toml:"classification"`
	Evaluation     EvaluationConfig     `yaml:"evaluation" toml:"evaluation"`
	Cache          CacheConfig          `yaml:"cache" toml:"cache"`
	Storage        StorageConfig        `yaml:"storage" toml:"storage"`
	Output         OutputConfig         `yaml:"output" toml:"output"`
	HTTP           HTTPConfig           `yaml:"http" toml:"http"`
	Auth           AuthConfig           `yaml:"auth" toml:"auth"`
	Logging        LoggingConfig        `yaml:"logging" toml:"logging"`
}

// DatabaseConfig describes one reference database.
type DatabaseConfig struct {
	Name  string `yaml:"name" toml:"name"`
	FASTA string `yaml:"fasta" toml:"fasta"`
	Path  string `yaml:"path" toml:"path"`   // index prefix (default: fasta without extension)
	Type  string `yaml:"type" toml:"type"`   // nucl, prot (default: nucl)
	Title string `yaml:"title" toml:"title"` // default: name
}

// BlastConfig holds search tool settings.
type BlastConfig struct {
	Program          string  `yaml:"program" toml:"program"` // blastn, blastp, blastx, tblastn, tblastx
	BinDir           string  `yaml:"bin_dir" toml:"bin_dir"`
	EValue           float64 `yaml:"evalue" toml:"evalue"`       // search cutoff, not the acceptance threshold
	WordSize         int     `yaml:"word_size" toml:"word_size"` // 0 = tool default
	MaxTargetSeqs    int     `yaml:"max_target_seqs" toml:"max_target_seqs"`
	Threads          int     `yaml:"threads" toml:"threads"`
	TimeoutSec       int     `yaml:"timeout_sec" toml:"timeout_sec"`
	ParallelSearches int     `yaml:"parallel_searches" toml:"parallel_searches"`
}

// ClassificationConfig holds acceptance thresholds and worker count.
type ClassificationConfig struct {
	EValueThreshold   *float64 `yaml:"e_value_threshold" toml:"e_value_threshold"`
	IdentityThreshold *float64 `yaml:"identity_threshold" toml:"identity_threshold"`
	Workers           int      `yaml:"workers" toml:"workers"`
}

// EvaluationConfig holds label comparison settings.
type EvaluationConfig struct {
	IgnoreCase bool `yaml:"ignore_case" toml:"ignore_case"`
}

// CacheConfig holds search hit cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled" toml:"enabled"`
	Driver           string   `yaml:"driver" toml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs" toml:"addrs"`
	Password         string   `yaml:"password" toml:"password"`
	TTLSec           int      `yaml:"ttl_sec" toml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix" toml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec" toml:"readiness_timeout_sec"`
}

// StorageConfig holds run history settings.
type StorageConfig struct {
	RunsDB string `yaml:"runs_db" toml:"runs_db"`
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" toml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec" toml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec" toml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec" toml:"shutdown_timeout_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys" toml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path. Files ending in .toml are parsed
// as TOML, everything else as YAML.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	allProtein := len(c.Databases) > 0
	for i := range c.Databases {
		if c.Databases[i].Type == "" {
			c.Databases[i].Type = string(database.Nucleotide)
		}
		if c.Databases[i].Type != string(database.Protein) {
			allProtein = false
		}
	}
	if c.Blast.Program == "" {
		c.Blast.Program = "blastn"
		if allProtein {
			c.Blast.Program = "blastp"
		}
	}
	if c.Blast.EValue <= 0 {
		c.Blast.EValue = 10
	}
	if c.Blast.MaxTargetSeqs <= 0 {
		c.Blast.MaxTargetSeqs = 5
	}
	if c.Blast.Threads <= 0 {
		c.Blast.Threads = 1
	}
	if c.Blast.TimeoutSec <= 0 {
		c.Blast.TimeoutSec = 300
	}
	if c.Blast.ParallelSearches <= 0 {
		c.Blast.ParallelSearches = runtime.NumCPU()
	}
	if c.Classification.EValueThreshold == nil {
		v := classification.DefaultEValueThreshold
		c.Classification.EValueThreshold = &v
	}
	if c.Classification.IdentityThreshold == nil {
		v := classification.DefaultIdentityThreshold
		c.Classification.IdentityThreshold = &v
	}
	if c.Classification.Workers <= 0 {
		c.Classification.Workers = runtime.NumCPU()
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "redis"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 60 * 60
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "seqclass:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Storage.RunsDB == "" {
		c.Storage.RunsDB = "seqclass-runs.db"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "results"
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if _, err := c.AllDatabases(); err != nil {
		return err
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("classification: %w", err)
	}
	switch c.Cache.Driver {
	case "", "redis", "valkey":
	default:
		return fmt.Errorf("cache.driver must be \"redis\" or \"valkey\", got %q", c.Cache.Driver)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return errors.New("cache.addrs is required when cache is enabled")
	}
	return nil
}

// Thresholds returns the acceptance thresholds.
func (c *Config) Thresholds() classification.Thresholds {
	th := classification.DefaultThresholds()
	if c.Classification.EValueThreshold != nil {
		th.EValue = *c.Classification.EValueThreshold
	}
	if c.Classification.IdentityThreshold != nil {
		th.Identity = *c.Classification.IdentityThreshold
	}
	return th
}

// SearchTimeout returns the per-search timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Blast.TimeoutSec) * time.Second
}

// CacheTTL returns the hit cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// AllDatabases converts every configured database, in order. Names must be unique.
func (c *Config) AllDatabases() ([]database.Database, error) {
	out := make([]database.Database, 0, len(c.Databases))
	seen := make(map[string]struct{}, len(c.Databases))
	for i, d := range c.Databases {
		db, err := database.New(d.Name, d.FASTA, d.Path, database.Type(d.Type), d.Title)
		if err != nil {
			return nil, fmt.Errorf("databases[%d]: %w", i, err)
		}
		if _, dup := seen[db.Name]; dup {
			return nil, fmt.Errorf("databases[%d]: duplicate name %q: %w", i, db.Name, domain.ErrInvalidConfig)
		}
		seen[db.Name] = struct{}{}
		out = append(out, db)
	}
	return out, nil
}

// SelectDatabases returns the named databases in the requested order, or all
// of them when names is empty.
func (c *Config) SelectDatabases(names []string) ([]database.Database, error) {
	all, err := c.AllDatabases()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]database.Database, len(all))
	for _, d := range all {
		byName[d.Name] = d
	}
	out := make([]database.Database, 0, len(names))
	for _, n := range names {
		d, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("database %q is not configured: %w", n, domain.ErrDatabaseNotFound)
		}
		out = append(out, d)
	}
	return out, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	for _, ext := range []string{".yaml", ".toml"} {
		filename := env + ext

		// 1. Check ./config/
		if path := filepath.Join("config", filename); fileExists(path) {
			return path
		}

		// 2. Check relative to the source file
		_, b, _, _ := runtime.Caller(0)
		projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
		if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
			return path
		}
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", env+".yaml")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
