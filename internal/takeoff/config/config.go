// Package config loads the CLI's configuration the way the teacher's
// core/backend/config does: a nested, mapstructure-tagged struct populated
// by viper from a YAML file, environment variables, and flag overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the extraction and verification CLI.
type Config struct {
	Evals    EvalsConfig    `mapstructure:"evals"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Improve  ImproveConfig  `mapstructure:"improve"`
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EvalsConfig locates the evaluation corpus on disk.
type EvalsConfig struct {
	Dir            string `mapstructure:"dir"`
	ManifestPath   string `mapstructure:"manifest_path"`
	FieldMapPath   string `mapstructure:"field_map_path"`
	ResultsSubdir  string `mapstructure:"results_subdir"`
	CacheVersion   int    `mapstructure:"cache_version"`
	InstructionDir string `mapstructure:"instruction_dir"`
}

// AgentConfig controls the external agent-executor contract.
type AgentConfig struct {
	Binary              string        `mapstructure:"binary"`
	DefaultTimeout      time.Duration `mapstructure:"default_timeout"`
	ExtendedTimeout     time.Duration `mapstructure:"extended_timeout"`
	SemaphoreCapacity   int           `mapstructure:"semaphore_capacity"`
	DomainRetryDelay    time.Duration `mapstructure:"domain_retry_delay"`
	DiscoveryRatePerSec float64       `mapstructure:"discovery_rate_per_sec"`
}

// CacheConfig holds sizing settings for the discovery hot cache;
// cache.NewHotCache does not read them and uses fixed sizes.
type CacheConfig struct {
	NumCounters int64 `mapstructure:"num_counters"`
	MaxCostMB   int64 `mapstructure:"max_cost_mb"`
}

// ImproveConfig controls the improvement loop defaults.
type ImproveConfig struct {
	Auto          bool   `mapstructure:"auto"`
	Focus         string `mapstructure:"focus"`
	CriticAgent   string `mapstructure:"critic_agent"`
	SkipExtract   bool   `mapstructure:"skip_extraction"`
	MaxSamples    int    `mapstructure:"max_failure_samples"`
	EnableGitAuto bool   `mapstructure:"enable_git_autocommit"`
}

// ServerConfig controls the optional read-mostly status server.
type ServerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PostgresConfig controls the optional cross-evaluation SQL mirror.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// BlobConfig controls the optional off-machine artifact mirror.
type BlobConfig struct {
	Provider string `mapstructure:"provider"` // "", "gcs", "s3", "azblob"
	Bucket   string `mapstructure:"bucket"`
}

// LoggingConfig controls the zap base logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Defaults returns the baseline configuration before any file/env/flag
// overrides are applied.
func Defaults() Config {
	return Config{
		Evals: EvalsConfig{
			Dir:            "evals",
			ManifestPath:   "evals/manifest.yaml",
			FieldMapPath:   "configs/field_mapping.yaml",
			ResultsSubdir:  "results",
			CacheVersion:   1,
			InstructionDir: ".claude/instructions",
		},
		Agent: AgentConfig{
			Binary:              "claude",
			DefaultTimeout:      300 * time.Second,
			ExtendedTimeout:     600 * time.Second,
			SemaphoreCapacity:   3,
			DomainRetryDelay:    2 * time.Second,
			DiscoveryRatePerSec: 1,
		},
		Cache: CacheConfig{
			NumCounters: 1e6,
			MaxCostMB:   32,
		},
		Improve: ImproveConfig{
			Auto:          false,
			CriticAgent:   "critic",
			MaxSamples:    20,
			EnableGitAuto: true,
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    ":8090",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads config from cfgFile (if non-empty), environment variables
// prefixed TITLE24_, and finally the compiled-in defaults, in viper's usual
// precedence order (explicit Set > flag > env > config file > default).
func Load(cfgFile string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("TITLE24")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only consults keys viper already knows, so every key is
	// bound explicitly; TITLE24_* values then apply even without a file.
	for _, key := range []string{
		"evals.dir", "evals.manifest_path", "evals.field_map_path", "evals.results_subdir", "evals.cache_version", "evals.instruction_dir",
		"agent.binary", "agent.default_timeout", "agent.extended_timeout", "agent.semaphore_capacity", "agent.domain_retry_delay", "agent.discovery_rate_per_sec",
		"cache.num_counters", "cache.max_cost_mb",
		"improve.auto", "improve.focus", "improve.critic_agent", "improve.skip_extraction", "improve.max_failure_samples", "improve.enable_git_autocommit",
		"server.enabled", "server.addr", "server.jwt_secret",
		"postgres.dsn", "blob.provider", "blob.bucket", "logging.level",
	} {
		_ = v.BindEnv(key)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}
