// Package config loads layered pipeline configuration: built-in
// defaults, an optional YAML file, then environment variable
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/biomedkg/kgxchange/internal/secrets"
)

// Config holds all pipeline configuration.
type Config struct {
	Prefix        PrefixConfig        `yaml:"prefix"`
	Report        ReportConfig        `yaml:"report"`
	Cache         CacheConfig         `yaml:"cache"`
	GitHub        GitHubConfig        `yaml:"github"`
	PropertyGraph PropertyGraphConfig `yaml:"property_graph"`
	Vocab         VocabConfig         `yaml:"vocab"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
}

// PrefixConfig seeds the Prefix Manager.
type PrefixConfig struct {
	Default  string            `yaml:"default"`
	Bindings map[string]string `yaml:"bindings"`
	Priority []string          `yaml:"priority"`
}

// ReportConfig configures persisted run-report storage: a
// shared Postgres store for team mode, or a local SQLite store.
type ReportConfig struct {
	Backend     string `yaml:"backend"` // "postgres" or "sqlite"
	PostgresDSN string `yaml:"postgres_dsn"`
	LocalPath   string `yaml:"local_path"`
}

// CacheConfig configures the shared InfoRes/prefix-priority cache
// across concurrent runs.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// GitHubConfig configures the gh:// remote input resolver.
type GitHubConfig struct {
	Token     string `yaml:"token"`
	RateLimit int    `yaml:"rate_limit"` // requests per second
}

// PropertyGraphConfig configures the Neo4j-backed source/sink.
type PropertyGraphConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// VocabConfig configures the Vocabulary Service client.
type VocabConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// PipelineConfig holds run-wide knobs shared by every component.
type PipelineConfig struct {
	Streaming         bool `yaml:"streaming"`
	BatchSize         int  `yaml:"batch_size"`
	StrictCliqueMerge bool `yaml:"strict_clique_merge"`
}

// Default returns the built-in configuration baseline.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Prefix: PrefixConfig{
			Default: "biolink",
		},
		Report: ReportConfig{
			Backend:   "sqlite",
			LocalPath: filepath.Join(homeDir, ".kgxchange", "reports.db"),
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		PropertyGraph: PropertyGraphConfig{
			Database: "neo4j",
		},
		Pipeline: PipelineConfig{
			Streaming: true,
			BatchSize: 1000,
		},
	}
}

// Load reads configuration from path (or the standard search
// locations if path is empty), applying the default -> file -> env var
// precedence order.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("prefix", cfg.Prefix)
	v.SetDefault("report", cfg.Report)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("property_graph", cfg.PropertyGraph)
	v.SetDefault("vocab", cfg.Vocab)
	v.SetDefault("pipeline", cfg.Pipeline)

	v.SetEnvPrefix("KGX")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".kgxchange")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".kgxchange"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadEnvFiles() {
	envFiles := []string{".env.local", ".env", ".env.example"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err == nil {
				continue
			}
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".kgxchange", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}

	// Property graph credentials. Precedence: env var > keychain > file.
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.PropertyGraph.URI = uri
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		cfg.PropertyGraph.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		cfg.PropertyGraph.Password = pass
	} else if cfg.PropertyGraph.Password == "" {
		if secret, ok := lookupKeyring(secrets.ItemNeo4jPassword); ok {
			cfg.PropertyGraph.Password = secret
		}
	}

	if url := os.Getenv("VOCAB_URL"); url != "" {
		cfg.Vocab.URL = url
	}
	if key := os.Getenv("VOCAB_KEY"); key != "" {
		cfg.Vocab.Key = key
	} else if cfg.Vocab.Key == "" {
		if secret, ok := lookupKeyring(secrets.ItemVocabKey); ok {
			cfg.Vocab.Key = secret
		}
	}

	if backend := os.Getenv("REPORT_BACKEND"); backend != "" {
		cfg.Report.Backend = backend
	}
	if dsn := os.Getenv("REPORT_POSTGRES_DSN"); dsn != "" {
		cfg.Report.PostgresDSN = dsn
	}
	if path := os.Getenv("REPORT_LOCAL_PATH"); path != "" {
		cfg.Report.LocalPath = expandPath(path)
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Cache.RedisURL = url
	}

	if streaming := os.Getenv("PIPELINE_STREAMING"); streaming != "" {
		cfg.Pipeline.Streaming = streaming == "true"
	}
	if batch := os.Getenv("PIPELINE_BATCH_SIZE"); batch != "" {
		if n, err := strconv.Atoi(batch); err == nil {
			cfg.Pipeline.BatchSize = n
		}
	}
}

// lookupKeyring consults the OS keychain for item, treating any error
// (including an unavailable keychain on headless systems) as "not
// set" rather than failing config load.
func lookupKeyring(item string) (string, bool) {
	store := secrets.New(nil)
	value, err := store.Get(item)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save writes cfg to path as YAML via Viper.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("prefix", c.Prefix)
	v.Set("report", c.Report)
	v.Set("cache", c.Cache)
	v.Set("github", c.GitHub)
	v.Set("property_graph", c.PropertyGraph)
	v.Set("vocab", c.Vocab)
	v.Set("pipeline", c.Pipeline)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
