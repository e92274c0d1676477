package config

import (
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/visibility-cli/internal/cost"
	"github.com/sells-group/visibility-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Pool       PoolConfig       `yaml:"pool" mapstructure:"pool"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
	// SearchModel answers grounded audit queries.
	SearchModel string `yaml:"search_model" mapstructure:"search_model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Model     string  `yaml:"model" mapstructure:"model"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// JinaConfig holds Jina Reader and Search settings.
type JinaConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string  `yaml:"search_base_url" mapstructure:"search_base_url"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// FirecrawlConfig holds Firecrawl settings. The homepage reader only falls
// back to Firecrawl when a key is set.
type FirecrawlConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RetryConfig is the retry policy applied to provider calls.
type RetryConfig struct {
	MaxRetries           int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialDelay         time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay             time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	BackoffMultiplier    float64       `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	RetryableStatusCodes []int         `yaml:"retryable_status_codes" mapstructure:"retryable_status_codes"`
}

// Policy converts the config into a validated retry policy.
func (r RetryConfig) Policy() (resilience.RetryPolicy, error) {
	p := resilience.RetryPolicy{
		MaxRetries:           r.MaxRetries,
		InitialDelay:         r.InitialDelay,
		MaxDelay:             r.MaxDelay,
		BackoffMultiplier:    r.BackoffMultiplier,
		RetryableStatusCodes: slices.Clone(r.RetryableStatusCodes),
	}
	if err := p.Validate(); err != nil {
		return resilience.RetryPolicy{}, eris.Wrap(err, "config: retry")
	}
	return p, nil
}

// CircuitConfig configures the per-provider circuit breakers.
type CircuitConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CoolDown         time.Duration `yaml:"cool_down" mapstructure:"cool_down"`
}

// Breaker converts the config for resilience.NewBreaker.
func (c CircuitConfig) Breaker() resilience.CircuitConfig {
	return resilience.CircuitConfig{FailureThreshold: c.FailureThreshold, CoolDown: c.CoolDown}
}

// PoolConfig bounds fan-out concurrency.
type PoolConfig struct {
	// LLMWorkers bounds concurrent completions within a stage.
	LLMWorkers int `yaml:"llm_workers" mapstructure:"llm_workers"`
	// SearchWorkers bounds concurrent queries per audit provider.
	SearchWorkers int `yaml:"search_workers" mapstructure:"search_workers"`
}

// PipelineConfig configures an audit run.
type PipelineConfig struct {
	Brand      BrandConfig `yaml:"brand" mapstructure:"brand"`
	WizardPath string      `yaml:"wizard_path" mapstructure:"wizard_path"`
	Stages     StageConfig `yaml:"stages" mapstructure:"stages"`
	// Providers lists the answer engines audited: perplexity, gemini, jina.
	Providers  []string `yaml:"providers" mapstructure:"providers"`
	SampleSize int      `yaml:"sample_size" mapstructure:"sample_size"`
	SampleSeed uint64   `yaml:"sample_seed" mapstructure:"sample_seed"`
	// LLM selects the completion provider: anthropic or gemini.
	LLM string `yaml:"llm" mapstructure:"llm"`
}

// BrandConfig seeds the context stage when no wizard export is given.
type BrandConfig struct {
	Name           string   `yaml:"name" mapstructure:"name"`
	ShortName      string   `yaml:"short_name" mapstructure:"short_name"`
	Domain         string   `yaml:"domain" mapstructure:"domain"`
	Sector         string   `yaml:"sector" mapstructure:"sector"`
	Language       string   `yaml:"language" mapstructure:"language"`
	Country        string   `yaml:"country" mapstructure:"country"`
	SeedKeywords   []string `yaml:"seed_keywords" mapstructure:"seed_keywords"`
	CustomKeywords []string `yaml:"custom_keywords" mapstructure:"custom_keywords"`
}

// StageConfig tunes the default stage collaborators.
type StageConfig struct {
	FixAttempts      int `yaml:"fix_attempts" mapstructure:"fix_attempts"`
	MaxCompetitors   int `yaml:"max_competitors" mapstructure:"max_competitors"`
	MaxPersonas      int `yaml:"max_personas" mapstructure:"max_personas"`
	KeywordsPerStage int `yaml:"keywords_per_stage" mapstructure:"keywords_per_stage"`
}

// StoreConfig configures the checkpoint backend.
type StoreConfig struct {
	// Backend is file, sqlite or postgres.
	Backend     string `yaml:"backend" mapstructure:"backend"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// RunKey names the run row in database backends.
	RunKey string `yaml:"run_key" mapstructure:"run_key"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ReportConfig configures the visibility report.
type ReportConfig struct {
	Output     string `yaml:"output" mapstructure:"output"`
	StripQuery bool   `yaml:"strip_query" mapstructure:"strip_query"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VISIBILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are only read from the environment once bound.
	for _, key := range []string{
		"anthropic.key", "anthropic.base_url",
		"gemini.key", "gemini.base_url",
		"perplexity.key", "jina.key", "firecrawl.key",
		"store.database_url", "store.run_key",
		"pipeline.wizard_path", "pipeline.sample_size", "pipeline.sample_seed",
		"pipeline.brand.name", "pipeline.brand.short_name", "pipeline.brand.domain",
		"pipeline.brand.sector", "pipeline.brand.language", "pipeline.brand.country",
	} {
		_ = v.BindEnv(key)
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.search_model", "gemini-2.5-flash")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.rate_limit", 5)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.rate_limit", 10)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.rate_limit", 2)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("retry.backoff_multiplier", 2.0)
	v.SetDefault("retry.retryable_status_codes", []int{408, 429, 500, 502, 503, 504})
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.cool_down", "30s")
	v.SetDefault("pool.llm_workers", 8)
	v.SetDefault("pool.search_workers", 4)
	v.SetDefault("pipeline.llm", "anthropic")
	v.SetDefault("pipeline.providers", []string{"perplexity", "gemini"})
	v.SetDefault("pipeline.stages.fix_attempts", 2)
	v.SetDefault("pipeline.stages.max_competitors", 8)
	v.SetDefault("pipeline.stages.max_personas", 4)
	v.SetDefault("pipeline.stages.keywords_per_stage", 5)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "checkpoint.json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("report.output", "visibility.xlsx")
	v.SetDefault("report.strip_query", true)

	rates := cost.DefaultRates()
	v.SetDefault("pricing.jina.per_mtok", rates.Jina.PerMTok)
	v.SetDefault("pricing.firecrawl.per_page", rates.Firecrawl.PerPage)
	v.SetDefault("pricing.perplexity.per_query", rates.Perplexity.PerQuery)
	v.SetDefault("pricing.perplexity.per_mtok", rates.Perplexity.PerMTok)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Model price tables are maps; merge defaults under configured entries.
	if cfg.Pricing.Anthropic == nil {
		cfg.Pricing.Anthropic = rates.Anthropic
	}
	if cfg.Pricing.Gemini == nil {
		cfg.Pricing.Gemini = rates.Gemini
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
