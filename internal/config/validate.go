package config

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Modes accepted by Validate.
const (
	ModeAudit  = "audit"
	ModeReport = "report"
	ModeStatus = "status"
	ModeServe  = "serve"
)

var knownProviders = []string{"perplexity", "gemini", "jina"}

// Validate checks the keys a command needs. All problems are reported at
// once.
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(msg string) {
		if !slices.Contains(errs, msg) {
			errs = append(errs, msg)
		}
	}

	switch mode {
	case ModeAudit:
		c.validateAudit(add)
	case ModeReport, ModeStatus:
	case ModeServe:
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			add("store.path is required for the file backend")
		}
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			add("store.database_url is required for the " + c.Store.Backend + " backend")
		}
		if c.Store.RunKey == "" {
			add("store.run_key is required for the " + c.Store.Backend + " backend")
		}
	default:
		add("store.backend must be file, sqlite or postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateAudit(add func(string)) {
	if _, err := c.Retry.Policy(); err != nil {
		add(err.Error())
	}
	if c.Pool.LLMWorkers < 1 || c.Pool.LLMWorkers > 64 {
		add("pool.llm_workers must be between 1 and 64")
	}
	if c.Pool.SearchWorkers < 1 || c.Pool.SearchWorkers > 64 {
		add("pool.search_workers must be between 1 and 64")
	}
	if c.Pipeline.SampleSize < 0 {
		add("pipeline.sample_size must be >= 0")
	}
	if c.Pipeline.Stages.FixAttempts < 0 {
		add("pipeline.stages.fix_attempts must be >= 0")
	}

	switch c.Pipeline.LLM {
	case "anthropic":
		if c.Anthropic.Key == "" {
			add("anthropic.key is required")
		}
	case "gemini":
		if c.Gemini.Key == "" {
			add("gemini.key is required")
		}
	default:
		add("pipeline.llm must be anthropic or gemini")
	}

	if len(c.Pipeline.Providers) == 0 {
		add("pipeline.providers must list at least one provider")
	}
	for _, p := range c.Pipeline.Providers {
		switch {
		case !slices.Contains(knownProviders, p):
			add("pipeline.providers: unknown provider " + p)
		case p == "perplexity" && c.Perplexity.Key == "":
			add("perplexity.key is required")
		case p == "gemini" && c.Gemini.Key == "":
			add("gemini.key is required")
		case p == "jina" && c.Jina.Key == "":
			add("jina.key is required")
		}
	}

	if c.Pipeline.WizardPath == "" {
		if c.Pipeline.Brand.Domain == "" {
			add("pipeline.brand.domain is required without a wizard export")
		}
		if c.Pipeline.Brand.Language == "" {
			add("pipeline.brand.language is required without a wizard export")
		}
	}
}
