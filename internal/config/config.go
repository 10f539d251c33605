package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/krustycode/agentcore/internal/providerclient"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// Config is everything the process entrypoint needs to construct a
// providerclient.Client and an orchestrator.Orchestrator (spec §6.3),
// loaded with a small typed loader that reads env vars directly, per
// cmd/nexus/config.go's style rather than a config library.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
	BaseURL  string
	Dialect  wireformat.Dialect

	WorkingDir    string
	SandboxRoot   string
	ToolTimeout   time.Duration
	MaxIterations int
	CacheEnabled  bool
}

// Load resolves a Config from the environment and, if needed, the
// stored credential file at its default path (spec §6.3).
func Load() (*Config, error) {
	var store CredentialReader
	if credPath, err := DefaultCredentialPath(); err == nil {
		if s, loadErr := LoadCredentialStore(credPath); loadErr == nil {
			store = s
		}
	}

	resolved, err := Resolve(store)
	if err != nil {
		return nil, err
	}

	info := providerTable[resolved.Provider]
	dialect := info.dialect
	if resolved.Provider == ProviderOpenCodeZen {
		dialect = DialectForModel(resolved.Model)
	}

	cwd, _ := os.Getwd()
	overlay := loadFileOverlay()

	workingDir := overlay.WorkingDir
	if workingDir == "" {
		workingDir = cwd
	}
	sandboxRoot := overlay.SandboxRoot

	return &Config{
		Provider:      resolved.Provider,
		Model:         resolved.Model,
		APIKey:        resolved.APIKey,
		BaseURL:       info.baseURL,
		Dialect:       dialect,
		WorkingDir:    envOr("KRUSTYCORE_WORKDIR", workingDir),
		SandboxRoot:   envOr("KRUSTYCORE_SANDBOX_ROOT", sandboxRoot),
		ToolTimeout:   envDuration("KRUSTYCORE_TOOL_TIMEOUT", overlay.toolTimeout(2*time.Minute)),
		MaxIterations: envInt("KRUSTYCORE_MAX_ITERATIONS", overlay.maxIterations(50)),
		CacheEnabled:  envBool("KRUSTYCORE_PROMPT_CACHE", overlay.cacheEnabled(true)),
	}, nil
}

// ProviderClientConfig builds the providerclient.Config this core's
// Config resolves to.
func (c *Config) ProviderClientConfig() providerclient.Config {
	info := providerTable[c.Provider]
	return providerclient.Config{
		Provider:     string(c.Provider),
		Model:        c.Model,
		BaseURL:      c.BaseURL,
		APIKey:       c.APIKey,
		Auth:         info.auth,
		Dialect:      c.Dialect,
		CacheEnabled: c.CacheEnabled,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration env var, using default", "key", key, "value", v)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid int env var, using default", "key", key, "value", v)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("invalid bool env var, using default", "key", key, "value", v)
	}
	return fallback
}
