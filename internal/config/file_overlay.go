package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileOverlay is the optional on-disk config file read beneath the env
// vars in Load (spec §6.3 precedence chain extended per SPEC_FULL.md:
// "optional config file overlay beneath env vars"). Every field is a
// fallback: an env var with the same purpose always wins when set.
type fileOverlay struct {
	WorkingDir    string `yaml:"working_dir"`
	SandboxRoot   string `yaml:"sandbox_root"`
	ToolTimeout   string `yaml:"tool_timeout"`
	MaxIterations int    `yaml:"max_iterations"`
	PromptCache   *bool  `yaml:"prompt_cache"`
}

// loadFileOverlay reads KRUSTYCORE_CONFIG_FILE, or ~/.krustycore/config.yaml
// if unset. A missing file is silent (the overlay is entirely optional); a
// present-but-malformed file is logged and ignored rather than failing
// startup, since every value it can set also has an env var and a
// hardcoded fallback.
func loadFileOverlay() fileOverlay {
	path := os.Getenv("KRUSTYCORE_CONFIG_FILE")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fileOverlay{}
		}
		path = filepath.Join(home, ".krustycore", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileOverlay{}
	}

	var ov fileOverlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		slog.Warn("invalid config file, ignoring", "path", path, "error", err)
		return fileOverlay{}
	}
	return ov
}

func (ov fileOverlay) toolTimeout(fallback time.Duration) time.Duration {
	if ov.ToolTimeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(ov.ToolTimeout)
	if err != nil {
		slog.Warn("invalid tool_timeout in config file, using default", "value", ov.ToolTimeout)
		return fallback
	}
	return d
}

func (ov fileOverlay) maxIterations(fallback int) int {
	if ov.MaxIterations <= 0 {
		return fallback
	}
	return ov.MaxIterations
}

func (ov fileOverlay) cacheEnabled(fallback bool) bool {
	if ov.PromptCache == nil {
		return fallback
	}
	return *ov.PromptCache
}
