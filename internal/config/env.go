package config

import (
	"fmt"
	"os"
)

// Resolved is the outcome of resolving a provider/model/key from the
// environment or credential store (spec §6.3).
type Resolved struct {
	Provider Provider
	APIKey   string
	Model    string
}

// Resolve implements §6.3's three-step precedence chain:
//  1. Explicit KRUSTY_PROVIDER + (KRUSTY_API_KEY or provider-specific key) + optional KRUSTY_MODEL.
//  2. Provider-specific env vars.
//  3. Stored credential file.
//
// Grounded on
// original_source/crates/krusty-core/src/acp/server.rs's
// detect_api_key_from_env, reshaped around Go's multi-value-return idiom
// instead of Option chaining.
func Resolve(store CredentialReader) (Resolved, error) {
	model := os.Getenv("KRUSTY_MODEL")

	if r, ok := resolveExplicit(model); ok {
		return r, nil
	}
	if r, ok := resolveProviderSpecificEnv(model); ok {
		return r, nil
	}
	if store != nil {
		if r, ok := resolveFromStore(store, model); ok {
			return r, nil
		}
	}
	return Resolved{}, fmt.Errorf("config: no provider configured (set KRUSTY_PROVIDER+KRUSTY_API_KEY, a provider-specific *_API_KEY, or store a credential)")
}

func resolveExplicit(model string) (Resolved, bool) {
	providerStr := os.Getenv("KRUSTY_PROVIDER")
	if providerStr == "" {
		return Resolved{}, false
	}
	provider, ok := ParseProvider(providerStr)
	if !ok {
		return Resolved{}, false
	}
	apiKey := os.Getenv("KRUSTY_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv(providerTable[provider].envVar)
	}
	if apiKey == "" {
		return Resolved{}, false
	}
	return Resolved{Provider: provider, APIKey: apiKey, Model: effectiveModel(provider, model)}, true
}

// providerEnvOrder fixes the scan order of resolveProviderSpecificEnv so
// it is deterministic, matching the array order
// detect_api_key_from_env iterates in the original implementation
// (Anthropic first, OpenAI last as an OpenRouter alias is not carried
// here since this core treats OpenAI as its own first-class provider
// per spec §6.3's explicit provider list).
var providerEnvOrder = []Provider{
	ProviderAnthropic, ProviderOpenRouter, ProviderOpenCodeZen,
	ProviderZAi, ProviderMiniMax, ProviderKimi, ProviderOpenAI,
}

func resolveProviderSpecificEnv(model string) (Resolved, bool) {
	for _, p := range providerEnvOrder {
		if key := os.Getenv(providerTable[p].envVar); key != "" {
			return Resolved{Provider: p, APIKey: key, Model: effectiveModel(p, model)}, true
		}
	}
	return Resolved{}, false
}

func resolveFromStore(store CredentialReader, model string) (Resolved, bool) {
	active := store.ActiveProvider()
	if active != "" {
		if key, ok := store.Get(active); ok {
			return Resolved{Provider: active, APIKey: key, Model: effectiveModel(active, model)}, true
		}
	}
	for _, p := range providerEnvOrder {
		if key, ok := store.Get(p); ok {
			return Resolved{Provider: p, APIKey: key, Model: effectiveModel(p, model)}, true
		}
	}
	return Resolved{}, false
}

func effectiveModel(p Provider, override string) string {
	if override != "" {
		return override
	}
	return providerTable[p].defaultModel
}
