// Package config implements the core's environment-driven configuration
// (spec §6.3): provider/model/key resolution from an explicit override,
// provider-specific environment variables, or a stored credential file,
// in that precedence order.
package config

import (
	"strings"

	"github.com/krustycode/agentcore/internal/providerclient"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// Provider identifies one of the supported upstream providers (spec §6.3:
// "Anthropic, OpenRouter, OpenCodeZen, ZAi, MiniMax, Kimi, OpenAI").
type Provider string

const (
	ProviderAnthropic   Provider = "anthropic"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderOpenCodeZen Provider = "opencodezen"
	ProviderZAi         Provider = "zai"
	ProviderMiniMax     Provider = "minimax"
	ProviderKimi        Provider = "kimi"
	ProviderOpenAI      Provider = "openai"
)

// ParseProvider normalizes a provider name the way
// original_source/crates/krusty-core/src/acp/server.rs's
// detect_api_key_from_env does (case-insensitive, with the
// "opencode"/"z.ai" aliases it accepts).
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(s) {
	case "anthropic":
		return ProviderAnthropic, true
	case "openrouter":
		return ProviderOpenRouter, true
	case "opencodezen", "opencode":
		return ProviderOpenCodeZen, true
	case "zai", "z.ai":
		return ProviderZAi, true
	case "minimax":
		return ProviderMiniMax, true
	case "kimi":
		return ProviderKimi, true
	case "openai":
		return ProviderOpenAI, true
	default:
		return "", false
	}
}

// providerInfo is the static per-provider metadata this core needs to
// construct a providerclient.Client.
type providerInfo struct {
	envVar       string
	baseURL      string
	defaultModel string
	dialect      wireformat.Dialect
	auth         providerclient.AuthStyle
}

// providerTable is the literal per-provider data table spec §6.3 implies
// (base URL + default model + wire dialect), grounded on the endpoints
// named in original_source/crates/krusty-core/src/ai/*.rs
// (opencodezen.rs, openrouter.rs) and well-known provider API hosts for
// the rest.
var providerTable = map[Provider]providerInfo{
	ProviderAnthropic: {
		envVar: "ANTHROPIC_API_KEY", baseURL: "https://api.anthropic.com",
		defaultModel: "claude-opus-4-5", dialect: wireformat.DialectAnthropic, auth: providerclient.AuthXAPIKey,
	},
	ProviderOpenRouter: {
		envVar: "OPENROUTER_API_KEY", baseURL: "https://openrouter.ai/api/v1",
		defaultModel: "anthropic/claude-opus-4-5", dialect: wireformat.DialectOpenAIChat, auth: providerclient.AuthBearer,
	},
	ProviderOpenCodeZen: {
		envVar: "OPENCODEZEN_API_KEY", baseURL: "https://opencode.ai/zen/v1",
		defaultModel: "claude-opus-4-5", dialect: wireformat.DialectAnthropic, auth: providerclient.AuthBearer,
	},
	ProviderZAi: {
		envVar: "ZAI_API_KEY", baseURL: "https://api.z.ai/api/paas/v4",
		defaultModel: "glm-4.6", dialect: wireformat.DialectOpenAIChat, auth: providerclient.AuthBearer,
	},
	ProviderMiniMax: {
		envVar: "MINIMAX_API_KEY", baseURL: "https://api.minimax.chat/v1",
		defaultModel: "minimax-m2", dialect: wireformat.DialectAnthropic, auth: providerclient.AuthBearer,
	},
	ProviderKimi: {
		envVar: "KIMI_API_KEY", baseURL: "https://api.moonshot.cn/v1",
		defaultModel: "kimi-k2", dialect: wireformat.DialectOpenAIChat, auth: providerclient.AuthBearer,
	},
	ProviderOpenAI: {
		envVar: "OPENAI_API_KEY", baseURL: "https://api.openai.com/v1",
		defaultModel: "gpt-5", dialect: wireformat.DialectOpenAIResponse, auth: providerclient.AuthBearer,
	},
}

// DialectForModel implements §6.3's OpenCodeZen model-prefix routing:
// claude*/minimax* stay on the Anthropic dialect, gpt-5* routes to
// OpenAI-Responses, gemini* to Google, everything else to OpenAI-chat.
// Non-OpenCodeZen providers ignore this and use their fixed dialect.
func DialectForModel(model string) wireformat.Dialect {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "claude"), strings.HasPrefix(lower, "minimax"):
		return wireformat.DialectAnthropic
	case strings.HasPrefix(lower, "gpt-5"):
		return wireformat.DialectOpenAIResponse
	case strings.HasPrefix(lower, "gemini"):
		return wireformat.DialectGoogle
	default:
		return wireformat.DialectOpenAIChat
	}
}
