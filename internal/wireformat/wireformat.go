// Package wireformat translates the canonical message model
// (internal/canonical) to and from the four provider wire dialects this
// module speaks: Anthropic, OpenAI-chat, OpenAI-Responses, and Google.
package wireformat

import (
	"encoding/json"

	"github.com/krustycode/agentcore/internal/canonical"
)

// Dialect names a wire format.
type Dialect string

const (
	DialectAnthropic      Dialect = "anthropic"
	DialectOpenAIChat     Dialect = "openai-chat"
	DialectOpenAIResponse Dialect = "openai-responses"
	DialectGoogle         Dialect = "google"
)

// ProviderHint carries enough information for a handler to make
// provider-specific decisions (the thinking-block preservation exception,
// reasoning dialect selection) without hardcoding provider names deep in
// the conversion logic.
type ProviderHint struct {
	Provider string
	Model    string

	// PreserveAllThinking is set for the sub-provider(s) whose documentation
	// requires every Thinking block to survive, rather than only the last
	// assistant-with-pending-tools message's block (spec §4.2, §9 Open
	// Questions: kept data-driven via PreservingAllThinking below).
	PreserveAllThinking bool
}

// PreservingAllThinking is the data-driven list of provider identifiers
// that require every Thinking block to be preserved verbatim. New
// providers with this requirement are added here, not by branching in the
// handler.
var PreservingAllThinking = map[string]bool{
	"zai": true,
}

// HintFor builds a ProviderHint, resolving PreserveAllThinking from the
// data-driven table.
func HintFor(provider, model string) ProviderHint {
	return ProviderHint{Provider: provider, Model: model, PreserveAllThinking: PreservingAllThinking[provider]}
}

// Handler is the contract every wire dialect implements.
type Handler interface {
	Dialect() Dialect
	EndpointPath(streaming bool) string
	ConvertMessages(messages []canonical.Message, hint ProviderHint) (json.RawMessage, string, error)
	ConvertTools(tools []ToolDef) (json.RawMessage, error)
	BuildRequestBody(req RequestParams) (json.RawMessage, error)
}

// ToolDef is the provider-agnostic shape ConvertTools consumes.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// RequestParams bundles everything BuildRequestBody needs to assemble a
// complete wire request body, after ConvertMessages/ConvertTools have run.
type RequestParams struct {
	Model         string
	System        string
	WireMessages  json.RawMessage
	WireTools     json.RawMessage
	MaxTokens     int
	Stream        bool
	Temperature   *float64
	TopP          *float64
	TopK          *int
	Reasoning     *ReasoningParams
	ExtraParams   map[string]any
	CacheEnabled  bool
}

// ReasoningParams is the normalized reasoning request, independent of
// dialect; BuildRequestBody translates it into the dialect's own shape.
type ReasoningParams struct {
	Enabled      bool
	BudgetTokens int
	Effort       string // "low" | "medium" | "high", OpenAI/DeepSeek dialects
}

// ForDialect resolves the Handler for a dialect name.
func ForDialect(d Dialect) Handler {
	switch d {
	case DialectAnthropic:
		return NewAnthropicHandler()
	case DialectOpenAIChat:
		return NewOpenAIChatHandler()
	case DialectOpenAIResponse:
		return NewOpenAIResponsesHandler()
	case DialectGoogle:
		return NewGoogleHandler()
	default:
		return NewAnthropicHandler()
	}
}

// mapStopReason implements the §4.2 stop-reason normalization table.
func mapStopReason(raw string) string {
	switch raw {
	case "stop", "end_turn", "STOP":
		return "end_turn"
	case "length", "max_tokens", "MAX_TOKENS":
		return "max_tokens"
	case "tool_calls", "tool_use", "function_call":
		return "tool_use"
	default:
		return toLower(raw)
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
