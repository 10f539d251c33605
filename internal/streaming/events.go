// Package streaming implements the hand-rolled SSE decoding engine (spec
// §4.3): byte-chunk framing, per-provider event parsing, and the
// accumulators that assemble streamed tool calls and reasoning blocks into
// complete values.
package streaming

import "encoding/json"

// PartKind discriminates a StreamPart.
type PartKind string

const (
	PartStart                PartKind = "start"
	PartTextDelta             PartKind = "text_delta"
	PartTextDeltaWithCitations PartKind = "text_delta_with_citations"
	PartThinkingStart        PartKind = "thinking_start"
	PartThinkingDelta        PartKind = "thinking_delta"
	PartThinkingComplete      PartKind = "thinking_complete"
	PartToolCallStart        PartKind = "tool_call_start"
	PartToolCallDelta        PartKind = "tool_call_delta"
	PartToolCallComplete      PartKind = "tool_call_complete"
	PartServerToolStart       PartKind = "server_tool_start"
	PartServerToolDelta       PartKind = "server_tool_delta"
	PartServerToolComplete    PartKind = "server_tool_complete"
	PartWebSearchResults      PartKind = "web_search_results"
	PartWebFetchResult        PartKind = "web_fetch_result"
	PartServerToolError       PartKind = "server_tool_error"
	PartUsage                PartKind = "usage"
	PartContextEdited        PartKind = "context_edited"
	PartFinish                PartKind = "finish"
	PartError                 PartKind = "error"
)

// ToolCall is a fully assembled tool invocation request.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ContextEditMetrics reports how much of the context window a
// provider-assisted edit pruned (spec §4.4.4, SPEC_FULL supplement 1).
type ContextEditMetrics struct {
	TokensPruned       int `json:"tokens_pruned"`
	ToolUsesPruned     int `json:"tool_uses_pruned"`
	ThinkingTurnsPruned int `json:"thinking_turns_pruned"`
}

// Usage reports token accounting for a completed turn.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// StreamPart is one normalized event emitted by the engine, in the order
// the provider produced the underlying signal.
type StreamPart struct {
	Kind PartKind

	Model    string
	Provider string

	TextDelta string
	Citations []json.RawMessage

	ThinkingDelta   string
	ThinkingSig     string

	ToolCallID   string
	ToolCallName string
	ToolCallDelta string
	ToolCall     *ToolCall

	ServerToolID    string
	ServerToolName  string
	ServerToolDelta string
	ServerTool      *ToolCall
	WebSearchResults json.RawMessage
	WebFetchResult   json.RawMessage
	ServerToolErr    string

	Usage Usage

	ContextEdit ContextEditMetrics

	FinishReason string

	Err error
}

// SseEvent is the internal, pre-StreamPart event a Parser produces from one
// decoded JSON payload. The engine translates SseEvent into StreamPart,
// driving accumulators as it goes; Parsers never touch accumulator state.
type SseEvent struct {
	Kind PartKind

	Index int // stream index / block index, used to key accumulators

	Text      string
	Citations []json.RawMessage

	ThinkingDelta string
	Signature     string

	ToolCallID   string
	ToolCallName string
	ArgsDelta    string

	ServerToolID   string
	ServerToolName string
	ServerArgsDelta string
	WebSearchResults json.RawMessage
	WebFetchResult   json.RawMessage
	ServerToolErr    string

	Usage Usage

	ContextEdit ContextEditMetrics

	FinishReason string

	Err error

	Model    string
	Provider string

	// Skip marks an event the parser recognized but has nothing to emit
	// for (spec §4.3 Parser contract: ".../ Skip / Finish / ...").
	Skip bool
}

// Parser is a pure function from one parsed SSE JSON payload to an
// SseEvent. Implementations hold no engine state; all accumulation lives
// in the engine.
type Parser interface {
	ParseEvent(eventName string, data json.RawMessage) SseEvent
}
