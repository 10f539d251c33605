package streaming

import "encoding/json"

// AnthropicParser decodes /v1/messages SSE events (message_start,
// content_block_start/delta/stop, message_delta, message_stop). It tracks
// which content-block type occupies each index so that a bare
// content_block_stop (which carries no type of its own) can be translated
// to the right *Complete event.
type AnthropicParser struct {
	blockKind map[int]string
}

func NewAnthropicParser() *AnthropicParser { return &AnthropicParser{blockKind: make(map[int]string)} }

type anthropicEventEnvelope struct {
	Type         string `json:"type"`
	Index        int    `json:"index"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		Thinking    string `json:"thinking"`
		Signature   string `json:"signature"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	} `json:"usage"`
	ContextManagement *struct {
		TokensPruned        int `json:"tokens_pruned"`
		ToolUsesPruned      int `json:"tool_uses_pruned"`
		ThinkingTurnsPruned int `json:"thinking_turns_pruned"`
	} `json:"context_management"`
	Message struct {
		Model string `json:"model"`
	} `json:"message"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnthropicParser) ParseEvent(eventName string, data json.RawMessage) SseEvent {
	var env anthropicEventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return SseEvent{Kind: PartError, Err: err}
	}

	switch env.Type {
	case "message_start":
		return SseEvent{Kind: PartStart, Model: env.Message.Model, Skip: false}
	case "content_block_start":
		p.blockKind[env.Index] = env.ContentBlock.Type
		switch env.ContentBlock.Type {
		case "tool_use":
			return SseEvent{Kind: PartToolCallStart, Index: env.Index, ToolCallID: env.ContentBlock.ID, ToolCallName: env.ContentBlock.Name}
		case "server_tool_use":
			return SseEvent{Kind: PartServerToolStart, Index: env.Index, ServerToolID: env.ContentBlock.ID, ServerToolName: env.ContentBlock.Name}
		case "thinking", "redacted_thinking":
			return SseEvent{Kind: PartThinkingStart, Index: env.Index}
		default:
			return SseEvent{Skip: true}
		}
	case "content_block_delta":
		switch env.Delta.Type {
		case "text_delta":
			return SseEvent{Kind: PartTextDelta, Index: env.Index, Text: env.Delta.Text}
		case "input_json_delta":
			return SseEvent{Kind: PartToolCallDelta, Index: env.Index, ArgsDelta: env.Delta.PartialJSON}
		case "thinking_delta":
			return SseEvent{Kind: PartThinkingDelta, Index: env.Index, ThinkingDelta: env.Delta.Thinking}
		case "signature_delta":
			return SseEvent{Kind: PartThinkingDelta, Index: env.Index, Signature: env.Delta.Signature}
		default:
			return SseEvent{Skip: true}
		}
	case "content_block_stop":
		kind := p.blockKind[env.Index]
		delete(p.blockKind, env.Index)
		switch kind {
		case "tool_use":
			return SseEvent{Kind: PartToolCallComplete, Index: env.Index}
		case "server_tool_use":
			return SseEvent{Kind: PartServerToolComplete, Index: env.Index}
		case "thinking", "redacted_thinking":
			return SseEvent{Kind: PartThinkingComplete, Index: env.Index}
		default:
			return SseEvent{Skip: true}
		}
	case "message_delta":
		ev := SseEvent{Kind: PartUsage, Usage: Usage{
			InputTokens: env.Usage.InputTokens, OutputTokens: env.Usage.OutputTokens,
			CacheCreationInputTokens: env.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     env.Usage.CacheReadInputTokens,
		}}
		if env.ContextManagement != nil {
			ev.Kind = PartContextEdited
			ev.ContextEdit = ContextEditMetrics{
				TokensPruned:        env.ContextManagement.TokensPruned,
				ToolUsesPruned:      env.ContextManagement.ToolUsesPruned,
				ThinkingTurnsPruned: env.ContextManagement.ThinkingTurnsPruned,
			}
		}
		if env.Delta.StopReason != "" {
			ev.Kind = PartFinish
			ev.FinishReason = env.Delta.StopReason
		}
		return ev
	case "message_stop":
		return SseEvent{Kind: PartFinish, FinishReason: "end_turn"}
	case "error":
		return SseEvent{Kind: PartError, Err: errString(env.Error.Message)}
	case "ping":
		return SseEvent{Skip: true}
	default:
		return SseEvent{Skip: true}
	}
}

type sseParseError string

func (e sseParseError) Error() string { return string(e) }

func errString(msg string) error {
	if msg == "" {
		msg = "anthropic: unknown stream error"
	}
	return sseParseError(msg)
}
