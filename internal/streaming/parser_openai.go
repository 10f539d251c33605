package streaming

import "encoding/json"

// OpenAIChatParser decodes chat/completions streaming chunks, where each
// SSE frame is a full `chat.completion.chunk` object rather than a named
// sub-event.
type OpenAIChatParser struct {
	toolIndex map[int]bool
}

func NewOpenAIChatParser() *OpenAIChatParser { return &OpenAIChatParser{toolIndex: make(map[int]bool)} }

type openAIChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenAIChatParser) ParseEvent(_ string, data json.RawMessage) SseEvent {
	var chunk openAIChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return SseEvent{Kind: PartError, Err: err}
	}
	if chunk.Usage != nil {
		return SseEvent{Kind: PartUsage, Usage: Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}}
	}
	if len(chunk.Choices) == 0 {
		return SseEvent{Skip: true}
	}
	choice := chunk.Choices[0]
	if choice.FinishReason != nil {
		reason := *choice.FinishReason
		if reason == "tool_calls" {
			return SseEvent{Kind: PartFinish, FinishReason: "tool_use"}
		}
		return SseEvent{Kind: PartFinish, FinishReason: reason}
	}
	if len(choice.Delta.ToolCalls) > 0 {
		tc := choice.Delta.ToolCalls[0]
		if !p.toolIndex[tc.Index] {
			p.toolIndex[tc.Index] = true
			return SseEvent{Kind: PartToolCallStart, Index: tc.Index, ToolCallID: tc.ID, ToolCallName: tc.Function.Name}
		}
		return SseEvent{Kind: PartToolCallDelta, Index: tc.Index, ArgsDelta: tc.Function.Arguments}
	}
	if choice.Delta.Content != "" {
		return SseEvent{Kind: PartTextDelta, Text: choice.Delta.Content}
	}
	return SseEvent{Skip: true}
}

// OpenAIResponsesParser decodes /v1/responses named SSE events
// (response.output_text.delta, response.function_call_arguments.delta,
// response.completed, ...).
type OpenAIResponsesParser struct{}

func NewOpenAIResponsesParser() *OpenAIResponsesParser { return &OpenAIResponsesParser{} }

type responsesEventEnvelope struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	OutputIndex int   `json:"output_index"`
	Item       struct {
		Type   string `json:"type"`
		ID     string `json:"id"`
		CallID string `json:"call_id"`
		Name   string `json:"name"`
	} `json:"item"`
	Response struct {
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"response"`
}

func (p *OpenAIResponsesParser) ParseEvent(_ string, data json.RawMessage) SseEvent {
	var env responsesEventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return SseEvent{Kind: PartError, Err: err}
	}
	switch env.Type {
	case "response.output_text.delta":
		return SseEvent{Kind: PartTextDelta, Index: env.OutputIndex, Text: env.Delta}
	case "response.output_item.added":
		if env.Item.Type == "function_call" {
			return SseEvent{Kind: PartToolCallStart, Index: env.OutputIndex, ToolCallID: env.Item.CallID, ToolCallName: env.Item.Name}
		}
		return SseEvent{Skip: true}
	case "response.function_call_arguments.delta":
		return SseEvent{Kind: PartToolCallDelta, Index: env.OutputIndex, ArgsDelta: env.Delta}
	case "response.function_call_arguments.done":
		return SseEvent{Kind: PartToolCallComplete, Index: env.OutputIndex}
	case "response.completed":
		return SseEvent{
			Kind:         PartFinish,
			FinishReason: "stop",
			Usage:        Usage{InputTokens: env.Response.Usage.InputTokens, OutputTokens: env.Response.Usage.OutputTokens},
		}
	default:
		return SseEvent{Skip: true}
	}
}

// GoogleParser decodes streamGenerateContent chunks, each a full candidate
// object rather than a named event.
type GoogleParser struct {
	toolIndex int
}

func NewGoogleParser() *GoogleParser { return &GoogleParser{} }

type googleStreamChunk struct {
	Candidates []struct {
		FinishReason string `json:"finishReason"`
		Content      struct {
			Parts []struct {
				Text         string `json:"text"`
				FunctionCall *struct {
					Name string          `json:"name"`
					Args json.RawMessage `json:"args"`
				} `json:"functionCall"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *GoogleParser) ParseEvent(_ string, data json.RawMessage) SseEvent {
	var chunk googleStreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return SseEvent{Kind: PartError, Err: err}
	}
	if len(chunk.Candidates) == 0 {
		return SseEvent{Skip: true}
	}
	cand := chunk.Candidates[0]
	for _, part := range cand.Content.Parts {
		if part.FunctionCall != nil {
			idx := p.toolIndex
			p.toolIndex++
			return SseEvent{Kind: PartToolCallComplete, Index: idx, ToolCallID: part.FunctionCall.Name, ToolCallName: part.FunctionCall.Name, ArgsDelta: string(part.FunctionCall.Args)}
		}
		if part.Text != "" {
			return SseEvent{Kind: PartTextDelta, Text: part.Text}
		}
	}
	if cand.FinishReason != "" {
		reason := cand.FinishReason
		if reason == "STOP" {
			reason = "end_turn"
		}
		return SseEvent{Kind: PartFinish, FinishReason: reason}
	}
	if chunk.UsageMetadata != nil {
		return SseEvent{Kind: PartUsage, Usage: Usage{InputTokens: chunk.UsageMetadata.PromptTokenCount, OutputTokens: chunk.UsageMetadata.CandidatesTokenCount}}
	}
	return SseEvent{Skip: true}
}
