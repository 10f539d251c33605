package wireformat

import (
	"encoding/json"

	"github.com/krustycode/agentcore/internal/canonical"
)

// OpenAIChatHandler implements Handler for /v1/chat/completions.
type OpenAIChatHandler struct{}

func NewOpenAIChatHandler() *OpenAIChatHandler { return &OpenAIChatHandler{} }

func (h *OpenAIChatHandler) Dialect() Dialect { return DialectOpenAIChat }

func (h *OpenAIChatHandler) EndpointPath(streaming bool) string { return "/v1/chat/completions" }

type openAIMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIToolCallFunc `json:"function"`
}

type openAIToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// CoreSystemPrompt is the static persona string prepended ahead of any
// caller-supplied system content for the OpenAI-chat dialect (spec §4.2,
// §9 "Global state": a single process-wide constant).
const CoreSystemPrompt = "You are a careful, precise coding assistant."

func (h *OpenAIChatHandler) ConvertMessages(messages []canonical.Message, hint ProviderHint) (json.RawMessage, string, error) {
	var systemText string
	out := make([]openAIMessage, 0, len(messages)+1)

	for _, m := range messages {
		if m.Role == canonical.RoleSystem {
			if systemText != "" {
				systemText += "\n\n"
			}
			systemText += m.TextJoined()
			continue
		}
		out = append(out, convertOpenAIChatMessage(m)...)
	}

	merged := CoreSystemPrompt
	if systemText != "" {
		merged += "\n\n" + systemText
	}
	withSystem := append([]openAIMessage{{Role: "system", Content: merged}}, out...)

	raw, err := json.Marshal(withSystem)
	return raw, merged, err
}

func convertOpenAIChatMessage(m canonical.Message) []openAIMessage {
	var text string
	var calls []openAIToolCall
	var results []openAIMessage

	for _, c := range m.Content {
		switch c.Type {
		case canonical.ContentText:
			text += c.Text
		case canonical.ContentToolUse:
			calls = append(calls, openAIToolCall{
				ID:   c.ToolUseID,
				Type: "function",
				Function: openAIToolCallFunc{
					Name:      c.ToolName,
					Arguments: string(c.ToolInput),
				},
			})
		case canonical.ContentToolResult:
			results = append(results, openAIMessage{
				Role:       "tool",
				Content:    string(c.ToolOutput),
				ToolCallID: c.ToolResultForID,
			})
		}
	}

	var msgs []openAIMessage
	if text != "" || len(calls) > 0 {
		msgs = append(msgs, openAIMessage{Role: string(m.Role), Content: text, ToolCalls: calls})
	}
	msgs = append(msgs, results...)
	return msgs
}

type openAIToolDef struct {
	Type     string            `json:"type"`
	Function openAIFunctionDef `json:"function"`
}

type openAIFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

func (h *OpenAIChatHandler) ConvertTools(tools []ToolDef) (json.RawMessage, error) {
	out := make([]openAIToolDef, 0, len(tools))
	for _, t := range tools {
		out = append(out, openAIToolDef{Type: "function", Function: openAIFunctionDef{
			Name: t.Name, Description: t.Description, Parameters: t.InputSchema,
		}})
	}
	return json.Marshal(out)
}

func (h *OpenAIChatHandler) BuildRequestBody(p RequestParams) (json.RawMessage, error) {
	body := map[string]any{
		"model":    p.Model,
		"messages": json.RawMessage(p.WireMessages),
	}
	if p.MaxTokens > 0 {
		body["max_tokens"] = p.MaxTokens
	}
	if len(p.WireTools) > 0 {
		body["tools"] = json.RawMessage(p.WireTools)
	}
	if p.Stream {
		body["stream"] = true
	}
	if p.Reasoning != nil && p.Reasoning.Enabled && p.Reasoning.Effort != "" {
		body["reasoning_effort"] = p.Reasoning.Effort
	} else {
		if p.Temperature != nil {
			body["temperature"] = *p.Temperature
		}
		if p.TopP != nil {
			body["top_p"] = *p.TopP
		}
	}
	for k, v := range p.ExtraParams {
		body[k] = v
	}
	return json.Marshal(body)
}
