package wireformat

import (
	"encoding/json"

	"github.com/krustycode/agentcore/internal/canonical"
)

// AnthropicHandler implements Handler for the /v1/messages wire dialect.
type AnthropicHandler struct{}

// NewAnthropicHandler constructs the Anthropic format handler.
func NewAnthropicHandler() *AnthropicHandler { return &AnthropicHandler{} }

func (h *AnthropicHandler) Dialect() Dialect { return DialectAnthropic }

func (h *AnthropicHandler) EndpointPath(streaming bool) string {
	return "/v1/messages"
}

type anthropicMessage struct {
	Role    string            `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type        string          `json:"type"`
	Text        string          `json:"text,omitempty"`
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Input       json.RawMessage `json:"input,omitempty"`
	ToolUseID   string          `json:"tool_use_id,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	IsError     *bool           `json:"is_error,omitempty"`
	Thinking    string          `json:"thinking,omitempty"`
	Signature   string          `json:"signature,omitempty"`
	Data        string          `json:"data,omitempty"`
	CacheControl *cacheControl  `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"`
}

// ConvertMessages filters out System messages (returned separately as the
// system string), enforces strict alternation with filler insertion, and
// applies the thinking-block retention rule: only the last Assistant
// message that contains a ToolUse and is immediately followed by tool
// results keeps its Thinking/RedactedThinking blocks, unless the provider
// hint requires preserving all of them (in which case the signature field
// is omitted instead).
func (h *AnthropicHandler) ConvertMessages(messages []canonical.Message, hint ProviderHint) (json.RawMessage, string, error) {
	var system string
	var turn []canonical.Message
	for _, m := range messages {
		if m.Role == canonical.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.TextJoined()
			continue
		}
		turn = append(turn, m)
	}
	turn = canonical.EnforceAlternation(turn)

	lastRetainIdx := -1
	if !hint.PreserveAllThinking {
		lastRetainIdx = lastAssistantWithPendingTools(turn)
	}

	out := make([]anthropicMessage, 0, len(turn))
	for i, m := range turn {
		wire := anthropicMessage{Role: string(m.Role)}
		for _, c := range m.Content {
			switch c.Type {
			case canonical.ContentText:
				wire.Content = append(wire.Content, anthropicContent{Type: "text", Text: c.Text})
			case canonical.ContentToolUse:
				wire.Content = append(wire.Content, anthropicContent{Type: "tool_use", ID: c.ToolUseID, Name: c.ToolName, Input: c.ToolInput})
			case canonical.ContentToolResult:
				block := anthropicContent{Type: "tool_result", ToolUseID: c.ToolResultForID, Content: c.ToolOutput, IsError: c.IsError}
				wire.Content = append(wire.Content, block)
			case canonical.ContentThinking:
				if hint.PreserveAllThinking {
					wire.Content = append(wire.Content, anthropicContent{Type: "thinking", Thinking: c.Thinking})
				} else if i == lastRetainIdx {
					wire.Content = append(wire.Content, anthropicContent{Type: "thinking", Thinking: c.Thinking, Signature: c.Signature})
				}
			case canonical.ContentRedactedThinking:
				if hint.PreserveAllThinking || i == lastRetainIdx {
					wire.Content = append(wire.Content, anthropicContent{Type: "redacted_thinking", Data: c.RedactedData})
				}
			case canonical.ContentImage:
				wire.Content = append(wire.Content, anthropicContent{Type: "image", Data: c.Base64, Text: c.URL})
			case canonical.ContentDocument:
				wire.Content = append(wire.Content, anthropicContent{Type: "document", Data: c.Base64, Text: c.URL})
			}
		}
		out = append(out, wire)
	}

	raw, err := json.Marshal(out)
	return raw, system, err
}

// lastAssistantWithPendingTools locates the last Assistant message that
// contains a ToolUse and is immediately followed by a message carrying the
// matching ToolResults (spec §4.2).
func lastAssistantWithPendingTools(turn []canonical.Message) int {
	last := -1
	for i, m := range turn {
		if m.Role != canonical.RoleAssistant || !m.HasToolUse() {
			continue
		}
		if i+1 < len(turn) && hasToolResults(turn[i+1]) {
			last = i
		}
	}
	return last
}

func hasToolResults(m canonical.Message) bool {
	for _, c := range m.Content {
		if c.Type == canonical.ContentToolResult {
			return true
		}
	}
	return false
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

func (h *AnthropicHandler) ConvertTools(tools []ToolDef) (json.RawMessage, error) {
	out := make([]anthropicTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return json.Marshal(out)
}

func (h *AnthropicHandler) BuildRequestBody(p RequestParams) (json.RawMessage, error) {
	body := map[string]any{
		"model":      p.Model,
		"messages":   json.RawMessage(p.WireMessages),
		"max_tokens": p.MaxTokens,
	}
	if p.System != "" {
		body["system"] = p.System
	}
	if len(p.WireTools) > 0 {
		body["tools"] = json.RawMessage(p.WireTools)
	}
	if p.Stream {
		body["stream"] = true
	}
	if p.Reasoning != nil && p.Reasoning.Enabled {
		body["thinking"] = map[string]any{"type": "enabled", "budget_tokens": p.Reasoning.BudgetTokens}
	} else {
		if p.Temperature != nil {
			body["temperature"] = *p.Temperature
		}
		if p.TopP != nil {
			body["top_p"] = *p.TopP
		}
		if p.TopK != nil {
			body["top_k"] = *p.TopK
		}
	}
	for k, v := range p.ExtraParams {
		body[k] = v
	}
	return json.Marshal(body)
}
