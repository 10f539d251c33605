package wireformat

import (
	"encoding/json"

	"github.com/krustycode/agentcore/internal/canonical"
)

// OpenAIResponsesHandler implements Handler for the streaming-only
// /v1/responses dialect.
type OpenAIResponsesHandler struct{}

func NewOpenAIResponsesHandler() *OpenAIResponsesHandler { return &OpenAIResponsesHandler{} }

func (h *OpenAIResponsesHandler) Dialect() Dialect { return DialectOpenAIResponse }

func (h *OpenAIResponsesHandler) EndpointPath(streaming bool) string { return "/v1/responses" }

type responsesItem struct {
	Type    string               `json:"type"`
	Role    string               `json:"role,omitempty"`
	Content []responsesContent   `json:"content,omitempty"`
	CallID  string               `json:"call_id,omitempty"`
	Name    string               `json:"name,omitempty"`
	Args    json.RawMessage      `json:"arguments,omitempty"`
	Output  string               `json:"output,omitempty"`
}

type responsesContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ConvertMessages builds the `input` array. System messages are extracted
// and returned as the `instructions` string instead of appearing in input.
func (h *OpenAIResponsesHandler) ConvertMessages(messages []canonical.Message, hint ProviderHint) (json.RawMessage, string, error) {
	var instructions string
	var items []responsesItem

	for _, m := range messages {
		if m.Role == canonical.RoleSystem {
			if instructions != "" {
				instructions += "\n\n"
			}
			instructions += m.TextJoined()
			continue
		}
		items = append(items, convertResponsesMessage(m)...)
	}

	raw, err := json.Marshal(items)
	return raw, instructions, err
}

func convertResponsesMessage(m canonical.Message) []responsesItem {
	partType := "input_text"
	if m.Role == canonical.RoleAssistant {
		partType = "output_text"
	}

	var items []responsesItem
	var parts []responsesContent
	for _, c := range m.Content {
		switch c.Type {
		case canonical.ContentText:
			parts = append(parts, responsesContent{Type: partType, Text: c.Text})
		case canonical.ContentToolUse:
			items = append(items, responsesItem{Type: "function_call", CallID: c.ToolUseID, Name: c.ToolName, Args: c.ToolInput})
		case canonical.ContentToolResult:
			items = append(items, responsesItem{Type: "tool", Role: "tool", CallID: c.ToolResultForID, Output: string(c.ToolOutput)})
		}
	}
	if len(parts) > 0 {
		items = append([]responsesItem{{Type: "message", Role: string(m.Role), Content: parts}}, items...)
	}
	return items
}

type responsesFunctionDef struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

func (h *OpenAIResponsesHandler) ConvertTools(tools []ToolDef) (json.RawMessage, error) {
	out := make([]responsesFunctionDef, 0, len(tools))
	for _, t := range tools {
		out = append(out, responsesFunctionDef{Type: "function", Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	return json.Marshal(out)
}

func (h *OpenAIResponsesHandler) BuildRequestBody(p RequestParams) (json.RawMessage, error) {
	body := map[string]any{
		"model": p.Model,
		"input": json.RawMessage(p.WireMessages),
		"stream": true, // this dialect is streaming-only (spec §4.2)
	}
	if p.System != "" {
		body["instructions"] = p.System
	}
	if p.MaxTokens > 0 {
		body["max_output_tokens"] = p.MaxTokens
	}
	if len(p.WireTools) > 0 {
		body["tools"] = json.RawMessage(p.WireTools)
	}
	if p.Reasoning != nil && p.Reasoning.Enabled && p.Reasoning.Effort != "" {
		body["reasoning"] = map[string]any{"effort": p.Reasoning.Effort}
	} else if p.Temperature != nil {
		body["temperature"] = *p.Temperature
	}
	for k, v := range p.ExtraParams {
		body[k] = v
	}
	return json.Marshal(body)
}
