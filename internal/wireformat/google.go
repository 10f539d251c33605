package wireformat

import (
	"encoding/json"

	"github.com/krustycode/agentcore/internal/canonical"
)

// GoogleHandler implements Handler for the Gemini generateContent dialect.
type GoogleHandler struct{}

func NewGoogleHandler() *GoogleHandler { return &GoogleHandler{} }

func (h *GoogleHandler) Dialect() Dialect { return DialectGoogle }

func (h *GoogleHandler) EndpointPath(streaming bool) string {
	if streaming {
		return "/v1/models/{model}:streamGenerateContent"
	}
	return "/v1/models/{model}:generateContent"
}

type googleContent struct {
	Role  string      `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *googleFunctionCall `json:"functionCall,omitempty"`
	FunctionResp *googleFunctionResp `json:"functionResponse,omitempty"`
}

type googleFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type googleFunctionResp struct {
	Name     string                 `json:"name"`
	Response map[string]any         `json:"response"`
}

// ConvertMessages maps User/Assistant to Google's user/model roles and
// extracts system content into the returned instruction string.
func (h *GoogleHandler) ConvertMessages(messages []canonical.Message, hint ProviderHint) (json.RawMessage, string, error) {
	var instruction string
	var out []googleContent

	for _, m := range messages {
		if m.Role == canonical.RoleSystem {
			if instruction != "" {
				instruction += "\n\n"
			}
			instruction += m.TextJoined()
			continue
		}
		role := "user"
		if m.Role == canonical.RoleAssistant {
			role = "model"
		}
		var parts []googlePart
		for _, c := range m.Content {
			switch c.Type {
			case canonical.ContentText:
				parts = append(parts, googlePart{Text: c.Text})
			case canonical.ContentToolUse:
				parts = append(parts, googlePart{FunctionCall: &googleFunctionCall{Name: c.ToolName, Args: c.ToolInput}})
			case canonical.ContentToolResult:
				content := map[string]any{"content": string(c.ToolOutput)}
				parts = append(parts, googlePart{FunctionResp: &googleFunctionResp{Name: c.ToolResultForID, Response: content}})
			}
		}
		if len(parts) > 0 {
			out = append(out, googleContent{Role: role, Parts: parts})
		}
	}

	raw, err := json.Marshal(out)
	return raw, instruction, err
}

type googleFunctionDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type googleToolSet struct {
	FunctionDeclarations []googleFunctionDecl `json:"functionDeclarations"`
}

func (h *GoogleHandler) ConvertTools(tools []ToolDef) (json.RawMessage, error) {
	decls := make([]googleFunctionDecl, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, googleFunctionDecl{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	return json.Marshal([]googleToolSet{{FunctionDeclarations: decls}})
}

func (h *GoogleHandler) BuildRequestBody(p RequestParams) (json.RawMessage, error) {
	body := map[string]any{
		"contents": json.RawMessage(p.WireMessages),
	}
	if p.System != "" {
		body["systemInstruction"] = map[string]any{"parts": []googlePart{{Text: p.System}}}
	}
	if len(p.WireTools) > 0 {
		body["tools"] = json.RawMessage(p.WireTools)
	}
	genConfig := map[string]any{}
	if p.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = p.MaxTokens
	}
	if p.Temperature != nil {
		genConfig["temperature"] = *p.Temperature
	}
	if p.TopP != nil {
		genConfig["topP"] = *p.TopP
	}
	if p.TopK != nil {
		genConfig["topK"] = *p.TopK
	}
	if len(genConfig) > 0 {
		body["generationConfig"] = genConfig
	}
	for k, v := range p.ExtraParams {
		body[k] = v
	}
	return json.Marshal(body)
}
