package providerclient

import (
	"encoding/json"

	"github.com/krustycode/agentcore/internal/wireformat"
)

type anthropicResponseBody struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Model      string `json:"model"`
}

// normalizeAnthropicResponse parses a /v1/messages response body, which is
// already Anthropic-shaped, into the shared NormalizedResponse struct so
// callers don't need a dialect-specific type switch past this point.
func normalizeAnthropicResponse(raw []byte) (*wireformat.NormalizedResponse, error) {
	var parsed anthropicResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	out := &wireformat.NormalizedResponse{Model: parsed.Model, StopReason: wireformat.MapStopReason(parsed.StopReason)}
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			out.Content = append(out.Content, wireformat.NormalizedBlock{Type: "text", Text: block.Text})
		case "tool_use":
			out.Content = append(out.Content, wireformat.NormalizedBlock{Type: "tool_use", ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}
	return out, nil
}
