package wireformat

import "encoding/json"

// NormalizedResponse is the Anthropic-shaped response every non-streaming
// path is rewritten to before returning from call_with_tools/call_simple
// (spec §4.2 "Response normalization").
type NormalizedResponse struct {
	Content    []NormalizedBlock `json:"content"`
	StopReason string            `json:"stop_reason"`
	Model      string            `json:"model"`
}

// NormalizedBlock is a simplified content block sufficient to express text
// and tool_use output after normalization.
type NormalizedBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type openAIChatCompletion struct {
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// NormalizeOpenAIChatResponse rewrites a chat/completions response body into
// the Anthropic shape. Text content becomes one text block (if non-empty);
// each tool call becomes one tool_use block, in original order.
func NormalizeOpenAIChatResponse(body []byte) (*NormalizedResponse, error) {
	var parsed openAIChatCompletion
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	out := &NormalizedResponse{Model: parsed.Model}
	if len(parsed.Choices) == 0 {
		return out, nil
	}
	choice := parsed.Choices[0]
	if choice.Message.Content != "" {
		out.Content = append(out.Content, NormalizedBlock{Type: "text", Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		out.Content = append(out.Content, NormalizedBlock{
			Type:  "tool_use",
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}
	out.StopReason = mapStopReason(choice.FinishReason)
	if len(choice.Message.ToolCalls) > 0 {
		out.StopReason = "tool_use"
	}
	return out, nil
}

type googleGenerateResponse struct {
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
	ModelVersion string `json:"modelVersion"`
}

// NormalizeGoogleResponse rewrites a generateContent response into the
// Anthropic shape, assigning each functionCall part a synthetic id since
// Google does not emit one.
func NormalizeGoogleResponse(body []byte, idFor func(name string, index int) string) (*NormalizedResponse, error) {
	var parsed googleGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	out := &NormalizedResponse{Model: parsed.ModelVersion}
	if len(parsed.Candidates) == 0 {
		return out, nil
	}
	cand := parsed.Candidates[0]
	hasToolUse := false
	for i, part := range cand.Content.Parts {
		if part.FunctionCall != nil {
			id := idFor(part.FunctionCall.Name, i)
			out.Content = append(out.Content, NormalizedBlock{
				Type: "tool_use", ID: id, Name: part.FunctionCall.Name, Input: part.FunctionCall.Args,
			})
			hasToolUse = true
			continue
		}
		if part.Text != "" {
			out.Content = append(out.Content, NormalizedBlock{Type: "text", Text: part.Text})
		}
	}
	out.StopReason = mapStopReason(cand.FinishReason)
	if hasToolUse {
		out.StopReason = "tool_use"
	}
	return out, nil
}

// MapStopReason exposes the stop-reason normalization table to callers
// outside this package (the streaming engine's Finish event, for one).
func MapStopReason(raw string) string { return mapStopReason(raw) }
