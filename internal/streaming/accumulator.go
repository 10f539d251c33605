package streaming

import "encoding/json"

// ToolCallAccumulator assembles one tool call's streamed argument deltas
// into a complete json.RawMessage (spec §4.3).
type ToolCallAccumulator struct {
	ID        string
	Name      string
	arguments string
}

// Delta appends a raw JSON argument fragment.
func (a *ToolCallAccumulator) Delta(fragment string) { a.arguments += fragment }

// Complete parses the accumulated arguments. If the accumulated text is not
// valid JSON — a malformed provider stream — it falls back to
// `{"raw":"..."}` so the resulting canonical message stays well-formed
// (spec §4.3, §7 Protocol error policy).
func (a *ToolCallAccumulator) Complete() ToolCall {
	args := a.arguments
	if args == "" {
		args = "{}"
	}
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(args), &probe); err != nil {
		raw, _ := json.Marshal(map[string]string{"raw": a.arguments})
		return ToolCall{ID: a.ID, Name: a.Name, Input: raw}
	}
	return ToolCall{ID: a.ID, Name: a.Name, Input: probe}
}

// ServerToolAccumulator mirrors ToolCallAccumulator for provider-executed
// tools (web-search, web-fetch).
type ServerToolAccumulator struct {
	ToolCallAccumulator
}

// ThinkingAccumulator assembles streamed reasoning text and its trailing
// signature.
type ThinkingAccumulator struct {
	Thinking  string
	Signature string
}

// DeltaThinking appends reasoning text.
func (a *ThinkingAccumulator) DeltaThinking(s string) { a.Thinking += s }

// DeltaSignature appends to the signature field (providers may stream it
// incrementally, same as thinking text).
func (a *ThinkingAccumulator) DeltaSignature(s string) { a.Signature += s }
