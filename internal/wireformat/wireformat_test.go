package wireformat

import (
	"encoding/json"
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
)

func TestAnthropicConvertMessagesExtractsSystem(t *testing.T) {
	msgs := []canonical.Message{
		{Role: canonical.RoleSystem, Content: []canonical.Content{canonical.Text("be terse")}},
		{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("hi")}},
	}
	h := NewAnthropicHandler()
	raw, system, err := h.ConvertMessages(msgs, ProviderHint{})
	if err != nil {
		t.Fatal(err)
	}
	if system != "be terse" {
		t.Errorf("system = %q, want %q", system, "be terse")
	}
	var out []anthropicMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Role != "user" {
		t.Errorf("unexpected wire messages: %+v", out)
	}
}

func TestAnthropicConvertMessagesInsertsFiller(t *testing.T) {
	msgs := []canonical.Message{
		{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("one")}},
		{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("two")}},
	}
	h := NewAnthropicHandler()
	raw, _, err := h.ConvertMessages(msgs, ProviderHint{})
	if err != nil {
		t.Fatal(err)
	}
	var out []anthropicMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected filler-bridged length 3, got %d", len(out))
	}
	if out[0].Role == out[1].Role || out[1].Role == out[2].Role {
		t.Errorf("adjacent messages share a role: %+v", out)
	}
}

func TestAnthropicThinkingRetentionOnlyOnLastPendingTools(t *testing.T) {
	input, _ := json.Marshal(map[string]string{"path": "/x"})
	msgs := []canonical.Message{
		{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("go")}},
		{Role: canonical.RoleAssistant, Content: []canonical.Content{
			canonical.Thinking("first thought", "sig1"),
			canonical.ToolUse("t1", "read", input),
		}},
		{Role: canonical.RoleTool, Content: []canonical.Content{canonical.ToolResult("t1", []byte(`"ok"`), nil)}},
		{Role: canonical.RoleAssistant, Content: []canonical.Content{
			canonical.Thinking("second thought", "sig2"),
			canonical.ToolUse("t2", "read", input),
		}},
		{Role: canonical.RoleTool, Content: []canonical.Content{canonical.ToolResult("t2", []byte(`"ok"`), nil)}},
	}
	h := NewAnthropicHandler()
	raw, _, err := h.ConvertMessages(msgs, ProviderHint{})
	if err != nil {
		t.Fatal(err)
	}
	var out []anthropicMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	thinkingCount := 0
	for _, m := range out {
		for _, c := range m.Content {
			if c.Type == "thinking" {
				thinkingCount++
				if c.Thinking != "second thought" {
					t.Errorf("retained thinking = %q, want %q", c.Thinking, "second thought")
				}
			}
		}
	}
	if thinkingCount != 1 {
		t.Errorf("expected exactly 1 retained thinking block, got %d", thinkingCount)
	}
}

func TestMapStopReason(t *testing.T) {
	tests := map[string]string{
		"stop":         "end_turn",
		"end_turn":     "end_turn",
		"STOP":         "end_turn",
		"length":       "max_tokens",
		"MAX_TOKENS":   "max_tokens",
		"tool_calls":   "tool_use",
		"function_call": "tool_use",
		"weird_REASON": "weird_reason",
	}
	for in, want := range tests {
		if got := mapStopReason(in); got != want {
			t.Errorf("mapStopReason(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeOpenAIChatResponse(t *testing.T) {
	body := []byte(`{
		"model": "gpt-5",
		"choices": [{
			"finish_reason": "tool_calls",
			"message": {
				"content": "",
				"tool_calls": [{"id":"c1","function":{"name":"read","arguments":"{}"}}]
			}
		}]
	}`)
	out, err := NormalizeOpenAIChatResponse(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Content) != 1 || out.Content[0].Type != "tool_use" {
		t.Errorf("unexpected content: %+v", out.Content)
	}
	if out.StopReason != "tool_use" {
		t.Errorf("stop reason = %q, want tool_use", out.StopReason)
	}
}
