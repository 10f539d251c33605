package streaming

import (
	"encoding/json"
	"testing"
)

func TestToolCallAccumulatorCompleteValidJSON(t *testing.T) {
	acc := &ToolCallAccumulator{ID: "t1", Name: "read"}
	acc.Delta(`{"path":`)
	acc.Delta(`"/x"}`)
	call := acc.Complete()
	if call.ID != "t1" || call.Name != "read" {
		t.Fatalf("unexpected call: %+v", call)
	}
	if string(call.Input) != `{"path":"/x"}` {
		t.Errorf("input = %s", call.Input)
	}
}

func TestToolCallAccumulatorCompleteEmptyArgs(t *testing.T) {
	acc := &ToolCallAccumulator{ID: "t1", Name: "list"}
	call := acc.Complete()
	if string(call.Input) != "{}" {
		t.Errorf("empty args should parse to {}, got %s", call.Input)
	}
}

func TestToolCallAccumulatorCompleteMalformedJSON(t *testing.T) {
	acc := &ToolCallAccumulator{ID: "t1", Name: "read"}
	acc.Delta(`{"path": not valid`)
	call := acc.Complete()
	var decoded map[string]string
	if err := json.Unmarshal(call.Input, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["raw"] != `{"path": not valid` {
		t.Errorf("expected raw fallback, got %+v", decoded)
	}
}

func TestThinkingAccumulator(t *testing.T) {
	acc := &ThinkingAccumulator{}
	acc.DeltaThinking("let me ")
	acc.DeltaThinking("think")
	acc.DeltaSignature("sig")
	if acc.Thinking != "let me think" {
		t.Errorf("thinking = %q", acc.Thinking)
	}
	if acc.Signature != "sig" {
		t.Errorf("signature = %q", acc.Signature)
	}
}
