package streaming

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// fakeParser maps a fixed list of frames (keyed by event data) to SseEvents,
// used so tests can drive the engine without a real provider.
type fakeParser struct {
	events map[string]SseEvent
}

func (p *fakeParser) ParseEvent(name string, data json.RawMessage) SseEvent {
	return p.events[string(data)]
}

func drain(t *testing.T, ch <-chan StreamPart) []StreamPart {
	t.Helper()
	var out []StreamPart
	timeout := time.After(2 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, p)
		case <-timeout:
			t.Fatal("timed out draining stream")
		}
	}
}

func TestEngineSingleTurnText(t *testing.T) {
	raw := "data: d1\n\ndata: d2\n\ndata: d3\n\ndata: [DONE]\n\n"
	parser := &fakeParser{events: map[string]SseEvent{
		"d1": {Kind: PartTextDelta, Text: "H"},
		"d2": {Kind: PartTextDelta, Text: "i"},
		"d3": {Kind: PartTextDelta, Text: "!"},
	}}
	eng := NewEngine(nil)
	parts := drain(t, eng.Run(context.Background(), strings.NewReader(raw), parser, "anthropic", "claude"))

	var text string
	sawFinish := false
	for _, p := range parts {
		if p.Kind == PartTextDelta {
			text += p.TextDelta
		}
		if p.Kind == PartFinish {
			sawFinish = true
		}
	}
	if text != "Hi!" {
		t.Errorf("concatenated text = %q, want Hi!", text)
	}
	if !sawFinish {
		t.Error("expected a Finish event")
	}
}

func TestEngineToolCall(t *testing.T) {
	raw := "data: start\n\ndata: delta\n\ndata: complete\n\ndata: finish\n\n"
	parser := &fakeParser{events: map[string]SseEvent{
		"start":    {Kind: PartToolCallStart, Index: 0, ToolCallID: "t_1", ToolCallName: "read"},
		"delta":    {Kind: PartToolCallDelta, Index: 0, ArgsDelta: `{"path":"/x"}`},
		"complete": {Kind: PartToolCallComplete, Index: 0},
		"finish":   {Kind: PartFinish, FinishReason: "tool_use"},
	}}
	eng := NewEngine(nil)
	parts := drain(t, eng.Run(context.Background(), strings.NewReader(raw), parser, "anthropic", "claude"))

	var call *ToolCall
	for _, p := range parts {
		if p.Kind == PartToolCallComplete {
			call = p.ToolCall
		}
	}
	if call == nil {
		t.Fatal("expected a completed tool call")
	}
	if call.ID != "t_1" || call.Name != "read" {
		t.Errorf("unexpected tool call: %+v", call)
	}
	if string(call.Input) != `{"path":"/x"}` {
		t.Errorf("tool call input = %s", call.Input)
	}
}

func TestEngineImplicitEndTurnWhenStreamEndsWithoutFinish(t *testing.T) {
	raw := "data: d1\n\n"
	parser := &fakeParser{events: map[string]SseEvent{
		"d1": {Kind: PartTextDelta, Text: "partial"},
	}}
	eng := NewEngine(nil)
	parts := drain(t, eng.Run(context.Background(), strings.NewReader(raw), parser, "anthropic", "claude"))

	var gotFinish bool
	var reason string
	for _, p := range parts {
		if p.Kind == PartFinish {
			gotFinish = true
			reason = p.FinishReason
		}
	}
	if !gotFinish || reason != "end_turn" {
		t.Errorf("expected implicit end_turn finish, got finish=%v reason=%q", gotFinish, reason)
	}
}

func TestEngineCommentLinesIgnored(t *testing.T) {
	raw := ": keep-alive\n\ndata: d1\n\ndata: [DONE]\n\n"
	parser := &fakeParser{events: map[string]SseEvent{
		"d1": {Kind: PartTextDelta, Text: "ok"},
	}}
	eng := NewEngine(nil)
	parts := drain(t, eng.Run(context.Background(), strings.NewReader(raw), parser, "anthropic", "claude"))
	found := false
	for _, p := range parts {
		if p.Kind == PartTextDelta && p.TextDelta == "ok" {
			found = true
		}
	}
	if !found {
		t.Error("expected text delta 'ok' to survive a leading comment line")
	}
}
