package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/providerclient"
	"github.com/krustycode/agentcore/internal/streaming"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// scriptedProvider replays a fixed sequence of turns, one per call to
// CallStreaming, ignoring the actual message/tool arguments.
type scriptedProvider struct {
	turns      [][]streaming.StreamPart
	calls      int
	cancelAt   int
	cancelFunc func()
}

func (p *scriptedProvider) CallStreaming(ctx context.Context, messages []canonical.Message, tools []wireformat.ToolDef, opts providerclient.CallOptions) (<-chan streaming.StreamPart, error) {
	if p.cancelFunc != nil && p.calls == p.cancelAt {
		p.cancelFunc()
	}
	turn := p.turns[p.calls]
	p.calls++
	ch := make(chan streaming.StreamPart, len(turn))
	for _, part := range turn {
		ch <- part
	}
	close(ch)
	return ch, nil
}

type echoTool struct{}

func (echoTool) Name() string               { return "echo" }
func (echoTool) Description() string        { return "echoes its input" }
func (echoTool) Schema() json.RawMessage    { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	return canonical.ToolExecResult{Output: input}, nil
}

func newTestOrchestrator(t *testing.T, provider ProviderClient) *Orchestrator {
	t.Helper()
	registry := canonical.NewToolRegistry()
	if err := registry.Register(echoTool{}); err != nil {
		t.Fatalf("register tool: %v", err)
	}
	session := canonical.NewSession("sess-1", "key-1", "anthropic", "claude-test")
	return New(Config{
		Session:  session,
		Registry: registry,
		Provider: provider,
	})
}

func TestHandlePromptEndsTurnWithoutToolCalls(t *testing.T) {
	provider := &scriptedProvider{turns: [][]streaming.StreamPart{
		{
			{Kind: streaming.PartTextDelta, TextDelta: "hello"},
			{Kind: streaming.PartFinish, FinishReason: "end_turn"},
		},
	}}
	o := newTestOrchestrator(t, provider)

	updates := make(chan SessionUpdate, 16)
	reason, err := o.HandlePrompt(context.Background(), "hi", updates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopEndTurn {
		t.Fatalf("expected StopEndTurn, got %v", reason)
	}
	history := o.session.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 messages (user, assistant), got %d", len(history))
	}
}

func TestHandlePromptExecutesToolThenEnds(t *testing.T) {
	provider := &scriptedProvider{turns: [][]streaming.StreamPart{
		{
			{Kind: streaming.PartToolCallStart, ToolCallID: "t1", ToolCallName: "echo"},
			{Kind: streaming.PartToolCallComplete, ToolCallID: "t1", ToolCall: &streaming.ToolCall{ID: "t1", Name: "echo", Input: json.RawMessage(`{"x":1}`)}},
			{Kind: streaming.PartFinish, FinishReason: "tool_use"},
		},
		{
			{Kind: streaming.PartTextDelta, TextDelta: "done"},
			{Kind: streaming.PartFinish, FinishReason: "end_turn"},
		},
	}}
	o := newTestOrchestrator(t, provider)

	updates := make(chan SessionUpdate, 16)
	reason, err := o.HandlePrompt(context.Background(), "run echo", updates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopEndTurn {
		t.Fatalf("expected StopEndTurn, got %v", reason)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.calls)
	}
	history := o.session.History()
	// user, assistant(tool_use), tool(result), assistant(text)
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history))
	}
	if history[2].Role != canonical.RoleTool {
		t.Fatalf("expected tool role at index 2, got %v", history[2].Role)
	}
}

func TestHandlePromptRespectsCancellation(t *testing.T) {
	provider := &scriptedProvider{turns: [][]streaming.StreamPart{
		{
			{Kind: streaming.PartToolCallStart, ToolCallID: "t1", ToolCallName: "echo"},
			{Kind: streaming.PartToolCallComplete, ToolCallID: "t1", ToolCall: &streaming.ToolCall{ID: "t1", Name: "echo", Input: json.RawMessage(`{}`)}},
			{Kind: streaming.PartFinish, FinishReason: "tool_use"},
		},
	}}
	o := newTestOrchestrator(t, provider)
	provider.cancelAt = 0
	provider.cancelFunc = func() { o.session.Cancel() }

	reason, err := o.HandlePrompt(context.Background(), "hi", nil)
	if reason != StopCancelled {
		t.Fatalf("expected StopCancelled, got %v", reason)
	}
	if err == nil {
		t.Fatal("expected an error for cancellation")
	}
}

func TestHandlePromptNoProviderConfigured(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	reason, err := o.HandlePrompt(context.Background(), "hi", nil)
	if reason != StopRefusal || err != ErrNoProvider {
		t.Fatalf("expected StopRefusal/ErrNoProvider, got %v/%v", reason, err)
	}
}

func TestHandlePromptPropagatesStreamError(t *testing.T) {
	provider := &scriptedProvider{turns: [][]streaming.StreamPart{
		{{Kind: streaming.PartError, Err: context.DeadlineExceeded}},
	}}
	o := newTestOrchestrator(t, provider)
	reason, err := o.HandlePrompt(context.Background(), "hi", nil)
	if reason != StopRefusal {
		t.Fatalf("expected StopRefusal, got %v", reason)
	}
	if err == nil {
		t.Fatal("expected a wrapped stream error")
	}
}
