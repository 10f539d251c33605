package subagent

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/wireformat"
)

type fakeEchoTool struct{}

func (fakeEchoTool) Name() string                  { return "echo" }
func (fakeEchoTool) Description() string           { return "echoes its input" }
func (fakeEchoTool) Schema() json.RawMessage       { return json.RawMessage(`{"type":"object"}`) }
func (fakeEchoTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	return canonical.ToolExecResult{Output: input}, nil
}

// scriptedClient replays a fixed sequence of NormalizedResponses, one per
// CallWithTools invocation, so the agent loop's turn-taking can be tested
// without a real provider.
type scriptedClient struct {
	responses []*wireformat.NormalizedResponse
	calls     int
}

func (c *scriptedClient) CallWithTools(ctx context.Context, system string, messages []canonical.Message, tools []wireformat.ToolDef, maxTokens int, model string) (*wireformat.NormalizedResponse, error) {
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func constSystem(s string) func() string {
	return func() string { return s }
}

func TestRunAgentLoopStopsWhenNoToolUse(t *testing.T) {
	client := &scriptedClient{responses: []*wireformat.NormalizedResponse{
		{Content: []wireformat.NormalizedBlock{{Type: "text", Text: "done"}}, StopReason: "end_turn"},
	}}
	registry := canonical.NewToolRegistry()

	text, err := runAgentLoop(context.Background(), client, registry, &canonical.ToolContext{}, constSystem("system"), "", canonical.Message{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("hi")}}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if text != "done" {
		t.Errorf("got %q, want %q", text, "done")
	}
	if client.calls != 1 {
		t.Errorf("expected exactly one call, got %d", client.calls)
	}
}

func TestRunAgentLoopDispatchesToolAndContinues(t *testing.T) {
	client := &scriptedClient{responses: []*wireformat.NormalizedResponse{
		{Content: []wireformat.NormalizedBlock{
			{Type: "tool_use", ID: "call_1", Name: "echo", Input: json.RawMessage(`{"x":1}`)},
		}},
		{Content: []wireformat.NormalizedBlock{{Type: "text", Text: "final answer"}}},
	}}
	registry := canonical.NewToolRegistry()
	if err := registry.Register(fakeEchoTool{}); err != nil {
		t.Fatal(err)
	}

	text, err := runAgentLoop(context.Background(), client, registry, &canonical.ToolContext{}, constSystem("system"), "", canonical.Message{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("hi")}}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if text != "final answer" {
		t.Errorf("got %q, want %q", text, "final answer")
	}
	if client.calls != 2 {
		t.Errorf("expected two calls (one per turn), got %d", client.calls)
	}
}

func TestRunAgentLoopUnknownToolReturnsError(t *testing.T) {
	client := &scriptedClient{responses: []*wireformat.NormalizedResponse{
		{Content: []wireformat.NormalizedBlock{
			{Type: "tool_use", ID: "call_1", Name: "does_not_exist", Input: json.RawMessage(`{}`)},
		}},
		{Content: []wireformat.NormalizedBlock{{Type: "text", Text: "recovered"}}},
	}}
	registry := canonical.NewToolRegistry()

	text, err := runAgentLoop(context.Background(), client, registry, &canonical.ToolContext{}, constSystem("system"), "", canonical.Message{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("hi")}}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if text != "recovered" {
		t.Errorf("got %q, want %q", text, "recovered")
	}
}

func TestRunAgentLoopRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{responses: []*wireformat.NormalizedResponse{
		{Content: []wireformat.NormalizedBlock{{Type: "text", Text: "unreachable"}}},
	}}
	registry := canonical.NewToolRegistry()

	_, err := runAgentLoop(ctx, client, registry, &canonical.ToolContext{}, constSystem("system"), "", canonical.Message{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text("hi")}}, slog.Default())
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if client.calls != 0 {
		t.Errorf("expected no calls after cancellation, got %d", client.calls)
	}
}
