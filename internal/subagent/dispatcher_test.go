package subagent

import (
	"context"
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// constClient always returns the same immediate end_turn response,
// regardless of role, so dispatcher tests can focus on routing and
// result ordering rather than scripting multi-turn loops.
type constClient struct{ text string }

func (c *constClient) CallWithTools(ctx context.Context, system string, messages []canonical.Message, tools []wireformat.ToolDef, maxTokens int, model string) (*wireformat.NormalizedResponse, error) {
	return &wireformat.NormalizedResponse{
		Content:    []wireformat.NormalizedBlock{{Type: "text", Text: c.text}},
		StopReason: "end_turn",
	}, nil
}

func noExplorerTools(cache *SharedExploreCache) *canonical.ToolRegistry { return canonical.NewToolRegistry() }
func noBuilderTools() *canonical.ToolRegistry                           { return canonical.NewToolRegistry() }

func TestDispatcherRoutesByRoleAndPreservesOrder(t *testing.T) {
	d := &Dispatcher{
		Client:        &constClient{text: "report"},
		Provider:      "anthropic",
		ExplorerTools: noExplorerTools,
		BuilderTools:  noBuilderTools,
	}

	tasks := []canonical.SubAgentTask{
		{ID: "t0", Role: canonical.SubAgentExplorer, Prompt: "look around"},
		{ID: "t1", Role: canonical.SubAgentBuilder, Prompt: "make the change"},
		{ID: "t2", Role: canonical.SubAgentExplorer, Prompt: "look elsewhere"},
	}

	results := d.Dispatch(context.Background(), tasks)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"t0", "t1", "t2"} {
		if results[i].TaskID != want {
			t.Errorf("results[%d].TaskID = %q, want %q", i, results[i].TaskID, want)
		}
		if results[i].Text != "report" {
			t.Errorf("results[%d].Text = %q, want %q", i, results[i].Text, "report")
		}
		if results[i].Error != "" {
			t.Errorf("results[%d].Error = %q, want empty", i, results[i].Error)
		}
	}
	if results[0].Role != canonical.SubAgentExplorer || results[2].Role != canonical.SubAgentExplorer {
		t.Errorf("expected explorer role on tasks 0 and 2")
	}
	if results[1].Role != canonical.SubAgentBuilder {
		t.Errorf("expected builder role on task 1")
	}
}

func TestDispatcherScopesCacheAndBuildContextPerCall(t *testing.T) {
	var seenCaches []*SharedExploreCache
	explorerTools := func(cache *SharedExploreCache) *canonical.ToolRegistry {
		seenCaches = append(seenCaches, cache)
		return canonical.NewToolRegistry()
	}

	d := &Dispatcher{
		Client:        &constClient{text: "ok"},
		Provider:      "anthropic",
		ExplorerTools: explorerTools,
		BuilderTools:  noBuilderTools,
	}

	d.Dispatch(context.Background(), []canonical.SubAgentTask{{ID: "a", Role: canonical.SubAgentExplorer}})
	d.Dispatch(context.Background(), []canonical.SubAgentTask{{ID: "b", Role: canonical.SubAgentExplorer}})

	if len(seenCaches) != 2 {
		t.Fatalf("expected one cache per Dispatch call, got %d", len(seenCaches))
	}
	if seenCaches[0] == seenCaches[1] {
		t.Errorf("expected distinct SharedExploreCache instances across Dispatch calls, got the same one")
	}
}
