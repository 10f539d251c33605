package subagent

import (
	"context"
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/wireformat"
)

func TestExplorerRunReturnsTextAndNoError(t *testing.T) {
	client := &scriptedClient{responses: []*wireformat.NormalizedResponse{
		{Content: []wireformat.NormalizedBlock{{Type: "text", Text: "found 3 call sites"}}},
	}}
	explorer := &Explorer{
		Client:   client,
		Registry: canonical.NewToolRegistry(),
		Cache:    NewSharedExploreCache(),
		Provider: "anthropic",
	}

	result := explorer.Run(context.Background(), canonical.SubAgentTask{
		ID: "t1", Role: canonical.SubAgentExplorer, Prompt: "find callers of Foo", ParentModel: "claude-opus-4-5",
	})

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Text != "found 3 call sites" {
		t.Errorf("got %q", result.Text)
	}
}

func TestBuilderRunRegistersInterfaceFromLabel(t *testing.T) {
	client := &scriptedClient{responses: []*wireformat.NormalizedResponse{
		{Content: []wireformat.NormalizedBlock{{Type: "text", Text: "type Storage interface{ Get(string) }"}}},
	}}
	buildCtx := NewSharedBuildContext()
	builder := &Builder{
		Client:   client,
		Registry: canonical.NewToolRegistry(),
		BuildCtx: buildCtx,
		Provider: "anthropic",
	}

	result := builder.Run(context.Background(), canonical.SubAgentTask{
		ID: "t2", Role: canonical.SubAgentBuilder, Prompt: "define Storage interface",
		Labels: map[string]string{"register_interface": "Storage"},
	})

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	injected := buildCtx.ContextInjection()
	if injected == "" {
		t.Fatal("expected Storage interface to be registered and injectable")
	}
}

func TestBuilderWithFileLockSerializesAccess(t *testing.T) {
	buildCtx := NewSharedBuildContext()
	builder := &Builder{BuildCtx: buildCtx}

	var order []string
	err := builder.WithFileLock("holder-a", "/repo/shared.go", func() error {
		order = append(order, "a")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	err = builder.WithFileLock("holder-b", "/repo/shared.go", func() error {
		order = append(order, "b")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 {
		t.Fatalf("expected both critical sections to run, got %v", order)
	}
}
