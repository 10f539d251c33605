package subagent

import (
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
)

func TestSelectModelAnthropicTiersByRole(t *testing.T) {
	explorerTask := canonical.SubAgentTask{Role: canonical.SubAgentExplorer, ParentModel: "claude-opus-4-5"}
	builderTask := canonical.SubAgentTask{Role: canonical.SubAgentBuilder, ParentModel: "claude-opus-4-5"}

	if got := SelectModel("anthropic", explorerTask); got != "claude-haiku-4-5" {
		t.Errorf("explorer model = %q, want claude-haiku-4-5", got)
	}
	if got := SelectModel("anthropic", builderTask); got != "claude-sonnet-4-5" {
		t.Errorf("builder model = %q, want claude-sonnet-4-5", got)
	}
}

func TestSelectModelNonAnthropicKeepsParentModel(t *testing.T) {
	task := canonical.SubAgentTask{Role: canonical.SubAgentExplorer, ParentModel: "gpt-5-mini"}
	if got := SelectModel("openai", task); got != "gpt-5-mini" {
		t.Errorf("got %q, want %q", got, "gpt-5-mini")
	}
}
