package subagent

import "github.com/krustycode/agentcore/internal/canonical"

// anthropicTiers maps a sub-agent role to a cheaper Anthropic model than
// whatever the parent session is using, since exploration and building are
// high-volume, latency-sensitive calls (spec §4.5.6). Only Anthropic gets
// tiered down; every other provider keeps the user's currently selected
// model, since no cross-provider cost/latency table is named in scope.
var anthropicTiers = map[canonical.SubAgentRole]string{
	canonical.SubAgentExplorer: "claude-haiku-4-5",
	canonical.SubAgentBuilder:  "claude-sonnet-4-5",
}

// SelectModel implements §4.5.6's per-task model selection: Anthropic
// sessions route sub-agents to a fixed tier by role; all other providers
// fall back to whatever model the task itself already carries (the
// parent's currently selected model, unchanged).
func SelectModel(provider string, task canonical.SubAgentTask) string {
	if provider != "anthropic" {
		return task.ParentModel
	}
	if tier, ok := anthropicTiers[task.Role]; ok {
		return tier
	}
	return task.ParentModel
}
