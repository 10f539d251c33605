package subagent

import (
	"context"
	"log/slog"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
)

// explorerSystemPrompt is prefixed to every Explorer's task prompt (spec
// §4.5.3: Explorers are read-only investigators).
const explorerSystemPrompt = "You are a read-only exploration sub-agent. Investigate the codebase " +
	"and report findings; you must not modify any files."

// Explorer is the read-only Runner: it answers questions about the
// codebase using a shared read-through cache, never writes files (spec
// §4.5.3). Provider is the backing provider name, used only for model
// tiering (spec §4.5.6).
type Explorer struct {
	Client   ProviderClient
	Registry *canonical.ToolRegistry
	Cache    *SharedExploreCache
	Provider string
	Logger   *slog.Logger
}

// Run implements Runner.
func (e *Explorer) Run(ctx context.Context, task canonical.SubAgentTask) canonical.SubAgentResult {
	started := time.Now()
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tc := &canonical.ToolContext{
		SessionKey: task.ParentSessionKey,
		WorkingDir: task.WorkingDir,
		Metadata:   map[string]any{"role": string(canonical.SubAgentExplorer), "model": SelectModel(e.Provider, task)},
	}

	initial := canonical.Message{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text(task.Prompt)}}
	systemFn := func() string { return explorerSystemPrompt }
	text, err := runAgentLoop(ctx, e.Client, e.Registry, tc, systemFn, SelectModel(e.Provider, task), initial, logger)

	result := canonical.SubAgentResult{TaskID: task.ID, Role: canonical.SubAgentExplorer, Text: text, Started: started, Finished: time.Now()}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
