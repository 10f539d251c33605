package subagent

import (
	"context"
	"log/slog"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
)

// builderSystemPrompt is prefixed to every Builder's task prompt (spec
// §4.5.3: Builders may read and write files and must coordinate through
// the shared build context).
const builderSystemPrompt = "You are a read/write building sub-agent. You may edit files in your " +
	"working directory. Acquire the lock for a file before editing it, and respect conventions " +
	"and interfaces already established by other builders in this run."

// Builder is the read/write Runner: it edits files under a shared build
// context that coordinates locks, registered interfaces, and conventions
// across concurrently running Builders (spec §4.5.3).
type Builder struct {
	Client      ProviderClient
	Registry    *canonical.ToolRegistry
	BuildCtx    *SharedBuildContext
	Provider    string
	Logger      *slog.Logger
}

// Run implements Runner.
func (b *Builder) Run(ctx context.Context, task canonical.SubAgentTask) canonical.SubAgentResult {
	started := time.Now()
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tc := &canonical.ToolContext{
		SessionKey: task.ParentSessionKey,
		WorkingDir: task.WorkingDir,
		Metadata: map[string]any{
			"role":      string(canonical.SubAgentBuilder),
			"model":     SelectModel(b.Provider, task),
			"build_ctx": b.BuildCtx,
			"holder_id": task.ID,
		},
	}

	// System prompt is regenerated every turn so later builders see
	// interfaces/conventions registered by builders spawned after this
	// one started (spec §4.5.2, §4.5.5).
	systemFn := func() string {
		s := builderSystemPrompt
		if injected := b.BuildCtx.ContextInjection(); injected != "" {
			s += "\n\n" + injected
		}
		return s
	}

	initial := canonical.Message{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text(task.Prompt)}}
	text, err := runAgentLoop(ctx, b.Client, b.Registry, tc, systemFn, SelectModel(b.Provider, task), initial, logger)

	if iface, ok := task.Labels["register_interface"]; ok && iface != "" {
		b.BuildCtx.RegisterInterface(iface, text)
	}

	result := canonical.SubAgentResult{TaskID: task.ID, Role: canonical.SubAgentBuilder, Text: text, Started: started, Finished: time.Now()}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// WithFileLock acquires BuildCtx's lock on path for the duration of fn,
// bounded by the package's retry schedule (spec §4.5.4). The write and edit
// tools do not call it: they take the same lock directly from the
// *SharedBuildContext in ToolContext.Metadata["build_ctx"], keyed by
// ToolContext.Metadata["holder_id"].
func (b *Builder) WithFileLock(holderID, path string, fn func() error) error {
	guard, err := b.BuildCtx.AcquireLock(holderID, path)
	if err != nil {
		return err
	}
	defer guard.Release()
	return fn()
}
