package subagent

import (
	"context"
	"log/slog"

	"github.com/krustycode/agentcore/internal/canonical"
)

// roleRouter dispatches each task to an Explorer or Builder Runner
// depending on task.Role, sharing one SharedExploreCache and one
// SharedBuildContext across every task in a single Dispatch call (spec
// §4.5.1: "the pool fans out a single round of Explorer/Builder tasks and
// collects results").
type roleRouter struct {
	explorer *Explorer
	builder  *Builder
}

func (r *roleRouter) Run(ctx context.Context, task canonical.SubAgentTask) canonical.SubAgentResult {
	switch task.Role {
	case canonical.SubAgentBuilder:
		return r.builder.Run(ctx, task)
	default:
		return r.explorer.Run(ctx, task)
	}
}

// Dispatcher implements canonical.SubAgentDispatcherHandle, giving the
// top-level Orchestrator's tool registry a way to spawn a bounded,
// staggered fleet of Explorer/Builder sub-agents per spec §4.5 and
// §4.6.1 ("Tool execution and sub-agent spawning are invoked by the
// Orchestrator"). Each Dispatch call is one pool invocation: it gets its
// own SharedExploreCache and SharedBuildContext, scoped to the tasks
// passed in that call.
//
// The registry factories are injected rather than constructed here
// because the concrete tool set (glob/grep/read/write/edit/bash) lives in
// internal/toolsimpl, which already imports this package — Dispatcher
// cannot import toolsimpl back without a cycle, so toolsimpl.ExplorerTools
// and toolsimpl.BuilderTools are passed in directly by whoever wires the
// Dispatcher (cmd/krustycore/main.go).
type Dispatcher struct {
	Client          ProviderClient
	Provider        string
	ExplorerTools   func(cache *SharedExploreCache) *canonical.ToolRegistry
	BuilderTools    func() *canonical.ToolRegistry
	Concurrency     int
	Logger          *slog.Logger
}

// Dispatch fans tasks out across a fresh Pool and returns results in the
// same order as tasks.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []canonical.SubAgentTask) []canonical.SubAgentResult {
	cache := NewSharedExploreCache()
	buildCtx := NewSharedBuildContext()

	router := &roleRouter{
		explorer: &Explorer{
			Client:   d.Client,
			Registry: d.ExplorerTools(cache),
			Cache:    cache,
			Provider: d.Provider,
			Logger:   d.Logger,
		},
		builder: &Builder{
			Client:   d.Client,
			Registry: d.BuilderTools(),
			BuildCtx: buildCtx,
			Provider: d.Provider,
			Logger:   d.Logger,
		},
	}

	pool := New(Config{
		Concurrency: d.Concurrency,
		Provider:    d.Provider,
		Runner:      router,
		Logger:      d.Logger,
	})

	return pool.Execute(ctx, tasks)
}
