package toolsimpl

import (
	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/subagent"
)

// ExplorerTools builds a read-only registry for Explorer sub-agents,
// backed by a shared explore cache (spec §4.5.3).
func ExplorerTools(cache *subagent.SharedExploreCache) *canonical.ToolRegistry {
	reg := canonical.NewToolRegistry()
	_ = reg.Register(&GlobTool{Cache: cache})
	_ = reg.Register(&GrepTool{})
	_ = reg.Register(&ReadTool{Cache: cache})
	return reg
}

// BuilderTools builds a read/write registry for Builder sub-agents (spec
// §4.5.3). Write/edit tools coordinate through whatever
// *subagent.SharedBuildContext the caller threads into ToolContext.Metadata
// at dispatch time; this registry itself is stateless with respect to locking.
func BuilderTools() *canonical.ToolRegistry {
	reg := canonical.NewToolRegistry()
	_ = reg.Register(&GlobTool{})
	_ = reg.Register(&GrepTool{})
	_ = reg.Register(&ReadTool{})
	_ = reg.Register(&WriteTool{})
	_ = reg.Register(&EditTool{})
	_ = reg.Register(&BashTool{})
	_ = reg.Register(&RegisterInterfaceTool{})
	return reg
}

// OrchestratorTools builds the full tool set the top-level Orchestrator
// exposes to the main conversation (spec §4.6.1 step 3: "Fetch tool
// definitions from the ToolRegistry"). It is BuilderTools plus
// dispatch_agents, the one tool that lets the top-level conversation fan
// work out to the sub-agent pool (spec §4.5, §4.6.1).
func OrchestratorTools() *canonical.ToolRegistry {
	reg := BuilderTools()
	_ = reg.Register(&DispatchAgentsTool{})
	return reg
}
