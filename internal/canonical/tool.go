package canonical

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool is anything the orchestrator can dispatch a ToolUse block to.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, tc *ToolContext, input json.RawMessage) (ToolExecResult, error)
}

// ToolExecResult is the outcome of a single tool invocation, prior to being
// wrapped into a ToolResult content block.
type ToolExecResult struct {
	Output   json.RawMessage
	IsError  bool
	Artifact *Artifact
}

// Artifact is a non-textual side effect of a tool call (a patch, a rendered
// image, a generated file) that the orchestrator surfaces to the client
// independently of the text transcript.
type Artifact struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ToolContext is the bundle of collaborators threaded into every tool call
// (spec §3, §6.4). Core orchestration code only ever reads these handles; it
// never reaches into mcp/skills/shellproc internals directly.
type ToolContext struct {
	SessionKey string
	WorkingDir string

	// SandboxRoot additionally confines path resolution for multi-tenant
	// sessions; empty means WorkingDir is the only confinement boundary.
	SandboxRoot string

	UserID  string
	Timeout time.Duration

	// PlanMode marks the session read-only: write/edit/bash tools must
	// refuse to execute (spec §3, §4.6.2).
	PlanMode bool

	// StreamOutput carries incremental tool output for long-running
	// tools (e.g. bash) back to the session-update channel.
	StreamOutput chan<- string
	// BuildProgress and ExploreProgress carry sub-agent pool progress
	// notifications (spec §3 ToolContext "build/explore progress
	// channels"); nil unless the call originates from a pool-spawned task.
	BuildProgress   chan<- string
	ExploreProgress chan<- string

	MCP             MCPHandle
	Skills          SkillsHandle
	ProcessRegistry ProcessRegistryHandle
	SubAgents       SubAgentDispatcherHandle

	Metadata map[string]any
}

// SubAgentDispatcherHandle is the narrow surface a tool needs to spawn a
// sub-agent pool (spec §4.5, §4.6.1: "Tool execution and sub-agent
// spawning are invoked by the Orchestrator").
type SubAgentDispatcherHandle interface {
	Dispatch(ctx context.Context, tasks []SubAgentTask) []SubAgentResult
}

// MCPHandle is the narrow surface the core needs from the MCP manager.
type MCPHandle interface {
	CallTool(ctx context.Context, server, tool string, args json.RawMessage) (json.RawMessage, error)
}

// SkillsHandle is the narrow surface the core needs from the skills manager.
type SkillsHandle interface {
	Eligible(ctx context.Context, intent string) []string
}

// ProcessRegistryHandle is the narrow surface the core needs from the
// background-process registry for long-running shell tools.
type ProcessRegistryHandle interface {
	Register(sessionKey, command string) (id string)
	Release(id string)
}

// ToolRegistry holds the set of tools available to a session, keyed by name.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// MaxToolNameLength bounds a registered tool's name.
const MaxToolNameLength = 256

// MaxToolInputBytes bounds the serialized size of a tool-call's input.
const MaxToolInputBytes = 10 * 1024 * 1024

// NewToolRegistry constructs an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds a tool, validating its name and schema. The schema is
// compiled with jsonschema/v5 to reject malformed definitions at
// registration time rather than at first dispatch.
func (r *ToolRegistry) Register(t Tool) error {
	name := t.Name()
	if name == "" || len(name) > MaxToolNameLength {
		return fmt.Errorf("canonical: invalid tool name %q", name)
	}
	if schema := t.Schema(); len(schema) > 0 {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name+".json", bytes.NewReader(schema)); err != nil {
			return fmt.Errorf("canonical: tool %q has invalid schema: %w", name, err)
		}
		if _, err := compiler.Compile(name + ".json"); err != nil {
			return fmt.Errorf("canonical: tool %q schema failed to compile: %w", name, err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = t
	return nil
}

// Get returns the named tool, or false if it isn't registered.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool in no particular order.
func (r *ToolRegistry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

