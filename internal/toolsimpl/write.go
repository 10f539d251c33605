package toolsimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/subagent"
)

// FileLocker is the file-lock surface a Builder offers
// (subagent.Builder.WithFileLock) to serialize concurrent writes (spec
// §4.5.4). WriteTool and EditTool do not go through it; withOptionalLock
// takes the lock from the *subagent.SharedBuildContext in the ToolContext
// metadata directly.
type FileLocker interface {
	WithFileLock(holderID, path string, fn func() error) error
}

// WriteTool writes file contents, refusing to run in plan mode and
// taking the shared build context's file lock when the ToolContext
// metadata carries one (key "build_ctx" holding a *subagent.SharedBuildContext,
// "holder_id" holding the calling builder's task id).
type WriteTool struct{}

func (t *WriteTool) Name() string        { return "write" }
func (t *WriteTool) Description() string { return "Write content to a file (overwrites by default)." }

func (t *WriteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"path":{"type":"string"},
			"content":{"type":"string"},
			"append":{"type":"boolean"}
		},
		"required":["path","content"]
	}`)
}

func (t *WriteTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	if tc.PlanMode {
		return errResult("write is disabled in plan mode"), nil
	}

	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
		Append  bool   `json:"append"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	resolved, err := (Resolver{Root: tc.WorkingDir, SandboxRoot: tc.SandboxRoot}).Resolve(args.Path)
	if err != nil {
		return errResult(err.Error()), nil
	}

	doWrite := func() error {
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return err
		}
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if args.Append {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(resolved, flags, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteString(args.Content)
		return err
	}

	if err := withOptionalLock(tc, resolved, doWrite); err != nil {
		return errResult(err.Error()), nil
	}
	return okResult(fmt.Sprintf("wrote %d bytes to %s", len(args.Content), args.Path)), nil
}

// withOptionalLock runs fn under the builder's file lock when tc carries
// one (spec §4.5.4), otherwise runs fn unguarded — the path the
// Orchestrator's direct tool dispatch takes, which has no concurrent
// writers to coordinate against.
func withOptionalLock(tc *canonical.ToolContext, path string, fn func() error) error {
	buildCtx, _ := tc.Metadata["build_ctx"].(*subagent.SharedBuildContext)
	holderID, _ := tc.Metadata["holder_id"].(string)
	if buildCtx == nil || holderID == "" {
		return fn()
	}
	guard, err := buildCtx.AcquireLock(holderID, path)
	if err != nil {
		return err
	}
	defer guard.Release()
	return fn()
}
