package toolsimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/subagent"
)

// RegisterInterfaceTool lets a Builder publish what its module offers so
// later-spawned Builders can discover already-declared symbols (spec
// §4.5.5). Outside a builder pool invocation (no "build_ctx" in
// ToolContext.Metadata) it registers nothing and returns an error result.
type RegisterInterfaceTool struct{}

func (t *RegisterInterfaceTool) Name() string { return "register_interface" }
func (t *RegisterInterfaceTool) Description() string {
	return "Publish the exported symbols and description of a file this builder owns."
}

func (t *RegisterInterfaceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"file_path":{"type":"string"},
			"exports":{"type":"array","items":{"type":"string"}},
			"description":{"type":"string"}
		},
		"required":["file_path","exports"]
	}`)
}

func (t *RegisterInterfaceTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	var args struct {
		FilePath    string   `json:"file_path"`
		Exports     []string `json:"exports"`
		Description string   `json:"description"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	buildCtx, _ := tc.Metadata["build_ctx"].(*subagent.SharedBuildContext)
	holderID, _ := tc.Metadata["holder_id"].(string)
	if buildCtx == nil {
		return errResult("register_interface is only available to builders"), nil
	}

	summary := args.FilePath + ": " + strings.Join(args.Exports, ", ")
	if args.Description != "" {
		summary += " — " + args.Description
	}
	buildCtx.RegisterInterface(holderID+":"+args.FilePath, summary)

	return okResult("interface registered"), nil
}
