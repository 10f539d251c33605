package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handle adapts *Manager to canonical.MCPHandle: the narrow surface the
// orchestration core threads through ToolContext (spec §3, §6.4). The core
// never touches Manager directly, only this one method.
type Handle struct {
	mgr *Manager
}

// NewHandle wraps mgr. A nil mgr is valid and makes every call fail closed,
// so a session with no MCP servers configured can still construct a Handle.
func NewHandle(mgr *Manager) *Handle {
	return &Handle{mgr: mgr}
}

// CallTool invokes a tool on the named MCP server and encodes the server's
// whole result (content blocks included, unchanged) as one JSON payload for
// the canonical ToolResult.
func (h *Handle) CallTool(ctx context.Context, server, tool string, args json.RawMessage) (json.RawMessage, error) {
	if h == nil || h.mgr == nil {
		return nil, fmt.Errorf("mcp: no manager configured")
	}

	var arguments map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return nil, fmt.Errorf("mcp: decode tool arguments: %w", err)
		}
	}

	result, err := h.mgr.CallTool(ctx, server, tool, arguments)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("mcp: encode tool result: %w", err)
	}
	return out, nil
}
