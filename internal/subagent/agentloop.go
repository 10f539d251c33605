package subagent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/retry"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// MaxTurns bounds a single sub-agent's agentic loop (spec §4.5.2).
const MaxTurns = 50

// ProviderClient is the narrow surface an agent loop needs from
// internal/providerclient, kept as an interface so tests can fake it.
// model, when non-empty, overrides the caller's configured model for one
// call (spec §4.5.6's per-task tiering).
type ProviderClient interface {
	CallWithTools(ctx context.Context, system string, messages []canonical.Message, tools []wireformat.ToolDef, maxTokens int, model string) (*wireformat.NormalizedResponse, error)
}

// toolDefsFor converts a registry's tools into wire tool definitions.
func toolDefsFor(registry *canonical.ToolRegistry) []wireformat.ToolDef {
	tools := registry.All()
	defs := make([]wireformat.ToolDef, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, wireformat.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		})
	}
	return defs
}

// runAgentLoop drives one sub-agent's bounded turn loop (spec §4.5.2): call
// the model with tools, dispatch any tool_use blocks against tc, append the
// results, and repeat until the model stops requesting tools, the turn cap
// is hit, or ctx is cancelled. systemFn is invoked fresh every turn
// (builders refresh it to splice in the latest shared-build-context
// injection block; explorers return a constant string). model is the
// per-task tier selected by SelectModel (spec §4.5.6). The call to the
// provider is wrapped in the Aggressive retry preset, per spec §4.5.2:
// "response <- call_with_tools via Retry (aggressive preset)".
func runAgentLoop(ctx context.Context, client ProviderClient, registry *canonical.ToolRegistry, tc *canonical.ToolContext, systemFn func() string, model string, initial canonical.Message, logger *slog.Logger) (string, error) {
	tools := toolDefsFor(registry)
	history := []canonical.Message{initial}

	var finalText string
	for turn := 0; turn < MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return finalText, err
		}

		system := systemFn()
		resp, retryResult := retry.DoWithValue(ctx, retry.AggressivePreset(), func() (*wireformat.NormalizedResponse, error) {
			return client.CallWithTools(ctx, system, history, tools, 8192, model)
		})
		if retryResult.Err != nil {
			return finalText, retryResult.Err
		}

		assistant := canonical.Message{Role: canonical.RoleAssistant}
		var toolUses []canonical.Content
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				finalText += block.Text
				assistant.Content = append(assistant.Content, canonical.Text(block.Text))
			case "tool_use":
				c := canonical.ToolUse(block.ID, block.Name, block.Input)
				assistant.Content = append(assistant.Content, c)
				toolUses = append(toolUses, c)
			}
		}
		history = append(history, assistant)

		if len(toolUses) == 0 {
			return finalText, nil
		}

		results := canonical.Message{Role: canonical.RoleUser}
		for _, use := range toolUses {
			out, isErr := dispatchTool(ctx, registry, tc, use, logger)
			results.Content = append(results.Content, canonical.ToolResult(use.ToolUseID, out, &isErr))
		}
		history = append(history, results)
	}

	return finalText, nil
}

func dispatchTool(ctx context.Context, registry *canonical.ToolRegistry, tc *canonical.ToolContext, use canonical.Content, logger *slog.Logger) (json.RawMessage, bool) {
	tool, ok := registry.Get(use.ToolName)
	if !ok {
		return json.RawMessage(`{"error":"unknown tool"}`), true
	}
	result, err := tool.Execute(ctx, tc, use.ToolInput)
	if err != nil {
		logger.Warn("tool execution failed", "tool", use.ToolName, "err", err)
		return json.RawMessage(`{"error":` + quoteJSON(err.Error()) + `}`), true
	}
	return result.Output, result.IsError
}

func quoteJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
