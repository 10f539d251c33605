package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/dualmind"
	"github.com/krustycode/agentcore/internal/metrics"
	"github.com/krustycode/agentcore/internal/streaming"
)

// tracer emits one span per tool dispatch (spec §4.6.2), sibling to
// internal/providerclient's per-request span.
var tracer = otel.Tracer("github.com/krustycode/agentcore/internal/orchestrator")

// significantTools are the tool names whose output is worth a post-review
// round-trip to the peer (spec §4.6.3: "post-review runs after
// significant tools, not every tool" — write/edit/bash mutate state,
// read/search do not).
var significantTools = map[string]bool{
	"write": true,
	"edit":  true,
	"bash":  true,
}

// dispatchToolCalls executes every pending tool call against the
// registry, running pre/post hooks and syncing dual-mind observations
// around each (spec §4.6.2). It returns one ToolResult Content per call,
// in call order, even when a call is refused or fails.
func (o *Orchestrator) dispatchToolCalls(ctx context.Context, calls []streaming.ToolCall, updates chan<- SessionUpdate) []canonical.Content {
	results := make([]canonical.Content, 0, len(calls))
	for _, call := range calls {
		if o.session.Cancelled() {
			results = append(results, failResult(call.ID, "cancelled"))
			continue
		}
		result := o.dispatchOne(ctx, call, updates)
		results = append(results, result)
	}
	return results
}

func (o *Orchestrator) dispatchOne(ctx context.Context, call streaming.ToolCall, updates chan<- SessionUpdate) canonical.Content {
	started := time.Now()

	ctx, span := tracer.Start(ctx, "orchestrator.dispatchOne", trace.WithAttributes(
		attribute.String("tool", call.Name),
	))
	defer span.End()

	tool, ok := o.registry.Get(call.Name)
	if !ok {
		span.SetStatus(codes.Error, "unknown tool")
		return failResult(call.ID, fmt.Sprintf("unknown tool %q", call.Name))
	}

	event := HookEvent{
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Input:      call.Input,
		SessionKey: o.session.Key,
	}

	if block := o.hooks.RunPre(ctx, event); block != nil {
		o.logger.Warn("tool call blocked by hook", "tool", call.Name, "hook", block.HookName)
		return failResult(call.ID, block.Error())
	}

	tc := &canonical.ToolContext{
		SessionKey:      o.session.Key,
		WorkingDir:      o.workingDir,
		SandboxRoot:     o.sandboxRoot,
		UserID:          o.userID,
		Timeout:         o.toolTimeout,
		PlanMode:        o.planMode,
		ProcessRegistry: o.processRegistry,
		SubAgents:       o.subAgents,
		MCP:             o.mcp,
		Skills:          o.skills,
	}

	callCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()

	execResult, err := tool.Execute(callCtx, tc, call.Input)

	outcome := "success"
	if err != nil || execResult.IsError {
		outcome = "error"
	}
	metrics.ToolExecutionDuration.WithLabelValues(call.Name, outcome).Observe(time.Since(started).Seconds())

	var content canonical.Content
	if err != nil {
		content = failResult(call.ID, err.Error())
	} else {
		isError := execResult.IsError
		content = canonical.ToolResult(call.ID, execResult.Output, &isError)
	}

	emit(updates, SessionUpdate{
		Kind:       UpdateToolCallUpdate,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		ToolKind:   ClassifyTool(call.Name),
		ToolResult: truncateForUpdate(string(execResult.Output)),
		ToolFailed: err != nil || execResult.IsError,
	})

	event.Output = execResult.Output
	event.IsError = err != nil || execResult.IsError
	event.Duration = time.Since(started)
	o.hooks.RunPost(ctx, event)

	if o.peer != nil {
		o.peer.SyncObservation(observationFor(call, execResult, err))
		if significantTools[call.Name] && err == nil && !execResult.IsError {
			result := o.peer.PostReview(ctx, summarizeOutput(call.Name, execResult.Output))
			if result.Kind == dualmind.NeedsEnhancement {
				o.session.Append(canonical.Message{
					Role:    canonical.RoleSystem,
					Content: []canonical.Content{canonical.Text("peer review: " + result.Critique)},
				})
			}
		}
	}

	return content
}

func failResult(toolUseID, reason string) canonical.Content {
	isErr := true
	payload, _ := json.Marshal(map[string]string{"error": reason})
	return canonical.ToolResult(toolUseID, payload, &isErr)
}

func truncateForUpdate(s string) string {
	const max = 4096
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

func observationFor(call streaming.ToolCall, result canonical.ToolExecResult, err error) dualmind.Observation {
	kind := dualmind.ObservationGeneric
	switch call.Name {
	case "edit":
		kind = dualmind.ObservationFileEdit
	case "write":
		kind = dualmind.ObservationFileWrite
	case "bash":
		kind = dualmind.ObservationBashCommand
	}
	summary := fmt.Sprintf("%s -> %s", call.Name, truncateForUpdate(string(result.Output)))
	if err != nil {
		summary = fmt.Sprintf("%s failed: %v", call.Name, err)
	}
	return dualmind.Observation{Kind: kind, Tool: call.Name, Summary: summary}
}

func summarizeOutput(toolName string, output json.RawMessage) string {
	return fmt.Sprintf("%s produced: %s", toolName, truncateForUpdate(string(output)))
}
