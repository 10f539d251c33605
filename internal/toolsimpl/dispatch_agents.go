package toolsimpl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krustycode/agentcore/internal/canonical"
)

// DispatchAgentsTool lets the top-level Orchestrator fan work out to a
// bounded, staggered fleet of explorer/builder sub-agents (spec §4.5,
// §4.6.1). It is only registered into OrchestratorTools, never into the
// Explorer/Builder registries themselves — sub-agents do not spawn
// further sub-agents (spec §4.5: one level of fan-out per prompt).
type DispatchAgentsTool struct{}

func (t *DispatchAgentsTool) Name() string { return "dispatch_agents" }

func (t *DispatchAgentsTool) Description() string {
	return "Spawn one or more explorer (read-only) or builder (read/write) sub-agents in " +
		"parallel and collect their final reports. Use explorer to investigate the codebase " +
		"without risk of side effects; use builder to make coordinated file edits."
}

func (t *DispatchAgentsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"tasks":{
				"type":"array",
				"minItems":1,
				"items":{
					"type":"object",
					"properties":{
						"role":{"type":"string","enum":["explorer","builder"]},
						"prompt":{"type":"string"},
						"working_dir":{"type":"string"},
						"labels":{"type":"object","additionalProperties":{"type":"string"}}
					},
					"required":["role","prompt"]
				}
			}
		},
		"required":["tasks"]
	}`)
}

type dispatchAgentsTaskInput struct {
	Role       string            `json:"role"`
	Prompt     string            `json:"prompt"`
	WorkingDir string            `json:"working_dir"`
	Labels     map[string]string `json:"labels"`
}

func (t *DispatchAgentsTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	if tc.SubAgents == nil {
		return errResult("sub-agent dispatch is not available in this session"), nil
	}

	var args struct {
		Tasks []dispatchAgentsTaskInput `json:"tasks"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(args.Tasks) == 0 {
		return errResult("tasks must not be empty"), nil
	}

	tasks := make([]canonical.SubAgentTask, 0, len(args.Tasks))
	for i, in := range args.Tasks {
		role := canonical.SubAgentRole(in.Role)
		if role != canonical.SubAgentExplorer && role != canonical.SubAgentBuilder {
			return errResult(fmt.Sprintf("tasks[%d]: unknown role %q", i, in.Role)), nil
		}
		workingDir := in.WorkingDir
		if workingDir == "" {
			workingDir = tc.WorkingDir
		}
		// ParentModel is left empty: an empty model override falls back to
		// the provider client's own configured model (spec §4.5.6), which
		// at the top level already is the parent session's model.
		tasks = append(tasks, canonical.SubAgentTask{
			ID:               fmt.Sprintf("%s-sub-%d", tc.SessionKey, i),
			ParentSessionKey: tc.SessionKey,
			Role:             role,
			Prompt:           in.Prompt,
			WorkingDir:       workingDir,
			Labels:           in.Labels,
		})
	}

	results := tc.SubAgents.Dispatch(ctx, tasks)

	type reportEntry struct {
		TaskID   string `json:"task_id"`
		Role     string `json:"role"`
		Text     string `json:"text,omitempty"`
		Error    string `json:"error,omitempty"`
		Duration string `json:"duration"`
	}
	report := make([]reportEntry, 0, len(results))
	allFailed := len(results) > 0
	for _, r := range results {
		if r.Error == "" {
			allFailed = false
		}
		report = append(report, reportEntry{
			TaskID:   r.TaskID,
			Role:     string(r.Role),
			Text:     r.Text,
			Error:    r.Error,
			Duration: r.Duration().String(),
		})
	}

	out, err := json.Marshal(map[string]any{"results": report})
	if err != nil {
		return errResult(fmt.Sprintf("failed to encode results: %v", err)), nil
	}
	return canonical.ToolExecResult{Output: out, IsError: allFailed}, nil
}
