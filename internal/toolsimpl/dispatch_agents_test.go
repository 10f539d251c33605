package toolsimpl

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
)

type fakeDispatcher struct {
	received []canonical.SubAgentTask
	results  []canonical.SubAgentResult
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, tasks []canonical.SubAgentTask) []canonical.SubAgentResult {
	f.received = tasks
	if f.results != nil {
		return f.results
	}
	now := time.Now()
	out := make([]canonical.SubAgentResult, len(tasks))
	for i, t := range tasks {
		out[i] = canonical.SubAgentResult{TaskID: t.ID, Role: t.Role, Text: "done", Started: now, Finished: now}
	}
	return out
}

func TestDispatchAgentsToolRefusesWithoutDispatcher(t *testing.T) {
	tool := &DispatchAgentsTool{}
	tc := &canonical.ToolContext{}
	in, _ := json.Marshal(map[string]any{"tasks": []map[string]string{{"role": "explorer", "prompt": "look"}}})

	res, err := tool.Execute(context.Background(), tc, in)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected an error result when tc.SubAgents is nil")
	}
}

func TestDispatchAgentsToolRejectsUnknownRole(t *testing.T) {
	tool := &DispatchAgentsTool{}
	tc := &canonical.ToolContext{SubAgents: &fakeDispatcher{}}
	in, _ := json.Marshal(map[string]any{"tasks": []map[string]string{{"role": "manager", "prompt": "lead"}}})

	res, err := tool.Execute(context.Background(), tc, in)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for an unknown role")
	}
}

func TestDispatchAgentsToolForwardsTasksAndReportsResults(t *testing.T) {
	disp := &fakeDispatcher{}
	tool := &DispatchAgentsTool{}
	tc := &canonical.ToolContext{SessionKey: "sess-1", WorkingDir: "/work", SubAgents: disp}

	in, _ := json.Marshal(map[string]any{
		"tasks": []map[string]any{
			{"role": "explorer", "prompt": "find the bug"},
			{"role": "builder", "prompt": "fix it", "working_dir": "/work/sub"},
		},
	})

	res, err := tool.Execute(context.Background(), tc, in)
	if err != nil || res.IsError {
		t.Fatalf("expected success, got err=%v isError=%v output=%s", err, res.IsError, res.Output)
	}

	if len(disp.received) != 2 {
		t.Fatalf("expected 2 tasks forwarded, got %d", len(disp.received))
	}
	if disp.received[0].Role != canonical.SubAgentExplorer || disp.received[0].WorkingDir != "/work" {
		t.Errorf("task 0 = %+v, want explorer role defaulting to tc.WorkingDir", disp.received[0])
	}
	if disp.received[1].Role != canonical.SubAgentBuilder || disp.received[1].WorkingDir != "/work/sub" {
		t.Errorf("task 1 = %+v, want builder role with its own working_dir", disp.received[1])
	}

	var decoded struct {
		Results []struct {
			TaskID string `json:"task_id"`
			Role   string `json:"role"`
			Text   string `json:"text"`
		} `json:"results"`
	}
	if err := json.Unmarshal(res.Output, &decoded); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].Text != "done" {
		t.Errorf("unexpected decoded results: %+v", decoded.Results)
	}
}
