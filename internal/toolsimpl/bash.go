package toolsimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
)

// DefaultBashTimeout is used when neither the call nor the ToolContext
// specifies one (spec §5 Timeouts: per-tool default 120s).
const DefaultBashTimeout = 120 * time.Second

// MaxBashOutputBytes caps captured stdout and captured stderr, each
// separately, to keep a runaway command from blowing up the conversation
// history.
const MaxBashOutputBytes = 200_000

// BashTool runs a shell command in the working directory. It refuses to
// run in plan mode (spec §3 PlanMode: read-only enforcement).
type BashTool struct{}

func (t *BashTool) Name() string        { return "bash" }
func (t *BashTool) Description() string { return "Run a shell command in the working directory." }

func (t *BashTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"command":{"type":"string"},
			"timeout_seconds":{"type":"integer","minimum":0}
		},
		"required":["command"]
	}`)
}

func (t *BashTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	if tc.PlanMode {
		return errResult("bash is disabled in plan mode"), nil
	}

	var args struct {
		Command        string `json:"command"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if args.Command == "" {
		return errResult("command is required"), nil
	}

	timeout := tc.Timeout
	if args.TimeoutSeconds > 0 {
		timeout = time.Duration(args.TimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		timeout = DefaultBashTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var procID string
	if tc.ProcessRegistry != nil {
		procID = tc.ProcessRegistry.Register(tc.SessionKey, args.Command)
		defer tc.ProcessRegistry.Release(procID)
	}

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", args.Command)
	cmd.Dir = tc.WorkingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, max: MaxBashOutputBytes}
	cmd.Stderr = &limitedWriter{buf: &stderr, max: MaxBashOutputBytes}

	runErr := cmd.Run()

	if tc.StreamOutput != nil {
		select {
		case tc.StreamOutput <- stdout.String():
		default:
		}
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return errResult(fmt.Sprintf("command timed out after %s", timeout)), nil
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return errResult(runErr.Error()), nil
		}
	}

	payload, _ := json.Marshal(map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode,
	})
	return canonical.ToolExecResult{Output: payload, IsError: exitCode != 0}, nil
}

// limitedWriter truncates after max bytes rather than letting a noisy
// command exhaust memory.
type limitedWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.max - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}
