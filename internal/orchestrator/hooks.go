package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// HookEvent is the JSON payload written to a hook subprocess's stdin
// (spec §4.6.2 "Pre-hooks and post-hooks"), mirroring the shape
// internal/hooks/tool_hooks.go's in-process ToolHookContext carries, but
// serialized for a subprocess boundary instead of an in-process callback.
type HookEvent struct {
	ToolName   string          `json:"tool_name"`
	ToolCallID string          `json:"tool_call_id"`
	Input      json.RawMessage `json:"input"`
	Output     json.RawMessage `json:"output,omitempty"`
	IsError    bool            `json:"is_error,omitempty"`
	Duration   time.Duration   `json:"duration_ns,omitempty"`
	SessionKey string          `json:"session_key"`
}

// HookKind discriminates when a hook runs.
type HookKind string

const (
	HookPre  HookKind = "pre"
	HookPost HookKind = "post"
)

// Hook is one registered pre- or post-execution hook command.
type Hook struct {
	Name    string
	Kind    HookKind
	Command []string
	Timeout time.Duration
}

// HookRegistry runs pre-hooks (which can block execution) and post-hooks
// (observational) in registration order (spec §4.6.2).
type HookRegistry struct {
	pre    []Hook
	post   []Hook
	logger *slog.Logger
}

// NewHookRegistry constructs an empty registry.
func NewHookRegistry(logger *slog.Logger) *HookRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &HookRegistry{logger: logger.With("component", "orchestrator.hooks")}
}

// Register adds a hook, appending it to the pre- or post- list per its Kind.
func (r *HookRegistry) Register(h Hook) {
	switch h.Kind {
	case HookPre:
		r.pre = append(r.pre, h)
	case HookPost:
		r.post = append(r.post, h)
	}
}

// HookBlock is returned by RunPre when a hook blocked execution.
type HookBlock struct {
	HookName string
	Reason   string
}

func (b *HookBlock) Error() string {
	return fmt.Sprintf("blocked by hook %q: %s", b.HookName, b.Reason)
}

// RunPre runs every registered pre-hook in order. The first hook that
// blocks (exit code 2) short-circuits the remaining hooks and returns a
// *HookBlock (spec §4.6.2: "a block short-circuits with a standard error
// result").
func (r *HookRegistry) RunPre(ctx context.Context, event HookEvent) *HookBlock {
	for _, h := range r.pre {
		if block := r.run(ctx, h, event); block != nil {
			return block
		}
	}
	return nil
}

// RunPost runs every registered post-hook in order. Post-hooks are
// observational only: an exit code of 2 is ignored without a warning, and
// any other non-zero exit logs a warning (spec §4.6.2).
func (r *HookRegistry) RunPost(ctx context.Context, event HookEvent) {
	for _, h := range r.post {
		r.run(ctx, h, event)
	}
}

// run executes one hook subprocess with event as JSON on stdin, applying
// the exit-code semantics from spec §4.6.2: 0 continues, 2 blocks (stderr
// is the reason), anything else warns but continues.
func (r *HookRegistry) run(ctx context.Context, h Hook, event HookEvent) *HookBlock {
	if len(h.Command) == 0 {
		return nil
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("failed to marshal hook event", "hook", h.Name, "err", err)
		return nil
	}

	cmd := exec.CommandContext(runCtx, h.Command[0], h.Command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}

	exitErr, ok := runErr.(*exec.ExitError)
	if !ok {
		r.logger.Warn("hook failed to run", "hook", h.Name, "err", runErr)
		return nil
	}

	switch exitErr.ExitCode() {
	case 2:
		return &HookBlock{HookName: h.Name, Reason: stderr.String()}
	default:
		r.logger.Warn("hook exited non-zero, continuing", "hook", h.Name, "exit_code", exitErr.ExitCode(), "stderr", stderr.String())
		return nil
	}
}
