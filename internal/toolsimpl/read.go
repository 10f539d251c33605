package toolsimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/subagent"
)

// DefaultMaxReadBytes bounds a single read.Execute call.
const DefaultMaxReadBytes = 200_000

// ReadTool reads a file, optionally through the explorer pool's shared
// read-through cache (spec §4.5.3, §3 Shared explore cache).
type ReadTool struct {
	MaxReadBytes int
	// Cache is consulted (and populated) when set; nil means uncached
	// reads, the path the Orchestrator's own tool dispatch uses.
	Cache *subagent.SharedExploreCache
}

func (t *ReadTool) Name() string        { return "read" }
func (t *ReadTool) Description() string { return "Read a file with optional offset and byte limit." }

func (t *ReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"path":{"type":"string","description":"Path to the file."},
			"offset":{"type":"integer","minimum":0,"description":"Byte offset to start from."},
			"max_bytes":{"type":"integer","minimum":0,"description":"Maximum bytes to read."}
		},
		"required":["path"]
	}`)
}

func (t *ReadTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	var args struct {
		Path     string `json:"path"`
		Offset   int64  `json:"offset"`
		MaxBytes int    `json:"max_bytes"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	resolved, err := (Resolver{Root: tc.WorkingDir, SandboxRoot: tc.SandboxRoot}).Resolve(args.Path)
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := t.MaxReadBytes
	if limit <= 0 {
		limit = DefaultMaxReadBytes
	}
	if args.MaxBytes > 0 && args.MaxBytes < limit {
		limit = args.MaxBytes
	}

	if t.Cache != nil && args.Offset == 0 {
		content, err := t.Cache.ReadFile(resolved)
		if err != nil {
			return errResult(err.Error()), nil
		}
		if len(content) > limit {
			content = content[:limit]
		}
		return okResult(content), nil
	}

	content, _, err := readFileCapped(resolved, args.Offset, limit)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return okResult(content), nil
}

func readFileCapped(path string, offset int64, limit int) (string, time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", time.Time{}, err
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return "", time.Time{}, err
		}
	}
	buf := make([]byte, limit)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", time.Time{}, err
	}
	return string(buf[:n]), info.ModTime(), nil
}

func okResult(text string) canonical.ToolExecResult {
	payload, _ := json.Marshal(map[string]string{"content": text})
	return canonical.ToolExecResult{Output: payload}
}

func errResult(msg string) canonical.ToolExecResult {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return canonical.ToolExecResult{Output: payload, IsError: true}
}
