package toolsimpl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
)

func TestReadWriteEditRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tc := &canonical.ToolContext{WorkingDir: dir}
	ctx := context.Background()

	write := &WriteTool{}
	in, _ := json.Marshal(map[string]string{"path": "a.txt", "content": "hello world"})
	res, err := write.Execute(ctx, tc, in)
	if err != nil || res.IsError {
		t.Fatalf("write failed: %v %s", err, res.Output)
	}

	read := &ReadTool{}
	in, _ = json.Marshal(map[string]string{"path": "a.txt"})
	res, err = read.Execute(ctx, tc, in)
	if err != nil || res.IsError {
		t.Fatalf("read failed: %v %s", err, res.Output)
	}
	var out struct{ Content string }
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if out.Content != "hello world" {
		t.Fatalf("got %q", out.Content)
	}

	edit := &EditTool{}
	in, _ = json.Marshal(map[string]string{"path": "a.txt", "old_string": "world", "new_string": "there"})
	res, err = edit.Execute(ctx, tc, in)
	if err != nil || res.IsError {
		t.Fatalf("edit failed: %v %s", err, res.Output)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello there" {
		t.Fatalf("got %q", string(data))
	}
}

func TestEditRefusesAmbiguousMatch(t *testing.T) {
	dir := t.TempDir()
	tc := &canonical.ToolContext{WorkingDir: dir}
	ctx := context.Background()

	write := &WriteTool{}
	in, _ := json.Marshal(map[string]string{"path": "a.txt", "content": "foo foo"})
	if _, err := write.Execute(ctx, tc, in); err != nil {
		t.Fatal(err)
	}

	edit := &EditTool{}
	in, _ = json.Marshal(map[string]string{"path": "a.txt", "old_string": "foo", "new_string": "bar"})
	res, err := edit.Execute(ctx, tc, in)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected ambiguous match to be rejected")
	}
}

func TestWriteRefusesPlanMode(t *testing.T) {
	dir := t.TempDir()
	tc := &canonical.ToolContext{WorkingDir: dir, PlanMode: true}
	ctx := context.Background()

	write := &WriteTool{}
	in, _ := json.Marshal(map[string]string{"path": "a.txt", "content": "x"})
	res, err := write.Execute(ctx, tc, in)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected plan mode to block write")
	}
}

func TestResolverRefusesEscape(t *testing.T) {
	dir := t.TempDir()
	r := Resolver{Root: dir}
	if _, err := r.Resolve("../../etc/passwd"); err == nil {
		t.Fatal("expected path escape to be rejected")
	}
}

func TestBashToolRunsCommand(t *testing.T) {
	dir := t.TempDir()
	tc := &canonical.ToolContext{WorkingDir: dir}
	ctx := context.Background()

	bash := &BashTool{}
	in, _ := json.Marshal(map[string]string{"command": "echo hi"})
	res, err := bash.Execute(ctx, tc, in)
	if err != nil || res.IsError {
		t.Fatalf("bash failed: %v %s", err, res.Output)
	}
	var out struct {
		Stdout   string `json:"stdout"`
		ExitCode int    `json:"exit_code"`
	}
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if out.ExitCode != 0 {
		t.Fatalf("exit code %d", out.ExitCode)
	}
}

func TestGlobMatchesDoubleStar(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "x.go"), []byte("package x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tc := &canonical.ToolContext{WorkingDir: dir}
	ctx := context.Background()
	g := &GlobTool{}
	in, _ := json.Marshal(map[string]string{"pattern": "**/*.go"})
	res, err := g.Execute(ctx, tc, in)
	if err != nil || res.IsError {
		t.Fatalf("glob failed: %v %s", err, res.Output)
	}
	var out struct{ Matches []string }
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Matches) != 1 {
		t.Fatalf("expected 1 match, got %v", out.Matches)
	}
}
