package toolsimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/subagent"
)

// GlobTool expands a glob pattern against the working directory, reading
// through the shared explore cache (keyed by pattern+base_dir, spec §3)
// when one is configured.
type GlobTool struct {
	Cache *subagent.SharedExploreCache
}

func (t *GlobTool) Name() string        { return "glob" }
func (t *GlobTool) Description() string { return "List files matching a glob pattern." }

func (t *GlobTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"pattern":{"type":"string","description":"Glob pattern, e.g. **/*.go"},
			"base_dir":{"type":"string","description":"Directory to search from (default: working directory)."}
		},
		"required":["pattern"]
	}`)
}

func (t *GlobTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	var args struct {
		Pattern string `json:"pattern"`
		BaseDir string `json:"base_dir"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	baseDir := args.BaseDir
	if baseDir == "" {
		baseDir = tc.WorkingDir
	}
	if baseDir == "" {
		baseDir = "."
	}

	if t.Cache != nil {
		if matches, ok := t.Cache.Glob(args.Pattern, baseDir); ok {
			return globResult(matches), nil
		}
	}

	matches, err := matchGlob(baseDir, args.Pattern)
	if err != nil {
		return errResult(err.Error()), nil
	}
	if t.Cache != nil {
		t.Cache.StoreGlob(args.Pattern, baseDir, matches)
	}
	return globResult(matches), nil
}

// matchGlob walks baseDir matching pattern against paths relative to it,
// supporting the "**" recursive-directory wildcard filepath.Match lacks.
func matchGlob(baseDir, pattern string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if ok, _ := doublestarMatch(pattern, rel); ok {
			matches = append(matches, path)
		}
		return nil
	})
	sort.Strings(matches)
	return matches, err
}

// doublestarMatch matches pattern against name, treating "**/" as "zero or
// more leading path segments" the way shell glob tooling does; filepath.Match
// alone cannot cross path separators.
func doublestarMatch(pattern, name string) (bool, error) {
	name = filepath.ToSlash(name)
	pattern = filepath.ToSlash(pattern)
	if pattern == "**" {
		return true, nil
	}
	const marker = "**/"
	idx := indexAll(pattern, marker)
	if idx < 0 {
		return filepath.Match(pattern, name)
	}
	prefix := pattern[:idx]
	suffix := pattern[idx+len(marker):]
	if prefix != "" && !hasPrefixSegs(name, prefix) {
		return false, nil
	}
	trimmed := name
	if prefix != "" {
		trimmed = name[len(prefix):]
	}
	segs := strings.Split(trimmed, "/")
	for i := 0; i <= len(segs); i++ {
		candidate := strings.Join(segs[i:], "/")
		if ok, _ := filepath.Match(suffix, candidate); ok {
			return true, nil
		}
	}
	return false, nil
}

func hasPrefixSegs(name, prefix string) bool {
	return len(name) >= len(prefix) && name[:len(prefix)] == prefix
}

func indexAll(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func globResult(matches []string) canonical.ToolExecResult {
	payload, _ := json.Marshal(map[string][]string{"matches": matches})
	return canonical.ToolExecResult{Output: payload}
}
