package toolsimpl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/krustycode/agentcore/internal/canonical"
)

// GrepTool searches file contents by regular expression under a base
// directory (spec §4.5.3 read-only tool set).
type GrepTool struct {
	MaxMatches int
}

func (t *GrepTool) Name() string        { return "grep" }
func (t *GrepTool) Description() string { return "Search file contents by regular expression." }

func (t *GrepTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"pattern":{"type":"string"},
			"base_dir":{"type":"string"},
			"glob":{"type":"string","description":"Restrict to files matching this glob."}
		},
		"required":["pattern"]
	}`)
}

// GrepMatch is one line matched by GrepTool.
type GrepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

func (t *GrepTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	var args struct {
		Pattern string `json:"pattern"`
		BaseDir string `json:"base_dir"`
		Glob    string `json:"glob"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	re, err := regexp.Compile(args.Pattern)
	if err != nil {
		return errResult(fmt.Sprintf("invalid pattern: %v", err)), nil
	}
	baseDir := args.BaseDir
	if baseDir == "" {
		baseDir = tc.WorkingDir
	}
	if baseDir == "" {
		baseDir = "."
	}

	limit := t.MaxMatches
	if limit <= 0 {
		limit = 500
	}

	var matches []GrepMatch
	err = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || len(matches) >= limit {
			return nil
		}
		if args.Glob != "" {
			rel, relErr := filepath.Rel(baseDir, path)
			if relErr != nil {
				return nil
			}
			if ok, _ := doublestarMatch(args.Glob, rel); !ok {
				return nil
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		grepFile(path, re, &matches, limit)
		return nil
	})
	if err != nil {
		return errResult(err.Error()), nil
	}

	payload, _ := json.Marshal(map[string]any{"matches": matches})
	return canonical.ToolExecResult{Output: payload}, nil
}

func grepFile(path string, re *regexp.Regexp, matches *[]GrepMatch, limit int) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(*matches) >= limit {
			return
		}
		text := scanner.Text()
		if re.MatchString(text) {
			*matches = append(*matches, GrepMatch{Path: path, Line: line, Text: text})
		}
	}
}
