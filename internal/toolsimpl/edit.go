package toolsimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/krustycode/agentcore/internal/canonical"
)

// EditTool performs an exact string replacement in an existing file,
// guarded by the same optional file lock as WriteTool (spec §4.5.4).
type EditTool struct{}

func (t *EditTool) Name() string { return "edit" }
func (t *EditTool) Description() string {
	return "Replace an exact occurrence of old_string with new_string in a file."
}

func (t *EditTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type":"object",
		"properties":{
			"path":{"type":"string"},
			"old_string":{"type":"string"},
			"new_string":{"type":"string"},
			"replace_all":{"type":"boolean"}
		},
		"required":["path","old_string","new_string"]
	}`)
}

func (t *EditTool) Execute(ctx context.Context, tc *canonical.ToolContext, input json.RawMessage) (canonical.ToolExecResult, error) {
	if tc.PlanMode {
		return errResult("edit is disabled in plan mode"), nil
	}

	var args struct {
		Path       string `json:"path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return errResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if args.OldString == "" {
		return errResult("old_string must be non-empty"), nil
	}

	resolved, err := (Resolver{Root: tc.WorkingDir, SandboxRoot: tc.SandboxRoot}).Resolve(args.Path)
	if err != nil {
		return errResult(err.Error()), nil
	}

	var replaced int
	edit := func() error {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return err
		}
		content := string(data)
		count := strings.Count(content, args.OldString)
		if count == 0 {
			return fmt.Errorf("old_string not found in %s", args.Path)
		}
		if count > 1 && !args.ReplaceAll {
			return fmt.Errorf("old_string is not unique in %s (%d occurrences); pass replace_all to replace every occurrence", args.Path, count)
		}
		n := 1
		if args.ReplaceAll {
			n = -1
		}
		updated := strings.Replace(content, args.OldString, args.NewString, n)
		replaced = count
		if !args.ReplaceAll {
			replaced = 1
		}
		info, err := os.Stat(resolved)
		if err != nil {
			return err
		}
		return os.WriteFile(resolved, []byte(updated), info.Mode())
	}

	if err := withOptionalLock(tc, resolved, edit); err != nil {
		return errResult(err.Error()), nil
	}
	return okResult(fmt.Sprintf("replaced %d occurrence(s) in %s", replaced, args.Path)), nil
}
