// Package toolsimpl implements the core's own read/write/exec tools: glob,
// grep, read, write, edit, bash, and register_interface. These are the
// concrete canonical.Tool implementations wired into the ToolRegistry that
// both the Orchestrator and the sub-agent pool dispatch against.
package toolsimpl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver resolves a workspace-relative path to an absolute path,
// refusing anything that escapes the workspace (or, when set, the
// sandbox root) after symlink resolution (spec §4.6.2 step 2).
type Resolver struct {
	// Root is the tool's working directory.
	Root string
	// SandboxRoot additionally confines resolution for multi-tenant
	// sessions (spec §3 ToolContext.sandbox root); empty means no
	// additional confinement beyond Root.
	SandboxRoot string
}

// Resolve returns an absolute, symlink-resolved path guaranteed to sit
// under the resolver's confinement root(s).
func (r Resolver) Resolve(path string) (string, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return "", fmt.Errorf("path is required")
	}

	base := r.SandboxRoot
	if base == "" {
		base = r.Root
	}
	if base == "" {
		base = "."
	}

	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}

	var target string
	if filepath.IsAbs(clean) {
		target = filepath.Clean(clean)
	} else {
		root := r.Root
		if root == "" {
			root = base
		}
		rootAbs, rerr := filepath.Abs(root)
		if rerr != nil {
			return "", fmt.Errorf("resolve path: %w", rerr)
		}
		target = filepath.Join(rootAbs, clean)
	}

	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	if err := confine(baseAbs, targetAbs); err != nil {
		return "", err
	}

	// Re-confine against the symlink-resolved real path: a path that
	// passes the lexical check above but resolves, via a symlink, to
	// somewhere outside the sandbox must still be refused.
	if resolved, err := filepath.EvalSymlinks(targetAbs); err == nil {
		if err := confine(baseAbs, resolved); err != nil {
			return "", err
		}
	}
	// A missing file (symlink eval fails with ENOENT) is fine for write
	// targets; the lexical confinement check above already ran.

	return targetAbs, nil
}

func confine(baseAbs, targetAbs string) error {
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("path escapes sandbox")
	}
	return nil
}
