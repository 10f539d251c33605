package skills

import (
	"context"
	"strings"
)

// Handle adapts *Manager to canonical.SkillsHandle: the narrow surface the
// orchestration core threads through ToolContext (spec §3, §6.4). The core
// only ever asks which already-gated skills look relevant to an intent; it
// never loads or executes a skill directly.
type Handle struct {
	mgr *Manager
}

// NewHandle wraps mgr. A nil mgr is valid and always reports no eligible
// skills, so a session with skills disabled can still construct a Handle.
func NewHandle(mgr *Manager) *Handle {
	return &Handle{mgr: mgr}
}

// Eligible returns the names of gated-eligible skills whose lowercased name
// or description contains, as a substring, any whitespace-separated word of
// intent that is at least 3 bytes long. An empty intent matches every
// eligible skill, mirroring ListEligible's unfiltered use elsewhere in the
// package.
func (h *Handle) Eligible(ctx context.Context, intent string) []string {
	if h == nil || h.mgr == nil {
		return nil
	}

	words := strings.Fields(strings.ToLower(intent))
	names := make([]string, 0)
	for _, skill := range h.mgr.ListEligible() {
		if len(words) == 0 || matchesAny(skill, words) {
			names = append(names, skill.Name)
		}
	}
	return names
}

func matchesAny(skill *SkillEntry, words []string) bool {
	haystack := strings.ToLower(skill.Name + " " + skill.Description)
	for _, w := range words {
		if len(w) >= 3 && strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
