package skills

import (
	"context"
	"testing"
)

func newTestHandle(t *testing.T) *Handle {
	t.Helper()
	mgr, err := NewManager(nil, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	mgr.eligible = map[string]*SkillEntry{
		"git-commit": {Name: "git-commit", Description: "Create a git commit with the right message style"},
		"dataviz":    {Name: "dataviz", Description: "Build charts and dashboards"},
	}
	return NewHandle(mgr)
}

func TestHandleEligibleNilManager(t *testing.T) {
	var h *Handle
	if got := h.Eligible(context.Background(), "anything"); got != nil {
		t.Fatalf("expected nil from nil handle, got %v", got)
	}

	h = NewHandle(nil)
	if got := h.Eligible(context.Background(), "anything"); got != nil {
		t.Fatalf("expected nil from handle with nil manager, got %v", got)
	}
}

func TestHandleEligibleEmptyIntentReturnsAll(t *testing.T) {
	h := newTestHandle(t)
	got := h.Eligible(context.Background(), "")
	if len(got) != 2 {
		t.Fatalf("expected both skills for empty intent, got %v", got)
	}
}

func TestHandleEligibleFiltersByWord(t *testing.T) {
	h := newTestHandle(t)
	got := h.Eligible(context.Background(), "please make a commit")
	if len(got) != 1 || got[0] != "git-commit" {
		t.Fatalf("expected only git-commit to match, got %v", got)
	}
}

func TestHandleEligibleNoMatch(t *testing.T) {
	h := newTestHandle(t)
	got := h.Eligible(context.Background(), "xyzzy")
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}
