package mcp

import (
	"context"
	"encoding/json"
	"testing"
)

func TestHandleNilManager(t *testing.T) {
	var h *Handle
	if _, err := h.CallTool(context.Background(), "s", "t", nil); err == nil {
		t.Fatal("expected error from nil handle")
	}

	h = NewHandle(nil)
	if _, err := h.CallTool(context.Background(), "s", "t", nil); err == nil {
		t.Fatal("expected error from handle with nil manager")
	}
}

func TestHandleCallToolUnconnectedServer(t *testing.T) {
	h := NewHandle(NewManager(&Config{Enabled: true}, nil))
	args, _ := json.Marshal(map[string]any{"path": "/tmp"})

	if _, err := h.CallTool(context.Background(), "missing", "read", args); err == nil {
		t.Fatal("expected error calling a tool on an unconnected server")
	}
}

func TestHandleCallToolBadArguments(t *testing.T) {
	h := NewHandle(NewManager(&Config{Enabled: true}, nil))

	if _, err := h.CallTool(context.Background(), "s", "t", json.RawMessage("not json")); err == nil {
		t.Fatal("expected decode error for malformed arguments")
	}
}
