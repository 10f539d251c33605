package acp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/orchestrator"
)

// fakeLoop returns a fixed stop reason without touching a real provider.
type fakeLoop struct {
	reason orchestrator.StopReason
}

func (f *fakeLoop) HandlePrompt(ctx context.Context, userText string, updates chan<- orchestrator.SessionUpdate) (orchestrator.StopReason, error) {
	if updates != nil {
		updates <- orchestrator.SessionUpdate{Kind: orchestrator.UpdateMessageChunk, Text: "ack: " + userText}
	}
	return f.reason, nil
}

func testFactory(id, cwd string, mcp []MCPServerDescriptor) (*Session, error) {
	return &Session{
		ID:    id,
		Cwd:   cwd,
		Loop:  &fakeLoop{reason: orchestrator.StopEndTurn},
		Canon: canonical.NewSession(id, id, "anthropic", "claude-test"),
		MCP:   mcp,
	}, nil
}

// runLines feeds newline-delimited requests into a Server and returns the
// newline-delimited responses/notifications it wrote back.
func runLines(t *testing.T, lines []string) []map[string]any {
	t.Helper()
	manager := NewManager(testFactory)
	server := NewServer(manager, nil)

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")

	if err := server.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var results []map[string]any
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("unmarshal output line %q: %v", scanner.Text(), err)
		}
		results = append(results, m)
	}
	return results
}

func reqLine(id int, method string, params any) string {
	p, _ := json.Marshal(params)
	req := Request{JSONRPC: "2.0", ID: id, Method: method, Params: p}
	b, _ := json.Marshal(req)
	return string(b)
}

func TestInitializeAndAuthenticate(t *testing.T) {
	lines := []string{
		reqLine(1, "initialize", InitializeParams{ProtocolVersion: ProtocolVersion}),
		reqLine(2, "authenticate", AuthenticateParams{MethodID: "api_key", APIKey: "sk-test"}),
	}
	results := runLines(t, lines)
	if len(results) != 2 {
		t.Fatalf("expected 2 responses, got %d: %+v", len(results), results)
	}
	if results[0]["error"] != nil {
		t.Fatalf("initialize failed: %+v", results[0])
	}
	if results[1]["error"] != nil {
		t.Fatalf("authenticate failed: %+v", results[1])
	}
}

func TestNewSessionAndPromptStreamsUpdates(t *testing.T) {
	lines := []string{
		reqLine(1, "new_session", NewSessionParams{Cwd: "/tmp/proj"}),
	}
	results := runLines(t, lines)
	if len(results) != 1 {
		t.Fatalf("expected 1 response, got %d", len(results))
	}
	resultField, _ := results[0]["result"].(map[string]any)
	sessionID, _ := resultField["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("expected a session_id, got %+v", results[0])
	}

	promptLines := []string{
		reqLine(1, "new_session", NewSessionParams{Cwd: "/tmp/proj"}),
	}
	manager := NewManager(testFactory)
	server := NewServer(manager, nil)
	var out bytes.Buffer
	in := strings.NewReader(promptLines[0] + "\n")
	if err := server.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var created map[string]any
	firstLine, _ := bufio.NewReader(&out).ReadString('\n')
	if err := json.Unmarshal([]byte(firstLine), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sessID := created["result"].(map[string]any)["session_id"].(string)

	var out2 bytes.Buffer
	promptReq := reqLine(2, "prompt", PromptParams{
		SessionID: sessID,
		Content:   []PromptContentBlock{{Type: "text", Text: "hello there"}},
	})
	in2 := strings.NewReader(promptReq + "\n")
	if err := server.Run(context.Background(), in2, &out2); err != nil {
		t.Fatalf("Run: %v", err)
	}

	scanner := bufio.NewScanner(&out2)
	var sawUpdate, sawResult bool
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if m["method"] == "session/update" {
			sawUpdate = true
		}
		if _, ok := m["id"]; ok && m["result"] != nil {
			res := m["result"].(map[string]any)
			if res["stop_reason"] == string(orchestrator.StopEndTurn) {
				sawResult = true
			}
		}
	}
	if !sawUpdate {
		t.Fatal("expected at least one session/update notification")
	}
	if !sawResult {
		t.Fatal("expected a prompt result with stop_reason end_turn")
	}
}

func TestUnknownMethodReturnsError(t *testing.T) {
	results := runLines(t, []string{reqLine(1, "not_a_method", struct{}{})})
	if len(results) != 1 {
		t.Fatalf("expected 1 response, got %d", len(results))
	}
	errField, ok := results[0]["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected an error field, got %+v", results[0])
	}
	if int(errField["code"].(float64)) != ErrCodeMethodNotFound {
		t.Fatalf("expected method-not-found code, got %v", errField["code"])
	}
}

func TestSetSessionModeRejectsUnknownMode(t *testing.T) {
	manager := NewManager(testFactory)
	server := NewServer(manager, nil)
	var created bytes.Buffer
	if err := server.Run(context.Background(), strings.NewReader(reqLine(1, "new_session", NewSessionParams{Cwd: "/tmp"})+"\n"), &created); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var createdResp map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(created.Bytes()), &createdResp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sessID := createdResp["result"].(map[string]any)["session_id"].(string)

	var out bytes.Buffer
	lines := fmt.Sprintf("%s\n",
		reqLine(2, "set_session_mode", SetSessionModeParams{SessionID: sessID, Mode: "not_a_mode"}),
	)
	if err := server.Run(context.Background(), strings.NewReader(lines), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	scanner := bufio.NewScanner(&out)
	var last map[string]any
	for scanner.Scan() {
		json.Unmarshal(scanner.Bytes(), &last)
	}
	if last["error"] == nil {
		t.Fatalf("expected set_session_mode with an unknown mode on a live session to error, got %+v", last)
	}
}
