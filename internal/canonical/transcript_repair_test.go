package canonical

import "testing"

func assistantWithToolUse(ids ...string) Message {
	content := make([]Content, 0, len(ids))
	for _, id := range ids {
		content = append(content, ToolUse(id, "read", []byte(`{}`)))
	}
	return Message{Role: RoleAssistant, Content: content}
}

func toolResultMsg(id, output string) Message {
	return Message{Role: RoleTool, Content: []Content{ToolResult(id, []byte(output), nil)}}
}

func TestRepairToolUsePairing_NoRepairNeeded(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: []Content{Text("hello")}},
		assistantWithToolUse("t1"),
		toolResultMsg("t1", `"ok"`),
		{Role: RoleAssistant, Content: []Content{Text("done")}},
	}

	report := RepairToolUsePairing(messages)
	if len(report.Messages) != len(messages) {
		t.Fatalf("expected %d messages, got %d", len(messages), len(report.Messages))
	}
	if report.AddedSynthetic != 0 || report.DroppedOrphan != 0 || report.DroppedDuplicate != 0 {
		t.Fatalf("expected no repairs, got %+v", report)
	}
}

func TestRepairToolUsePairing_InsertsSyntheticForMissingResult(t *testing.T) {
	messages := []Message{
		assistantWithToolUse("t1"),
		{Role: RoleUser, Content: []Content{Text("next")}},
	}

	report := RepairToolUsePairing(messages)
	if report.AddedSynthetic != 1 {
		t.Fatalf("expected 1 synthetic result, got %d", report.AddedSynthetic)
	}
	if len(report.Messages) != 3 {
		t.Fatalf("expected 3 messages after repair, got %d", len(report.Messages))
	}
	if report.Messages[1].Role != RoleTool || report.Messages[1].Content[0].ToolResultForID != "t1" {
		t.Fatalf("expected synthetic tool result for t1 right after the tool use, got %+v", report.Messages[1])
	}
}

func TestRepairToolUsePairing_DropsOrphanResult(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: []Content{Text("hi")}},
		toolResultMsg("unknown", `"ok"`),
	}

	report := RepairToolUsePairing(messages)
	if report.DroppedOrphan != 1 {
		t.Fatalf("expected 1 dropped orphan, got %d", report.DroppedOrphan)
	}
	if len(report.Messages) != 1 {
		t.Fatalf("expected the orphan result dropped, got %+v", report.Messages)
	}
}

func TestRepairToolUsePairing_DropsDuplicateResult(t *testing.T) {
	messages := []Message{
		assistantWithToolUse("t1"),
		toolResultMsg("t1", `"ok"`),
		toolResultMsg("t1", `"ok again"`),
	}

	report := RepairToolUsePairing(messages)
	if report.DroppedDuplicate != 1 {
		t.Fatalf("expected 1 dropped duplicate, got %d", report.DroppedDuplicate)
	}
	if len(report.Messages) != 2 {
		t.Fatalf("expected only one tool result kept, got %+v", report.Messages)
	}
}

func TestRepairToolUsePairing_MultipleToolUsesOrderPreserved(t *testing.T) {
	messages := []Message{
		assistantWithToolUse("t1", "t2"),
		toolResultMsg("t2", `"second"`),
		toolResultMsg("t1", `"first"`),
	}

	report := RepairToolUsePairing(messages)
	if len(report.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(report.Messages))
	}
	if report.Messages[1].Content[0].ToolResultForID != "t1" {
		t.Fatalf("expected t1's result to come first, matching tool-use order, got %+v", report.Messages[1])
	}
	if report.Messages[2].Content[0].ToolResultForID != "t2" {
		t.Fatalf("expected t2's result second, got %+v", report.Messages[2])
	}
}
