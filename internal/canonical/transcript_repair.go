package canonical

// TranscriptRepairReport summarizes what RepairToolUsePairing changed, if
// anything.
type TranscriptRepairReport struct {
	Messages []Message

	// AddedSynthetic is the number of synthetic error tool results inserted
	// for tool uses that had no matching result.
	AddedSynthetic int
	// DroppedOrphan is the number of tool results dropped because they did
	// not match any pending tool use.
	DroppedOrphan int
	// DroppedDuplicate is the number of tool results dropped because a
	// result for that tool-use id was already seen.
	DroppedDuplicate int
}

// RepairToolUsePairing ensures every ToolUse block in an assistant message
// is immediately followed, in order, by its matching ToolResult before the
// history is replayed to a provider (spec §4.4.4 / SPEC_FULL supplement 2:
// Anthropic-compatible APIs reject a transcript where tool uses are not
// immediately followed by matching results). It drops orphan and duplicate
// tool results and inserts synthetic error results for tool uses that
// never got one, mirroring the original session's transcript sanitation.
func RepairToolUsePairing(messages []Message) TranscriptRepairReport {
	report := TranscriptRepairReport{Messages: make([]Message, 0, len(messages))}

	seen := make(map[string]bool)
	changed := false

	for i := 0; i < len(messages); i++ {
		msg := messages[i]

		if msg.Role != RoleAssistant || !msg.HasToolUse() {
			if msg.Role == RoleTool {
				// A tool result not immediately following its assistant
				// turn is an orphan; it is only ever emitted from inside
				// the assistant branch below.
				report.DroppedOrphan += len(msg.Content)
				changed = true
				continue
			}
			report.Messages = append(report.Messages, msg)
			continue
		}

		pendingOrder := msg.ToolUseIDs()
		validIDs := make(map[string]bool, len(pendingOrder))
		for _, id := range pendingOrder {
			validIDs[id] = true
		}

		results := make(map[string]Content)

		j := i + 1
		for ; j < len(messages); j++ {
			next := messages[j]
			if next.Role == RoleAssistant && next.HasToolUse() {
				break
			}
			if next.Role != RoleTool {
				break
			}
			for _, c := range next.Content {
				if c.Type != ContentToolResult {
					continue
				}
				id := c.ToolResultForID
				if !validIDs[id] {
					report.DroppedOrphan++
					changed = true
					continue
				}
				if seen[id] {
					report.DroppedDuplicate++
					changed = true
					continue
				}
				seen[id] = true
				results[id] = c
			}
		}

		report.Messages = append(report.Messages, msg)
		for _, id := range pendingOrder {
			if c, ok := results[id]; ok {
				report.Messages = append(report.Messages, Message{Role: RoleTool, Content: []Content{c}})
				continue
			}
			errText := true
			synthetic := ToolResult(id, []byte(`"missing tool result; inserted synthetic error result during transcript repair"`), &errText)
			report.Messages = append(report.Messages, Message{Role: RoleTool, Content: []Content{synthetic}})
			report.AddedSynthetic++
			seen[id] = true
			changed = true
		}

		i = j - 1
	}

	if !changed {
		report.Messages = messages
	}
	return report
}
