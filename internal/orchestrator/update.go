package orchestrator

// StopReason is returned from prompt handling when the agentic loop
// terminates (spec §6.1).
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopCancelled StopReason = "cancelled"
	StopRefusal   StopReason = "refusal"
)

// UpdateKind discriminates a SessionUpdate (spec §6.1 session/update:
// "AgentMessageChunk, AgentThoughtChunk, ToolCall, ToolCallUpdate").
type UpdateKind string

const (
	UpdateMessageChunk UpdateKind = "agent_message_chunk"
	UpdateThoughtChunk UpdateKind = "agent_thought_chunk"
	UpdateToolCall     UpdateKind = "tool_call"
	UpdateToolCallUpdate UpdateKind = "tool_call_update"
)

// ToolKind classifies a tool call for client-side rendering (spec §4.6.2
// step 1: "tool-kind classification derived from tool name").
type ToolKind string

const (
	ToolKindRead      ToolKind = "read"
	ToolKindEdit      ToolKind = "edit"
	ToolKindExecute   ToolKind = "execute"
	ToolKindSearch    ToolKind = "search"
	ToolKindOther     ToolKind = "other"
)

// ClassifyTool derives a ToolKind from a tool's name, used purely for
// client-side presentation; it has no effect on dispatch.
func ClassifyTool(name string) ToolKind {
	switch name {
	case "read", "glob", "grep":
		if name == "glob" || name == "grep" {
			return ToolKindSearch
		}
		return ToolKindRead
	case "write", "edit":
		return ToolKindEdit
	case "bash":
		return ToolKindExecute
	default:
		return ToolKindOther
	}
}

// SessionUpdate is one event in the core->surface session/update stream
// (spec §6.1).
type SessionUpdate struct {
	Kind UpdateKind

	// AgentMessageChunk / AgentThoughtChunk
	Text string

	// ToolCall / ToolCallUpdate
	ToolCallID   string
	ToolName     string
	ToolKind     ToolKind
	ToolArgs     string
	ToolResult   string
	ToolFailed   bool
}
