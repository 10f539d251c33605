// Package canonical defines the provider-agnostic message, content, and tool
// model that every wire format is translated to and from (spec §3).
package canonical

import "encoding/json"

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is the unified, provider-agnostic conversation element. Every
// FormatHandler converts a Message slice to and from its own wire shape.
type Message struct {
	Role    Role      `json:"role"`
	Content []Content `json:"content"`
}

// ContentType discriminates the Content sum type.
type ContentType string

const (
	ContentText             ContentType = "text"
	ContentToolUse          ContentType = "tool_use"
	ContentToolResult       ContentType = "tool_result"
	ContentThinking         ContentType = "thinking"
	ContentRedactedThinking ContentType = "redacted_thinking"
	ContentImage            ContentType = "image"
	ContentDocument         ContentType = "document"
)

// Content is a tagged union over the block kinds a Message can carry. Only
// the fields relevant to Type are populated; the rest are zero values.
type Content struct {
	Type ContentType `json:"type"`

	// Text
	Text string `json:"text,omitempty"`

	// ToolUse
	ToolUseID   string          `json:"tool_use_id,omitempty"`
	ToolName    string          `json:"tool_name,omitempty"`
	ToolInput   json.RawMessage `json:"tool_input,omitempty"`

	// ToolResult
	ToolResultForID string          `json:"tool_result_for_id,omitempty"`
	ToolOutput      json.RawMessage `json:"tool_output,omitempty"`
	IsError         *bool           `json:"is_error,omitempty"`

	// Thinking / RedactedThinking
	Thinking        string `json:"thinking,omitempty"`
	Signature       string `json:"signature,omitempty"`
	RedactedData    string `json:"redacted_data,omitempty"`

	// Image / Document (passthrough, not interpreted by the core)
	MediaType string `json:"media_type,omitempty"`
	Base64    string `json:"base64,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Text builds a text Content block.
func Text(s string) Content { return Content{Type: ContentText, Text: s} }

// ToolUse builds a tool-use Content block.
func ToolUse(id, name string, input json.RawMessage) Content {
	return Content{Type: ContentToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

// ToolResult builds a tool-result Content block. isError is nil unless the
// caller wants to explicitly signal success or failure.
func ToolResult(toolUseID string, output json.RawMessage, isError *bool) Content {
	return Content{Type: ContentToolResult, ToolResultForID: toolUseID, ToolOutput: output, IsError: isError}
}

// Thinking builds a provider-attested reasoning block.
func Thinking(thinking, signature string) Content {
	return Content{Type: ContentThinking, Thinking: thinking, Signature: signature}
}

// RedactedThinking builds an opaque reasoning block that must be echoed back verbatim.
func RedactedThinking(data string) Content {
	return Content{Type: ContentRedactedThinking, RedactedData: data}
}

// HasToolUse reports whether the message contains at least one ToolUse block.
func (m Message) HasToolUse() bool {
	for _, c := range m.Content {
		if c.Type == ContentToolUse {
			return true
		}
	}
	return false
}

// ToolUseIDs returns the ids of every ToolUse block in the message, in order.
func (m Message) ToolUseIDs() []string {
	var ids []string
	for _, c := range m.Content {
		if c.Type == ContentToolUse {
			ids = append(ids, c.ToolUseID)
		}
	}
	return ids
}

// TextJoined concatenates every Text block in the message.
func (m Message) TextJoined() string {
	var out string
	for _, c := range m.Content {
		if c.Type == ContentText {
			out += c.Text
		}
	}
	return out
}

// FillerMessage returns a single-character placeholder used to bridge two
// consecutive same-role messages so the alternation invariant (spec §3
// invariant 3) holds for providers that require strict user/assistant
// alternation.
func FillerMessage(role Role) Message {
	return Message{Role: role, Content: []Content{Text(".")}}
}

// EnforceAlternation scans a message list and inserts filler messages
// between any two consecutive messages that share a role, so that the
// sequence strictly alternates User/Assistant at the message level.
func EnforceAlternation(messages []Message) []Message {
	if len(messages) < 2 {
		return messages
	}
	out := make([]Message, 0, len(messages)+2)
	for i, m := range messages {
		if i > 0 && out[len(out)-1].Role == m.Role && (m.Role == RoleUser || m.Role == RoleAssistant) {
			opposite := RoleAssistant
			if m.Role == RoleAssistant {
				opposite = RoleUser
			}
			out = append(out, FillerMessage(opposite))
		}
		out = append(out, m)
	}
	return out
}
