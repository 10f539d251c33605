// Package acp implements the agent-facing protocol (spec §6.1): a
// request/notification surface over stdio that lets a client negotiate
// capabilities, create sessions, submit prompts, and receive a streamed
// session/update notification feed while the orchestrator's agentic loop
// runs.
package acp

import "encoding/json"

// ProtocolVersion is the protocol version this core negotiates (spec
// §6.1 initialize: "current 10").
const ProtocolVersion = 10

// Request is a JSON-RPC 2.0 request from the surface. Grounded on
// internal/mcp/types.go's JSONRPCRequest, mirrored here for the server
// side of the same wire shape.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response the core sends back.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Notification is a JSON-RPC 2.0 notification (no ID), used for
// session/update (spec §6.1).
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC error codes, grounded on internal/mcp/types.go's
// ErrCode* constants.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// InitializeParams is the initialize request payload.
type InitializeParams struct {
	ProtocolVersion int             `json:"protocol_version"`
	ClientInfo      json.RawMessage `json:"client_info,omitempty"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
}

// InitializeResult is the initialize response payload.
type InitializeResult struct {
	ProtocolVersion int    `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
	AgentVersion    string `json:"agent_version"`
}

// AuthenticateParams is the authenticate request payload (spec §6.1:
// "Accept an api_key method-id").
type AuthenticateParams struct {
	MethodID string `json:"method_id"`
	APIKey   string `json:"api_key"`
}

// AuthenticateResult confirms authentication.
type AuthenticateResult struct {
	Authenticated bool `json:"authenticated"`
}

// MCPServerDescriptor describes one MCP server a new session should wire
// up (spec §6.1 new_session: "optional MCP server descriptors").
type MCPServerDescriptor struct {
	ID      string            `json:"id"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// NewSessionParams is the new_session request payload.
type NewSessionParams struct {
	Cwd        string                 `json:"cwd"`
	MCPServers []MCPServerDescriptor  `json:"mcp_servers,omitempty"`
}

// NewSessionResult returns the id of the freshly created session.
type NewSessionResult struct {
	SessionID string `json:"session_id"`
}

// LoadSessionParams is the load_session request payload (spec §6.1:
// "Rehydrate or create-with-id").
type LoadSessionParams struct {
	SessionID string `json:"session_id"`
	Cwd       string `json:"cwd"`
}

// LoadSessionResult confirms the session is ready.
type LoadSessionResult struct {
	SessionID string `json:"session_id"`
	Created   bool   `json:"created"`
}

// PromptContentBlock is one inbound content block (spec §4.6.1 step 1:
// "text, embedded resource, resource-link").
type PromptContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// EmbeddedResource
	ResourceText string `json:"resource_text,omitempty"`
	ResourceURI  string `json:"resource_uri,omitempty"`

	// ResourceLink
	LinkURI  string `json:"link_uri,omitempty"`
	LinkName string `json:"link_name,omitempty"`
}

// PromptParams is the prompt request payload.
type PromptParams struct {
	SessionID string                `json:"session_id"`
	Content   []PromptContentBlock  `json:"content"`
}

// PromptResult carries the stop reason the agentic loop ended with (spec
// §6.1: "returns a StopReason when the agentic loop terminates").
type PromptResult struct {
	StopReason string `json:"stop_reason"`
}

// CancelParams is the cancel request payload.
type CancelParams struct {
	SessionID string `json:"session_id"`
}

// SetSessionModeParams is the set_session_mode request payload.
type SetSessionModeParams struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

// SessionUpdateParams is the session/update notification payload (spec
// §6.1: "Stream of: AgentMessageChunk, AgentThoughtChunk, ToolCall,
// ToolCallUpdate").
type SessionUpdateParams struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`

	Text string `json:"text,omitempty"`

	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolKind   string `json:"tool_kind,omitempty"`
	ToolArgs   string `json:"tool_args,omitempty"`
	ToolResult string `json:"tool_result,omitempty"`
	ToolFailed bool   `json:"tool_failed,omitempty"`
}
