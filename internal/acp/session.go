package acp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/orchestrator"
)

// Loop is the narrow surface a Session needs from an orchestrator to run
// one prompt to completion.
type Loop interface {
	HandlePrompt(ctx context.Context, userText string, updates chan<- orchestrator.SessionUpdate) (orchestrator.StopReason, error)
}

// Session pairs one canonical.Session with the orchestrator loop running
// against it, plus the MCP servers the surface asked new_session to wire
// in (spec §6.1).
type Session struct {
	ID     string
	Cwd    string
	Loop   Loop
	Canon  *canonical.Session
	MCP    []MCPServerDescriptor
}

// Manager tracks live sessions keyed by id (spec §6.1 new_session/
// load_session/prompt/cancel/set_session_mode all operate on this map).
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  SessionFactory
}

// SessionFactory constructs a fresh Session for a given working directory
// and id. The core never hard-wires a provider/config choice itself (spec
// §6.4 Collaborators) — the caller of acp.NewServer supplies this.
type SessionFactory func(id, cwd string, mcpServers []MCPServerDescriptor) (*Session, error)

// NewManager constructs an empty session Manager.
func NewManager(factory SessionFactory) *Manager {
	return &Manager{sessions: make(map[string]*Session), factory: factory}
}

// Create builds and registers a new session.
func (m *Manager) Create(id, cwd string, mcpServers []MCPServerDescriptor) (*Session, error) {
	sess, err := m.factory(id, cwd, mcpServers)
	if err != nil {
		return nil, fmt.Errorf("acp: create session: %w", err)
	}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns a registered session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// flattenPromptContent renders inbound content blocks to plain text (spec
// §4.6.1 step 1): text passes through, an embedded resource becomes
// formatted text, a resource-link becomes a reference line.
func flattenPromptContent(blocks []PromptContentBlock) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		switch block.Type {
		case "text":
			b.WriteString(block.Text)
		case "resource":
			b.WriteString(fmt.Sprintf("[resource %s]\n%s", block.ResourceURI, block.ResourceText))
		case "resource_link":
			b.WriteString(fmt.Sprintf("[link: %s (%s)]", block.LinkName, block.LinkURI))
		default:
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
