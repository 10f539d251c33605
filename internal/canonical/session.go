package canonical

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mode tags the session's current operating mode (spec §6.1 set_session_mode).
type Mode string

const (
	ModeCode      Mode = "code"
	ModeArchitect Mode = "architect"
	ModeAsk       Mode = "ask"
)

// Session is a single conversation thread replayed to a provider. Unlike
// pkg/models.Session (channel-routing metadata for the outer multi-channel
// runtime this module grew out of), Session here carries only what the
// orchestration core needs to resume a transcript.
//
// History mutation is append-only and serialized behind mu (spec §3: "Concurrent
// readers are allowed; writers append-only. History mutation uses an exclusive
// lock."). The cancel flag is a monotonic bool: it may only transition
// false->true within one prompt handling (spec §3, §5, testable property 6).
type Session struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	System   string `json:"system,omitempty"`

	mu       sync.RWMutex
	messages []Message
	mode     Mode

	cancelled atomic.Bool

	turnCount  atomic.Int64
	toolCount  atomic.Int64

	tokensPrunedCount       atomic.Int64
	toolUsesPrunedCount     atomic.Int64
	thinkingTurnsPrunedCount atomic.Int64

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession constructs a Session ready to accept prompts.
func NewSession(id, key, provider, model string) *Session {
	now := time.Now()
	return &Session{ID: id, Key: key, Model: model, Provider: provider, CreatedAt: now, UpdatedAt: now}
}

// Append adds a message to the history under the exclusive writer lock.
func (s *Session) Append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	s.UpdatedAt = time.Now()
}

// History returns a snapshot copy of the message history, repaired so
// every tool use is immediately followed by its matching tool result
// (spec §4.4.4, SPEC_FULL supplement 2) before it is handed to a provider.
// Concurrent readers never observe a torn append.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return RepairToolUsePairing(out).Messages
}

// Mode returns the session's current mode tag.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode updates the session's mode tag (spec §6.1 set_session_mode).
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Cancel sets the monotonic cancel flag. Idempotent: calling it more than
// once within a prompt has no further effect.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether the session has been cancelled.
func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// ResetCancellation clears the cancel flag at the start of a new prompt
// (spec §4.6.1 step 2: "reset session cancellation"). This is the one
// place the flag may transition true->false, and only between prompts,
// never while one is in flight.
func (s *Session) ResetCancellation() {
	s.cancelled.Store(false)
}

// IncrementTurn records one more agentic-loop iteration having run.
func (s *Session) IncrementTurn() int64 { return s.turnCount.Add(1) }

// TurnCount returns the number of agentic-loop iterations run so far.
func (s *Session) TurnCount() int64 { return s.turnCount.Load() }

// IncrementToolCalls records n additional tool calls having executed.
func (s *Session) IncrementToolCalls(n int64) int64 { return s.toolCount.Add(n) }

// ToolCallCount returns the number of tool calls executed so far.
func (s *Session) ToolCallCount() int64 { return s.toolCount.Load() }

// RecordContextEdit threads a provider-assisted context edit's pruning
// counts into the session's running totals (spec §4.4.4, SPEC_FULL
// supplement 1: "threaded from the streaming engine to session counters,
// not just forwarded opaquely").
func (s *Session) RecordContextEdit(tokensPruned, toolUsesPruned, thinkingTurnsPruned int64) {
	s.tokensPrunedCount.Add(tokensPruned)
	s.toolUsesPrunedCount.Add(toolUsesPruned)
	s.thinkingTurnsPrunedCount.Add(thinkingTurnsPruned)
}

// TokensPruned returns the total tokens a provider has pruned from this
// session's context via provider-assisted context editing.
func (s *Session) TokensPruned() int64 { return s.tokensPrunedCount.Load() }

// ToolUsesPruned returns the total tool-use/tool-result pairs a provider
// has pruned from this session's context.
func (s *Session) ToolUsesPruned() int64 { return s.toolUsesPrunedCount.Load() }

// ThinkingTurnsPruned returns the total thinking blocks a provider has
// pruned from this session's context.
func (s *Session) ThinkingTurnsPruned() int64 { return s.thinkingTurnsPrunedCount.Load() }

// SubAgentTask describes work handed to a sub-agent by the pool (spec §4.5).
type SubAgentTask struct {
	ID               string            `json:"id"`
	ParentSessionKey string            `json:"parent_session_key"`
	Role             SubAgentRole      `json:"role"`
	Prompt           string            `json:"prompt"`
	WorkingDir       string            `json:"working_dir"`
	// ParentModel is the parent session's currently selected model; non-
	// Anthropic providers route every sub-agent task to it unchanged
	// (spec §4.5.6).
	ParentModel string            `json:"parent_model,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// SubAgentRole distinguishes the two sub-agent kinds (spec §4.5.2-3).
type SubAgentRole string

const (
	SubAgentExplorer SubAgentRole = "explorer"
	SubAgentBuilder  SubAgentRole = "builder"
)

// SubAgentResult is what a sub-agent hands back to its caller.
type SubAgentResult struct {
	TaskID   string    `json:"task_id"`
	Role     SubAgentRole `json:"role"`
	Text     string    `json:"text"`
	Error    string    `json:"error,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Duration returns the wall-clock time the sub-agent ran for.
func (r SubAgentResult) Duration() time.Duration {
	if r.Finished.IsZero() || r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
