// Package shellproc tracks background shell processes spawned by the bash
// tool for the lifetime of their execution, so the core can account for
// how many commands are in flight and attribute them to a session.
package shellproc

import (
	"log/slog"
	"sync"
	"time"

	"github.com/krustycode/agentcore/internal/metrics"
)

// ProcessSession represents one currently-running shell command.
type ProcessSession struct {
	ID         string
	Command    string
	ScopeKey   string
	SessionKey string
	PID        int
	StartedAt  time.Time
	CWD        string

	ExitCode   *int
	ExitSignal string
	Exited     bool
}

// ProcessRegistry tracks the shell commands currently running across all
// sessions. Unlike the teacher's shell.ProcessRegistry (which also retains
// finished sessions with their aggregated output behind a TTL sweeper, for
// a caller to poll after the fact), this core's bash tool streams output
// directly through canonical.ToolContext.StreamOutput and has no operation
// that lists or replays a finished command's output — so this registry
// only needs to track sessions while they run.
type ProcessRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*ProcessSession
	logger   *slog.Logger
}

// NewProcessRegistry creates a new process registry.
func NewProcessRegistry(logger *slog.Logger) *ProcessRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessRegistry{
		sessions: make(map[string]*ProcessSession),
		logger:   logger.With("component", "process_registry"),
	}
}

// AddSession registers a new running session.
func (r *ProcessRegistry) AddSession(session *ProcessSession) {
	if session == nil {
		return
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	metrics.ActiveProcesses.Inc()
	r.logger.Debug("added session", "id", session.ID, "command", session.Command, "pid", session.PID)
}

// GetSession retrieves a running session by ID.
func (r *ProcessRegistry) GetSession(id string) (*ProcessSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, exists := r.sessions[id]
	return session, exists
}

// MarkExited removes a session from the running set. status is accepted
// for parity with the teacher's call shape but this registry does not
// retain finished sessions, so it is not stored.
func (r *ProcessRegistry) MarkExited(session *ProcessSession, exitCode *int, exitSignal string, status ProcessStatus) {
	if session == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session.Exited = true
	session.ExitCode = exitCode
	session.ExitSignal = exitSignal
	if _, ok := r.sessions[session.ID]; ok {
		delete(r.sessions, session.ID)
		metrics.ActiveProcesses.Dec()
	}

	r.logger.Debug("session finished", "id", session.ID, "status", status, "exit_code", exitCode)
}

// RunningCount returns the number of sessions currently tracked as running.
func (r *ProcessRegistry) RunningCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ProcessStatus represents the terminal state of a shell process.
type ProcessStatus string

const (
	ProcessStatusCompleted ProcessStatus = "completed"
	ProcessStatusFailed    ProcessStatus = "failed"
	ProcessStatusKilled    ProcessStatus = "killed"
)
