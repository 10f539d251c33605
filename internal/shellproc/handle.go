package shellproc

import (
	"github.com/google/uuid"
)

// Handle adapts ProcessRegistry to canonical.ProcessRegistryHandle, the
// narrow surface the bash tool uses to track a command for the lifetime of
// its execution. It does not itself capture output; the bash tool streams
// output through canonical.ToolContext.StreamOutput and calls Release when
// the command exits.
type Handle struct {
	registry *ProcessRegistry
}

// NewHandle wraps registry for use as a canonical.ProcessRegistryHandle.
func NewHandle(registry *ProcessRegistry) *Handle {
	return &Handle{registry: registry}
}

// Register records a new running command under sessionKey and returns its
// tracking ID.
func (h *Handle) Register(sessionKey, command string) string {
	id := uuid.NewString()
	h.registry.AddSession(&ProcessSession{
		ID:         id,
		Command:    command,
		SessionKey: sessionKey,
		ScopeKey:   sessionKey,
	})
	return id
}

// Release marks id as exited and drops it from the running set.
func (h *Handle) Release(id string) {
	session, ok := h.registry.GetSession(id)
	if !ok {
		return
	}
	h.registry.MarkExited(session, nil, "", ProcessStatusCompleted)
}
