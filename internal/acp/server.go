package acp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/orchestrator"
)

// AgentName/AgentVersion identify this core in initialize responses.
const (
	AgentName    = "krustycore"
	AgentVersion = "0.1.0"
)

// Server is the stdio JSON-RPC surface the agentic core exposes (spec
// §6.1). It reads newline-delimited requests from an io.Reader and writes
// newline-delimited responses/notifications to an io.Writer, serialized
// behind one write mutex since session/update notifications and request
// responses share the same output stream. Grounded on
// internal/mcp/transport_stdio.go's framing (one JSON object per line)
// and request/response/notification shapes, mirrored for the server side
// of the same protocol.
type Server struct {
	manager *Manager
	logger  *slog.Logger

	authenticated atomic.Bool

	writeMu sync.Mutex
	out     io.Writer
}

// NewServer constructs a Server backed by the given session Manager.
func NewServer(manager *Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{manager: manager, logger: logger.With("component", "acp.server")}
}

// Run reads requests line-by-line from r until EOF or ctx is cancelled,
// dispatching each to its handler and writing responses to w.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = w
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, ErrCodeParseError, "parse error: "+err.Error())
			continue
		}
		s.dispatch(ctx, req)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("acp: read loop: %w", err)
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, req Request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "authenticate":
		s.handleAuthenticate(req)
	case "new_session":
		s.handleNewSession(req)
	case "load_session":
		s.handleLoadSession(req)
	case "prompt":
		s.handlePrompt(ctx, req)
	case "cancel":
		s.handleCancel(req)
	case "set_session_mode":
		s.handleSetSessionMode(req)
	default:
		s.writeError(req.ID, ErrCodeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *Server) handleInitialize(req Request) {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
			return
		}
	}
	s.writeResult(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		AgentName:       AgentName,
		AgentVersion:    AgentVersion,
	})
}

func (s *Server) handleAuthenticate(req Request) {
	var params AuthenticateParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
		return
	}
	if params.MethodID != "api_key" || params.APIKey == "" {
		s.writeError(req.ID, ErrCodeInvalidParams, "unsupported authentication method")
		return
	}
	s.authenticated.Store(true)
	s.writeResult(req.ID, AuthenticateResult{Authenticated: true})
}

func (s *Server) handleNewSession(req Request) {
	var params NewSessionParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
		return
	}
	id := newSessionID()
	if _, err := s.manager.Create(id, params.Cwd, params.MCPServers); err != nil {
		s.writeError(req.ID, ErrCodeInternalError, err.Error())
		return
	}
	s.writeResult(req.ID, NewSessionResult{SessionID: id})
}

func (s *Server) handleLoadSession(req Request) {
	var params LoadSessionParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
		return
	}
	if _, ok := s.manager.Get(params.SessionID); ok {
		s.writeResult(req.ID, LoadSessionResult{SessionID: params.SessionID, Created: false})
		return
	}
	if _, err := s.manager.Create(params.SessionID, params.Cwd, nil); err != nil {
		s.writeError(req.ID, ErrCodeInternalError, err.Error())
		return
	}
	s.writeResult(req.ID, LoadSessionResult{SessionID: params.SessionID, Created: true})
}

func (s *Server) handlePrompt(ctx context.Context, req Request) {
	var params PromptParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
		return
	}
	sess, ok := s.manager.Get(params.SessionID)
	if !ok {
		s.writeError(req.ID, ErrCodeInvalidParams, "unknown session: "+params.SessionID)
		return
	}

	text := flattenPromptContent(params.Content)

	updates := make(chan orchestrator.SessionUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range updates {
			s.emitSessionUpdate(params.SessionID, u)
		}
	}()

	reason, err := sess.Loop.HandlePrompt(ctx, text, updates)
	close(updates)
	wg.Wait()

	if err != nil {
		s.logger.Warn("prompt loop returned error", "session_id", params.SessionID, "err", err)
	}
	s.writeResult(req.ID, PromptResult{StopReason: string(reason)})
}

func (s *Server) handleCancel(req Request) {
	var params CancelParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
		return
	}
	sess, ok := s.manager.Get(params.SessionID)
	if !ok {
		s.writeError(req.ID, ErrCodeInvalidParams, "unknown session: "+params.SessionID)
		return
	}
	sess.Canon.Cancel()
	s.writeResult(req.ID, struct{}{})
}

func (s *Server) handleSetSessionMode(req Request) {
	var params SetSessionModeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
		return
	}
	sess, ok := s.manager.Get(params.SessionID)
	if !ok {
		s.writeError(req.ID, ErrCodeInvalidParams, "unknown session: "+params.SessionID)
		return
	}
	mode, err := parseMode(params.Mode)
	if err != nil {
		s.writeError(req.ID, ErrCodeInvalidParams, err.Error())
		return
	}
	sess.Canon.SetMode(mode)
	s.writeResult(req.ID, struct{}{})
}

func parseMode(m string) (canonical.Mode, error) {
	switch canonical.Mode(m) {
	case canonical.ModeCode, canonical.ModeArchitect, canonical.ModeAsk:
		return canonical.Mode(m), nil
	default:
		return "", fmt.Errorf("acp: unknown session mode %q", m)
	}
}

// emitSessionUpdate translates an orchestrator.SessionUpdate into a
// session/update notification (spec §6.1).
func (s *Server) emitSessionUpdate(sessionID string, u orchestrator.SessionUpdate) {
	params := SessionUpdateParams{
		SessionID:  sessionID,
		Kind:       string(u.Kind),
		Text:       u.Text,
		ToolCallID: u.ToolCallID,
		ToolName:   u.ToolName,
		ToolKind:   string(u.ToolKind),
		ToolArgs:   u.ToolArgs,
		ToolResult: u.ToolResult,
		ToolFailed: u.ToolFailed,
	}
	s.writeNotification("session/update", params)
}

func (s *Server) writeResult(id any, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.writeError(id, ErrCodeInternalError, err.Error())
		return
	}
	s.writeLine(Response{JSONRPC: "2.0", ID: id, Result: payload})
}

func (s *Server) writeError(id any, code int, message string) {
	s.writeLine(Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}})
}

func (s *Server) writeNotification(method string, params any) {
	payload, err := json.Marshal(params)
	if err != nil {
		s.logger.Error("failed to marshal notification params", "method", method, "err", err)
		return
	}
	s.writeLine(Notification{JSONRPC: "2.0", Method: method, Params: payload})
}

func (s *Server) writeLine(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal outbound message", "err", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.out.Write(data)
	s.out.Write([]byte("\n"))
}

// newSessionID generates a globally-unique session id (spec §6.1
// new_session: "return session id").
func newSessionID() string {
	return uuid.NewString()
}
