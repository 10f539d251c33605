// Package orchestrator implements the top-level agentic loop (spec §4.6.1):
// prompt ingestion, streaming a provider turn, dual-mind gated tool
// dispatch, and bounded iteration until the turn ends.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/dualmind"
	"github.com/krustycode/agentcore/internal/providerclient"
	"github.com/krustycode/agentcore/internal/streaming"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// DefaultMaxIterations bounds one prompt's agentic loop (spec §4.6.1
// "bounded by MAX_ITERATIONS").
const DefaultMaxIterations = 50

// ProviderClient is the narrow surface the loop needs from
// providerclient.Client.
type ProviderClient interface {
	CallStreaming(ctx context.Context, messages []canonical.Message, tools []wireformat.ToolDef, opts providerclient.CallOptions) (<-chan streaming.StreamPart, error)
}

// Config configures an Orchestrator.
type Config struct {
	Session  *canonical.Session
	Registry *canonical.ToolRegistry
	Provider ProviderClient
	DualMind *dualmind.DualMind
	Hooks    *HookRegistry

	MaxIterations int
	CallOptions   providerclient.CallOptions

	// ToolContext template: every dispatched tool call gets a copy with
	// SessionKey filled in.
	WorkingDir      string
	SandboxRoot     string
	UserID          string
	PlanMode        bool
	ToolTimeout     time.Duration
	ProcessRegistry canonical.ProcessRegistryHandle
	SubAgents       canonical.SubAgentDispatcherHandle
	MCP             canonical.MCPHandle
	Skills          canonical.SkillsHandle

	Logger *slog.Logger
}

// Orchestrator runs the agentic loop for one session (spec §4.6.1, C6: the
// heaviest-weighted component).
type Orchestrator struct {
	session  *canonical.Session
	registry *canonical.ToolRegistry
	provider ProviderClient
	peer     *dualmind.DualMind
	hooks    *HookRegistry

	maxIterations int
	callOpts      providerclient.CallOptions

	workingDir      string
	sandboxRoot     string
	userID          string
	planMode        bool
	toolTimeout     time.Duration
	processRegistry canonical.ProcessRegistryHandle
	subAgents       canonical.SubAgentDispatcherHandle
	mcp             canonical.MCPHandle
	skills          canonical.SkillsHandle

	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(cfg Config) *Orchestrator {
	max := cfg.MaxIterations
	if max <= 0 {
		max = DefaultMaxIterations
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = NewHookRegistry(logger)
	}
	timeout := cfg.ToolTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Orchestrator{
		session:       cfg.Session,
		registry:      cfg.Registry,
		provider:      cfg.Provider,
		peer:          cfg.DualMind,
		hooks:         hooks,
		maxIterations: max,
		callOpts:      cfg.CallOptions,
		workingDir:    cfg.WorkingDir,
		sandboxRoot:   cfg.SandboxRoot,
		userID:          cfg.UserID,
		planMode:        cfg.PlanMode,
		toolTimeout:     timeout,
		processRegistry: cfg.ProcessRegistry,
		subAgents:       cfg.SubAgents,
		mcp:             cfg.MCP,
		skills:          cfg.Skills,
		logger:          logger.With("component", "orchestrator"),
	}
}

// turnAccumulator collects one streamed assistant turn before it is
// committed to session history.
type turnAccumulator struct {
	text         string
	toolCalls    []streaming.ToolCall
	finishReason string
}

// HandlePrompt runs the bounded agentic loop for one user prompt (spec
// §4.6.1). updates receives every SessionUpdate produced along the way;
// the caller is responsible for draining it (it is never closed by this
// call so it can be shared across prompts on the same session).
func (o *Orchestrator) HandlePrompt(ctx context.Context, userText string, updates chan<- SessionUpdate) (StopReason, error) {
	if o.provider == nil {
		return StopRefusal, ErrNoProvider
	}

	o.session.ResetCancellation()
	o.session.Append(canonical.Message{Role: canonical.RoleUser, Content: []canonical.Content{canonical.Text(userText)}})

	intent := userText

	for iteration := 0; iteration < o.maxIterations; iteration++ {
		if o.session.Cancelled() {
			return StopCancelled, ErrCancelled
		}
		o.session.IncrementTurn()

		turn, err := o.streamTurn(ctx, updates)
		if err != nil {
			return StopRefusal, &LoopError{Phase: PhaseStream, Iteration: iteration, Cause: err}
		}

		assistantMsg := canonical.Message{Role: canonical.RoleAssistant}
		if turn.text != "" {
			assistantMsg.Content = append(assistantMsg.Content, canonical.Text(turn.text))
		}
		for _, tc := range turn.toolCalls {
			assistantMsg.Content = append(assistantMsg.Content, canonical.ToolUse(tc.ID, tc.Name, tc.Input))
		}
		o.session.Append(assistantMsg)

		if len(turn.toolCalls) == 0 {
			return stopReasonFor(turn.finishReason), nil
		}

		if o.session.Cancelled() {
			return StopCancelled, ErrCancelled
		}

		if o.peer != nil {
			result := o.peer.PreReview(ctx, intent)
			if result.Kind == dualmind.NeedsEnhancement {
				o.session.Append(canonical.Message{
					Role:    canonical.RoleSystem,
					Content: []canonical.Content{canonical.Text("peer review: " + result.Critique)},
				})
				continue
			}
		}

		results := o.dispatchToolCalls(ctx, turn.toolCalls, updates)
		o.session.Append(canonical.Message{Role: canonical.RoleTool, Content: results})
		o.session.IncrementToolCalls(int64(len(turn.toolCalls)))

		intent = summarizeForReview(turn.toolCalls)
	}

	return StopRefusal, &LoopError{Phase: PhaseStream, Iteration: o.maxIterations, Cause: ErrMaxIterations}
}

// streamTurn invokes CallStreaming and drains the part channel, forwarding
// SessionUpdates and accumulating text/tool calls (spec §4.6.1 steps 4-6).
func (o *Orchestrator) streamTurn(ctx context.Context, updates chan<- SessionUpdate) (turnAccumulator, error) {
	var turn turnAccumulator

	parts, err := o.provider.CallStreaming(ctx, o.session.History(), o.toolDefs(), o.callOpts)
	if err != nil {
		return turn, err
	}

	pending := map[string]*streaming.ToolCall{}
	order := []string{}

	for part := range parts {
		switch part.Kind {
		case streaming.PartTextDelta, streaming.PartTextDeltaWithCitations:
			turn.text += part.TextDelta
			emit(updates, SessionUpdate{Kind: UpdateMessageChunk, Text: part.TextDelta})
		case streaming.PartThinkingDelta:
			emit(updates, SessionUpdate{Kind: UpdateThoughtChunk, Text: part.ThinkingDelta})
		case streaming.PartToolCallStart:
			tc := &streaming.ToolCall{ID: part.ToolCallID, Name: part.ToolCallName}
			pending[part.ToolCallID] = tc
			order = append(order, part.ToolCallID)
			emit(updates, SessionUpdate{Kind: UpdateToolCall, ToolCallID: tc.ID, ToolName: tc.Name, ToolKind: ClassifyTool(tc.Name)})
		case streaming.PartToolCallComplete:
			if part.ToolCall != nil {
				pending[part.ToolCall.ID] = part.ToolCall
			}
			if tc := pending[part.ToolCallID]; tc != nil {
				emit(updates, SessionUpdate{Kind: UpdateToolCallUpdate, ToolCallID: tc.ID, ToolName: tc.Name, ToolKind: ClassifyTool(tc.Name), ToolArgs: string(tc.Input)})
			}
		case streaming.PartContextEdited:
			o.session.RecordContextEdit(
				int64(part.ContextEdit.TokensPruned),
				int64(part.ContextEdit.ToolUsesPruned),
				int64(part.ContextEdit.ThinkingTurnsPruned),
			)
		case streaming.PartFinish:
			turn.finishReason = part.FinishReason
		case streaming.PartError:
			return turn, part.Err
		}
	}

	for _, id := range order {
		if tc := pending[id]; tc != nil {
			turn.toolCalls = append(turn.toolCalls, *tc)
		}
	}
	return turn, nil
}

func (o *Orchestrator) toolDefs() []wireformat.ToolDef {
	if o.registry == nil {
		return nil
	}
	all := o.registry.All()
	defs := make([]wireformat.ToolDef, 0, len(all))
	for _, t := range all {
		defs = append(defs, wireformat.ToolDef{Name: t.Name(), Description: t.Description(), InputSchema: t.Schema()})
	}
	return defs
}

func emit(updates chan<- SessionUpdate, u SessionUpdate) {
	if updates == nil {
		return
	}
	updates <- u
}

func stopReasonFor(finish string) StopReason {
	switch finish {
	case "max_tokens":
		return StopMaxTokens
	case "refusal":
		return StopRefusal
	default:
		return StopEndTurn
	}
}

// summarizeForReview builds a short intent description for the next
// pre-review call from the tool calls just issued (spec §4.6.3: peer
// review operates on a description of intent, not the raw transcript).
func summarizeForReview(calls []streaming.ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	out := "about to run: "
	for i, c := range calls {
		if i > 0 {
			out += ", "
		}
		out += c.Name
	}
	return out
}
