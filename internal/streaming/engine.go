package streaming

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
)

// Engine drives a FrameReader through a provider-specific Parser, emitting
// a uniform StreamPart sequence on a channel buffered to 64 parts (spec
// §4.3); the channel is not unbounded: once 64 parts are unread, the engine
// waits until the reader takes one or ctx is cancelled. The engine owns all
// accumulator state; Parsers are pure.
type Engine struct {
	logger *slog.Logger

	toolCalls   map[int]*ToolCallAccumulator
	serverTools map[int]*ServerToolAccumulator
	thinking    map[int]*ThinkingAccumulator
	smoother    textSmoother
}

// NewEngine constructs an Engine. A nil logger defaults to slog.Default()
// scoped to this component, matching the rest of the module's logging
// convention.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:      logger.With("component", "streaming.engine"),
		toolCalls:   make(map[int]*ToolCallAccumulator),
		serverTools: make(map[int]*ServerToolAccumulator),
		thinking:    make(map[int]*ThinkingAccumulator),
	}
}

// Run decodes r's SSE frames with parser and emits StreamParts on the
// returned channel until the stream ends, the context is cancelled, or a
// terminal error occurs. The channel is always closed before Run returns.
func (e *Engine) Run(ctx context.Context, r io.Reader, parser Parser, provider, model string) <-chan StreamPart {
	out := make(chan StreamPart, 64)

	go func() {
		defer close(out)

		if !e.emit(ctx, out, StreamPart{Kind: PartStart, Provider: provider, Model: model}) {
			return
		}

		frames := NewFrameReader(r)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			frame, err := frames.Next()
			if err == io.EOF {
				e.finishImplicit(ctx, out)
				return
			}
			if err != nil {
				e.emit(ctx, out, StreamPart{Kind: PartError, Err: err})
				return
			}

			if frame.Done {
				if text, ok := e.smoother.Flush(); ok {
					if !e.emit(ctx, out, StreamPart{Kind: PartTextDelta, TextDelta: text}) {
						return
					}
				}
				e.emit(ctx, out, StreamPart{Kind: PartFinish, FinishReason: "stop"})
				return
			}

			if len(frame.Data) == 0 {
				continue
			}

			var payload json.RawMessage = frame.Data
			ev := parser.ParseEvent(frame.Event, payload)
			if ev.Skip {
				continue
			}

			if !e.handle(ctx, out, ev) {
				return
			}

			if ev.Kind == PartFinish || ev.Kind == PartError {
				return
			}
		}
	}()

	return out
}

// finishImplicit handles a stream that ended without a Finish event or a
// [DONE] marker: treated as an implicit end_turn (spec §7 Protocol errors).
func (e *Engine) finishImplicit(ctx context.Context, out chan<- StreamPart) {
	if text, ok := e.smoother.Flush(); ok {
		if !e.emit(ctx, out, StreamPart{Kind: PartTextDelta, TextDelta: text}) {
			return
		}
	}
	e.emit(ctx, out, StreamPart{Kind: PartFinish, FinishReason: "end_turn"})
}

func (e *Engine) handle(ctx context.Context, out chan<- StreamPart, ev SseEvent) bool {
	switch ev.Kind {
	case PartTextDelta:
		if text, ok := e.smoother.Push(ev.Text); ok {
			return e.emit(ctx, out, StreamPart{Kind: PartTextDelta, TextDelta: text})
		}
		return true

	case PartTextDeltaWithCitations:
		return e.emit(ctx, out, StreamPart{Kind: PartTextDeltaWithCitations, TextDelta: ev.Text, Citations: ev.Citations})

	case PartThinkingStart:
		e.thinking[ev.Index] = &ThinkingAccumulator{}
		return e.emit(ctx, out, StreamPart{Kind: PartThinkingStart})

	case PartThinkingDelta:
		acc := e.thinkingAcc(ev.Index)
		acc.DeltaThinking(ev.ThinkingDelta)
		acc.DeltaSignature(ev.Signature)
		return e.emit(ctx, out, StreamPart{Kind: PartThinkingDelta, ThinkingDelta: ev.ThinkingDelta})

	case PartThinkingComplete:
		acc := e.thinkingAcc(ev.Index)
		delete(e.thinking, ev.Index)
		return e.emit(ctx, out, StreamPart{Kind: PartThinkingComplete, ThinkingDelta: acc.Thinking, ThinkingSig: acc.Signature})

	case PartToolCallStart:
		e.toolCalls[ev.Index] = &ToolCallAccumulator{ID: ev.ToolCallID, Name: ev.ToolCallName}
		return e.emit(ctx, out, StreamPart{Kind: PartToolCallStart, ToolCallID: ev.ToolCallID, ToolCallName: ev.ToolCallName})

	case PartToolCallDelta:
		acc := e.toolCallAcc(ev.Index)
		acc.Delta(ev.ArgsDelta)
		return e.emit(ctx, out, StreamPart{Kind: PartToolCallDelta, ToolCallID: acc.ID, ToolCallDelta: ev.ArgsDelta})

	case PartToolCallComplete:
		// A parser that observes a tool call whole in one frame (no
		// separate Start/Delta signals, e.g. Google) carries the call
		// directly on the event instead of via the accumulator map.
		if _, tracked := e.toolCalls[ev.Index]; !tracked && ev.ToolCallID != "" {
			acc := &ToolCallAccumulator{ID: ev.ToolCallID, Name: ev.ToolCallName}
			acc.Delta(ev.ArgsDelta)
			call := acc.Complete()
			return e.emit(ctx, out, StreamPart{Kind: PartToolCallComplete, ToolCall: &call})
		}
		acc := e.toolCallAcc(ev.Index)
		delete(e.toolCalls, ev.Index)
		call := acc.Complete()
		return e.emit(ctx, out, StreamPart{Kind: PartToolCallComplete, ToolCall: &call})

	case PartServerToolStart:
		e.serverTools[ev.Index] = &ServerToolAccumulator{ToolCallAccumulator{ID: ev.ServerToolID, Name: ev.ServerToolName}}
		return e.emit(ctx, out, StreamPart{Kind: PartServerToolStart, ServerToolID: ev.ServerToolID, ServerToolName: ev.ServerToolName})

	case PartServerToolDelta:
		acc := e.serverToolAcc(ev.Index)
		acc.Delta(ev.ServerArgsDelta)
		return e.emit(ctx, out, StreamPart{Kind: PartServerToolDelta, ServerToolID: acc.ID, ServerToolDelta: ev.ServerArgsDelta})

	case PartServerToolComplete:
		acc := e.serverToolAcc(ev.Index)
		delete(e.serverTools, ev.Index)
		call := acc.Complete()
		return e.emit(ctx, out, StreamPart{Kind: PartServerToolComplete, ServerTool: &call})

	case PartWebSearchResults:
		return e.emit(ctx, out, StreamPart{Kind: PartWebSearchResults, WebSearchResults: ev.WebSearchResults})

	case PartWebFetchResult:
		return e.emit(ctx, out, StreamPart{Kind: PartWebFetchResult, WebFetchResult: ev.WebFetchResult})

	case PartServerToolError:
		return e.emit(ctx, out, StreamPart{Kind: PartServerToolError, ServerToolErr: ev.ServerToolErr})

	case PartUsage:
		return e.emit(ctx, out, StreamPart{Kind: PartUsage, Usage: ev.Usage})

	case PartContextEdited:
		return e.emit(ctx, out, StreamPart{Kind: PartContextEdited, ContextEdit: ev.ContextEdit})

	case PartFinish:
		if text, ok := e.smoother.Flush(); ok {
			if !e.emit(ctx, out, StreamPart{Kind: PartTextDelta, TextDelta: text}) {
				return false
			}
		}
		return e.emit(ctx, out, StreamPart{Kind: PartFinish, FinishReason: ev.FinishReason})

	case PartError:
		e.logger.Warn("malformed SSE event, skipping", "error", ev.Err)
		return e.emit(ctx, out, StreamPart{Kind: PartError, Err: ev.Err})

	default:
		return true
	}
}

func (e *Engine) toolCallAcc(idx int) *ToolCallAccumulator {
	acc, ok := e.toolCalls[idx]
	if !ok {
		acc = &ToolCallAccumulator{}
		e.toolCalls[idx] = acc
	}
	return acc
}

func (e *Engine) serverToolAcc(idx int) *ServerToolAccumulator {
	acc, ok := e.serverTools[idx]
	if !ok {
		acc = &ServerToolAccumulator{}
		e.serverTools[idx] = acc
	}
	return acc
}

func (e *Engine) thinkingAcc(idx int) *ThinkingAccumulator {
	acc, ok := e.thinking[idx]
	if !ok {
		acc = &ThinkingAccumulator{}
		e.thinking[idx] = acc
	}
	return acc
}

func (e *Engine) emit(ctx context.Context, out chan<- StreamPart, part StreamPart) bool {
	select {
	case out <- part:
		return true
	case <-ctx.Done():
		return false
	}
}
