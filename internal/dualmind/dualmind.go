// Package dualmind implements the dual-mind peer review system (spec
// §4.6.3): an asynchronous peer agent ("Little Claw") that pre-reviews
// intents and post-reviews outputs for the main agent ("Big Claw"),
// injecting its critique back into the conversation via the Orchestrator.
package dualmind

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Speaker identifies one side of the dialogue.
type Speaker string

const (
	BigClaw   Speaker = "big_claw"
	LittleClaw Speaker = "little_claw"
)

// DialogueTurn is one exchange in the peer conversation.
type DialogueTurn struct {
	Speaker Speaker
	Content string
}

// ResultKind discriminates DialogueResult (spec §4.6.3: "Skipped,
// Consensus, NeedsEnhancement{critique, dialogue}").
type ResultKind string

const (
	Skipped          ResultKind = "skipped"
	Consensus        ResultKind = "consensus"
	NeedsEnhancement ResultKind = "needs_enhancement"
)

// DialogueResult is the outcome of one pre/post-review call.
type DialogueResult struct {
	Kind     ResultKind
	Critique string
	Dialogue []DialogueTurn
}

// ObservationKind classifies a synced Observation.
type ObservationKind string

const (
	ObservationFileEdit    ObservationKind = "file_edit"
	ObservationFileWrite   ObservationKind = "file_write"
	ObservationBashCommand ObservationKind = "bash_command"
	ObservationGeneric     ObservationKind = "generic"
)

// Observation is a structured record of a recently completed tool,
// one-way synced to the peer so it stays current without a full
// round-trip (spec §3, §4.6.3 sync_observation).
type Observation struct {
	Kind    ObservationKind
	Tool    string
	Summary string
}

// TrivialIntentWords short-circuits Pre-review to Skipped when the
// intent description contains one of these words (spec §4.6.3,
// SPEC_FULL supplement 4: "a configurable word list, not hardcoded").
var TrivialIntentWords = []string{"typo", "whitespace", "formatting"}

// PeerClient is the narrow surface DualMind needs from the provider
// client to talk to the peer model (spec §4.4 call_simple).
type PeerClient interface {
	CallSimple(ctx context.Context, system, userText string, maxTokens int) (string, error)
}

// Config configures a DualMind.
type Config struct {
	Client PeerClient
	// MaxDiscussionDepth bounds dialogue length before this turn's
	// pre-review short-circuits to skip-by-default (spec §4.6.3 Depth
	// cap: skip once accumulated dialogue exceeds 2x this value).
	MaxDiscussionDepth int
	// TrivialWords overrides TrivialIntentWords when non-nil.
	TrivialWords []string
	Logger       *slog.Logger
}

// DualMind holds the peer conversation state, independent of the main
// session history (spec §4.6.3).
type DualMind struct {
	client       PeerClient
	maxDepth     int
	trivialWords []string
	logger       *slog.Logger

	mu         sync.Mutex
	dialogue   []DialogueTurn
	totalTurns int // cumulative across the session; never reset by flush
	observations []Observation
}

// New constructs a DualMind. MaxDiscussionDepth defaults to 6 turns.
func New(cfg Config) *DualMind {
	maxDepth := cfg.MaxDiscussionDepth
	if maxDepth <= 0 {
		maxDepth = 6
	}
	words := cfg.TrivialWords
	if words == nil {
		words = TrivialIntentWords
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DualMind{
		client:       cfg.Client,
		maxDepth:     maxDepth,
		trivialWords: words,
		logger:       logger.With("component", "dualmind"),
	}
}

// isTrivial reports whether intent contains a word from the trivial list.
func (d *DualMind) isTrivial(intent string) bool {
	lower := strings.ToLower(intent)
	for _, w := range d.trivialWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// depthExceeded reports whether the dialogue has grown past 2x the
// configured max discussion depth, cumulatively across the session (spec
// §4.6.3 Depth cap). This is tracked independently of the per-call
// accumulator, which is flushed after every review.
func (d *DualMind) depthExceeded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalTurns > 2*d.maxDepth
}

func (d *DualMind) appendTurn(speaker Speaker, content string) DialogueTurn {
	turn := DialogueTurn{Speaker: speaker, Content: content}
	d.mu.Lock()
	d.dialogue = append(d.dialogue, turn)
	d.totalTurns++
	d.mu.Unlock()
	return turn
}

// flush returns and clears the per-call dialogue accumulator, so each
// pre/post-review call returns only the turns it produced (spec §4.6.3
// "the accumulator is flushed and returned alongside the result"). The
// cumulative totalTurns counter used by the depth cap is untouched.
func (d *DualMind) flush() []DialogueTurn {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.dialogue
	d.dialogue = nil
	return out
}

// PreReview evaluates an intent before its tool calls execute (spec
// §4.6.3). Trivial intents (typo/whitespace/formatting) and an
// over-deep dialogue both short-circuit to Skipped without calling the
// peer model.
func (d *DualMind) PreReview(ctx context.Context, intentDescription string) DialogueResult {
	if d.isTrivial(intentDescription) {
		return DialogueResult{Kind: Skipped}
	}
	if d.depthExceeded() {
		d.logger.Warn("dialogue depth cap exceeded, skipping pre-review")
		return DialogueResult{Kind: Skipped}
	}
	return d.review(ctx, "pre", intentDescription)
}

// PostReview evaluates a tool's output after execution (spec §4.6.3).
func (d *DualMind) PostReview(ctx context.Context, output string) DialogueResult {
	if d.depthExceeded() {
		return DialogueResult{Kind: Skipped}
	}
	return d.review(ctx, "post", output)
}

const peerSystemPrompt = "You are Little Claw, a peer reviewer for another AI agent (Big Claw). " +
	"You will be shown a brief description of what Big Claw is about to do or just did. " +
	"Respond with either the single word CONSENSUS if it looks correct and sufficient, " +
	"or a short critique starting with the word ENHANCE if it needs improvement."

func (d *DualMind) review(ctx context.Context, phase, content string) DialogueResult {
	if d.client == nil {
		return DialogueResult{Kind: Consensus}
	}

	d.appendTurn(BigClaw, content)

	framing := d.framingFor(phase, content)
	reply, err := d.client.CallSimple(ctx, peerSystemPrompt, framing, 1024)
	if err != nil {
		d.logger.Warn("peer review call failed", "phase", phase, "err", err)
		return DialogueResult{Kind: Consensus, Dialogue: d.flush()}
	}

	d.appendTurn(LittleClaw, reply)

	trimmed := strings.TrimSpace(reply)
	if strings.HasPrefix(strings.ToUpper(trimmed), "ENHANCE") {
		critique := strings.TrimSpace(trimmed[len("ENHANCE"):])
		critique = strings.TrimPrefix(critique, ":")
		critique = strings.TrimSpace(critique)
		return DialogueResult{Kind: NeedsEnhancement, Critique: critique, Dialogue: d.flush()}
	}
	return DialogueResult{Kind: Consensus, Dialogue: d.flush()}
}

func (d *DualMind) framingFor(phase, content string) string {
	d.mu.Lock()
	var history strings.Builder
	for _, turn := range d.dialogue {
		history.WriteString(string(turn.Speaker))
		history.WriteString(": ")
		history.WriteString(turn.Content)
		history.WriteString("\n")
	}
	obsCount := len(d.observations)
	d.mu.Unlock()

	var b strings.Builder
	if phase == "pre" {
		b.WriteString("Big Claw is about to: ")
	} else {
		b.WriteString("Big Claw just produced this output: ")
	}
	b.WriteString(content)
	if obsCount > 0 {
		b.WriteString("\n\n(")
		b.WriteString(strconv.Itoa(obsCount))
		b.WriteString(" recent tool observations synced.)")
	}
	return b.String()
}

// SyncObservation appends a structured observation to the peer's context
// so it stays current without requiring a full round-trip (spec §4.6.3
// sync_observation, one-way).
func (d *DualMind) SyncObservation(obs Observation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observations = append(d.observations, obs)
	const maxObservations = 200
	if len(d.observations) > maxObservations {
		d.observations = d.observations[len(d.observations)-maxObservations:]
	}
}
