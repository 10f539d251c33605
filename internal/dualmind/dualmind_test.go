package dualmind

import (
	"context"
	"testing"
)

type fakePeer struct {
	replies []string
	calls   int
}

func (f *fakePeer) CallSimple(ctx context.Context, system, userText string, maxTokens int) (string, error) {
	reply := f.replies[f.calls%len(f.replies)]
	f.calls++
	return reply, nil
}

func TestPreReviewSkipsTrivialIntent(t *testing.T) {
	dm := New(Config{Client: &fakePeer{replies: []string{"CONSENSUS"}}})
	result := dm.PreReview(context.Background(), "fix a typo in the README")
	if result.Kind != Skipped {
		t.Fatalf("expected Skipped, got %v", result.Kind)
	}
}

func TestPreReviewConsensus(t *testing.T) {
	dm := New(Config{Client: &fakePeer{replies: []string{"CONSENSUS"}}})
	result := dm.PreReview(context.Background(), "rewrite the billing module")
	if result.Kind != Consensus {
		t.Fatalf("expected Consensus, got %v", result.Kind)
	}
	if len(result.Dialogue) != 2 {
		t.Fatalf("expected 2 dialogue turns, got %d", len(result.Dialogue))
	}
}

func TestPreReviewNeedsEnhancement(t *testing.T) {
	dm := New(Config{Client: &fakePeer{replies: []string{"ENHANCE: missing error handling"}}})
	result := dm.PreReview(context.Background(), "rewrite the billing module")
	if result.Kind != NeedsEnhancement {
		t.Fatalf("expected NeedsEnhancement, got %v", result.Kind)
	}
	if result.Critique != "missing error handling" {
		t.Fatalf("got critique %q", result.Critique)
	}
}

func TestDepthCapSkipsFurtherReviews(t *testing.T) {
	dm := New(Config{Client: &fakePeer{replies: []string{"ENHANCE: x"}}, MaxDiscussionDepth: 1})
	for i := 0; i < 3; i++ {
		dm.PreReview(context.Background(), "rewrite module "+string(rune('a'+i)))
	}
	result := dm.PreReview(context.Background(), "rewrite module z")
	if result.Kind != Skipped {
		t.Fatalf("expected depth cap to force Skipped, got %v", result.Kind)
	}
}

func TestSyncObservationBounded(t *testing.T) {
	dm := New(Config{Client: &fakePeer{replies: []string{"CONSENSUS"}}})
	for i := 0; i < 250; i++ {
		dm.SyncObservation(Observation{Kind: ObservationGeneric, Tool: "read"})
	}
	if len(dm.observations) != 200 {
		t.Fatalf("expected observations bounded to 200, got %d", len(dm.observations))
	}
}
