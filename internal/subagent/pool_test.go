package subagent

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
)

type fakeRunner struct {
	delay func(i int) time.Duration
	calls int32
	panic bool
}

func (r *fakeRunner) Run(ctx context.Context, task canonical.SubAgentTask) canonical.SubAgentResult {
	atomic.AddInt32(&r.calls, 1)
	if r.panic {
		panic("boom")
	}
	if r.delay != nil {
		time.Sleep(r.delay(0))
	}
	return canonical.SubAgentResult{TaskID: task.ID, Role: task.Role, Text: "ok for " + task.ID}
}

func TestPoolExecuteOrderMatchesInputRegardlessOfCompletionOrder(t *testing.T) {
	tasks := make([]canonical.SubAgentTask, 6)
	for i := range tasks {
		// later tasks finish first, to exercise out-of-order completion.
		idx := i
		tasks[i] = canonical.SubAgentTask{ID: fmt.Sprintf("t%d", idx), Role: canonical.SubAgentExplorer}
	}

	pool := New(Config{Concurrency: 3, Provider: "anthropic", Runner: &delayedRunner{}})
	results := pool.Execute(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}
	for i, r := range results {
		want := fmt.Sprintf("t%d", i)
		if r.TaskID != want {
			t.Errorf("result[%d].TaskID = %q, want %q (order not preserved)", i, r.TaskID, want)
		}
	}
}

// delayedRunner makes earlier invocations sleep longer than later ones, so
// with the 50 ms stagger tasks complete out of input order.
type delayedRunner struct{ n int32 }

func (r *delayedRunner) Run(ctx context.Context, task canonical.SubAgentTask) canonical.SubAgentResult {
	n := atomic.AddInt32(&r.n, 1)
	time.Sleep(time.Duration(7-n) * 100 * time.Millisecond)
	return canonical.SubAgentResult{TaskID: task.ID, Role: task.Role}
}

func TestPoolExecuteBoundsConcurrency(t *testing.T) {
	var inFlight, maxInFlight int32
	runner := &concurrencyProbeRunner{inFlight: &inFlight, maxInFlight: &maxInFlight}

	tasks := make([]canonical.SubAgentTask, 8)
	for i := range tasks {
		tasks[i] = canonical.SubAgentTask{ID: fmt.Sprintf("t%d", i), Role: canonical.SubAgentExplorer}
	}

	pool := New(Config{Concurrency: 2, Provider: "anthropic", Runner: runner})
	pool.Execute(context.Background(), tasks)

	if maxInFlight > 2 {
		t.Errorf("observed %d concurrent runs, want <= 2", maxInFlight)
	}
}

type concurrencyProbeRunner struct {
	inFlight    *int32
	maxInFlight *int32
}

func (r *concurrencyProbeRunner) Run(ctx context.Context, task canonical.SubAgentTask) canonical.SubAgentResult {
	cur := atomic.AddInt32(r.inFlight, 1)
	defer atomic.AddInt32(r.inFlight, -1)
	for {
		max := atomic.LoadInt32(r.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(r.maxInFlight, max, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return canonical.SubAgentResult{TaskID: task.ID, Role: task.Role}
}

func TestPoolExecutePanicBecomesFailedResult(t *testing.T) {
	runner := &fakeRunner{panic: true}
	tasks := []canonical.SubAgentTask{{ID: "t0", Role: canonical.SubAgentBuilder}}

	pool := New(Config{Concurrency: 1, Runner: runner})
	results := pool.Execute(context.Background(), tasks)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == "" {
		t.Errorf("expected panic to surface as a failed result, got %+v", results[0])
	}
}

func TestPoolExecuteRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	tasks := []canonical.SubAgentTask{{ID: "t0", Role: canonical.SubAgentExplorer}}

	pool := New(Config{Concurrency: 1, Runner: runner})
	results := pool.Execute(ctx, tasks)

	if results[0].Error != "cancelled" {
		t.Errorf("expected cancelled result, got %+v", results[0])
	}
}

func TestStaggerDelayPerProvider(t *testing.T) {
	cases := map[string]time.Duration{
		"anthropic":  50 * time.Millisecond,
		"openrouter": 100 * time.Millisecond,
		"other":      200 * time.Millisecond,
	}
	for provider, want := range cases {
		if got := StaggerDelay(provider); got != want {
			t.Errorf("StaggerDelay(%q) = %s, want %s", provider, got, want)
		}
	}
}
