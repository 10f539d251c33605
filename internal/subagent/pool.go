// Package subagent implements the sub-agent pool (spec §4.5): bounded
// concurrent explorer/builder fleets with provider-aware staggered
// spawning, shared caches, and per-file locking.
package subagent

import (
	"context"
	"log/slog"
	"time"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/metrics"
)

// StaggerDelay returns the per-provider spawn stagger (spec §4.5.1).
func StaggerDelay(provider string) time.Duration {
	switch provider {
	case "anthropic":
		return 50 * time.Millisecond
	case "openrouter":
		return 100 * time.Millisecond
	default:
		return 200 * time.Millisecond
	}
}

// DefaultConcurrency is the pool's default semaphore size (spec §4.5.1).
const DefaultConcurrency = 10

// Runner executes one sub-agent task to completion. Explorer and Builder
// are the two concrete Runners (spec §4.5.3).
type Runner interface {
	Run(ctx context.Context, task canonical.SubAgentTask) canonical.SubAgentResult
}

// Pool spawns a bounded, staggered fleet of sub-agents and collects their
// results in input order.
type Pool struct {
	concurrency int
	provider    string
	runner      Runner
	logger      *slog.Logger
}

// Config configures a Pool.
type Config struct {
	Concurrency int
	Provider    string
	Runner      Runner
	Logger      *slog.Logger
}

// New constructs a Pool, defaulting Concurrency to DefaultConcurrency.
func New(cfg Config) *Pool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		concurrency: concurrency,
		provider:    cfg.Provider,
		runner:      cfg.Runner,
		logger:      logger.With("component", "subagent.pool"),
	}
}

// Execute spawns one goroutine per task, staggered by StaggerDelay,
// bounded to p.concurrency in-flight at once, and returns results in the
// same order as tasks (spec §4.5.1, testable property 5). A panicking
// Runner is converted into a failed SubAgentResult rather than crashing
// the pool (spec §4.5.1 step 3).
func (p *Pool) Execute(ctx context.Context, tasks []canonical.SubAgentTask) []canonical.SubAgentResult {
	results := make([]canonical.SubAgentResult, len(tasks))
	sem := make(chan struct{}, p.concurrency)
	done := make(chan int, len(tasks))

	for i, task := range tasks {
		if i > 0 {
			delay := StaggerDelay(p.provider)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}

		go func(idx int, t canonical.SubAgentTask) {
			defer func() { done <- idx }()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = cancelledResult(t)
				return
			}

			if ctx.Err() != nil {
				results[idx] = cancelledResult(t)
				return
			}

			gauge := metrics.PoolConcurrency.WithLabelValues(string(t.Role))
			gauge.Inc()
			defer gauge.Dec()

			results[idx] = p.runSafely(ctx, t)
		}(i, task)
	}

	for range tasks {
		<-done
	}
	return results
}

func (p *Pool) runSafely(ctx context.Context, task canonical.SubAgentTask) (result canonical.SubAgentResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("sub-agent panicked", "task_id", task.ID, "panic", r)
			result = canonical.SubAgentResult{
				TaskID: task.ID, Role: task.Role,
				Error: "sub-agent panicked", Started: started, Finished: time.Now(),
			}
		}
	}()
	return p.runner.Run(ctx, task)
}

func cancelledResult(task canonical.SubAgentTask) canonical.SubAgentResult {
	now := time.Now()
	return canonical.SubAgentResult{TaskID: task.ID, Role: task.Role, Error: "cancelled", Started: now, Finished: now}
}
