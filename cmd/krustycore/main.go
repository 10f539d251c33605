// krustycore is the agentic orchestration core's process entrypoint: it
// resolves provider credentials from the environment, wires the
// orchestrator and dual-mind review up to a tool registry, and serves the
// agent-facing protocol (spec §6.1) over stdin/stdout. All logging goes
// to stderr so stdout stays a clean JSON-RPC stream.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/krustycode/agentcore/internal/acp"
	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/config"
	"github.com/krustycode/agentcore/internal/dualmind"
	"github.com/krustycode/agentcore/internal/mcp"
	"github.com/krustycode/agentcore/internal/orchestrator"
	"github.com/krustycode/agentcore/internal/providerclient"
	"github.com/krustycode/agentcore/internal/shellproc"
	"github.com/krustycode/agentcore/internal/skills"
	"github.com/krustycode/agentcore/internal/subagent"
	"github.com/krustycode/agentcore/internal/toolsimpl"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting krustycore",
		"version", version, "commit", commit,
		"provider", cfg.Provider, "model", cfg.Model)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("krustycore exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	providerClient := providerclient.New(cfg.ProviderClientConfig(), logger)

	// One skills manager is shared across every session: discovery scans the
	// workspace once at startup rather than per new_session call (spec §6.4
	// "skills manager" is threaded through, never re-discovered by the core
	// itself).
	skillsMgr, err := skills.NewManager(nil, cfg.WorkingDir, nil)
	if err != nil {
		slog.Warn("skills manager init failed, continuing without skills", "error", err)
		skillsMgr = nil
	} else if err := skillsMgr.Discover(ctx); err != nil {
		slog.Warn("skill discovery failed", "error", err)
	}

	manager := acp.NewManager(func(id, cwd string, mcpServers []acp.MCPServerDescriptor) (*acp.Session, error) {
		return newSession(ctx, id, cwd, cfg, providerClient, skillsMgr, mcpServers, logger)
	})
	server := acp.NewServer(manager, logger)

	return server.Run(ctx, os.Stdin, os.Stdout)
}

// newSession builds one orchestrator.Orchestrator wired to its own
// canonical.Session and tool registry, isolated per ACP session (spec
// §6.1 new_session). mcpServers are the descriptors the surface passed in
// new_session's request; an MCP manager is started per session since
// server sets are session-scoped, unlike the shared skills manager.
func newSession(ctx context.Context, id, cwd string, cfg *config.Config, provider *providerclient.Client, skillsMgr *skills.Manager, mcpServers []acp.MCPServerDescriptor, logger *slog.Logger) (*acp.Session, error) {
	workingDir := cwd
	if workingDir == "" {
		workingDir = cfg.WorkingDir
	}

	canonSession := canonical.NewSession(id, uuid.NewString(), string(cfg.Provider), cfg.Model)
	registry := toolsimpl.OrchestratorTools()
	procRegistry := shellproc.NewHandle(shellproc.NewProcessRegistry(logger))
	mcpHandle := mcp.NewHandle(newMCPManager(ctx, mcpServers, logger))
	var skillsHandle canonical.SkillsHandle
	if skillsMgr != nil {
		skillsHandle = skills.NewHandle(skillsMgr)
	}

	var peer *dualmind.DualMind
	if provider != nil {
		peer = dualmind.New(dualmind.Config{
			Client: peerClient{provider: provider},
			Logger: logger,
		})
	}

	// subAgents stays a nil interface (rather than a typed-nil *Dispatcher)
	// when there's no provider, so DispatchAgentsTool's tc.SubAgents == nil
	// check behaves correctly.
	var subAgents canonical.SubAgentDispatcherHandle
	if provider != nil {
		subAgents = &subagent.Dispatcher{
			Client:        provider,
			Provider:      string(cfg.Provider),
			ExplorerTools: toolsimpl.ExplorerTools,
			BuilderTools:  toolsimpl.BuilderTools,
			Concurrency:   subagent.DefaultConcurrency,
			Logger:        logger,
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Session:       canonSession,
		Registry:      registry,
		Provider:      provider,
		DualMind:      peer,
		MaxIterations: cfg.MaxIterations,
		WorkingDir:      workingDir,
		SandboxRoot:     cfg.SandboxRoot,
		ToolTimeout:     cfg.ToolTimeout,
		ProcessRegistry: procRegistry,
		SubAgents:       subAgents,
		MCP:             mcpHandle,
		Skills:          skillsHandle,
		Logger:          logger,
	})

	return &acp.Session{
		ID:    id,
		Cwd:   workingDir,
		Loop:  orch,
		Canon: canonSession,
	}, nil
}

// peerClient adapts providerclient.Client.CallSimple to dualmind.PeerClient.
type peerClient struct {
	provider *providerclient.Client
}

func (p peerClient) CallSimple(ctx context.Context, system, userText string, maxTokens int) (string, error) {
	text, err := p.provider.CallSimple(ctx, system, userText, maxTokens)
	if err != nil {
		return "", fmt.Errorf("krustycore: peer call: %w", err)
	}
	return text, nil
}

// newMCPManager builds and starts an MCP manager for one session's server
// descriptors (spec §6.1 new_session "optional MCP server descriptors").
// Connection failures are logged, not fatal: a session with an unreachable
// MCP server should still serve prompts, just without that server's tools.
func newMCPManager(ctx context.Context, servers []acp.MCPServerDescriptor, logger *slog.Logger) *mcp.Manager {
	cfg := &mcp.Config{Enabled: len(servers) > 0}
	for _, s := range servers {
		cfg.Servers = append(cfg.Servers, &mcp.ServerConfig{
			ID:        s.ID,
			Name:      s.ID,
			Transport: mcp.TransportStdio,
			Command:   s.Command,
			Args:      s.Args,
			Env:       s.Env,
			AutoStart: true,
		})
	}

	mgr := mcp.NewManager(cfg, logger)
	if err := mgr.Start(ctx); err != nil {
		logger.Warn("mcp manager start failed", "error", err)
	}
	return mgr
}
