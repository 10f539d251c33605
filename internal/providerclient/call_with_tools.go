package providerclient

import (
	"context"
	"fmt"
	"io"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// CallWithTools issues a non-streaming request and returns the
// Anthropic-shaped normalized response (spec §4.4, used by sub-agents
// which run their own agentic loop rather than draining a stream). model,
// when non-empty, overrides the Client's configured model for this call
// only (spec §4.5.6).
func (c *Client) CallWithTools(ctx context.Context, system string, messages []canonical.Message, tools []wireformat.ToolDef, maxTokens int, model string) (*wireformat.NormalizedResponse, error) {
	opts := CallOptions{MaxTokens: maxTokens, SystemOverride: system, Model: model}
	body, headers, err := c.buildRequest(messages, tools, opts, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.doPost(ctx, c.format.EndpointPath(false), body, headers, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("providerclient: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("providerclient: http %d: %s", resp.StatusCode, string(raw))
	}

	switch c.cfg.Dialect {
	case wireformat.DialectOpenAIChat:
		return wireformat.NormalizeOpenAIChatResponse(raw)
	case wireformat.DialectGoogle:
		callIdx := 0
		return wireformat.NormalizeGoogleResponse(raw, func(name string, index int) string {
			callIdx++
			return fmt.Sprintf("%s_%d", name, callIdx)
		})
	default:
		return normalizeAnthropicResponse(raw)
	}
}
