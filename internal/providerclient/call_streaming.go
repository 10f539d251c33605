package providerclient

import (
	"context"
	"fmt"
	"io"

	"github.com/krustycode/agentcore/internal/canonical"
	"github.com/krustycode/agentcore/internal/streaming"
	"github.com/krustycode/agentcore/internal/wireformat"
)

// CallStreaming is the hot path (spec §4.4.1): build the wire request,
// issue the POST, and feed the response body into the streaming engine
// with the format-appropriate parser.
func (c *Client) CallStreaming(ctx context.Context, messages []canonical.Message, tools []wireformat.ToolDef, opts CallOptions) (<-chan streaming.StreamPart, error) {
	body, headers, err := c.buildRequest(messages, tools, opts, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.doPost(ctx, c.format.EndpointPath(true), body, headers, true)
	if err != nil {
		return errorStream(err), nil
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return errorStream(fmt.Errorf("providerclient: http %d: %s", resp.StatusCode, string(errBody))), nil
	}

	parser := parserFor(c.cfg.Dialect)
	engine := streaming.NewEngine(c.logger)

	out := make(chan streaming.StreamPart, 64)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		for part := range engine.Run(ctx, resp.Body, parser, c.cfg.Provider, c.cfg.Model) {
			select {
			case out <- part:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func errorStream(err error) <-chan streaming.StreamPart {
	ch := make(chan streaming.StreamPart, 1)
	ch <- streaming.StreamPart{Kind: streaming.PartError, Err: err}
	close(ch)
	return ch
}

// parserFor resolves the provider-specific Parser for a dialect. New
// dialects register here; the streaming engine itself never branches on
// provider identity.
func parserFor(d wireformat.Dialect) streaming.Parser {
	switch d {
	case wireformat.DialectOpenAIChat:
		return streaming.NewOpenAIChatParser()
	case wireformat.DialectOpenAIResponse:
		return streaming.NewOpenAIResponsesParser()
	case wireformat.DialectGoogle:
		return streaming.NewGoogleParser()
	default:
		return streaming.NewAnthropicParser()
	}
}
