package rpcservices

import (
	"context"
	"encoding/json"
	"time"

	ctxeng "github.com/txc0ld/godagent/internal/context"
	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/registry"
)

// RegisterContext wires a supplementary context.* surface over the
// rolling window, pin manager, dependency DAG, and composer — named
// components of the overall system (spec.md §2 item 8, SPEC_FULL.md
// §4.8) that spec.md §6's canonical method list does not itself
// enumerate. This mirrors SPEC_FULL.md §4.11's precedent for the
// namespace registry: additive surface that does not change any
// spec.md invariant, exposing state that would otherwise be built and
// held by the daemon but never reachable from a client.
func RegisterContext(reg *registry.Registry, c *Context) error {
	handlers := map[string]registry.Handler{
		"pin":           handleContextPin(c),
		"addEntry":      handleContextAddEntry(c),
		"addDependency": handleContextAddDependency(c),
		"setPhase":      handleContextSetPhase(c),
		"compose":       handleContextCompose(c),
	}
	for method, h := range handlers {
		if err := reg.Register("context", method, h); err != nil {
			return err
		}
	}
	return nil
}

// Context bundles the composition-state components a context.*
// handler needs; tokens are computed here rather than trusted from the
// client, since none of ctxeng's types compute their own counts.
type Context struct {
	Window   *ctxeng.RollingWindow
	Pins     *ctxeng.PinManager
	DAG      *ctxeng.DependencyDAG
	Tokens   *ctxeng.TokenCounter
	Composer *ctxeng.Composer
}

type contextPinParams struct {
	AgentID  string `json:"agentId"`
	Content  string `json:"content"`
	Reason   string `json:"reason"`
	Priority int    `json:"priority"`
}

func handleContextPin(c *Context) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p contextPinParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		pin := ctxeng.Pin{
			AgentID:    p.AgentID,
			Content:    p.Content,
			TokenCount: c.Tokens.Count(p.Content),
			Reason:     p.Reason,
			Priority:   p.Priority,
		}
		if err := c.Pins.Add(pin); err != nil {
			return nil, internalError(err)
		}
		return pin, nil
	}
}

type contextAddEntryParams struct {
	AgentID string `json:"agentId"`
	Content string `json:"content"`
}

func handleContextAddEntry(c *Context) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p contextAddEntryParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		entry := c.Window.Add(ctxeng.WindowEntry{
			AgentID:    p.AgentID,
			Content:    p.Content,
			TokenCount: c.Tokens.Count(p.Content),
			Timestamp:  time.Now().UTC(),
		})
		return entry, nil
	}
}

type contextAddDependencyParams struct {
	Agent     string `json:"agent"`
	DependsOn string `json:"dependsOn"`
}

func handleContextAddDependency(c *Context) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p contextAddDependencyParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		c.DAG.AddDependency(p.Agent, p.DependsOn)
		return map[string]bool{"added": true}, nil
	}
}

type contextSetPhaseParams struct {
	Phase string `json:"phase"`
}

func handleContextSetPhase(c *Context) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p contextSetPhaseParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		c.Window.SetPhase(p.Phase)
		return map[string]bool{"set": true}, nil
	}
}

type contextComposeParams struct {
	TargetAgent string              `json:"targetAgent"`
	Budget      int                 `json:"budget"`
	Prior       []contextPriorParam `json:"prior"`
}

type contextPriorParam struct {
	AgentID string `json:"agentId"`
	Content string `json:"content"`
}

func handleContextCompose(c *Context) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p contextComposeParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		prior := make([]ctxeng.PriorSolution, len(p.Prior))
		for i, ps := range p.Prior {
			prior[i] = ctxeng.PriorSolution{
				AgentID:    ps.AgentID,
				Content:    ps.Content,
				TokenCount: c.Tokens.Count(ps.Content),
			}
		}
		view, err := c.Composer.Compose(p.TargetAgent, p.Budget, prior)
		if err != nil {
			return nil, internalError(err)
		}
		return view, nil
	}
}
