package rpcservices

import (
	"context"
	"encoding/json"

	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/registry"
)

// RegisterHyperedge wires hyperedge.create/createTemporal/query/expand/
// stats/get onto reg, over the graph store shared with internal/memory
// and internal/episode.
func RegisterHyperedge(reg *registry.Registry, graph *graphstore.Store) error {
	handlers := map[string]registry.Handler{
		"create":         handleHyperedgeCreate(graph),
		"createTemporal": handleHyperedgeCreateTemporal(graph),
		"query":          handleHyperedgeQuery(graph),
		"expand":         handleHyperedgeExpand(graph),
		"stats":          handleHyperedgeStats(graph),
		"get":            handleHyperedgeGet(graph),
	}
	for method, h := range handlers {
		if err := reg.Register("hyperedge", method, h); err != nil {
			return err
		}
	}
	return nil
}

type hyperedgeCreateParams struct {
	Causes     []string       `json:"causes"`
	Effects    []string       `json:"effects"`
	Confidence float64        `json:"confidence"`
	Strength   float64        `json:"strength"`
	Metadata   map[string]any `json:"metadata"`
}

type hyperedgeCreateResult struct {
	ID string `json:"id"`
}

func handleHyperedgeCreate(graph *graphstore.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p hyperedgeCreateParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		id, err := graph.AddHyperedge(p.Causes, p.Effects, p.Confidence, p.Strength, p.Metadata)
		if err != nil {
			return nil, internalError(err)
		}
		return hyperedgeCreateResult{ID: id}, nil
	}
}

// hyperedgeCreateTemporalParams extends a plain create with validity
// bounds, carried through as ordinary metadata — the graph store has no
// native notion of edge validity windows, so createTemporal is create
// plus two reserved metadata keys rather than a distinct storage shape.
type hyperedgeCreateTemporalParams struct {
	Causes     []string       `json:"causes"`
	Effects    []string       `json:"effects"`
	Confidence float64        `json:"confidence"`
	Strength   float64        `json:"strength"`
	Metadata   map[string]any `json:"metadata"`
	ValidFrom  string         `json:"validFrom"`
	ValidUntil string         `json:"validUntil"`
}

func handleHyperedgeCreateTemporal(graph *graphstore.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p hyperedgeCreateTemporalParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		metadata := p.Metadata
		if metadata == nil {
			metadata = make(map[string]any)
		}
		if p.ValidFrom != "" {
			metadata["validFrom"] = p.ValidFrom
		}
		if p.ValidUntil != "" {
			metadata["validUntil"] = p.ValidUntil
		}
		id, err := graph.AddHyperedge(p.Causes, p.Effects, p.Confidence, p.Strength, metadata)
		if err != nil {
			return nil, internalError(err)
		}
		return hyperedgeCreateResult{ID: id}, nil
	}
}

type hyperedgeQueryParams struct {
	StartSet      []string `json:"startSet"`
	Direction     string   `json:"direction"`
	MaxDepth      int      `json:"maxDepth"`
	MinConfidence float64  `json:"minConfidence"`
	MaxChains     int      `json:"maxChains"`
	StopOnCycle   bool     `json:"stopOnCycle"`
}

func handleHyperedgeQuery(graph *graphstore.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p hyperedgeQueryParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		opts := graphstore.DefaultTraverseOptions(p.StartSet)
		if p.Direction != "" {
			opts.Direction = graphstore.Direction(p.Direction)
		}
		if p.MaxDepth > 0 {
			opts.MaxDepth = p.MaxDepth
		}
		opts.MinConfidence = p.MinConfidence
		if p.MaxChains > 0 {
			opts.MaxChains = p.MaxChains
		}
		opts.StopOnCycle = p.StopOnCycle

		chains, err := graph.Traverse(opts)
		if err != nil {
			return nil, internalError(err)
		}
		return chains, nil
	}
}

type hyperedgeExpandParams struct {
	NodeIDs   []string `json:"nodeIds"`
	Direction string   `json:"direction"`
}

func handleHyperedgeExpand(graph *graphstore.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p hyperedgeExpandParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		dir := graphstore.Direction(p.Direction)
		if dir == "" {
			dir = graphstore.DirectionOut
		}
		edges, err := graph.Expand(p.NodeIDs, dir)
		if err != nil {
			return nil, internalError(err)
		}
		return edges, nil
	}
}

func handleHyperedgeStats(graph *graphstore.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		return graph.Stats(), nil
	}
}

type hyperedgeGetParams struct {
	ID string `json:"id"`
}

func handleHyperedgeGet(graph *graphstore.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p hyperedgeGetParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		edge, err := graph.GetHyperedge(p.ID)
		if err != nil {
			return nil, internalError(err)
		}
		return edge, nil
	}
}
