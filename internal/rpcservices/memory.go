// Package rpcservices maps the daemon's internal engines onto the
// service.method surface registered with internal/registry, decoding
// JSON params and translating engine errors into jsonrpc.Error values.
package rpcservices

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/memory"
	"github.com/txc0ld/godagent/internal/registry"
)

// decodeParams unmarshals raw into dst, mapping any failure to
// -32602 Invalid params.
func decodeParams(raw json.RawMessage, dst any) *jsonrpc.Error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return jsonrpc.NewError(jsonrpc.CodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}
	return nil
}

// internalError wraps a handler-side failure as -32603 Internal error,
// carrying the underlying error text as the error message; Data is left
// empty.
func internalError(err error) *jsonrpc.Error {
	return jsonrpc.NewErrorf(jsonrpc.CodeInternalError, err.Error(), nil)
}

// RegisterMemory wires memory.store/retrieve/search onto reg.
func RegisterMemory(reg *registry.Registry, engine *memory.Engine) error {
	if err := reg.Register("memory", "store", handleMemoryStore(engine)); err != nil {
		return err
	}
	if err := reg.Register("memory", "retrieve", handleMemoryRetrieve(engine)); err != nil {
		return err
	}
	if err := reg.Register("memory", "search", handleMemorySearch(engine)); err != nil {
		return err
	}
	return nil
}

type memoryStoreParams struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Namespace string    `json:"namespace"`
	LinkTo    string    `json:"linkTo"`
	Relation  string    `json:"relation"`
	Embedding []float32 `json:"embedding"`
}

type memoryStoreResult struct {
	NodeID string `json:"nodeId"`
}

func handleMemoryStore(engine *memory.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p memoryStoreParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		nodeID, err := engine.Store(ctx, p.Key, []byte(p.Value), memory.StoreOptions{
			Namespace: p.Namespace,
			LinkTo:    p.LinkTo,
			Relation:  p.Relation,
			Embedding: p.Embedding,
		})
		if err != nil {
			return nil, internalError(err)
		}
		return memoryStoreResult{NodeID: nodeID}, nil
	}
}

type memoryRetrieveParams struct {
	Key       string `json:"key"`
	Namespace string `json:"namespace"`
}

type memoryRetrieveResult struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

func handleMemoryRetrieve(engine *memory.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p memoryRetrieveParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		value, found, err := engine.Retrieve(p.Key, p.Namespace)
		if err != nil {
			return nil, internalError(err)
		}
		return memoryRetrieveResult{Value: string(value), Found: found}, nil
	}
}

type memorySearchParams struct {
	Namespace string    `json:"namespace"`
	Limit     int       `json:"limit"`
	MinScore  float64   `json:"minScore"`
	Embedding []float32 `json:"embedding"`
	Query     string    `json:"query"`
}

type memorySearchHit struct {
	Key       string  `json:"key"`
	Value     string  `json:"value"`
	Namespace string  `json:"namespace"`
	Score     float64 `json:"score"`
	NodeID    string  `json:"nodeId"`
}

func handleMemorySearch(engine *memory.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p memorySearchParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		results, err := engine.Search(ctx, memory.SearchOptions{
			Namespace: p.Namespace,
			Limit:     p.Limit,
			MinScore:  p.MinScore,
			Embedding: p.Embedding,
			Query:     p.Query,
		})
		if err != nil {
			return nil, internalError(err)
		}
		hits := make([]memorySearchHit, len(results))
		for i, r := range results {
			hits[i] = memorySearchHit{Key: r.Key, Value: string(r.Value), Namespace: r.Namespace, Score: r.Score, NodeID: r.NodeID}
		}
		return hits, nil
	}
}
