package rpcservices

import (
	"context"
	"encoding/json"
	"time"

	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/session"
)

// RegisterSession wires session.create/get/list/delete onto reg, over
// the on-disk session store — another component SPEC_FULL.md §4.9
// names without spec.md §6 giving it a wire surface of its own.
func RegisterSession(reg *registry.Registry, store *session.Store) error {
	handlers := map[string]registry.Handler{
		"create": handleSessionCreate(store),
		"get":    handleSessionGet(store),
		"list":   handleSessionList(store),
		"delete": handleSessionDelete(store),
	}
	for method, h := range handlers {
		if err := reg.Register("session", method, h); err != nil {
			return err
		}
	}
	return nil
}

type sessionCreateParams struct {
	AgentID  string         `json:"agentId"`
	Phase    string         `json:"phase"`
	Metadata map[string]any `json:"metadata"`
}

func handleSessionCreate(store *session.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p sessionCreateParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		sess, err := store.Create(p.AgentID, p.Phase, p.Metadata)
		if err != nil {
			return nil, internalError(err)
		}
		return sess, nil
	}
}

type sessionIDParams struct {
	ID string `json:"id"`
}

func handleSessionGet(store *session.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p sessionIDParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		sess, err := store.Load(p.ID)
		if err != nil {
			return nil, internalError(err)
		}
		return sess, nil
	}
}

type sessionListParams struct {
	MaxAgeSeconds int `json:"maxAgeSeconds"`
}

func handleSessionList(store *session.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p sessionListParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		sessions, err := store.List(session.ListOptions{
			MaxAge: time.Duration(p.MaxAgeSeconds) * time.Second,
		})
		if err != nil {
			return nil, internalError(err)
		}
		return sessions, nil
	}
}

func handleSessionDelete(store *session.Store) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p sessionIDParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		if err := store.Delete(p.ID); err != nil {
			return nil, internalError(err)
		}
		return map[string]bool{"deleted": true}, nil
	}
}
