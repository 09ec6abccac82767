package rpcservices

import (
	"context"
	"encoding/json"

	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/recovery"
	"github.com/txc0ld/godagent/internal/registry"
)

// RegisterRecovery wires recovery.check/reconstruct and desc.retrieve
// onto reg. These belong only to the recovery/UCM daemon variant, not
// the primary daemon — spec.md §4's "out-of-band repair" tooling lives
// on its own socket rather than alongside the hot path.
func RegisterRecovery(reg *registry.Registry, checker *recovery.Checker, desc *recovery.DescRetriever) error {
	if err := reg.Register("recovery", "check", handleRecoveryCheck(checker)); err != nil {
		return err
	}
	if err := reg.Register("recovery", "reconstruct", handleRecoveryReconstruct(checker)); err != nil {
		return err
	}
	return reg.Register("desc", "retrieve", handleDescRetrieve(desc))
}

func handleRecoveryCheck(checker *recovery.Checker) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		return checker.Check(), nil
	}
}

func handleRecoveryReconstruct(checker *recovery.Checker) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		return checker.Reconstruct(ctx), nil
	}
}

type descRetrieveParams struct {
	AgentID string `json:"agentId"`
	Topic   string `json:"topic"`
	Limit   int    `json:"limit"`
}

func handleDescRetrieve(desc *recovery.DescRetriever) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p descRetrieveParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		hits, err := desc.Retrieve(ctx, p.AgentID, p.Topic, p.Limit)
		if err != nil {
			return nil, internalError(err)
		}
		return hits, nil
	}
}
