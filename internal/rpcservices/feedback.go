package rpcservices

import (
	"context"
	"encoding/json"

	"github.com/txc0ld/godagent/internal/feedback"
	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/registry"
)

// RegisterFeedback wires feedback.enqueue/stats onto reg, over the
// on-disk retry queue the feedback worker drains in the background.
func RegisterFeedback(reg *registry.Registry, queue *feedback.Queue) error {
	if err := reg.Register("feedback", "enqueue", handleFeedbackEnqueue(queue)); err != nil {
		return err
	}
	return reg.Register("feedback", "stats", handleFeedbackStats(queue))
}

type feedbackEnqueueParams struct {
	Payload map[string]any `json:"payload"`
}

func handleFeedbackEnqueue(queue *feedback.Queue) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p feedbackEnqueueParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		entry, err := queue.Enqueue(p.Payload)
		if err != nil {
			return nil, internalError(err)
		}
		return entry, nil
	}
}

type feedbackStatsResult struct {
	Pending       int `json:"pending"`
	TotalAttempts int `json:"totalAttempts"`
}

func handleFeedbackStats(queue *feedback.Queue) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		entries := queue.Entries()
		stats := feedbackStatsResult{Pending: len(entries)}
		for _, e := range entries {
			stats.TotalAttempts += e.Attempts
		}
		return stats, nil
	}
}
