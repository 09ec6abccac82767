package rpcservices

import (
	"context"
	"encoding/json"

	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/workflow"
)

// RegisterWorkflow wires workflow.select onto reg, over the adapter
// registry that scores task descriptions against registered workflow
// adapters.
func RegisterWorkflow(reg *registry.Registry, wf *workflow.Registry) error {
	return reg.Register("workflow", "select", handleWorkflowSelect(wf))
}

type workflowSelectParams struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

func handleWorkflowSelect(wf *workflow.Registry) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p workflowSelectParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		match, err := wf.Select(workflow.TaskDescription{Text: p.Text, Labels: p.Labels})
		if err != nil {
			return nil, internalError(err)
		}
		return match, nil
	}
}
