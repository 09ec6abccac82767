package recovery

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/txc0ld/godagent/internal/embeddings"
	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/vectorindex"
)

// Checker inspects the graph store and vector index for crash-
// consistency drift: a node that records a vector id the vector index
// no longer has.
type Checker struct {
	graph    *graphstore.Store
	vectors  *vectorindex.Index
	embedder embeddings.Provider
}

// NewChecker builds a Checker over already-constructed dependencies.
func NewChecker(graph *graphstore.Store, vectors *vectorindex.Index, embedder embeddings.Provider) *Checker {
	return &Checker{graph: graph, vectors: vectors, embedder: embedder}
}

// Check scans every graph node with a non-empty VectorID and reports
// those whose vector is missing from the index.
func (c *Checker) Check() CheckReport {
	nodes := c.graph.AllNodes()
	report := CheckReport{CheckedNodes: len(nodes), RanAt: time.Now().UTC()}

	for _, n := range nodes {
		if n.VectorID == "" {
			continue
		}
		if c.vectors.Has(n.VectorID) {
			continue
		}
		key, _ := n.Properties["key"].(string)
		report.Inconsistencies = append(report.Inconsistencies, Inconsistency{
			NodeID:   n.ID,
			VectorID: n.VectorID,
			Key:      key,
		})
	}
	return report
}

// Reconstruct re-embeds and re-inserts the vector for every node Check
// currently reports as inconsistent, using the node's stored base64
// content as the re-embedding source. A node whose content can't be
// decoded or re-embedded is recorded under Failed rather than aborting
// the whole pass.
func (c *Checker) Reconstruct(ctx context.Context) ReconstructReport {
	report := ReconstructReport{RanAt: time.Now().UTC()}
	check := c.Check()

	for _, inc := range check.Inconsistencies {
		node, err := c.graph.GetNode(inc.NodeID)
		if err != nil {
			report.recordFailure(inc.NodeID, err)
			continue
		}

		b64, _ := node.Properties["valueB64"].(string)
		content, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			report.recordFailure(inc.NodeID, err)
			continue
		}

		embedding, err := c.embedder.Embed(ctx, string(content))
		if err != nil {
			report.recordFailure(inc.NodeID, err)
			continue
		}

		if err := c.vectors.Insert(inc.VectorID, embedding); err != nil {
			report.recordFailure(inc.NodeID, err)
			continue
		}
		report.Reconstructed = append(report.Reconstructed, inc.NodeID)
	}
	return report
}

func (r *ReconstructReport) recordFailure(nodeID string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]string)
	}
	r.Failed[nodeID] = err.Error()
}
