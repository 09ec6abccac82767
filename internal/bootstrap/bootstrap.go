// Package bootstrap assembles the full set of storage engines and
// composition-state components shared by cmd/godagentd and
// cmd/godagent-ucmd from a loaded config.Config, so neither binary
// duplicates the other's wiring order.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/txc0ld/godagent/internal/config"
	ctxeng "github.com/txc0ld/godagent/internal/context"
	"github.com/txc0ld/godagent/internal/dimcompat"
	"github.com/txc0ld/godagent/internal/embeddings"
	"github.com/txc0ld/godagent/internal/episode"
	"github.com/txc0ld/godagent/internal/feedback"
	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/logging"
	"github.com/txc0ld/godagent/internal/memory"
	"github.com/txc0ld/godagent/internal/registry"
	"github.com/txc0ld/godagent/internal/session"
	"github.com/txc0ld/godagent/internal/vectorindex"
	"github.com/txc0ld/godagent/internal/workflow"
	"go.uber.org/zap"
)

// graphFile is the single graph database file name under
// cfg.Storage.GraphDir; the spec's "one file per database" layout
// degenerates to one file since this daemon serves a single store.
const graphFile = "memory.json"

// Components holds every long-lived engine the daemon binaries wire
// into the RPC registry. It is the single top-level coordinator spec.md
// §9's "Global state" design note calls for: no package-level mutable
// state outside of it.
type Components struct {
	Config *config.Config

	Vectors    *vectorindex.Index
	Graph      *graphstore.Store
	Namespaces *registry.NamespaceRegistry
	Embedder   embeddings.Provider
	Compat     *dimcompat.Converter

	Memory   *memory.Engine
	Episodes *episode.Engine

	Sessions *session.Store
	Feedback *feedback.Queue
	Workflow *workflow.Registry

	Window   *ctxeng.RollingWindow
	Pins     *ctxeng.PinManager
	DAG      *ctxeng.DependencyDAG
	Tokens   *ctxeng.TokenCounter
	Composer *ctxeng.Composer

	vectorPath string
	graphPath  string
}

// Build constructs every component from cfg, loading any existing
// on-disk snapshots. It does not start the feedback worker or bind any
// socket — callers own those lifecycle steps.
func Build(cfg *config.Config, logger *logging.Logger) (*Components, error) {
	bg := context.Background()
	if err := cfg.EnsureStorageDirs(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	logger.Info(bg, "storage directories ready", zap.String("base_dir", cfg.Storage.BaseDir))

	vecCfg := vectorindex.Config{
		Dim:             cfg.VectorIndex.CanonicalDim,
		BruteForceLimit: cfg.VectorIndex.BruteForceLimit,
		M:               cfg.VectorIndex.HNSWLinks,
		EfConstruction:  cfg.VectorIndex.HNSWEfConstruct,
		EfSearch:        cfg.VectorIndex.HNSWEfSearch,
		NormEpsilon:     cfg.VectorIndex.NormEpsilon,
		Metric:          vectorindex.MetricCosine,
	}
	vectorPath := cfg.Storage.VectorFile
	vectors, err := loadOrNewIndex(vectorPath, vecCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading vector index: %w", err)
	}
	logger.Info(bg, "vector index loaded", zap.String("path", vectorPath), zap.Int("count", vectors.Count()))

	graphPath := graphDBPath(cfg)
	graph, err := graphstore.Load(graphPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading graph store: %w", err)
	}
	logger.Info(bg, "graph store loaded", zap.String("path", graphPath), zap.Int("nodes", len(graph.AllNodes())))

	namespaces, err := registry.NewNamespaceRegistry(cfg.Storage.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: namespace registry: %w", err)
	}

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider:  cfg.Embeddings.Provider,
		Model:     cfg.Embeddings.Model,
		Dimension: cfg.VectorIndex.CanonicalDim,
		CacheDir:  cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: embedding provider: %w", err)
	}

	compat := dimcompat.NewConverter(cfg.VectorIndex.CanonicalDim, cfg.VectorIndex.LegacyDim, 0)

	memEngine := memory.New(vectors, graph, namespaces, embedder)
	episodeEngine := episode.New(vectors, graph, namespaces, embedder, compat)

	sessions, err := session.NewStore(cfg.Storage.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: session store: %w", err)
	}

	feedbackQueue, err := feedback.NewQueue(cfg.Storage.FeedbackDir, cfg.Feedback.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: feedback queue: %w", err)
	}

	tokens, err := ctxeng.NewTokenCounter("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("bootstrap: token counter: %w", err)
	}

	window := ctxeng.NewRollingWindow(nil)
	pins := ctxeng.NewPinManager(cfg.Context.MaxPinnedTokens)
	dag := ctxeng.NewDependencyDAG()
	composer := ctxeng.NewComposer(window, pins, dag, nil)

	return &Components{
		Config:     cfg,
		Vectors:    vectors,
		Graph:      graph,
		Namespaces: namespaces,
		Embedder:   embedder,
		Compat:     compat,
		Memory:     memEngine,
		Episodes:   episodeEngine,
		Sessions:   sessions,
		Feedback:   feedbackQueue,
		Workflow:   workflow.NewRegistry(),
		Window:     window,
		Pins:       pins,
		DAG:        dag,
		Tokens:     tokens,
		Composer:   composer,
		vectorPath: vectorPath,
		graphPath:  graphPath,
	}, nil
}

// FeedbackWorker wires a Worker over Components.Feedback that submits
// entries via submit. Callers start it with Worker.Run(ctx) in a
// goroutine.
func (c *Components) FeedbackWorker(submit feedback.Submitter, cfg config.FeedbackConfig) *feedback.Worker {
	return feedback.NewWorker(c.Feedback, submit, feedback.WorkerConfig{
		RetryInterval: cfg.RetryInterval.Duration(),
		MaxAttempts:   cfg.MaxAttempts,
		MaxAge:        cfg.MaxAge.Duration(),
	})
}

// MemorySubmitter delivers a queued feedback payload as a memory.store
// write, re-attempting the exact write a client's memory.store call
// would have made had it not failed out-of-band. Payload keys mirror
// the memory.store RPC params.
func (c *Components) MemorySubmitter() feedback.Submitter {
	return feedback.SubmitterFunc(func(payload map[string]any) error {
		key, _ := payload["key"].(string)
		value, _ := payload["value"].(string)
		namespace, _ := payload["namespace"].(string)
		linkTo, _ := payload["linkTo"].(string)
		relation, _ := payload["relation"].(string)
		var embedding []float32
		if raw, ok := payload["embedding"].([]any); ok {
			for _, v := range raw {
				if f, ok := v.(float64); ok {
					embedding = append(embedding, float32(f))
				}
			}
		}
		_, err := c.Memory.Store(context.Background(), key, []byte(value), memory.StoreOptions{
			Namespace: namespace,
			LinkTo:    linkTo,
			Relation:  relation,
			Embedding: embedding,
		})
		return err
	})
}

// Persist snapshots the vector index and graph store back to their
// configured paths on shutdown. Neither store fsyncs its snapshot file:
// the data is written, but not synced to disk, before Persist returns.
func (c *Components) Persist() error {
	if err := graphstore.EnsureParentDir(c.vectorPath); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if err := c.Vectors.Save(c.vectorPath); err != nil {
		return fmt.Errorf("persist: saving vector index: %w", err)
	}
	if err := graphstore.EnsureParentDir(c.graphPath); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if err := c.Graph.Save(c.graphPath); err != nil {
		return fmt.Errorf("persist: saving graph store: %w", err)
	}
	return nil
}

func graphDBPath(cfg *config.Config) string {
	return filepath.Join(cfg.Storage.GraphDir, graphFile)
}

func loadOrNewIndex(path string, cfg vectorindex.Config) (*vectorindex.Index, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return vectorindex.New(cfg), nil
		}
		return nil, err
	}
	return vectorindex.Load(path, cfg)
}
