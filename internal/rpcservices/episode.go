package rpcservices

import (
	"context"
	"encoding/json"

	"github.com/txc0ld/godagent/internal/episode"
	"github.com/txc0ld/godagent/internal/graphstore"
	"github.com/txc0ld/godagent/internal/jsonrpc"
	"github.com/txc0ld/godagent/internal/registry"
)

// RegisterEpisode wires episode.create/query/link/stats/get/delete/
// getLinks/update/save onto reg.
func RegisterEpisode(reg *registry.Registry, engine *episode.Engine) error {
	handlers := map[string]registry.Handler{
		"create":   handleEpisodeCreate(engine),
		"query":    handleEpisodeQuery(engine),
		"link":     handleEpisodeLink(engine),
		"stats":    handleEpisodeStats(engine),
		"get":      handleEpisodeGet(engine),
		"delete":   handleEpisodeDelete(engine),
		"getLinks": handleEpisodeGetLinks(engine),
		"update":   handleEpisodeUpdate(engine),
		"save":     handleEpisodeSave(engine),
	}
	for method, h := range handlers {
		if err := reg.Register("episode", method, h); err != nil {
			return err
		}
	}
	return nil
}

type episodeCreateParams struct {
	Key       string    `json:"key"`
	Content   string    `json:"content"`
	Namespace string    `json:"namespace"`
	LinkTo    string    `json:"linkTo"`
	Relation  string    `json:"relation"`
	Tags      []string  `json:"tags"`
	SessionID string    `json:"sessionId"`
	Quality   float64   `json:"quality"`
	Embedding []float32 `json:"embedding"`
}

func handleEpisodeCreate(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeCreateParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		ep, err := engine.Create(ctx, p.Key, p.Content, episode.CreateOptions{
			Namespace: p.Namespace,
			LinkTo:    p.LinkTo,
			Relation:  p.Relation,
			Tags:      p.Tags,
			SessionID: p.SessionID,
			Quality:   p.Quality,
			Embedding: p.Embedding,
		})
		if err != nil {
			return nil, internalError(err)
		}
		return ep, nil
	}
}

type episodeQueryParams struct {
	Namespace string    `json:"namespace"`
	Query     string    `json:"query"`
	Embedding []float32 `json:"embedding"`
	SessionID string    `json:"sessionId"`
	Tags      []string  `json:"tags"`
	Limit     int       `json:"limit"`
	MinScore  float64   `json:"minScore"`
}

func handleEpisodeQuery(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeQueryParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		hits, err := engine.Query(ctx, episode.QueryOptions{
			Namespace: p.Namespace,
			Query:     p.Query,
			Embedding: p.Embedding,
			SessionID: p.SessionID,
			Tags:      p.Tags,
			Limit:     p.Limit,
			MinScore:  p.MinScore,
		})
		if err != nil {
			return nil, internalError(err)
		}
		return hits, nil
	}
}

type episodeLinkParams struct {
	CauseID    string  `json:"causeId"`
	EffectID   string  `json:"effectId"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"`
	Strength   float64 `json:"strength"`
}

type episodeLinkResult struct {
	EdgeID string `json:"edgeId"`
}

func handleEpisodeLink(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeLinkParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		id, err := engine.Link(p.CauseID, p.EffectID, p.Relation, p.Confidence, p.Strength)
		if err != nil {
			return nil, internalError(err)
		}
		return episodeLinkResult{EdgeID: id}, nil
	}
}

func handleEpisodeStats(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		return engine.Stats(), nil
	}
}

type episodeIDParams struct {
	ID string `json:"id"`
}

func handleEpisodeGet(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeIDParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		ep, err := engine.Get(p.ID)
		if err != nil {
			return nil, internalError(err)
		}
		return ep, nil
	}
}

func handleEpisodeDelete(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeIDParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		if err := engine.Delete(p.ID); err != nil {
			return nil, internalError(err)
		}
		return map[string]bool{"deleted": true}, nil
	}
}

type episodeGetLinksParams struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
}

func handleEpisodeGetLinks(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeGetLinksParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		dir := graphstore.Direction(p.Direction)
		if dir == "" {
			dir = graphstore.DirectionBoth
		}
		edges, err := engine.GetLinks(p.ID, dir)
		if err != nil {
			return nil, internalError(err)
		}
		return edges, nil
	}
}

type episodeUpdateParams struct {
	ID      string   `json:"id"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
	Quality *float64 `json:"quality"`
}

func handleEpisodeUpdate(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeUpdateParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		ep, err := engine.Update(p.ID, episode.UpdateOptions{
			Content: p.Content,
			Tags:    p.Tags,
			Quality: p.Quality,
		})
		if err != nil {
			return nil, internalError(err)
		}
		return ep, nil
	}
}

type episodeSaveParams struct {
	Path string `json:"path"`
}

func handleEpisodeSave(engine *episode.Engine) registry.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
		var p episodeSaveParams
		if rpcErr := decodeParams(raw, &p); rpcErr != nil {
			return nil, rpcErr
		}
		if err := engine.Save(p.Path); err != nil {
			return nil, internalError(err)
		}
		return map[string]bool{"saved": true}, nil
	}
}
