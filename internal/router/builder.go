// Package router builds the routing index: one capability document per
// reachable MCP server, embedded and stored for similarity lookup.
package router

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"waypoint/internal/logging"
	"waypoint/internal/mcp"
	"waypoint/internal/vectorstore"
	"waypoint/pkg/models"
)

// Builder rebuilds the routing index from the configured server set.
type Builder struct {
	servers     models.ServerMap
	store       vectorstore.Store
	applier     mcp.Applier
	parallelism int
}

// Result reports one build pass: which servers made it into the index and
// which were skipped.
type Result struct {
	Indexed []string
	Failed  map[string]error
}

// NewBuilder wires a builder. parallelism bounds concurrent server
// sessions during the description-gathering fan-out.
func NewBuilder(servers models.ServerMap, store vectorstore.Store, applier mcp.Applier, parallelism int) *Builder {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Builder{
		servers:     servers,
		store:       store,
		applier:     applier,
		parallelism: parallelism,
	}
}

// Build gathers a routing description from every configured server and
// replaces the index contents wholesale. Servers are independent: one
// failing to launch or describe itself is skipped with a warning and the
// build continues. Only an index write failure aborts the pass.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	names := b.servers.Names()
	docs := make([]*models.RoutingDocument, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(b.parallelism)
	for i, name := range names {
		g.Go(func() error {
			result, err := b.applier.Apply(ctx, b.servers[name], mcp.RoutingDescription{})
			if err != nil {
				errs[i] = err
				return nil
			}
			doc, ok := result.(models.RoutingDocument)
			if !ok {
				errs[i] = fmt.Errorf("unexpected routing description type %T", result)
				return nil
			}
			docs[i] = &doc
			return nil
		})
	}
	g.Wait()

	result := &Result{Failed: make(map[string]error)}
	var indexed []models.RoutingDocument
	for i, name := range names {
		if errs[i] != nil {
			logging.Warn("Skipping server '%s' in this build: %v", name, errs[i])
			result.Failed[name] = errs[i]
			continue
		}
		indexed = append(indexed, *docs[i])
		result.Indexed = append(result.Indexed, name)
	}

	// The replace happens even when every server failed: an empty index is
	// the correct reflection of zero reachable servers.
	if err := b.store.Replace(ctx, indexed); err != nil {
		return nil, fmt.Errorf("index rebuild failed: %w", err)
	}

	logging.Info("Routing index rebuilt: %d of %d servers indexed", len(result.Indexed), len(names))
	return result, nil
}
