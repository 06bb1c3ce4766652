// Package dispatch implements content-based routing: given a free-text data
// request, it picks the registered (agent, function) pair whose description
// embedding is most similar to the query embedding and executes it.
//
// The embedding index is built once at construction and is read-only
// afterwards, so Route needs no locking. A query that matches nothing above
// the threshold is not an error; it is the documented signal for the caller
// to fall back to a direct call.
package dispatch

import (
	"context"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/logging"
	"github.com/docmesh/docmesh/registry"
)

// DefaultThreshold is the minimum similarity score required before the
// dispatcher commits to a match.
const DefaultThreshold = 0.4

type indexEntry struct {
	agent    string
	function string
	vector   []float64
}

// Match identifies the (agent, function) pair the dispatcher resolved for a
// query, with its similarity score.
type Match struct {
	Agent    string
	Function string
	Score    float64
}

// Options configures a Dispatcher.
type Options struct {
	// Threshold is the minimum similarity for a match (default 0.4).
	Threshold float64
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Dispatcher routes natural-language data requests to registered agent
// functions by embedding cosine similarity.
type Dispatcher struct {
	registry  *registry.FunctionRegistry
	embedder  core.Embedder
	threshold float64
	logger    logging.Logger

	// index preserves registry iteration order; ties between exactly equal
	// scores resolve to the first-seen entry, deliberately.
	index []indexEntry
}

// New builds a Dispatcher and its embedding index. For every registered
// (agent, function) pair with a non-empty description the description text is
// embedded once. Entries whose embedding fails are logged and skipped; they
// stay unreachable via semantic dispatch until the dispatcher is rebuilt.
// Initialization itself never fails.
func New(ctx context.Context, reg *registry.FunctionRegistry, embedder core.Embedder, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Threshold: DefaultThreshold, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	d := &Dispatcher{
		registry:  reg,
		embedder:  embedder,
		threshold: opts.Threshold,
		logger:    opts.Logger,
	}
	for _, entry := range reg.Entries() {
		if entry.Description == "" {
			d.logger.Warn("function has no description, skipping", "agent", entry.Agent, "function", entry.Function)
			continue
		}
		vec, err := embedder.Embed(ctx, entry.Description)
		if err != nil || len(vec) == 0 {
			d.logger.Warn("embedding failed, function unreachable via dispatch",
				"agent", entry.Agent, "function", entry.Function, "error", err)
			continue
		}
		d.index = append(d.index, indexEntry{agent: entry.Agent, function: entry.Function, vector: vec})
	}
	d.logger.Info("dispatch index built", "entries", len(d.index))
	return d
}

// IndexSize returns the number of (agent, function) pairs reachable via
// semantic dispatch.
func (d *Dispatcher) IndexSize() int { return len(d.index) }

// Resolve embeds the query and returns the best-scoring (agent, function)
// pair. ok is false when the query could not be embedded or no pair scored
// above the threshold.
func (d *Dispatcher) Resolve(ctx context.Context, query string) (Match, bool) {
	vec, err := d.embedder.Embed(ctx, query)
	if err != nil || len(vec) == 0 {
		d.logger.Warn("query embedding failed", "error", err)
		return Match{}, false
	}
	var best Match
	found := false
	for _, entry := range d.index {
		score := CosineSimilarity(vec, entry.vector)
		// Strict greater-than keeps the first-seen entry on exact ties.
		if !found || score > best.Score {
			best = Match{Agent: entry.agent, Function: entry.function, Score: score}
			found = true
		}
	}
	if !found || best.Score <= d.threshold {
		d.logger.Debug("no match above threshold", "query", query, "best_score", best.Score, "threshold", d.threshold)
		return Match{}, false
	}
	return best, true
}

// Route resolves a free-text query to the best-matching registered function
// and executes it with the given project id and parameters. The result is the
// function's return value.
//
// ok is false when the query embedded to nothing, no pair scored above the
// threshold, or resolution/execution failed internally; such faults are
// logged and never escape to the caller. A false result is the caller's cue
// to fall back (for example to a direct function call).
func (d *Dispatcher) Route(ctx context.Context, query, requestingAgent, projectID string, params map[string]any) (result any, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("dispatch execution panic", "query", query, "requesting_agent", requestingAgent, "panic", rec)
			result, ok = nil, false
		}
	}()

	match, ok := d.Resolve(ctx, query)
	if !ok {
		return nil, false
	}
	d.logger.Info("dispatching query",
		"requesting_agent", requestingAgent,
		"agent", match.Agent, "function", match.Function, "score", match.Score)

	res, err := d.registry.Execute(ctx, match.Agent, match.Function, projectID, params)
	if err != nil {
		d.logger.Error("dispatch execution failed",
			"agent", match.Agent, "function", match.Function, "error", err)
		return nil, false
	}
	return res, true
}
