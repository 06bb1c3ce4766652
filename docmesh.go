// Package docmesh provides a high-level façade over the routing core: a
// registry of named agents with data-retrieval functions, a message router
// with retry/backoff delivery and history, and a semantic dispatcher that
// resolves free-text data requests to the best-matching agent function via
// embedding cosine similarity. Most applications interact with this package by:
//  1. Creating a DocMesh via New() (optionally overriding the embedder,
//     logger and delivery policy)
//  2. Registering delivery targets (RegisterAgent) and their data functions
//     (RegisterFunctions)
//  3. Building the dispatch index once registration is complete (InitDispatch)
//  4. Sending messages (Send/SendAsync) or routing queries (Route)
//
// One DocMesh value per process, passed explicitly to every component that
// needs it; there is no package-level singleton.
package docmesh

import (
	"context"
	"time"

	"github.com/docmesh/docmesh/config"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/dispatch"
	"github.com/docmesh/docmesh/embedding"
	"github.com/docmesh/docmesh/logging"
	"github.com/docmesh/docmesh/registry"
	"github.com/docmesh/docmesh/routing"
)

// Options configures the DocMesh instance.
type Options struct {
	// MaxRetries is the router's default delivery attempt budget.
	MaxRetries int
	// RetryDelay is the router's base backoff delay.
	RetryDelay time.Duration
	// HistoryCapacity bounds the router's message history.
	HistoryCapacity int
	// DispatchThreshold is the minimum similarity for a semantic match.
	DispatchThreshold float64
	// Embedder computes text embeddings (defaults to the deterministic
	// in-memory vectorizer if nil; production deployments typically supply
	// the OpenAI adapter).
	Embedder core.Embedder
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// DocMesh is the high-level façade aggregating router, registry and dispatcher.
type DocMesh struct {
	opts       Options
	router     *routing.Router
	registry   *registry.FunctionRegistry
	dispatcher *dispatch.Dispatcher
}

// New creates a new DocMesh instance with optional overrides. Any unset
// collaborator is initialized with an in-process default.
func New(optFns ...func(o *Options)) *DocMesh {
	opts := Options{
		MaxRetries:        routing.DefaultMaxRetries,
		RetryDelay:        routing.DefaultRetryDelay,
		HistoryCapacity:   routing.DefaultHistoryCapacity,
		DispatchThreshold: dispatch.DefaultThreshold,
		Embedder:          embedding.NewInMemoryEmbedder(0),
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Embedder == nil {
		opts.Embedder = embedding.NewInMemoryEmbedder(0)
	}

	router := routing.New(func(o *routing.Options) {
		o.MaxRetries = opts.MaxRetries
		o.RetryDelay = opts.RetryDelay
		o.HistoryCapacity = opts.HistoryCapacity
		o.Logger = opts.Logger
	})
	reg := registry.New(func(o *registry.Options) {
		o.Logger = opts.Logger
	})
	return &DocMesh{opts: opts, router: router, registry: reg}
}

// FromConfig builds the option set corresponding to an environment-loaded
// Config, for use as New(docmesh.FromConfig(cfg)). The logger is constructed
// from the configured level and format; an explicit Logger option after
// FromConfig still wins.
func FromConfig(cfg *config.Config) func(o *Options) {
	return func(o *Options) {
		o.MaxRetries = cfg.MaxRetries
		o.RetryDelay = cfg.RetryDelay
		o.HistoryCapacity = cfg.HistoryCapacity
		o.DispatchThreshold = cfg.DispatchThreshold
		o.Logger = logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Format: cfg.LogFormat,
		})
	}
}

// Router exposes the underlying message router.
func (m *DocMesh) Router() *routing.Router { return m.router }

// Registry exposes the underlying function registry.
func (m *DocMesh) Registry() *registry.FunctionRegistry { return m.registry }

// Dispatcher exposes the semantic dispatcher, or nil before InitDispatch.
func (m *DocMesh) Dispatcher() *dispatch.Dispatcher { return m.dispatcher }

// RegisterAgent adds a delivery target to the router.
func (m *DocMesh) RegisterAgent(reg routing.Registration) error {
	return m.router.Register(reg)
}

// RegisterFunctions registers an agent's data functions with the registry.
func (m *DocMesh) RegisterFunctions(agent string, specs ...registry.FunctionSpec) error {
	return m.registry.RegisterAgent(agent, specs...)
}

// InitDispatch builds (or rebuilds) the embedding index over all currently
// registered functions. Call it after registration is complete; functions
// registered later are unreachable via Route until the next InitDispatch.
func (m *DocMesh) InitDispatch(ctx context.Context) {
	m.dispatcher = dispatch.New(ctx, m.registry, m.opts.Embedder, func(o *dispatch.Options) {
		o.Threshold = m.opts.DispatchThreshold
		o.Logger = m.opts.Logger
	})
}

// Send delivers a message synchronously through the router.
func (m *DocMesh) Send(msg *core.Message, optFns ...func(o *routing.SendOptions)) *core.Message {
	return m.router.Send(msg, optFns...)
}

// SendAsync delivers a message through the router in asynchronous mode.
func (m *DocMesh) SendAsync(ctx context.Context, msg *core.Message, optFns ...func(o *routing.SendOptions)) *core.Message {
	return m.router.SendAsync(ctx, msg, optFns...)
}

// Route resolves a free-text data request to the best-matching registered
// function and executes it. ok is false on a dispatch miss (no match above
// threshold, embedding failure, or execution fault) and when InitDispatch has
// not been called yet.
func (m *DocMesh) Route(ctx context.Context, query, requestingAgent, projectID string, params map[string]any) (any, bool) {
	if m.dispatcher == nil {
		m.opts.Logger.Warn("route called before InitDispatch")
		return nil, false
	}
	return m.dispatcher.Route(ctx, query, requestingAgent, projectID, params)
}
