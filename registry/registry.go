// Package registry maps agent names to their named data-retrieval functions.
//
// Each function carries a natural-language description used by the dispatch
// package for similarity scoring; execution goes through Execute and never
// consults the description. Iteration order over the registered entries is
// the registration order (agents in registration order, functions in the
// order they were declared), which the dispatcher relies on for a
// deterministic tie-break between exactly equal similarity scores.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/logging"
)

// FunctionSpec declares one data-retrieval function of an agent: the callable
// plus the human-readable description used for semantic matching. A spec with
// an empty description is executable via Execute but can never be selected by
// the dispatcher.
type FunctionSpec struct {
	Name        string
	Description string
	Fn          core.DataFunc
}

// Entry identifies one (agent, function) pair with its description. Entries
// are what the dispatcher indexes.
type Entry struct {
	Agent       string
	Function    string
	Description string
}

type agentEntry struct {
	fns   map[string]FunctionSpec
	order []string
}

// FunctionRegistry is a thread-safe registry of agent data functions.
// The zero value is not usable; construct with New.
type FunctionRegistry struct {
	mu     sync.RWMutex
	agents map[string]*agentEntry
	order  []string
	logger logging.Logger
}

// Options configures a FunctionRegistry.
type Options struct {
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// New creates an empty FunctionRegistry.
func New(optFns ...func(o *Options)) *FunctionRegistry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &FunctionRegistry{
		agents: make(map[string]*agentEntry),
		logger: opts.Logger,
	}
}

// RegisterAgent registers (or overwrites) the data functions of an agent.
// All functions of an agent are supplied together; every spec must carry a
// name and a callable. Re-registering an existing agent replaces its function
// set and logs a warning, it is not an error.
func (r *FunctionRegistry) RegisterAgent(agent string, specs ...FunctionSpec) error {
	if agent == "" {
		return fmt.Errorf("register agent: name must not be empty")
	}
	entry := &agentEntry{fns: make(map[string]FunctionSpec, len(specs))}
	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("register agent %q: function name must not be empty", agent)
		}
		if spec.Fn == nil {
			return fmt.Errorf("register agent %q: function %q has no callable", agent, spec.Name)
		}
		if _, dup := entry.fns[spec.Name]; dup {
			return fmt.Errorf("register agent %q: duplicate function %q", agent, spec.Name)
		}
		entry.fns[spec.Name] = spec
		entry.order = append(entry.order, spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[agent]; exists {
		r.logger.Warn("overwriting registered agent functions", "agent", agent)
	} else {
		r.order = append(r.order, agent)
	}
	r.agents[agent] = entry
	r.logger.Info("agent functions registered", "agent", agent, "functions", len(specs))
	return nil
}

// UnregisterAgent removes an agent and its functions. Removing an unknown
// agent is a no-op with a warning.
func (r *FunctionRegistry) UnregisterAgent(agent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[agent]; !exists {
		r.logger.Warn("unregister of unknown agent", "agent", agent)
		return
	}
	delete(r.agents, agent)
	for i, name := range r.order {
		if name == agent {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("agent functions unregistered", "agent", agent)
}

// HasAgent reports whether the agent has registered functions.
func (r *FunctionRegistry) HasAgent(agent string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[agent]
	return ok
}

// Agents returns the registered agent names in registration order.
func (r *FunctionRegistry) Agents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns every (agent, function, description) triple in registration
// order. The returned slice is a snapshot; mutating it does not affect the
// registry.
func (r *FunctionRegistry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, agent := range r.order {
		entry := r.agents[agent]
		for _, name := range entry.order {
			spec := entry.fns[name]
			out = append(out, Entry{Agent: agent, Function: name, Description: spec.Description})
		}
	}
	return out
}

// Execute runs the named data function of the named agent. Unknown agents and
// functions are contract violations and surface as wrapped ErrAgentNotFound /
// ErrFunctionNotFound; failures inside the function are returned as-is.
func (r *FunctionRegistry) Execute(ctx context.Context, agent, function, projectID string, params map[string]any) (any, error) {
	r.mu.RLock()
	entry, ok := r.agents[agent]
	if !ok {
		r.mu.RUnlock()
		return nil, fmt.Errorf("execute %s.%s: %w", agent, function, core.ErrAgentNotFound)
	}
	spec, ok := entry.fns[function]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("execute %s.%s: %w", agent, function, core.ErrFunctionNotFound)
	}
	return spec.Fn(ctx, projectID, params)
}
