package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/logging"
)

// Default delivery parameters, overridable per router and per call.
const (
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = time.Second
	DefaultHistoryCapacity = 1000
)

// Error codes carried in the error_code payload field of router-built error envelopes.
const (
	ErrCodeAgentNotFound  = "AGENT_NOT_FOUND"
	ErrCodeNoHandler      = "NO_HANDLER"
	ErrCodeDeliveryFailed = "DELIVERY_FAILED"
	ErrCodeCanceled       = "CANCELED"
)

// routerSender is the sender name on error envelopes the router builds itself.
const routerSender = "router"

// Registration describes one delivery target. The agent handle is owned by
// the caller; the router never manages its lifecycle. A target needs at least
// one of Handler, AsyncHandler or Address to be deliverable, but the absence
// is only discovered at delivery time, registration itself never fails on it.
type Registration struct {
	Name         string
	Agent        any
	Address      string
	Handler      core.Handler
	AsyncHandler core.AsyncHandler
	Metadata     map[string]string
}

type registeredAgent struct {
	Registration
	registeredAt time.Time
	delivered    int64
}

// AgentInfo is the read-only view of a registered delivery target.
type AgentInfo struct {
	Name         string
	Address      string
	HasHandler   bool
	HasAsync     bool
	Metadata     map[string]string
	RegisteredAt time.Time
	Delivered    int64
}

// AgentStats summarizes one agent's delivery activity.
type AgentStats struct {
	Delivered    int64     `json:"delivered"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Stats is an aggregate snapshot of router state.
type Stats struct {
	Agents         int                   `json:"agents"`
	TotalDelivered int64                 `json:"total_delivered"`
	HistorySize    int                   `json:"history_size"`
	PerAgent       map[string]AgentStats `json:"per_agent"`
}

// HistoryFilter narrows a History query. Zero values mean "no constraint".
type HistoryFilter struct {
	// Limit keeps only the N most recent matching entries.
	Limit int
	// Agent keeps entries where it matches the message sender or recipient.
	Agent string
	// Kind keeps entries of one message kind.
	Kind core.Kind
}

// Options configures a Router.
type Options struct {
	// MaxRetries is the default delivery attempt budget (per Send call).
	MaxRetries int
	// RetryDelay is the base backoff delay; attempt n waits n times this.
	RetryDelay time.Duration
	// HistoryCapacity bounds the message history ring buffer.
	HistoryCapacity int
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// SendOptions overrides delivery parameters for a single Send/SendAsync call.
type SendOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

// WithMaxRetries overrides the attempt budget for one call.
func WithMaxRetries(n int) func(o *SendOptions) {
	return func(o *SendOptions) { o.MaxRetries = n }
}

// WithRetryDelay overrides the base backoff delay for one call.
func WithRetryDelay(d time.Duration) func(o *SendOptions) {
	return func(o *SendOptions) { o.RetryDelay = d }
}

// Router maintains registered delivery targets, logs message history and
// performs synchronous or asynchronous delivery with bounded retry and
// escalating backoff.
//
// Concurrency: the agent table and per-agent counters are guarded by a
// mutex held only for state access, never across a handler invocation or a
// backoff sleep. Handlers may therefore call back into the router (for
// example to check registration) without deadlocking.
//
// Failure semantics: unregistered recipients, missing handlers and exhausted
// retries are reported as returned error-kind messages addressed to the
// original sender, never as raised errors. Construction-time validation of
// messages (core package) is the only case that fails synchronously.
type Router struct {
	mu      sync.RWMutex
	agents  map[string]*registeredAgent
	history *historyRing
	logger  logging.Logger

	maxRetries int
	retryDelay time.Duration
}

// New creates a Router with sensible defaults (3 attempts, 1s base delay,
// history capacity 1000, no-op logger).
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		HistoryCapacity: DefaultHistoryCapacity,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Router{
		agents:     make(map[string]*registeredAgent),
		history:    newHistoryRing(opts.HistoryCapacity),
		logger:     opts.Logger,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// Register stores (or overwrites) a delivery target. Overwriting an existing
// name logs a warning but is not an error.
func (r *Router) Register(reg Registration) error {
	if reg.Name == "" {
		return fmt.Errorf("register: agent name must not be empty")
	}
	if reg.Metadata == nil {
		reg.Metadata = map[string]string{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[reg.Name]; exists {
		r.logger.Warn("overwriting registered agent", "agent", reg.Name)
	}
	r.agents[reg.Name] = &registeredAgent{Registration: reg, registeredAt: time.Now().UTC()}
	r.logger.Info("agent registered", "agent", reg.Name, "address", reg.Address)
	return nil
}

// Unregister removes a delivery target and its handlers. Removing an unknown
// name is a no-op with a warning.
func (r *Router) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; !exists {
		r.logger.Warn("unregister of unknown agent", "agent", name)
		return
	}
	delete(r.agents, name)
	r.logger.Info("agent unregistered", "agent", name)
}

// IsRegistered reports whether a delivery target with the given name exists.
func (r *Router) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[name]
	return ok
}

// Info returns the read-only view of a registered target.
func (r *Router) Info(name string) (AgentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return AgentInfo{}, false
	}
	md := make(map[string]string, len(a.Metadata))
	for k, v := range a.Metadata {
		md[k] = v
	}
	return AgentInfo{
		Name:         a.Name,
		Address:      a.Address,
		HasHandler:   a.Handler != nil,
		HasAsync:     a.AsyncHandler != nil,
		Metadata:     md,
		RegisteredAt: a.registeredAt,
		Delivered:    a.delivered,
	}, true
}

// Agents returns the names of all registered targets.
func (r *Router) Agents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.agents))
	for name := range r.agents {
		out = append(out, name)
	}
	return out
}

// Send delivers a message synchronously, blocking through retries and backoff
// sleeps. It returns the handler's response, nil when the handler produced no
// response (or the target is remote-address-only), or an error-kind message
// describing why delivery was impossible. It never returns a Go error.
func (r *Router) Send(msg *core.Message, optFns ...func(o *SendOptions)) *core.Message {
	maxRetries, retryDelay := r.sendOptions(optFns)
	r.history.append(DirectionOutgoing, msg)

	target, errMsg := r.lookupTarget(msg)
	if errMsg != nil {
		return errMsg
	}
	if target.Handler == nil {
		if target.Address != "" {
			// Remote delivery has no local binding here; transports own it.
			r.logger.Warn("remote-only target, delivery not implemented", "agent", msg.Recipient, "address", target.Address)
			return nil
		}
		return r.errorReply(msg, fmt.Sprintf("agent %q has no synchronous handler", msg.Recipient), ErrCodeNoHandler)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := r.invoke(target.Handler, msg)
		if err == nil {
			return r.completeDelivery(msg, resp)
		}
		lastErr = err
		r.logger.Warn("delivery attempt failed", "agent", msg.Recipient, "attempt", attempt, "error", err)
		if attempt < maxRetries {
			time.Sleep(retryDelay * time.Duration(attempt))
		}
	}
	return r.errorReply(msg,
		fmt.Sprintf("delivery to %q failed after %d attempts: %v", msg.Recipient, maxRetries, lastErr),
		ErrCodeDeliveryFailed)
}

// SendAsync delivers a message in asynchronous mode using the target's async
// handler. The only suspension points are the handler invocation and the
// backoff wait, both of which honor ctx cancellation. Like Send it reports
// all delivery failures as returned error-kind messages.
func (r *Router) SendAsync(ctx context.Context, msg *core.Message, optFns ...func(o *SendOptions)) *core.Message {
	maxRetries, retryDelay := r.sendOptions(optFns)
	r.history.append(DirectionOutgoing, msg)

	target, errMsg := r.lookupTarget(msg)
	if errMsg != nil {
		return errMsg
	}
	if target.AsyncHandler == nil {
		if target.Address != "" {
			r.logger.Warn("remote-only target, delivery not implemented", "agent", msg.Recipient, "address", target.Address)
			return nil
		}
		return r.errorReply(msg, fmt.Sprintf("agent %q has no asynchronous handler", msg.Recipient), ErrCodeNoHandler)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := r.invokeAsync(ctx, target.AsyncHandler, msg)
		if err == nil {
			return r.completeDelivery(msg, resp)
		}
		lastErr = err
		r.logger.Warn("delivery attempt failed", "agent", msg.Recipient, "attempt", attempt, "error", err)
		if attempt < maxRetries {
			select {
			case <-time.After(retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return r.errorReply(msg, fmt.Sprintf("delivery to %q canceled: %v", msg.Recipient, ctx.Err()), ErrCodeCanceled)
			}
		}
	}
	return r.errorReply(msg,
		fmt.Sprintf("delivery to %q failed after %d attempts: %v", msg.Recipient, maxRetries, lastErr),
		ErrCodeDeliveryFailed)
}

// History returns buffered history entries, oldest first, narrowed by the
// filter. The buffer itself is not mutated.
func (r *Router) History(f HistoryFilter) []HistoryEntry {
	return r.history.snapshot(f)
}

// ClearHistory discards all buffered history entries.
func (r *Router) ClearHistory() {
	r.history.clear()
}

// Stats returns an aggregate snapshot of router state.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{
		Agents:      len(r.agents),
		HistorySize: r.history.len(),
		PerAgent:    make(map[string]AgentStats, len(r.agents)),
	}
	for name, a := range r.agents {
		s.TotalDelivered += a.delivered
		s.PerAgent[name] = AgentStats{Delivered: a.delivered, RegisteredAt: a.registeredAt}
	}
	return s
}

func (r *Router) sendOptions(optFns []func(o *SendOptions)) (int, time.Duration) {
	opts := SendOptions{MaxRetries: r.maxRetries, RetryDelay: r.retryDelay}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = r.maxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = r.retryDelay
	}
	return opts.MaxRetries, opts.RetryDelay
}

// lookupTarget resolves the recipient's registration. It returns a ready
// error envelope when the recipient is unknown.
func (r *Router) lookupTarget(msg *core.Message) (Registration, *core.Message) {
	r.mu.RLock()
	a, ok := r.agents[msg.Recipient]
	r.mu.RUnlock()
	if !ok {
		return Registration{}, r.errorReply(msg, fmt.Sprintf("agent %q is not registered", msg.Recipient), ErrCodeAgentNotFound)
	}
	return a.Registration, nil
}

// invoke calls a handler, converting a panic into a delivery failure so one
// misbehaving agent cannot take down a shared router.
func (r *Router) invoke(h core.Handler, msg *core.Message) (resp *core.Message, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp, err = nil, fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(msg)
}

func (r *Router) invokeAsync(ctx context.Context, h core.AsyncHandler, msg *core.Message) (resp *core.Message, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp, err = nil, fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, msg)
}

// completeDelivery records a successful attempt: logs the response (if any),
// increments the recipient's delivered counter and returns the response.
func (r *Router) completeDelivery(msg *core.Message, resp *core.Message) *core.Message {
	if resp != nil {
		r.history.append(DirectionIncoming, resp)
	}
	r.mu.Lock()
	if a, ok := r.agents[msg.Recipient]; ok {
		a.delivered++
	}
	r.mu.Unlock()
	r.logger.Debug("message delivered", "agent", msg.Recipient, "message_id", msg.ID, "responded", resp != nil)
	return resp
}

// errorReply builds, logs and returns the error envelope the router sends
// back to the original sender. The correlation id links it to the failed
// message.
func (r *Router) errorReply(msg *core.Message, text, code string) *core.Message {
	errMsg, err := core.NewError(routerSender, msg.Sender, text, code, msg.ID)
	if err != nil {
		// Only reachable with an envelope that bypassed validation.
		r.logger.Error("failed to build error envelope", "error", err)
		return nil
	}
	r.history.append(DirectionError, errMsg)
	r.logger.Error("message undeliverable", "agent", msg.Recipient, "message_id", msg.ID, "reason", text)
	return errMsg
}
