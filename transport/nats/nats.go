// Package nats binds the message router to NATS. It is one possible transport
// adapter for the routing core: it marshals messages with the lossless wire
// codec from the core package, serves router control operations
// (register/unregister/history/stats) over request-reply, and forwards
// messages addressed to remote agents to their own NATS subjects.
//
// The routing core itself stays transport-agnostic; nothing in this package
// is required for in-process use.
package nats

import (
	"encoding/json"
	"fmt"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/docmesh/docmesh/config"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/logging"
	"github.com/docmesh/docmesh/routing"
)

// DefaultSubjectPrefix prefixes every subject served or used by a Binding.
const DefaultSubjectPrefix = "docmesh"

// Connect creates a NATS connection with sensible reconnect behavior.
func Connect(url, name string, logger logging.Logger) (*comms.Conn, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	nc, err := comms.Connect(url,
		comms.Name(name),
		comms.Timeout(10*time.Second),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		comms.ClosedHandler(func(_ *comms.Conn) {
			logger.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// ConnectFromConfig connects using the environment-loaded Comms settings.
func ConnectFromConfig(cfg *config.Config, logger logging.Logger) (*comms.Conn, error) {
	return Connect(cfg.CommsURL, cfg.CommsName, logger)
}

// FromConfig maps the environment-loaded Comms settings onto the binding
// options, for use as NewBinding(nc, router, nats.FromConfig(cfg)).
func FromConfig(cfg *config.Config) func(o *Options) {
	return func(o *Options) {
		if cfg.SubjectPrefix != "" {
			o.SubjectPrefix = cfg.SubjectPrefix
		}
		if cfg.RequestTimeout > 0 {
			o.RequestTimeout = cfg.RequestTimeout
		}
	}
}

// Options configures a Binding.
type Options struct {
	// SubjectPrefix defaults to DefaultSubjectPrefix.
	SubjectPrefix string
	// RequestTimeout bounds remote agent request-reply forwarding.
	RequestTimeout time.Duration
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Binding exposes a Router over NATS.
type Binding struct {
	nc      *comms.Conn
	router  *routing.Router
	prefix  string
	timeout time.Duration
	logger  logging.Logger
	subs    []*comms.Subscription
}

// NewBinding creates a Binding over an established connection. Call Start to
// begin serving and Stop to drain the subscriptions.
func NewBinding(nc *comms.Conn, router *routing.Router, optFns ...func(o *Options)) *Binding {
	opts := Options{
		SubjectPrefix:  DefaultSubjectPrefix,
		RequestTimeout: 25 * time.Second,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Binding{
		nc:      nc,
		router:  router,
		prefix:  opts.SubjectPrefix,
		timeout: opts.RequestTimeout,
		logger:  opts.Logger,
	}
}

// SendSubject is the request-reply subject accepting wire-encoded messages.
func (b *Binding) SendSubject() string { return b.prefix + ".send" }

// OpsSubject is the request-reply subject accepting router control requests.
func (b *Binding) OpsSubject() string { return b.prefix + ".ops" }

// AgentSubject is the delivery subject of a remote agent registered through
// this binding.
func (b *Binding) AgentSubject(name string) string {
	return fmt.Sprintf("%s.agent.%s", b.prefix, name)
}

// Start subscribes the send and ops subjects.
func (b *Binding) Start() error {
	sendSub, err := b.nc.Subscribe(b.SendSubject(), b.handleSend)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.SendSubject(), err)
	}
	b.subs = append(b.subs, sendSub)

	opsSub, err := b.nc.Subscribe(b.OpsSubject(), b.handleOps)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.OpsSubject(), err)
	}
	b.subs = append(b.subs, opsSub)

	b.logger.Info("nats binding started", "send", b.SendSubject(), "ops", b.OpsSubject())
	return nil
}

// Stop unsubscribes all subjects. The connection itself stays open; it is
// owned by the caller.
func (b *Binding) Stop() {
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("unsubscribe failed", "subject", sub.Subject, "error", err)
		}
	}
	b.subs = nil
}

// handleSend decodes an inbound wire message, delivers it through the router
// and answers with the router's result.
func (b *Binding) handleSend(m *comms.Msg) {
	msg, err := core.FromWire(m.Data)
	if err != nil {
		b.respond(m, SendReply{Ok: false, Error: &ErrorDetail{Code: "INVALID_MESSAGE", Message: err.Error()}})
		return
	}
	result := b.router.Send(msg)
	reply := SendReply{Ok: true}
	if result != nil {
		data, err := result.ToWire()
		if err != nil {
			b.respond(m, SendReply{Ok: false, Error: &ErrorDetail{Code: "ENCODE_FAILED", Message: err.Error()}})
			return
		}
		reply.Message = data
	}
	b.respond(m, reply)
}

// handleOps serves router control operations.
func (b *Binding) handleOps(m *comms.Msg) {
	var req OpRequest
	if err := json.Unmarshal(m.Data, &req); err != nil {
		b.respondOp(m, OpResponse{Ok: false, Error: &ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()}})
		return
	}
	resp := OpResponse{ID: req.ID, Ok: true}
	switch req.Op {
	case OpRegister:
		resp = b.handleRegister(req)
	case OpUnregister:
		b.router.Unregister(req.Agent)
	case OpList:
		resp.Result = b.router.Agents()
	case OpInfo:
		info, ok := b.router.Info(req.Agent)
		if !ok {
			resp = OpResponse{ID: req.ID, Ok: false, Error: &ErrorDetail{Code: "AGENT_NOT_FOUND", Message: fmt.Sprintf("agent %q is not registered", req.Agent)}}
			break
		}
		resp.Result = info
	case OpHistory:
		filter := routing.HistoryFilter{}
		if req.Filter != nil {
			filter = routing.HistoryFilter{Limit: req.Filter.Limit, Agent: req.Filter.Agent, Kind: core.Kind(req.Filter.Kind)}
		}
		resp.Result = b.router.History(filter)
	case OpClearHistory:
		b.router.ClearHistory()
	case OpStats:
		resp.Result = b.router.Stats()
	default:
		resp = OpResponse{ID: req.ID, Ok: false, Error: &ErrorDetail{Code: "OP_NOT_FOUND", Message: fmt.Sprintf("unknown op %q", req.Op)}}
	}
	b.respondOp(m, resp)
}

// handleRegister registers a remote agent whose address is its NATS subject.
// The installed handler forwards wire-encoded messages to that subject via
// request-reply, which is how this binding implements remote delivery.
func (b *Binding) handleRegister(req OpRequest) OpResponse {
	if req.Agent == "" {
		return OpResponse{ID: req.ID, Ok: false, Error: &ErrorDetail{Code: "INVALID_REQUEST", Message: "agent name is required"}}
	}
	subject := req.Address
	if subject == "" {
		subject = b.AgentSubject(req.Agent)
	}
	err := b.router.Register(routing.Registration{
		Name:     req.Agent,
		Address:  subject,
		Handler:  b.remoteHandler(subject),
		Metadata: req.Metadata,
	})
	if err != nil {
		return OpResponse{ID: req.ID, Ok: false, Error: &ErrorDetail{Code: "REGISTER_FAILED", Message: err.Error()}}
	}
	return OpResponse{ID: req.ID, Ok: true, Result: subject}
}

// remoteHandler forwards a message to a remote agent subject and decodes the
// reply. An empty reply body means the agent consumed the message without a
// response.
func (b *Binding) remoteHandler(subject string) core.Handler {
	return func(msg *core.Message) (*core.Message, error) {
		data, err := msg.ToWire()
		if err != nil {
			return nil, err
		}
		reply, err := b.nc.Request(subject, data, b.timeout)
		if err != nil {
			return nil, fmt.Errorf("remote delivery to %s: %w", subject, err)
		}
		if len(reply.Data) == 0 {
			return nil, nil
		}
		return core.FromWire(reply.Data)
	}
}

func (b *Binding) respond(m *comms.Msg, reply SendReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		b.logger.Error("encode send reply failed", "error", err)
		return
	}
	if err := m.Respond(data); err != nil {
		b.logger.Warn("respond failed", "subject", m.Subject, "error", err)
	}
}

func (b *Binding) respondOp(m *comms.Msg, resp OpResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		b.logger.Error("encode op response failed", "error", err)
		return
	}
	if err := m.Respond(data); err != nil {
		b.logger.Warn("respond failed", "subject", m.Subject, "error", err)
	}
}
