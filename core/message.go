package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind categorizes the intent of a Message.
type Kind string

const (
	// KindRequest asks the recipient to perform work and usually expects a response.
	KindRequest Kind = "request"
	// KindResponse answers a previous request, linked via CorrelationID.
	KindResponse Kind = "response"
	// KindNotification is a fire-and-forget broadcast; the only kind allowed an empty recipient.
	KindNotification Kind = "notification"
	// KindError reports a routing or handler failure back to the original sender.
	KindError Kind = "error"
)

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRequest, KindResponse, KindNotification, KindError:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown message kind %q", s)
	}
}

// Priority orders messages by urgency. It is advisory: the router delivers
// identically regardless of priority, but transports and receivers may use it.
type Priority string

const (
	// PriorityLow marks background traffic.
	PriorityLow Priority = "low"
	// PriorityNormal is the default priority.
	PriorityNormal Priority = "normal"
	// PriorityHigh marks traffic that should jump queues where possible.
	PriorityHigh Priority = "high"
	// PriorityUrgent marks traffic that must be handled immediately.
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts a wire string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("unknown message priority %q", s)
	}
}

// Payload is the schema-less structured value carried by a Message. It must
// always be an object (map), never a bare scalar or array; Validate enforces
// this at construction time.
type Payload = map[string]any

// Message is the immutable envelope exchanged between agents.
//
// Messages are created through the factory constructors (NewRequest,
// NewResponse, NewNotification, NewError), validated at construction and
// treated as read-only afterwards. They round-trip losslessly through
// ToWire/FromWire with Kind and Priority encoded as their string names.
type Message struct {
	ID               string            `json:"id"`
	Sender           string            `json:"sender"`
	Recipient        string            `json:"recipient"`
	Kind             Kind              `json:"kind"`
	Timestamp        time.Time         `json:"timestamp"`
	Payload          Payload           `json:"payload"`
	Priority         Priority          `json:"priority"`
	RequiresResponse bool              `json:"requires_response"`
	CorrelationID    string            `json:"correlation_id,omitempty"`
	Metadata         map[string]string `json:"metadata"`
}

// messageOptions collects the optional fields shared by the factory constructors.
type messageOptions struct {
	priority         Priority
	requiresResponse bool
	metadata         map[string]string
}

// MessageOption customizes a factory-constructed Message.
type MessageOption func(o *messageOptions)

// WithPriority overrides the default priority of the constructed message.
func WithPriority(p Priority) MessageOption {
	return func(o *messageOptions) { o.priority = p }
}

// WithRequiresResponse signals to the receiver whether a response is expected.
// Routing succeeds identically either way.
func WithRequiresResponse(v bool) MessageOption {
	return func(o *messageOptions) { o.requiresResponse = v }
}

// WithMetadata attaches free-form annotations to the constructed message.
func WithMetadata(md map[string]string) MessageOption {
	return func(o *messageOptions) { o.metadata = md }
}

func newMessage(kind Kind, sender, recipient string, payload Payload, defaults messageOptions, optFns ...MessageOption) (*Message, error) {
	opts := defaults
	for _, fn := range optFns {
		fn(&opts)
	}
	if payload == nil {
		payload = Payload{}
	}
	if opts.metadata == nil {
		opts.metadata = map[string]string{}
	}
	m := &Message{
		ID:               NewID(),
		Sender:           sender,
		Recipient:        recipient,
		Kind:             kind,
		Timestamp:        time.Now().UTC(),
		Payload:          payload,
		Priority:         opts.priority,
		RequiresResponse: opts.requiresResponse,
		Metadata:         opts.metadata,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewRequest creates a request message. Requests expect a response by default.
func NewRequest(sender, recipient string, payload Payload, optFns ...MessageOption) (*Message, error) {
	return newMessage(KindRequest, sender, recipient, payload, messageOptions{
		priority:         PriorityNormal,
		requiresResponse: true,
	}, optFns...)
}

// NewResponse creates a response message linked to its originating request.
// By convention correlationID must equal the request's ID; this is not
// enforced at construction, only intended usage does.
func NewResponse(sender, recipient string, payload Payload, correlationID string, optFns ...MessageOption) (*Message, error) {
	m, err := newMessage(KindResponse, sender, recipient, payload, messageOptions{
		priority: PriorityNormal,
	}, optFns...)
	if err != nil {
		return nil, err
	}
	m.CorrelationID = correlationID
	return m, nil
}

// NewNotification creates a broadcast notification. Notifications are the only
// kind allowed an empty recipient.
func NewNotification(sender string, payload Payload, optFns ...MessageOption) (*Message, error) {
	return newMessage(KindNotification, sender, "", payload, messageOptions{
		priority: PriorityNormal,
	}, optFns...)
}

// NewError creates an error message. Error messages are high priority by
// default and carry the failure description in the payload under "error"
// plus an optional "error_code".
func NewError(sender, recipient, errorMessage, errorCode, correlationID string, optFns ...MessageOption) (*Message, error) {
	payload := Payload{"error": errorMessage}
	if errorCode != "" {
		payload["error_code"] = errorCode
	}
	m, err := newMessage(KindError, sender, recipient, payload, messageOptions{
		priority: PriorityHigh,
	}, optFns...)
	if err != nil {
		return nil, err
	}
	m.CorrelationID = correlationID
	return m, nil
}

// Validate checks the construction invariants of the envelope. The factory
// constructors call it automatically; FromWire calls it again so malformed
// wire data is rejected at the boundary.
func (m *Message) Validate() error {
	if m.Sender == "" {
		return &ValidationError{Field: "sender", Reason: "sender must not be empty"}
	}
	if m.Recipient == "" && m.Kind != KindNotification {
		return &ValidationError{Field: "recipient", Reason: fmt.Sprintf("recipient is required for kind %q", m.Kind)}
	}
	if _, err := ParseKind(string(m.Kind)); err != nil {
		return &ValidationError{Field: "kind", Reason: err.Error()}
	}
	if _, err := ParsePriority(string(m.Priority)); err != nil {
		return &ValidationError{Field: "priority", Reason: err.Error()}
	}
	if m.Payload == nil {
		return &ValidationError{Field: "payload", Reason: "payload must be an object"}
	}
	if m.Metadata == nil {
		return &ValidationError{Field: "metadata", Reason: "metadata must be an object"}
	}
	return nil
}

// ErrorText returns the failure description of an error-kind message, or the
// empty string for any other kind.
func (m *Message) ErrorText() string {
	if m.Kind != KindError {
		return ""
	}
	if s, ok := m.Payload["error"].(string); ok {
		return s
	}
	return ""
}

// ToWire serializes the message to its transport encoding (JSON). The encoding
// is lossless: FromWire(ToWire(m)) reproduces every field including the string
// names of Kind and Priority.
func (m *Message) ToWire() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message %s: %w", m.ID, err)
	}
	return data, nil
}

// FromWire deserializes a message from its transport encoding and re-validates
// it so malformed envelopes never enter the router.
func FromWire(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewID generates a unique identifier for messages.
func NewID() string { return uuid.NewString() }
