// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing messages. These helpers are intentionally
// minimal and not intended for production usage.
package testutil

import (
	"fmt"

	"github.com/docmesh/docmesh/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().From("caller").To("finance").Payload("action", "ping").Request()
//
// Chain only the parts you need; sensible defaults are applied. The terminal
// methods (Request, Response, Notification) panic on validation failure so
// tests fail loudly on builder misuse.
type MessageBuilder struct {
	sender        string
	recipient     string
	payload       core.Payload
	priority      core.Priority
	correlationID string
	metadata      map[string]string
}

// NewMessageBuilder creates a builder with default sender "tester".
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{sender: "tester", priority: core.PriorityNormal}
}

// From sets the sender name (chainable).
func (b *MessageBuilder) From(s string) *MessageBuilder { b.sender = s; return b }

// To sets the recipient name (chainable).
func (b *MessageBuilder) To(r string) *MessageBuilder { b.recipient = r; return b }

// Payload adds one payload key/value pair (chainable).
func (b *MessageBuilder) Payload(key string, value any) *MessageBuilder {
	if b.payload == nil {
		b.payload = core.Payload{}
	}
	b.payload[key] = value
	return b
}

// Priority overrides the default priority (chainable).
func (b *MessageBuilder) Priority(p core.Priority) *MessageBuilder { b.priority = p; return b }

// CorrelatedTo sets the correlation id for responses (chainable).
func (b *MessageBuilder) CorrelatedTo(id string) *MessageBuilder { b.correlationID = id; return b }

// Meta adds one metadata key/value pair (chainable).
func (b *MessageBuilder) Meta(key, value string) *MessageBuilder {
	if b.metadata == nil {
		b.metadata = map[string]string{}
	}
	b.metadata[key] = value
	return b
}

func (b *MessageBuilder) options() []core.MessageOption {
	opts := []core.MessageOption{core.WithPriority(b.priority)}
	if b.metadata != nil {
		opts = append(opts, core.WithMetadata(b.metadata))
	}
	return opts
}

// Request builds a request message.
func (b *MessageBuilder) Request() *core.Message {
	m, err := core.NewRequest(b.sender, b.recipient, b.payload, b.options()...)
	if err != nil {
		panic(fmt.Sprintf("testutil: build request: %v", err))
	}
	return m
}

// Response builds a response message.
func (b *MessageBuilder) Response() *core.Message {
	m, err := core.NewResponse(b.sender, b.recipient, b.payload, b.correlationID, b.options()...)
	if err != nil {
		panic(fmt.Sprintf("testutil: build response: %v", err))
	}
	return m
}

// Notification builds a notification message.
func (b *MessageBuilder) Notification() *core.Message {
	m, err := core.NewNotification(b.sender, b.payload, b.options()...)
	if err != nil {
		panic(fmt.Sprintf("testutil: build notification: %v", err))
	}
	return m
}
