package core

import "context"

// Embedder produces a fixed-length vector representation of a text string.
//
// The dispatcher uses the same Embedder for function descriptions at startup
// and for queries at routing time, so implementations must be stable: the same
// input yields the same output, otherwise similarity scores are meaningless.
// A nil vector with a nil error means the provider could not embed the text;
// callers treat that entry as absent rather than failing.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// DataFunc is a named data-retrieval function exposed by an agent. The
// projectID scopes the lookup; params carry caller-supplied arguments. The
// result is an arbitrary JSON-serializable value owned by the agent.
type DataFunc func(ctx context.Context, projectID string, params map[string]any) (any, error)

// Handler processes a message delivered synchronously and optionally returns
// a response message. Returning (nil, nil) means the message was consumed
// without a reply.
type Handler func(msg *Message) (*Message, error)

// AsyncHandler processes a message delivered in asynchronous mode. The context
// is the caller's delivery context; implementations should honor cancellation.
type AsyncHandler func(ctx context.Context, msg *Message) (*Message, error)
