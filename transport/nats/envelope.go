package nats

import "encoding/json"

// Router control operations served on the ops subject.
const (
	OpRegister     = "register"
	OpUnregister   = "unregister"
	OpList         = "list"
	OpInfo         = "info"
	OpHistory      = "history"
	OpClearHistory = "clear_history"
	OpStats        = "stats"
)

// OpRequest is the JSON envelope for router control requests.
type OpRequest struct {
	ID       string            `json:"id"`
	Op       string            `json:"op"`
	Agent    string            `json:"agent,omitempty"`
	Address  string            `json:"address,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Filter   *HistoryQuery     `json:"filter,omitempty"`
}

// HistoryQuery mirrors routing.HistoryFilter on the wire.
type HistoryQuery struct {
	Limit int    `json:"limit,omitempty"`
	Agent string `json:"agent,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// OpResponse is the JSON envelope for router control responses.
type OpResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result any          `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// SendReply is the JSON envelope answering a send request. Message carries
// the wire-encoded response or error envelope produced by the router, absent
// when delivery completed without a response.
type SendReply struct {
	Ok      bool            `json:"ok"`
	Message json.RawMessage `json:"message,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
