// Package core provides the foundational domain types and interfaces used by
// docmesh. It defines:
//
//   - Message (immutable inter-agent envelope with kind, priority and
//     correlation linkage, plus lossless wire round-trip)
//   - The closed construction-time error taxonomy (ValidationError and the
//     registry contract sentinels)
//   - Narrow contracts for external collaborators (Embedder, DataFunc) and
//     delivery handlers (Handler, AsyncHandler)
//
// The package intentionally keeps implementation concerns (routing, semantic
// dispatch, transports) out of scope, exposing small types so the routing,
// registry and dispatch packages can depend on it without cycles.
package core
