// Package embedding contains concrete core.Embedder implementations. The
// Embedder contract itself resides in the core package; depend on
// core.Embedder in your code and select an implementation (the in-memory
// vectorizer below, or the OpenAI adapter in the openai subpackage) at wiring
// time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// providers to be added without introducing dependency cycles.
package embedding
