package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// DefaultDimensions is the vector length produced by InMemoryEmbedder.
const DefaultDimensions = 512

// stopwords are dropped before hashing so that filler words do not dominate
// short-text similarity.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "for": {}, "to": {}, "in": {},
	"on": {}, "and": {}, "or": {}, "is": {}, "are": {}, "with": {}, "by": {},
	"me": {}, "my": {}, "all": {}, "this": {}, "that": {}, "show": {},
	"get": {}, "give": {}, "please": {}, "what": {}, "which": {},
}

// InMemoryEmbedder is a deterministic, dependency-free text vectorizer: it
// lowercases, tokenizes, drops stopwords, applies a naive plural fold and
// hashes each remaining token into a fixed-length bag-of-words vector.
//
// It is no substitute for a learned embedding model, but it is stable (same
// input, same output), cheap and offline, which makes it suitable for tests,
// local development and air-gapped deployments. Safe for concurrent use.
type InMemoryEmbedder struct {
	dimensions int
}

// NewInMemoryEmbedder creates an embedder producing vectors of the given
// length (DefaultDimensions when n <= 0).
func NewInMemoryEmbedder(n int) *InMemoryEmbedder {
	if n <= 0 {
		n = DefaultDimensions
	}
	return &InMemoryEmbedder{dimensions: n}
}

// Embed implements core.Embedder. It never fails; empty input yields a zero
// vector, which scores 0.0 against everything.
func (e *InMemoryEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimensions)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%e.dimensions]++
	}
	return vec, nil
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		out = append(out, singular(f))
	}
	return out
}

// singular folds trivial English plurals so "expenses" and "expense" hash to
// the same bucket. Deliberately naive; anything smarter belongs in a real
// embedding provider.
func singular(tok string) string {
	switch {
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && len(tok) > 3:
		return tok[:len(tok)-1]
	default:
		return tok
	}
}
