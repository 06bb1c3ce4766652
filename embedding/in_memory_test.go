package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmesh/docmesh/dispatch"
)

func TestInMemoryEmbedderIsDeterministic(t *testing.T) {
	e := NewInMemoryEmbedder(0)
	a, err := e.Embed(context.Background(), "expense analysis for the project")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "expense analysis for the project")
	require.NoError(t, err)

	assert.Len(t, a, DefaultDimensions)
	assert.Equal(t, a, b)
}

func TestInMemoryEmbedderEmptyInput(t *testing.T) {
	e := NewInMemoryEmbedder(16)
	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
	assert.InDelta(t, 0.0, dispatch.CosineSimilarity(vec, vec), 1e-9, "zero vector scores 0 even against itself")
}

func TestInMemoryEmbedderSimilarity(t *testing.T) {
	e := NewInMemoryEmbedder(0)
	ctx := context.Background()

	desc, err := e.Embed(ctx, "Get expense analysis for the project")
	require.NoError(t, err)
	query, err := e.Embed(ctx, "show me project expenses")
	require.NoError(t, err)
	other, err := e.Embed(ctx, "Generate a risk mitigation plan")
	require.NoError(t, err)

	onTopic := dispatch.CosineSimilarity(query, desc)
	offTopic := dispatch.CosineSimilarity(query, other)
	assert.Greater(t, onTopic, 0.4, "related texts must clear the default dispatch threshold")
	assert.Greater(t, onTopic, offTopic)
}

func TestSingularFold(t *testing.T) {
	tests := map[string]string{
		"expenses":  "expense",
		"queries":   "query",
		"kpis":      "kpi",
		"process":   "process", // -ss is kept
		"gas":       "gas",     // too short to fold
		"project":   "project",
		"documents": "document",
	}
	for in, want := range tests {
		assert.Equal(t, want, singular(in), in)
	}
}

func TestTokenizeDropsStopwordsAndPunctuation(t *testing.T) {
	toks := tokenize("Show me the expenses, please!")
	assert.Equal(t, []string{"expense"}, toks)
}
