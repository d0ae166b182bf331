package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFluSurvSupports(t *testing.T) {
	a := NewFluSurvAdapter()

	assert.True(t, a.Supports(&ParsedQuery{Question: "flu trend in the US"}))
	assert.True(t, a.Supports(&ParsedQuery{Question: "influenza activity"}))
	assert.True(t, a.Supports(&ParsedQuery{Disease: "influenza"}))
	assert.False(t, a.Supports(&ParsedQuery{Question: "dengue cases"}))
}

func TestFluSurvSeries(t *testing.T) {
	a := NewFluSurvAdapter()

	payload, err := a.Fetch(context.Background(), &ParsedQuery{Question: "flu trend"})
	require.NoError(t, err)

	assert.Equal(t, "flu_ili", payload.Type)
	assert.NotEmpty(t, payload.Summary)
	require.NotEmpty(t, payload.Sources)
	assert.Contains(t, payload.Sources[0].Name, "synthetic")

	series, ok := payload.Data["series"].([]Point)
	require.True(t, ok)
	require.Len(t, series, 26)

	flat := true
	for i, p := range series {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		if i > 0 && p.Value != series[0].Value {
			flat = false
		}
	}
	assert.False(t, flat, "the stub series must never be a flat line")
}
