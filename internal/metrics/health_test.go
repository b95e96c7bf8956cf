package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessHealthScore(t *testing.T) {
	revenue := 50000.0
	review := 4.0

	components := []HealthComponent{
		{Name: "revenue", Value: &revenue, Bounds: NormalizationBounds{Min: 0, Max: 100000}},
		{Name: "review", Value: &review, Bounds: NormalizationBounds{Min: 1, Max: 5}},
	}
	weights := HealthWeights{"revenue": 0.6, "review": 0.4}

	score, err := BusinessHealthScore(components, weights)
	require.NoError(t, err)
	require.NotNil(t, score)

	// revenue scales to 50, review to 75: 0.6*50 + 0.4*75 = 60
	assert.InDelta(t, 60.0, *score, 1e-9)
}

func TestBusinessHealthScore_ClampsOutOfBounds(t *testing.T) {
	high := 250.0
	low := -10.0

	components := []HealthComponent{
		{Name: "a", Value: &high, Bounds: NormalizationBounds{Min: 0, Max: 100}},
		{Name: "b", Value: &low, Bounds: NormalizationBounds{Min: 0, Max: 100}},
	}
	weights := HealthWeights{"a": 0.5, "b": 0.5}

	score, err := BusinessHealthScore(components, weights)
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.InDelta(t, 50.0, *score, 1e-9)
}

func TestBusinessHealthScore_NilComponentsRenormalize(t *testing.T) {
	value := 80.0

	components := []HealthComponent{
		{Name: "present", Value: &value, Bounds: NormalizationBounds{Min: 0, Max: 100}},
		{Name: "missing", Value: nil, Bounds: NormalizationBounds{Min: 0, Max: 100}},
	}
	weights := HealthWeights{"present": 0.5, "missing": 0.5}

	score, err := BusinessHealthScore(components, weights)
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.InDelta(t, 80.0, *score, 1e-9)
}

func TestBusinessHealthScore_AllNilYieldsNil(t *testing.T) {
	components := []HealthComponent{
		{Name: "a", Value: nil, Bounds: NormalizationBounds{Min: 0, Max: 1}},
	}
	weights := HealthWeights{"a": 1}

	score, err := BusinessHealthScore(components, weights)
	require.NoError(t, err)
	assert.Nil(t, score)
}

func TestBusinessHealthScore_RejectsInvalidInputs(t *testing.T) {
	value := 1.0
	good := HealthComponent{Name: "a", Value: &value, Bounds: NormalizationBounds{Min: 0, Max: 1}}

	tests := []struct {
		name       string
		components []HealthComponent
		weights    HealthWeights
	}{
		{
			name:       "no weights",
			components: nil,
			weights:    HealthWeights{},
		},
		{
			name:       "weights not summing to one",
			components: []HealthComponent{good},
			weights:    HealthWeights{"a": 0.5},
		},
		{
			name:       "negative weight",
			components: []HealthComponent{good},
			weights:    HealthWeights{"a": 1.5, "b": -0.5},
		},
		{
			name:       "component without weight",
			components: []HealthComponent{good, {Name: "b", Value: &value, Bounds: NormalizationBounds{Min: 0, Max: 1}}},
			weights:    HealthWeights{"a": 0.5, "c": 0.5},
		},
		{
			name:       "component count mismatch",
			components: []HealthComponent{good},
			weights:    HealthWeights{"a": 0.5, "b": 0.5},
		},
		{
			name: "duplicate component",
			components: []HealthComponent{
				good,
				{Name: "a", Value: &value, Bounds: NormalizationBounds{Min: 0, Max: 1}},
			},
			weights: HealthWeights{"a": 0.5, "b": 0.5},
		},
		{
			name: "degenerate bounds",
			components: []HealthComponent{
				{Name: "a", Value: &value, Bounds: NormalizationBounds{Min: 1, Max: 1}},
			},
			weights: HealthWeights{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BusinessHealthScore(tt.components, tt.weights)
			assert.Error(t, err)
		})
	}
}

func TestHealthWeights_Normalize(t *testing.T) {
	w := HealthWeights{"a": 2, "b": 2}
	assert.Error(t, w.Validate())

	w.Normalize()
	assert.NoError(t, w.Validate())
	assert.InDelta(t, 0.5, w["a"], 1e-9)
}
