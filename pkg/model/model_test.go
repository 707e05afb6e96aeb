package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

func TestLinearRegression_PredictPreservesOrder(t *testing.T) {
	m := NewLinearRegression([]float64{2, -1}, 10)

	X := make(pipeline.FeatureMatrix, 1000)
	for i := range X {
		X[i] = []float64{float64(i), 1}
	}
	got, err := m.Predict(X)
	require.NoError(t, err)
	require.Len(t, got, 1000)
	for i, y := range got {
		assert.Equal(t, float64(2*i+9), y)
	}
}

func TestLinearRegression_WidthMismatch(t *testing.T) {
	m := NewLinearRegression([]float64{1, 1, 1}, 0)
	_, err := m.Predict(pipeline.FeatureMatrix{{1, 2, 3}, {1, 2}})

	var pe *pipeline.PredictionError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "row 1 has 2 features, model expects 3")
}

func TestLinearRegression_Empty(t *testing.T) {
	m := NewLinearRegression([]float64{1}, 0)
	got, err := m.Predict(pipeline.FeatureMatrix{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLinearRegression_Log1pTarget(t *testing.T) {
	m := NewLinearRegression([]float64{1}, 0)
	m.TargetTransform = TargetLog1p
	got, err := m.Predict(pipeline.FeatureMatrix{{math.Log1p(5263)}})
	require.NoError(t, err)
	assert.InDelta(t, 5263, got[0], 1e-6)
}

// two stumps on feature 0; threshold 0.5
func stumps() []Tree {
	return []Tree{
		{Feature: []int{0, -2, -2}, Threshold: []float64{0.5, 0, 0}, Left: []int{1, -1, -1}, Right: []int{2, -1, -1}, Value: []float64{0, 100, 300}},
		{Feature: []int{1, -2, -2}, Threshold: []float64{10, 0, 0}, Left: []int{1, -1, -1}, Right: []int{2, -1, -1}, Value: []float64{0, 10, 20}},
	}
}

func TestTreeEnsemble_Sum(t *testing.T) {
	m := &TreeEnsemble{NFeatures: 2, Aggregate: AggregateSum, BaseScore: 1000, Trees: stumps()}
	require.NoError(t, m.validate())

	got, err := m.Predict(pipeline.FeatureMatrix{{0, 5}, {1, 5}, {1, 50}, {0.5, 10}})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ForecastVector{1110, 1310, 1320, 1110}, got)
}

func TestTreeEnsemble_Mean(t *testing.T) {
	m := &TreeEnsemble{NFeatures: 2, Aggregate: AggregateMean, Trees: stumps()}
	require.NoError(t, m.validate())

	got, err := m.Predict(pipeline.FeatureMatrix{{1, 50}})
	require.NoError(t, err)
	assert.Equal(t, 160.0, got[0])
}

func TestTreeEnsemble_WidthMismatch(t *testing.T) {
	m := &TreeEnsemble{NFeatures: 2, Trees: stumps()}
	require.NoError(t, m.validate())
	_, err := m.Predict(pipeline.FeatureMatrix{{1, 2, 3}})
	var pe *pipeline.PredictionError
	assert.ErrorAs(t, err, &pe)
}

func TestDecode(t *testing.T) {
	lin, err := Decode(strings.NewReader(`{"type":"linear","weights":[1.5,2],"bias":3,"target_transform":"log1p"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, lin.NumFeatures())

	src := `{"type":"tree_ensemble","n_features":1,"trees":[
		{"feature":[0,-2,-2],"threshold":[5,0,0],"left":[1,-1,-1],"right":[2,-1,-1],"value":[0,1,2]}
	]}`
	ens, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, AggregateSum, ens.(*TreeEnsemble).Aggregate)

	got, err := ens.Predict(pipeline.FeatureMatrix{{4}, {6}})
	require.NoError(t, err)
	assert.Equal(t, pipeline.ForecastVector{1, 2}, got)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown type", `{"type":"svm"}`, "unknown model type"},
		{"no weights", `{"type":"linear","weights":[]}`, "no weights"},
		{"bad target", `{"type":"linear","weights":[1],"target_transform":"sqrt"}`, "target transform"},
		{"no trees", `{"type":"tree_ensemble","n_features":2,"trees":[]}`, "no trees"},
		{"no width", `{"type":"tree_ensemble","trees":[]}`, "n_features"},
		{"bad aggregate", `{"type":"tree_ensemble","n_features":1,"aggregate":"max","trees":[{"feature":[-2],"threshold":[0],"left":[-1],"right":[-1],"value":[1]}]}`, "aggregate"},
		{"ragged tree", `{"type":"tree_ensemble","n_features":1,"trees":[{"feature":[0],"threshold":[],"left":[-1],"right":[-1],"value":[1]}]}`, "differ in length"},
		{"cycle", `{"type":"tree_ensemble","n_features":1,"trees":[{"feature":[0,-2],"threshold":[1,0],"left":[0,-1],"right":[1,-1],"value":[0,1]}]}`, "invalid children"},
		{"feature out of range", `{"type":"tree_ensemble","n_features":1,"trees":[{"feature":[3,-2,-2],"threshold":[1,0,0],"left":[1,-1,-1],"right":[2,-1,-1],"value":[0,1,2]}]}`, "splits on feature"},
		{"garbage", `nope`, "decode model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMetrics(t *testing.T) {
	yTrue := []float64{100, 200, 0, 400}
	yPred := []float64{110, 180, 5, 400}

	assert.InDelta(t, 8.75, MAE(yTrue, yPred), 1e-9)
	assert.InDelta(t, math.Sqrt(131.25), RMSE(yTrue, yPred), 1e-9)
	// zero actual skipped: sqrt((0.01 + 0.01 + 0) / 3)
	assert.InDelta(t, math.Sqrt(0.02/3), RMSPE(yTrue, yPred), 1e-9)
	assert.Greater(t, R2(yTrue, yPred), 0.99)

	e := Evaluate(yTrue, yPred)
	assert.Equal(t, 4, e.Rows)
	assert.InDelta(t, 8.75, e.MAE, 1e-9)
}

func TestMetrics_Degenerate(t *testing.T) {
	assert.Zero(t, MAE(nil, nil))
	assert.Zero(t, RMSPE([]float64{0, 0}, []float64{1, 2}))
	assert.Zero(t, R2([]float64{3, 3}, []float64{1, 2}))
}

func TestEvaluation_Finite(t *testing.T) {
	assert.True(t, Evaluate([]float64{5000, 6000}, []float64{5100, 5900}).Finite())
	assert.False(t, Evaluate([]float64{1e308, -1e308}, []float64{-1e308, 1e308}).Finite())
}
