package model

import (
	"errors"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// LinearRegression is a fitted linear model: y = W·x + Bias.
type LinearRegression struct {
	Type            string    `json:"type"`
	Weights         []float64 `json:"weights"`
	Bias            float64   `json:"bias"`
	TargetTransform string    `json:"target_transform,omitempty"`
}

// NewLinearRegression wraps fitted coefficients.
func NewLinearRegression(weights []float64, bias float64) *LinearRegression {
	w := make([]float64, len(weights))
	copy(w, weights)
	return &LinearRegression{Type: "linear", Weights: w, Bias: bias}
}

func (m *LinearRegression) validate() error {
	if len(m.Weights) == 0 {
		return errors.New("linear model has no weights")
	}
	return checkTarget(m.TargetTransform)
}

// NumFeatures returns the expected row width.
func (m *LinearRegression) NumFeatures() int { return len(m.Weights) }

// Predict scores each row in parallel.
func (m *LinearRegression) Predict(X pipeline.FeatureMatrix) (pipeline.ForecastVector, error) {
	return predictRows(X, len(m.Weights), func(row []float64) float64 {
		sum := m.Bias
		for j, v := range row {
			sum += m.Weights[j] * v
		}
		return inverseTarget(m.TargetTransform, sum)
	})
}
