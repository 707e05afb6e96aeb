package model

import (
	"errors"
	"fmt"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// Aggregation modes for a TreeEnsemble.
const (
	AggregateSum  = "sum"
	AggregateMean = "mean"
)

// Tree is a fitted regression tree in array form. Node i is a leaf when
// Left[i] is -1; otherwise rows with x[Feature[i]] <= Threshold[i] go to
// Left[i] and the rest to Right[i]. Node 0 is the root.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

func (t *Tree) validate(nFeatures int) error {
	n := len(t.Value)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.Feature) != n || len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if t.Left[i] == -1 {
			continue
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, t.Feature[i], nFeatures)
		}
		// children must come after their parent so traversal terminates
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, t.Left[i], t.Right[i])
		}
	}
	return nil
}

func (t *Tree) eval(row []float64) float64 {
	i := 0
	for t.Left[i] != -1 {
		if row[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	return t.Value[i]
}

// TreeEnsemble is a fitted forest or boosted ensemble of regression trees.
// With AggregateSum the prediction is BaseScore plus the sum of the tree
// outputs; with AggregateMean it is their average.
type TreeEnsemble struct {
	Type            string  `json:"type"`
	NFeatures       int     `json:"n_features"`
	Aggregate       string  `json:"aggregate"`
	BaseScore       float64 `json:"base_score,omitempty"`
	Trees           []Tree  `json:"trees"`
	TargetTransform string  `json:"target_transform,omitempty"`
}

func (m *TreeEnsemble) validate() error {
	if m.NFeatures <= 0 {
		return errors.New("tree ensemble needs n_features")
	}
	if len(m.Trees) == 0 {
		return errors.New("tree ensemble has no trees")
	}
	switch m.Aggregate {
	case "":
		m.Aggregate = AggregateSum
	case AggregateSum, AggregateMean:
	default:
		return fmt.Errorf("unknown aggregate %q", m.Aggregate)
	}
	for i := range m.Trees {
		if err := m.Trees[i].validate(m.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return checkTarget(m.TargetTransform)
}

// NumFeatures returns the expected row width.
func (m *TreeEnsemble) NumFeatures() int { return m.NFeatures }

// Predict scores each row in parallel.
func (m *TreeEnsemble) Predict(X pipeline.FeatureMatrix) (pipeline.ForecastVector, error) {
	return predictRows(X, m.NFeatures, func(row []float64) float64 {
		sum := 0.0
		for i := range m.Trees {
			sum += m.Trees[i].eval(row)
		}
		var y float64
		if m.Aggregate == AggregateMean {
			y = sum / float64(len(m.Trees))
		} else {
			y = m.BaseScore + sum
		}
		return inverseTarget(m.TargetTransform, y)
	})
}
