package model

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// Regressor is a fitted model that scores a feature matrix.
type Regressor interface {
	pipeline.Predictor
	NumFeatures() int
}

// Target transforms. A model trained on log1p(Sales) is inverted with expm1.
const (
	TargetIdentity = ""
	TargetLog1p    = "log1p"
)

func inverseTarget(kind string, v float64) float64 {
	if kind == TargetLog1p {
		return math.Expm1(v)
	}
	return v
}

func checkTarget(kind string) error {
	switch kind {
	case TargetIdentity, TargetLog1p:
		return nil
	}
	return fmt.Errorf("unknown target transform %q", kind)
}

// predictRows scores rows across GOMAXPROCS workers. Output order matches
// input order.
func predictRows(X pipeline.FeatureMatrix, width int, score func(row []float64) float64) (pipeline.ForecastVector, error) {
	for i, row := range X {
		if len(row) != width {
			return nil, &pipeline.PredictionError{
				Err: fmt.Errorf("row %d has %d features, model expects %d", i, len(row), width),
			}
		}
	}

	pred := make(pipeline.ForecastVector, len(X))
	if len(X) == 0 {
		return pred, nil
	}

	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				pred[i] = score(X[i])
			}
		}(s, e)
	}
	wg.Wait()
	return pred, nil
}

type envelope struct {
	Type string `json:"type"`
}

// Decode reads a fitted model from JSON. The "type" field selects
// "linear" or "tree_ensemble".
func Decode(r io.Reader) (Regressor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	switch env.Type {
	case "linear":
		var m LinearRegression
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode linear model: %w", err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	case "tree_ensemble":
		var m TreeEnsemble
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode tree ensemble: %w", err)
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	}
	return nil, fmt.Errorf("unknown model type %q", env.Type)
}
