package model

import "math"

func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / float64(len(yTrue))
}

func MSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / float64(len(yTrue))
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

// RMSPE is the root mean squared percentage error. Rows with a zero actual
// are skipped (closed stores sell nothing).
func RMSPE(yTrue, yPred []float64) float64 {
	n, s := 0, 0.0
	for i := range yTrue {
		if yTrue[i] == 0 {
			continue
		}
		d := (yTrue[i] - yPred[i]) / yTrue[i]
		s += d * d
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(s / float64(n))
}

func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot, ssRes := 0.0, 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Evaluation compares forecasts with known actuals.
type Evaluation struct {
	Rows  int     `json:"rows"`
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
	RMSPE float64 `json:"rmspe"`
	R2    float64 `json:"r2"`
}

// Evaluate computes every metric. yTrue and yPred must have equal length.
func Evaluate(yTrue, yPred []float64) Evaluation {
	return Evaluation{
		Rows:  len(yTrue),
		MAE:   MAE(yTrue, yPred),
		RMSE:  RMSE(yTrue, yPred),
		RMSPE: RMSPE(yTrue, yPred),
		R2:    R2(yTrue, yPred),
	}
}

// Finite reports whether every metric is a finite number.
func (e Evaluation) Finite() bool {
	for _, v := range []float64{e.MAE, e.RMSE, e.RMSPE, e.R2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
