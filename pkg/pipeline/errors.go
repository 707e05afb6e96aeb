package pipeline

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns absent from an upload.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// DateParseWarning marks a row whose date could not be parsed. The row is
// still scored; its result carries a null date.
type DateParseWarning struct {
	Row   int `json:"row"`
	Value any `json:"value"`
}

func (w DateParseWarning) String() string {
	return fmt.Sprintf("row %d: unparseable date %v", w.Row, w.Value)
}

// TransformError reports a value the feature transformer cannot coerce.
type TransformError struct {
	Row    int
	Column string
	Value  any
	Reason string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s (value %v)", e.Row, e.Column, e.Reason, e.Value)
}

// PredictionError wraps a predictor failure or a non-finite forecast.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string { return "prediction failed: " + e.Err.Error() }

func (e *PredictionError) Unwrap() error { return e.Err }

// AlignmentError reports a row count mismatch between pipeline stages.
type AlignmentError struct {
	Stage     State
	Records   int
	Forecasts int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("row alignment violated after %s: %d records, %d outputs", e.Stage, e.Records, e.Forecasts)
}

// PipelineError is returned by Run for every failed batch.
type PipelineError struct {
	State State
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
