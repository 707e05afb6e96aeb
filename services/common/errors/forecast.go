package errors

import (
	"context"
	stderrors "errors"
	"math"
	"strconv"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// SchemaDetails is the body detail of a schema rejection.
type SchemaDetails struct {
	MissingColumns []string `json:"missing_columns"`
}

// TransformDetails is the body detail of a transform rejection.
type TransformDetails struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  any    `json:"value"`
	Reason string `json:"reason"`
}

// CSVDetails is the body detail of a CSV parse failure.
type CSVDetails struct {
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}

// FromError maps errors from the scoring stack onto HTTP errors. Input
// problems become 4xx with details; everything else is a 500.
func FromError(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var schemaErr *pipeline.SchemaError
	if stderrors.As(err, &schemaErr) {
		return ErrSchemaMismatch.Wrap(err).WithDetails(SchemaDetails{MissingColumns: schemaErr.Missing})
	}

	var transformErr *pipeline.TransformError
	if stderrors.As(err, &transformErr) {
		return ErrTransformFailed.Wrap(err).WithDetails(TransformDetails{
			Row:    transformErr.Row,
			Column: transformErr.Column,
			Value:  jsonSafe(transformErr.Value),
			Reason: transformErr.Reason,
		})
	}

	var parseErr *csvtable.ParseError
	if stderrors.As(err, &parseErr) {
		if stderrors.Is(err, csvtable.ErrTooManyRows) {
			return ErrTooLarge.Wrap(err).WithMessage("Upload has too many rows")
		}
		return ErrInvalidCSV.Wrap(err).WithDetails(CSVDetails{Line: parseErr.Line, Reason: parseErr.Msg})
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return ErrRequestTimeout.Wrap(err)
	}

	return ErrInternalServer.Wrap(err)
}

// jsonSafe renders non-finite floats as text so the details stay encodable.
func jsonSafe(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v
}
