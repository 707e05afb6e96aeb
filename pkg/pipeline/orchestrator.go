package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// FeatureTransformer maps a normalized table to model features. Fitted
// parameters are loaded once and only read afterwards.
type FeatureTransformer interface {
	Transform(t *NormalizedTable) (FeatureMatrix, error)
}

// Predictor maps features to one forecast per row.
type Predictor interface {
	Predict(m FeatureMatrix) (ForecastVector, error)
}

// Orchestrator runs the batch scoring pipeline. It holds no mutable state and
// is safe for concurrent use.
type Orchestrator struct {
	transformer FeatureTransformer
	predictor   Predictor
	logger      *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for stage diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator binds the fitted collaborators. Both are required.
func NewOrchestrator(t FeatureTransformer, p Predictor, opts ...Option) (*Orchestrator, error) {
	if t == nil {
		return nil, errors.New("pipeline: feature transformer is required")
	}
	if p == nil {
		return nil, errors.New("pipeline: predictor is required")
	}
	o := &Orchestrator{transformer: t, predictor: p, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type logFieldsKey struct{}

// ContextWithLogFields attaches fields that Run adds to every log line.
func ContextWithLogFields(ctx context.Context, fields ...zap.Field) context.Context {
	prev, _ := ctx.Value(logFieldsKey{}).([]zap.Field)
	all := make([]zap.Field, 0, len(prev)+len(fields))
	all = append(all, prev...)
	all = append(all, fields...)
	return context.WithValue(ctx, logFieldsKey{}, all)
}

func (o *Orchestrator) loggerFor(ctx context.Context) *zap.Logger {
	if fields, ok := ctx.Value(logFieldsKey{}).([]zap.Field); ok && len(fields) > 0 {
		return o.logger.With(fields...)
	}
	return o.logger
}

// Run scores one batch. It returns either every row's result in input order
// or a *PipelineError; never a partial result.
func (o *Orchestrator) Run(ctx context.Context, raw *Table) (*Result, error) {
	log := o.loggerFor(ctx)
	start := time.Now()
	state := StateReceived

	fail := func(next State, err error) (*Result, error) {
		switch next {
		case StateRejectedAtSchema, StateRejectedAtTransform:
			log.Warn("batch rejected", zap.String("state", string(next)), zap.Error(err))
		case StateCancelled:
			log.Info("batch cancelled", zap.String("after", string(state)), zap.Error(err))
		default:
			log.Error("batch failed", zap.String("state", string(next)), zap.String("after", string(state)), zap.Error(err))
		}
		return nil, &PipelineError{State: next, Err: err}
	}

	validated, err := Validate(raw)
	if err != nil {
		return fail(StateRejectedAtSchema, err)
	}
	state = StateValidated

	normalized, warnings := NormalizeDates(validated)
	state = StateNormalized
	if len(warnings) > 0 {
		log.Debug("unparseable dates", zap.Int("count", len(warnings)))
	}

	if err := ctx.Err(); err != nil {
		return fail(StateCancelled, err)
	}
	features, err := o.transformer.Transform(normalized)
	if err != nil {
		return fail(StateRejectedAtTransform, err)
	}
	if len(features) != normalized.Len() {
		return fail(StateFailedAtAssembly, &AlignmentError{Stage: StateTransformed, Records: normalized.Len(), Forecasts: len(features)})
	}
	state = StateTransformed

	if err := ctx.Err(); err != nil {
		return fail(StateCancelled, err)
	}
	forecasts, err := o.predictor.Predict(features)
	if err != nil {
		var pe *PredictionError
		if !errors.As(err, &pe) {
			err = &PredictionError{Err: err}
		}
		return fail(StateFailedAtPredict, err)
	}
	if err := checkFinite(forecasts); err != nil {
		return fail(StateFailedAtPredict, err)
	}
	state = StatePredicted

	records, err := Assemble(normalized, forecasts)
	if err != nil {
		return fail(StateFailedAtAssembly, err)
	}

	log.Debug("batch scored",
		zap.Int("rows", len(records)),
		zap.Int("date_warnings", len(warnings)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Result{Records: records, Warnings: warnings, State: StateDone}, nil
}

// checkFinite rejects a forecast vector holding NaN or an infinity.
func checkFinite(forecasts ForecastVector) error {
	for i, f := range forecasts {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &PredictionError{Err: fmt.Errorf("row %d: non-finite forecast %v", i, f)}
		}
	}
	return nil
}
