package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/artifacts"
	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/charts"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/model"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/stats"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/repository"
)

// ErrHistoryDisabled is returned by RecentRuns when no run store is configured.
var ErrHistoryDisabled = errors.New("run history is not configured")

// ForecastInput is one CSV batch to score.
type ForecastInput struct {
	Source string
	Name   string
	Body   io.Reader
	// Output names where the caller will deliver the results, if anywhere.
	Output string
}

// ForecastService scores uploaded batches and serves the exploration views.
type ForecastService interface {
	Forecast(ctx context.Context, in ForecastInput) (*models.ForecastResponse, error)
	Preview(ctx context.Context, r io.Reader, rows int) (*models.PreviewResponse, error)
	Summary(ctx context.Context, r io.Reader) (*stats.Summary, error)
	Chart(ctx context.Context, r io.Reader, w io.Writer, stores int) error
	Model() models.ModelInfo
	RecentRuns(ctx context.Context, limit int) ([]*models.RunRecord, error)
}

// Deps are the collaborators of the forecast service. Runs, Events and
// Metrics are optional.
type Deps struct {
	Bundle  *artifacts.Bundle
	Runs    repository.RunStore
	Events  EventPublisher
	Metrics *awspkg.MetricsClient
	Logger  *zap.Logger
	MaxRows int
}

type forecastServiceImpl struct {
	bundle       *artifacts.Bundle
	orchestrator *pipeline.Orchestrator
	runs         repository.RunStore
	events       EventPublisher
	metrics      *awspkg.MetricsClient
	logger       *zap.Logger
	readOpts     csvtable.Options
}

func NewForecastService(d Deps) (ForecastService, error) {
	if d.Bundle == nil {
		return nil, errors.New("forecast service: artifacts bundle is required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	o, err := d.Bundle.NewOrchestrator(pipeline.WithLogger(d.Logger))
	if err != nil {
		return nil, fmt.Errorf("forecast service: %w", err)
	}
	return &forecastServiceImpl{
		bundle:       d.Bundle,
		orchestrator: o,
		runs:         d.Runs,
		events:       d.Events,
		metrics:      d.Metrics,
		logger:       d.Logger,
		readOpts:     csvtable.Options{MaxRows: d.MaxRows},
	}, nil
}

func (s *forecastServiceImpl) Forecast(ctx context.Context, in ForecastInput) (*models.ForecastResponse, error) {
	start := time.Now()
	run := &models.RunRecord{
		ID:           uuid.New().String(),
		Source:       in.Source,
		Input:        in.Name,
		ModelVersion: s.bundle.Manifest.Version,
		CreatedAt:    start.UTC(),
	}
	ctx = pipeline.ContextWithLogFields(ctx,
		zap.String("batch_id", run.ID),
		zap.String("source", in.Source),
		zap.String("input", in.Name),
	)

	table, err := csvtable.Read(in.Body, s.readOpts)
	if err != nil {
		s.finish(ctx, run, start, nil, err)
		return nil, err
	}

	res, err := s.orchestrator.Run(ctx, table)
	if err != nil {
		s.finish(ctx, run, start, nil, err)
		return nil, err
	}
	run.Output = in.Output
	s.finish(ctx, run, start, res, nil)

	return &models.ForecastResponse{
		BatchID:      run.ID,
		ModelVersion: run.ModelVersion,
		Rows:         len(res.Records),
		Results:      res.Records,
		Warnings:     res.Warnings,
		Evaluation:   evaluate(table, res.Records),
		DurationMs:   run.DurationMs,
	}, nil
}

// evaluate compares forecasts with the Sales column when the batch carries
// actuals. Rows without a numeric Sales value are left out, and metrics that
// overflow are dropped.
func evaluate(t *pipeline.Table, records []pipeline.ResultRecord) *model.Evaluation {
	var actual, predicted []float64
	for i, rec := range t.Records {
		var y float64
		switch v := rec["Sales"].(type) {
		case int64:
			y = float64(v)
		case float64:
			y = v
		default:
			continue
		}
		actual = append(actual, y)
		predicted = append(predicted, records[i].ExpectedSales)
	}
	if len(actual) == 0 {
		return nil
	}
	ev := model.Evaluate(actual, predicted)
	if !ev.Finite() {
		return nil
	}
	return &ev
}

// finish classifies the outcome, then records metrics, history and the
// event. None of these can fail the batch.
func (s *forecastServiceImpl) finish(ctx context.Context, run *models.RunRecord, start time.Time, res *pipeline.Result, err error) {
	run.DurationMs = time.Since(start).Milliseconds()

	var pipeErr *pipeline.PipelineError
	var parseErr *csvtable.ParseError
	switch {
	case err == nil:
		run.Status = models.RunSucceeded
		run.State = res.State
		run.Rows = len(res.Records)
		run.Warnings = len(res.Warnings)
	case errors.As(err, &pipeErr):
		run.State = pipeErr.State
		run.Error = err.Error()
		run.Status = models.RunFailed
		if pipeErr.State.UserCorrectable() {
			run.Status = models.RunRejected
		}
	case errors.As(err, &parseErr):
		run.Status = models.RunRejected
		run.Error = err.Error()
	default:
		run.Status = models.RunFailed
		run.Error = err.Error()
	}

	s.recordMetrics(run)

	// History and events outlive a cancelled request.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if s.runs != nil {
		if err := s.runs.Put(bg, run); err != nil {
			s.logger.Warn("Failed to record forecast run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishForecastEvent(bg, models.NewForecastEvent(run)); err != nil {
			s.logger.Warn("Failed to publish forecast event", zap.String("run_id", run.ID), zap.Error(err))
			if s.metrics.IsEnabled() {
				_ = s.metrics.RecordCount(bg, awspkg.MetricEventsDropped, map[string]string{"Service": ServiceName})
			}
		}
	}
}

func (s *forecastServiceImpl) recordMetrics(run *models.RunRecord) {
	if !s.metrics.IsEnabled() {
		return
	}
	dims := map[string]string{
		"Service": ServiceName,
		"Source":  run.Source,
		"Model":   run.ModelVersion,
	}
	latency := time.Duration(run.DurationMs) * time.Millisecond

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		switch run.Status {
		case models.RunSucceeded:
			_ = s.metrics.RecordCount(ctx, awspkg.MetricBatchesScored, dims)
			_ = s.metrics.RecordValue(ctx, awspkg.MetricRowsScored, float64(run.Rows), dims)
			_ = s.metrics.RecordValue(ctx, awspkg.MetricDateWarnings, float64(run.Warnings), dims)
			_ = s.metrics.RecordLatency(ctx, awspkg.MetricScoringLatency, latency, dims)
		case models.RunRejected:
			_ = s.metrics.RecordCount(ctx, awspkg.MetricBatchesRejected, dims)
		default:
			_ = s.metrics.RecordCount(ctx, awspkg.MetricBatchesFailed, dims)
		}
	}()
}

func (s *forecastServiceImpl) Preview(_ context.Context, r io.Reader, rows int) (*models.PreviewResponse, error) {
	table, err := csvtable.Read(r, s.readOpts)
	if err != nil {
		return nil, err
	}
	missing := pipeline.MissingColumns(table.Columns)
	if missing == nil {
		missing = []string{}
	}
	return &models.PreviewResponse{
		PreviewTable:   csvtable.Preview(table, rows),
		MissingColumns: missing,
	}, nil
}

func (s *forecastServiceImpl) Summary(_ context.Context, r io.Reader) (*stats.Summary, error) {
	table, err := csvtable.Read(r, s.readOpts)
	if err != nil {
		return nil, err
	}
	sum := stats.Summarize(table)
	return &sum, nil
}

// Chart scores the batch and draws expected sales over time as PNG. The
// batch is not recorded as a run.
func (s *forecastServiceImpl) Chart(ctx context.Context, r io.Reader, w io.Writer, stores int) error {
	table, err := csvtable.Read(r, s.readOpts)
	if err != nil {
		return err
	}
	res, err := s.orchestrator.Run(ctx, table)
	if err != nil {
		return err
	}
	return charts.ForecastChart(w, res.Records, charts.Options{MaxStores: stores})
}

func (s *forecastServiceImpl) Model() models.ModelInfo {
	return models.ModelInfo{
		Manifest:       s.bundle.Manifest,
		Features:       s.bundle.Transformer.FeatureNames(),
		RequiredSchema: pipeline.RequiredSchema(),
	}
}

func (s *forecastServiceImpl) RecentRuns(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.List(ctx, limit)
}
