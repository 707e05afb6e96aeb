package models

import (
	"time"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// Run outcomes.
const (
	RunSucceeded = "succeeded"
	RunRejected  = "rejected"
	RunFailed    = "failed"
)

// Event types published for every batch.
const (
	EventForecastCompleted = "forecast.completed"
	EventForecastFailed    = "forecast.failed"
)

// RunRecord is the history entry of one scored or refused batch.
type RunRecord struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Input        string         `json:"input,omitempty"`
	Output       string         `json:"output,omitempty"`
	Status       string         `json:"status"`
	State        pipeline.State `json:"state,omitempty"`
	Rows         int            `json:"rows"`
	Warnings     int            `json:"warnings"`
	Error        string         `json:"error,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	ModelVersion string         `json:"model_version"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ForecastEvent is the SNS payload describing a finished run.
type ForecastEvent struct {
	EventType    string    `json:"event_type"`
	RunID        string    `json:"run_id"`
	Source       string    `json:"source"`
	Input        string    `json:"input,omitempty"`
	Status       string    `json:"status"`
	State        string    `json:"state,omitempty"`
	Rows         int       `json:"rows"`
	Warnings     int       `json:"warnings"`
	ModelVersion string    `json:"model_version"`
	Error        string    `json:"error,omitempty"`
	Output       string    `json:"output,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewForecastEvent derives the event for a finished run.
func NewForecastEvent(run *RunRecord) ForecastEvent {
	eventType := EventForecastCompleted
	if run.Status != RunSucceeded {
		eventType = EventForecastFailed
	}
	return ForecastEvent{
		EventType:    eventType,
		RunID:        run.ID,
		Source:       run.Source,
		Input:        run.Input,
		Status:       run.Status,
		State:        string(run.State),
		Rows:         run.Rows,
		Warnings:     run.Warnings,
		ModelVersion: run.ModelVersion,
		Error:        run.Error,
		Output:       run.Output,
		Timestamp:    time.Now().UTC(),
	}
}
