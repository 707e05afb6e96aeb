package models

import (
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/artifacts"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/model"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// Sources a batch can arrive from.
const (
	SourceHTTP = "http"
	SourceJob  = "job"
	SourceSQS  = "sqs"
)

// ForecastResponse is the body of a scored batch.
type ForecastResponse struct {
	BatchID      string                      `json:"batch_id"`
	ModelVersion string                      `json:"model_version"`
	Rows         int                         `json:"rows"`
	Results      []pipeline.ResultRecord     `json:"results"`
	Warnings     []pipeline.DateParseWarning `json:"warnings,omitempty"`
	Evaluation   *model.Evaluation           `json:"evaluation,omitempty"`
	DurationMs   int64                       `json:"duration_ms"`
}

// PreviewResponse shows the head of an upload and which required columns
// it lacks.
type PreviewResponse struct {
	csvtable.PreviewTable
	MissingColumns []string `json:"missing_columns"`
}

// ModelInfo describes the loaded artifacts.
type ModelInfo struct {
	artifacts.Manifest
	Features       []string `json:"features"`
	RequiredSchema []string `json:"required_schema"`
}

// ForecastQuery holds POST /forecast query parameters.
type ForecastQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=json csv"`
	Async  bool   `form:"async"`
}

// PreviewQuery holds POST /forecast/preview query parameters.
type PreviewQuery struct {
	Rows int `form:"rows,default=5" binding:"min=1,max=100"`
}

// ChartQuery holds POST /forecast/chart query parameters.
type ChartQuery struct {
	Stores int `form:"stores,default=5" binding:"min=1,max=20"`
}

// RunsQuery holds GET /forecast/runs query parameters.
type RunsQuery struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}
