package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/charts"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	apperrors "github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/errors"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/logger"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/repository"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/services"
)

// DefaultContextTimeout bounds one scoring request.
const DefaultContextTimeout = 30 * time.Second

// JobQueue accepts uploads for background scoring.
type JobQueue interface {
	Submit(ctx context.Context, name string, r io.Reader) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
}

// ForecastController serves the forecast endpoints. jobs may be nil, in
// which case async scoring is unavailable.
type ForecastController struct {
	svc       services.ForecastService
	jobs      JobQueue
	validator *FileValidator
	timeout   time.Duration
}

func NewForecastController(svc services.ForecastService, jobs JobQueue, validator *FileValidator, timeout time.Duration) *ForecastController {
	if timeout <= 0 {
		timeout = DefaultContextTimeout
	}
	if validator == nil {
		validator = NewFileValidator(0)
	}
	return &ForecastController{svc: svc, jobs: jobs, validator: validator, timeout: timeout}
}

func bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		apperrors.Respond(c, apperrors.ErrBadRequest.Wrap(err).
			WithMessage("Invalid query parameters").
			WithDetails(gin.H{"error": err.Error()}))
		return false
	}
	return true
}

// Forecast scores an uploaded CSV, or queues it when async=true.
func (fc *ForecastController) Forecast(c *gin.Context) {
	var q models.ForecastQuery
	if !bindQuery(c, &q) {
		return
	}
	f, header, err := fc.validator.OpenUpload(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	defer f.Close()

	if q.Async {
		fc.enqueue(c, header.Filename, f)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), fc.timeout)
	defer cancel()

	resp, err := fc.svc.Forecast(ctx, services.ForecastInput{
		Source: models.SourceHTTP,
		Name:   header.Filename,
		Body:   f,
	})
	if err != nil {
		fc.fail(c, "Forecast failed", err)
		return
	}

	c.Header("X-Batch-ID", resp.BatchID)
	if q.Format == "csv" {
		var buf bytes.Buffer
		if err := csvtable.WriteResults(&buf, resp.Results); err != nil {
			fc.fail(c, "Failed to encode forecast", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="forecast.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (fc *ForecastController) enqueue(c *gin.Context, name string, f io.Reader) {
	if fc.jobs == nil {
		apperrors.Respond(c, apperrors.ErrServiceUnavailable.WithMessage("Async forecasting is not available"))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), fc.timeout)
	defer cancel()

	job, err := fc.jobs.Submit(ctx, name, f)
	if err != nil {
		fc.fail(c, "Failed to enqueue forecast job", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "Forecast queued for processing",
	})
}

// GetJob returns the status or result of an async forecast.
func (fc *ForecastController) GetJob(c *gin.Context) {
	if fc.jobs == nil {
		apperrors.Respond(c, apperrors.ErrServiceUnavailable.WithMessage("Async forecasting is not available"))
		return
	}
	id := strings.TrimSpace(c.Param("id"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	job, err := fc.jobs.Get(ctx, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		apperrors.Respond(c, apperrors.ErrJobNotFound)
		return
	}
	if err != nil {
		fc.fail(c, "Failed to get job status", err)
		return
	}
	c.JSON(http.StatusOK, job.Public())
}

// Preview returns the first rows of an upload and its missing columns.
func (fc *ForecastController) Preview(c *gin.Context) {
	var q models.PreviewQuery
	if !bindQuery(c, &q) {
		return
	}
	f, _, err := fc.validator.OpenUpload(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	defer f.Close()

	preview, err := fc.svc.Preview(c.Request.Context(), f, q.Rows)
	if err != nil {
		fc.fail(c, "Preview failed", err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Summary returns per-column statistics of an upload.
func (fc *ForecastController) Summary(c *gin.Context) {
	f, _, err := fc.validator.OpenUpload(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	defer f.Close()

	summary, err := fc.svc.Summary(c.Request.Context(), f)
	if err != nil {
		fc.fail(c, "Summary failed", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Chart scores an upload and returns a PNG line chart per store.
func (fc *ForecastController) Chart(c *gin.Context) {
	var q models.ChartQuery
	if !bindQuery(c, &q) {
		return
	}
	f, _, err := fc.validator.OpenUpload(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), fc.timeout)
	defer cancel()

	var buf bytes.Buffer
	err = fc.svc.Chart(ctx, f, &buf, q.Stores)
	if errors.Is(err, charts.ErrNoData) {
		apperrors.Respond(c, apperrors.ErrNoChartData)
		return
	}
	if err != nil {
		fc.fail(c, "Chart failed", err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// Runs lists recent forecast runs.
func (fc *ForecastController) Runs(c *gin.Context) {
	var q models.RunsQuery
	if !bindQuery(c, &q) {
		return
	}
	runs, err := fc.svc.RecentRuns(c.Request.Context(), q.Limit)
	if errors.Is(err, services.ErrHistoryDisabled) {
		apperrors.Respond(c, apperrors.ErrServiceUnavailable.WithMessage("Run history is not configured"))
		return
	}
	if err != nil {
		fc.fail(c, "Failed to list runs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// Model describes the loaded artifacts.
func (fc *ForecastController) Model(c *gin.Context) {
	c.JSON(http.StatusOK, fc.svc.Model())
}

// Health reports liveness and the model in use.
func (fc *ForecastController) Health(c *gin.Context) {
	info := fc.svc.Model()
	c.JSON(http.StatusOK, gin.H{
		"status":        "OK",
		"model":         info.Name,
		"model_version": info.Version,
	})
}

// fail maps err onto an HTTP error. Server-side failures are logged with
// the request id; input problems are the client's to fix.
func (fc *ForecastController) fail(c *gin.Context, msg string, err error) {
	appErr := apperrors.FromError(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, err)
	} else {
		logger.Debug(c.Request.Context(), msg, zap.Error(err))
	}
	apperrors.Respond(c, appErr)
}
