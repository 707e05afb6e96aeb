package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
)

// OutputSuffix is appended to an input key to name its forecast object.
const OutputSuffix = ".forecast.csv"

// ObjectRef names one CSV object to score.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func (o ObjectRef) String() string { return "s3://" + o.Bucket + "/" + o.Key }

type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

type s3Event struct {
	Event   string `json:"Event"`
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseBatchMessage extracts object references from a queue message. It
// accepts {"bucket","key"} bodies, S3 event notifications, and either of
// them wrapped in an SNS envelope. S3 test events yield no references.
func ParseBatchMessage(body string) ([]ObjectRef, error) {
	var env snsEnvelope
	if err := json.Unmarshal([]byte(body), &env); err == nil && env.Message != "" {
		body = env.Message
	}

	var ev s3Event
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return nil, fmt.Errorf("invalid batch message: %w", err)
	}
	if ev.Event == "s3:TestEvent" {
		return nil, nil
	}
	if len(ev.Records) > 0 {
		refs := make([]ObjectRef, 0, len(ev.Records))
		for _, r := range ev.Records {
			key, err := url.QueryUnescape(r.S3.Object.Key)
			if err != nil {
				return nil, fmt.Errorf("invalid object key %q: %w", r.S3.Object.Key, err)
			}
			refs = append(refs, ObjectRef{Bucket: r.S3.Bucket.Name, Key: key})
		}
		return validRefs(refs)
	}

	var ref ObjectRef
	if err := json.Unmarshal([]byte(body), &ref); err != nil {
		return nil, fmt.Errorf("invalid batch message: %w", err)
	}
	return validRefs([]ObjectRef{ref})
}

func validRefs(refs []ObjectRef) ([]ObjectRef, error) {
	for _, r := range refs {
		if r.Bucket == "" || r.Key == "" {
			return nil, errors.New("invalid batch message: bucket and key are required")
		}
	}
	return refs, nil
}

// IsInputError reports whether err was caused by the batch content, so
// retrying the same input cannot succeed.
func IsInputError(err error) bool {
	var pipeErr *pipeline.PipelineError
	if errors.As(err, &pipeErr) {
		return pipeErr.State.UserCorrectable()
	}
	var parseErr *csvtable.ParseError
	return errors.As(err, &parseErr)
}

// SQSBatchConsumer scores CSV objects announced on an SQS queue and writes
// the forecasts next to them, or into OutputBucket when set.
type SQSBatchConsumer struct {
	consumer     *awspkg.SQSConsumer
	store        awspkg.ObjectStore
	svc          ForecastService
	outputBucket string
	metrics      *awspkg.MetricsClient
	logger       *zap.Logger
}

func NewSQSBatchConsumer(consumer *awspkg.SQSConsumer, store awspkg.ObjectStore, svc ForecastService, outputBucket string, metrics *awspkg.MetricsClient, logger *zap.Logger) *SQSBatchConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQSBatchConsumer{
		consumer:     consumer,
		store:        store,
		svc:          svc,
		outputBucket: outputBucket,
		metrics:      metrics,
		logger:       logger,
	}
}

// Start polls until ctx is cancelled.
func (c *SQSBatchConsumer) Start(ctx context.Context) {
	c.logger.Info("Starting SQSBatchConsumer")
	if err := c.consumer.StartPolling(ctx, c.Handle); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("SQS consumer error", zap.Error(err))
	}
}

// Handle processes one message body. Every object it names is attempted.
// The message is retried when any object hit an infrastructure failure, and
// reported as permanent when the only failures are unusable batches.
func (c *SQSBatchConsumer) Handle(ctx context.Context, body string) error {
	refs, err := ParseBatchMessage(body)
	if err != nil {
		c.logger.Warn("Invalid batch message", zap.Error(err))
		return awspkg.Permanent(err)
	}

	var rejected, failed []error
	for _, ref := range refs {
		if strings.HasSuffix(ref.Key, OutputSuffix) {
			c.logger.Debug("Skipping forecast output object", zap.String("object", ref.String()))
			continue
		}
		err := c.scoreObject(ctx, ref)
		switch {
		case err == nil:
		case IsInputError(err):
			c.logger.Warn("Batch rejected", zap.String("object", ref.String()), zap.Error(err))
			rejected = append(rejected, err)
		default:
			c.logger.Error("Batch failed", zap.String("object", ref.String()), zap.Error(err))
			failed = append(failed, err)
		}
	}

	if len(failed) > 0 {
		return errors.Join(append(failed, rejected...)...)
	}
	if len(rejected) > 0 {
		return awspkg.Permanent(errors.Join(rejected...))
	}
	return nil
}

func (c *SQSBatchConsumer) scoreObject(ctx context.Context, ref ObjectRef) error {
	c.recordMessage(ctx)

	data, err := c.store.Get(ctx, ref.Bucket, ref.Key)
	if err != nil {
		return fmt.Errorf("download %s: %w", ref, err)
	}

	out := ObjectRef{Bucket: c.outputBucket, Key: ref.Key + OutputSuffix}
	if out.Bucket == "" {
		out.Bucket = ref.Bucket
	}

	resp, err := c.svc.Forecast(ctx, ForecastInput{
		Source: models.SourceSQS,
		Name:   ref.String(),
		Body:   bytes.NewReader(data),
		Output: out.String(),
	})
	if err != nil {
		return fmt.Errorf("score %s: %w", ref, err)
	}

	var buf bytes.Buffer
	if err := csvtable.WriteResults(&buf, resp.Results); err != nil {
		return fmt.Errorf("encode forecasts for %s: %w", ref, err)
	}
	if err := c.store.Put(ctx, out.Bucket, out.Key, &buf, "text/csv"); err != nil {
		return fmt.Errorf("upload %s: %w", out, err)
	}

	c.logger.Info("Batch scored",
		zap.String("object", ref.String()),
		zap.String("output", out.String()),
		zap.Int("rows", resp.Rows),
	)
	return nil
}

func (c *SQSBatchConsumer) recordMessage(ctx context.Context) {
	if !c.metrics.IsEnabled() {
		return
	}
	_ = c.metrics.RecordCount(ctx, awspkg.MetricSQSMessages, map[string]string{"Service": ServiceName})
}
