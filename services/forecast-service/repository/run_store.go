package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
)

// RunStore keeps the history of scored batches.
type RunStore interface {
	Put(ctx context.Context, run *models.RunRecord) error
	List(ctx context.Context, limit int) ([]*models.RunRecord, error)
}

// DynamoAPI is the subset of the DynamoDB client used for run history.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRunAdapter stores runs in a table keyed by `run_id` (string).
type DynamoRunAdapter struct {
	client DynamoAPI
	table  string
}

func NewDynamoRunAdapter(client DynamoAPI, table string) *DynamoRunAdapter {
	return &DynamoRunAdapter{client: client, table: table}
}

type ddbRun struct {
	RunID        string  `dynamodbav:"run_id"`
	Source       string  `dynamodbav:"source"`
	Input        *string `dynamodbav:"input,omitempty"`
	Output       *string `dynamodbav:"output,omitempty"`
	Status       string  `dynamodbav:"status"`
	State        string  `dynamodbav:"state,omitempty"`
	Rows         int     `dynamodbav:"rows"`
	Warnings     int     `dynamodbav:"warnings"`
	Error        *string `dynamodbav:"error,omitempty"`
	DurationMs   int64   `dynamodbav:"duration_ms"`
	ModelVersion string  `dynamodbav:"model_version"`
	CreatedAt    string  `dynamodbav:"created_at"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (d *DynamoRunAdapter) Put(ctx context.Context, run *models.RunRecord) error {
	item, err := attributevalue.MarshalMap(ddbRun{
		RunID:        run.ID,
		Source:       run.Source,
		Input:        optional(run.Input),
		Output:       optional(run.Output),
		Status:       run.Status,
		State:        string(run.State),
		Rows:         run.Rows,
		Warnings:     run.Warnings,
		Error:        optional(run.Error),
		DurationMs:   run.DurationMs,
		ModelVersion: run.ModelVersion,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(d.table), Item: item}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (d *DynamoRunAdapter) List(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	var runs []*models.RunRecord
	p := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: aws.String(d.table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb Scan failed: %w", err)
		}
		var items []ddbRun
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal runs: %w", err)
		}
		for _, it := range items {
			runs = append(runs, fromDDB(it))
		}
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	return runs, nil
}

func fromDDB(it ddbRun) *models.RunRecord {
	created, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	return &models.RunRecord{
		ID:           it.RunID,
		Source:       it.Source,
		Input:        deref(it.Input),
		Output:       deref(it.Output),
		Status:       it.Status,
		State:        pipeline.State(it.State),
		Rows:         it.Rows,
		Warnings:     it.Warnings,
		Error:        deref(it.Error),
		DurationMs:   it.DurationMs,
		ModelVersion: it.ModelVersion,
		CreatedAt:    created,
	}
}
