package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
)

func TestForecast_ScoresRecordsAndPublishes(t *testing.T) {
	svc, runs, events := newService(t)

	resp, err := svc.Forecast(context.Background(), ForecastInput{Source: models.SourceHTTP, Name: "train.csv", Body: reader(scenarioCSV)})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, "2015.07-linear", resp.ModelVersion)
	require.Equal(t, 2, resp.Rows)
	assert.Equal(t, int64(1), resp.Results[0].Store)
	assert.Equal(t, int64(2), resp.Results[1].Store)
	assert.InDelta(t, 5656.8006, resp.Results[0].ExpectedSales, 1e-3)
	assert.Empty(t, resp.Warnings)
	require.NotNil(t, resp.Evaluation)
	assert.Equal(t, 2, resp.Evaluation.Rows)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.Equal(t, resp.BatchID, run.ID)
	assert.Equal(t, models.RunSucceeded, run.Status)
	assert.Equal(t, pipeline.StateDone, run.State)
	assert.Equal(t, 2, run.Rows)
	assert.Equal(t, "train.csv", run.Input)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventForecastCompleted, events.events[0].EventType)
	assert.Equal(t, resp.BatchID, events.events[0].RunID)
}

func TestForecast_NoSalesColumnSkipsEvaluation(t *testing.T) {
	svc, _, _ := newService(t)
	csv := "Store,DayOfWeek,Date,Customers,Open,Promo,StateHoliday,SchoolHoliday,StoreType,Assortment,CompetitionDistance,CompetitionOpenSinceMonth,CompetitionOpenSinceYear,Promo2,Promo2SinceWeek,Promo2SinceYear,PromoInterval\n" +
		"1,5,2015-07-31,555,1,1,0,1,c,a,1270,9,2008,0,,,\n"

	resp, err := svc.Forecast(context.Background(), ForecastInput{Source: models.SourceHTTP, Body: reader(csv)})
	require.NoError(t, err)
	assert.Nil(t, resp.Evaluation)
	assert.InDelta(t, 5656.8006, resp.Results[0].ExpectedSales, 1e-3)
}

func TestForecast_OverflowingActualsSkipEvaluation(t *testing.T) {
	svc, runs, _ := newService(t)
	csv := header + "1,5,2015-07-31,1e308,555,1,1,0,1,c,a,1270,9,2008,0,,,\n"

	resp, err := svc.Forecast(context.Background(), ForecastInput{Source: models.SourceHTTP, Body: reader(csv)})
	require.NoError(t, err)
	assert.Nil(t, resp.Evaluation)
	assert.InDelta(t, 5656.8006, resp.Results[0].ExpectedSales, 1e-3)
	assert.Equal(t, models.RunSucceeded, runs.runs[0].Status)

	_, err = json.Marshal(resp)
	require.NoError(t, err)
}

func TestForecast_RejectionsAreRecorded(t *testing.T) {
	tests := []struct {
		name  string
		csv   string
		state pipeline.State
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing column",
			csv:   missingPromoCSV,
			state: pipeline.StateRejectedAtSchema,
			check: func(t *testing.T, err error) {
				var schemaErr *pipeline.SchemaError
				require.ErrorAs(t, err, &schemaErr)
				assert.Equal(t, []string{"Promo"}, schemaErr.Missing)
			},
		},
		{
			name:  "unknown category",
			csv:   unknownStoreTypeCSV,
			state: pipeline.StateRejectedAtTransform,
			check: func(t *testing.T, err error) {
				var transformErr *pipeline.TransformError
				require.ErrorAs(t, err, &transformErr)
				assert.Equal(t, "StoreType", transformErr.Column)
				assert.Equal(t, 0, transformErr.Row)
			},
		},
		{
			name:  "infinite number",
			csv:   header + "1,5,2015-07-31,5263,555,1,1,0,1,c,a,Infinity,9,2008,0,,,\n",
			state: pipeline.StateRejectedAtTransform,
			check: func(t *testing.T, err error) {
				var transformErr *pipeline.TransformError
				require.ErrorAs(t, err, &transformErr)
				assert.Equal(t, "CompetitionDistance", transformErr.Column)
			},
		},
		{
			name:  "overflowing number",
			csv:   header + "1,5,2015-07-31,5263,555,1,1,0,1,c,a,1e400,9,2008,0,,,\n",
			state: pipeline.StateRejectedAtTransform,
			check: func(t *testing.T, err error) {
				var transformErr *pipeline.TransformError
				require.ErrorAs(t, err, &transformErr)
				assert.Equal(t, "CompetitionDistance", transformErr.Column)
			},
		},
		{
			name: "invalid csv",
			csv:  "A,B\n1\n",
			check: func(t *testing.T, err error) {
				var parseErr *csvtable.ParseError
				require.ErrorAs(t, err, &parseErr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, runs, events := newService(t)
			resp, err := svc.Forecast(context.Background(), ForecastInput{Source: models.SourceHTTP, Body: reader(tt.csv)})
			assert.Nil(t, resp)
			tt.check(t, err)
			assert.True(t, IsInputError(err))

			require.Len(t, runs.runs, 1)
			assert.Equal(t, models.RunRejected, runs.runs[0].Status)
			assert.Equal(t, tt.state, runs.runs[0].State)
			assert.NotEmpty(t, runs.runs[0].Error)

			require.Len(t, events.events, 1)
			assert.Equal(t, models.EventForecastFailed, events.events[0].EventType)
		})
	}
}

func TestForecast_CancelledContextIsFailure(t *testing.T) {
	svc, runs, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Forecast(ctx, ForecastInput{Source: models.SourceHTTP, Body: reader(scenarioCSV)})
	require.Error(t, err)
	assert.False(t, IsInputError(err))
	require.Len(t, runs.runs, 1, "history is written even when the request is gone")
	assert.Equal(t, models.RunFailed, runs.runs[0].Status)
	assert.Equal(t, pipeline.StateCancelled, runs.runs[0].State)
}

func TestForecast_HistoryFailureDoesNotFailBatch(t *testing.T) {
	runs := &fakeRunStore{err: errors.New("table missing")}
	svc, err := NewForecastService(Deps{Bundle: loadBundle(t), Runs: runs})
	require.NoError(t, err)

	resp, err := svc.Forecast(context.Background(), ForecastInput{Source: models.SourceHTTP, Body: reader(scenarioCSV)})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Rows)
}

func TestPreview(t *testing.T) {
	svc, _, _ := newService(t)

	p, err := svc.Preview(context.Background(), reader(missingPromoCSV), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalRows)
	assert.Equal(t, []string{"Promo"}, p.MissingColumns)

	p, err = svc.Preview(context.Background(), reader(scenarioCSV), 1)
	require.NoError(t, err)
	assert.Len(t, p.Rows, 1)
	assert.NotNil(t, p.MissingColumns)
	assert.Empty(t, p.MissingColumns)
}

func TestSummary(t *testing.T) {
	svc, _, _ := newService(t)
	sum, err := svc.Summary(context.Background(), reader(scenarioCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rows)
	assert.Empty(t, sum.MissingRequired)
}

func TestChart(t *testing.T) {
	svc, runs, _ := newService(t)
	var buf bytes.Buffer
	require.NoError(t, svc.Chart(context.Background(), reader(scenarioCSV), &buf, 5))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	assert.Empty(t, runs.runs)
}

func TestModelInfo(t *testing.T) {
	svc, _, _ := newService(t)
	info := svc.Model()
	assert.Equal(t, "rossmann-daily-sales", info.Name)
	assert.Len(t, info.Features, 31)
	assert.Equal(t, pipeline.RequiredSchema(), info.RequiredSchema)
}

func TestRecentRuns(t *testing.T) {
	svc, err := NewForecastService(Deps{Bundle: loadBundle(t)})
	require.NoError(t, err)
	_, err = svc.RecentRuns(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	svc, runs, _ := newService(t)
	_, err = svc.Forecast(context.Background(), ForecastInput{Source: models.SourceHTTP, Body: reader(scenarioCSV)})
	require.NoError(t, err)
	got, err := svc.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, runs.runs, got)
}

func TestNewForecastService_RequiresBundle(t *testing.T) {
	_, err := NewForecastService(Deps{})
	assert.Error(t, err)
}
