package pipeline_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

func TestRequiredSchemaIsACopy(t *testing.T) {
	s := pipeline.RequiredSchema()
	require.Len(t, s, 18)
	s[0] = "changed"
	assert.Equal(t, "Store", pipeline.RequiredSchema()[0])
}

func TestValidate_ReordersAndRestricts(t *testing.T) {
	cols := pipeline.RequiredSchema()
	reversed := make([]string, 0, len(cols)+1)
	for i := len(cols) - 1; i >= 0; i-- {
		reversed = append(reversed, cols[i])
	}
	reversed = append(reversed, "Customer Notes")

	rec := scenarioRecord()
	rec["Customer Notes"] = "drop me"

	v, err := pipeline.Validate(&pipeline.Table{Columns: reversed, Records: []pipeline.Record{rec}})
	require.NoError(t, err)
	assert.Equal(t, pipeline.RequiredSchema(), v.Columns)
	require.Len(t, v.Records, 1)
	assert.NotContains(t, v.Records[0], "Customer Notes")
	assert.Len(t, v.Records[0], 18)
	assert.Equal(t, int64(1), v.Records[0]["Store"])
}

func TestValidate_ZeroRowsOK(t *testing.T) {
	v, err := pipeline.Validate(&pipeline.Table{Columns: pipeline.RequiredSchema()})
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
}

func TestValidate_SchemaErrorMessage(t *testing.T) {
	_, err := pipeline.Validate(&pipeline.Table{Columns: []string{"Store", "Date"}})
	var se *pipeline.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Len(t, se.Missing, 16)
	assert.Contains(t, err.Error(), "DayOfWeek")
	assert.NotContains(t, se.Missing, "Store")
	assert.NotContains(t, se.Missing, "Date")
}

func TestParseDate(t *testing.T) {
	want := time.Date(2015, 7, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		in    any
		ok    bool
		wantT time.Time
	}{
		{"iso date", "2015-07-31", true, want},
		{"padded", "  2015-07-31 ", true, want},
		{"rfc3339", "2015-07-31T18:20:00+02:00", true, want},
		{"datetime", "2015-07-31 23:59:59", true, want},
		{"time value", time.Date(2015, 7, 31, 14, 0, 0, 0, time.UTC), true, want},
		{"day first", "31/07/2015", false, time.Time{}},
		{"garbage", "not-a-date", false, time.Time{}},
		{"invalid day", "2015-02-30", false, time.Time{}},
		{"number", int64(20150731), false, time.Time{}},
		{"missing", nil, false, time.Time{}},
		{"empty", "", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pipeline.ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.wantT.Equal(got), "got %s", got)
			}
		})
	}
}

func TestNormalizeDates_WarnsOnlyForUnparseable(t *testing.T) {
	v, err := pipeline.Validate(tableOf(3))
	require.NoError(t, err)
	v.Records[0]["Date"] = nil
	v.Records[2]["Date"] = "07/31/2015"

	n, warnings := pipeline.NormalizeDates(v)
	require.Equal(t, 3, n.Len())
	assert.Nil(t, n.Date(0))
	assert.NotNil(t, n.Date(1))
	assert.Nil(t, n.Date(2))

	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Row)
	assert.Equal(t, "07/31/2015", v.Records[2]["Date"], "validated table must not be mutated")
}

func TestAssemble_RequiresAlignment(t *testing.T) {
	v, err := pipeline.Validate(tableOf(2))
	require.NoError(t, err)
	n, _ := pipeline.NormalizeDates(v)

	_, err = pipeline.Assemble(n, pipeline.ForecastVector{1})
	var ae *pipeline.AlignmentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 2, ae.Records)
	assert.Equal(t, 1, ae.Forecasts)

	out, err := pipeline.Assemble(n, pipeline.ForecastVector{10, 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out[0].Store)
	assert.Equal(t, 20.0, out[1].ExpectedSales)
}

func TestResultRecordJSON(t *testing.T) {
	d := time.Date(2015, 7, 31, 0, 0, 0, 0, time.UTC)
	b, err := json.Marshal([]pipeline.ResultRecord{
		{Store: int64(1), Date: &d, ExpectedSales: 5263.5},
		{Store: int64(2), Date: nil, ExpectedSales: 10},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"store":1,"date":"2015-07-31","expected_sales":5263.5},
		{"store":2,"date":null,"expected_sales":10}
	]`, string(b))
}

func TestStateClassification(t *testing.T) {
	assert.True(t, pipeline.StateDone.Terminal())
	assert.False(t, pipeline.StateNormalized.Terminal())
	assert.True(t, pipeline.StateRejectedAtTransform.UserCorrectable())
	assert.False(t, pipeline.StateFailedAtPredict.UserCorrectable())
}
