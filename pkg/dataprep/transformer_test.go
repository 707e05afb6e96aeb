package dataprep

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

func normalized(t *testing.T, rows ...pipeline.Record) *pipeline.NormalizedTable {
	t.Helper()
	v, err := pipeline.Validate(&pipeline.Table{Columns: pipeline.RequiredSchema(), Records: rows})
	require.NoError(t, err)
	n, _ := pipeline.NormalizeDates(v)
	return n
}

func row(overrides map[string]any) pipeline.Record {
	r := pipeline.Record{
		"Store": int64(1), "DayOfWeek": int64(5), "Date": "2015-07-31",
		"Sales": int64(5263), "Customers": int64(555), "Open": int64(1),
		"Promo": int64(1), "StateHoliday": "0", "SchoolHoliday": int64(1),
		"StoreType": "c", "Assortment": "a", "CompetitionDistance": int64(1270),
		"CompetitionOpenSinceMonth": int64(9), "CompetitionOpenSinceYear": int64(2008),
		"Promo2": int64(0), "Promo2SinceWeek": nil, "Promo2SinceYear": nil,
		"PromoInterval": nil,
	}
	for k, v := range overrides {
		r[k] = v
	}
	return r
}

func testTransformer(t *testing.T, unknown string) *ColumnTransformer {
	t.Helper()
	ct, err := New(
		ColumnSpec{Name: "CompetitionDistance", Kind: KindNumeric, Fill: 2000, Mean: 1000, Std: 500, Scale: true},
		ColumnSpec{Name: "Promo2SinceWeek", Kind: KindNumeric, Fill: 0},
		ColumnSpec{Name: "StateHoliday", Kind: KindCategorical, Categories: []string{"0", "a", "b", "c"}, FillCategory: "0", HandleUnknown: unknown},
		ColumnSpec{Name: "StoreType", Kind: KindCategorical, Categories: []string{"a", "b", "c", "d"}, HandleUnknown: unknown},
		ColumnSpec{Name: "Date", Kind: KindDate, DateFill: []float64{2014, 6, 15, 24, 166}},
	)
	require.NoError(t, err)
	return ct
}

func TestFeatureNames(t *testing.T) {
	ct := testTransformer(t, "")
	assert.Equal(t, []string{
		"CompetitionDistance", "Promo2SinceWeek",
		"StateHoliday_0", "StateHoliday_a", "StateHoliday_b", "StateHoliday_c",
		"StoreType_a", "StoreType_b", "StoreType_c", "StoreType_d",
		"DateYear", "DateMonth", "DateDay", "DateWeekOfYear", "DateDayOfYear",
	}, ct.FeatureNames())
	assert.Equal(t, 15, ct.Width())
}

func TestTransform_EncodesScenarioRow(t *testing.T) {
	ct := testTransformer(t, "")
	m, err := ct.Transform(normalized(t, row(nil)))
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, []float64{
		0.54, 0,
		1, 0, 0, 0,
		0, 0, 1, 0,
		2015, 7, 31, 31, 212,
	}, m[0])
}

func TestTransform_ImputesMissing(t *testing.T) {
	ct := testTransformer(t, "")
	m, err := ct.Transform(normalized(t, row(map[string]any{
		"CompetitionDistance": nil,
		"StateHoliday":        "NA",
		"Date":                "not-a-date",
	})))
	require.NoError(t, err)
	assert.Equal(t, 2.0, m[0][0])
	assert.Equal(t, []float64{1, 0, 0, 0}, m[0][2:6])
	assert.Equal(t, []float64{2014, 6, 15, 24, 166}, m[0][10:])
}

func TestTransform_NumericCategoryKeysMatch(t *testing.T) {
	ct := testTransformer(t, "")
	m, err := ct.Transform(normalized(t,
		row(map[string]any{"StateHoliday": int64(0)}),
		row(map[string]any{"StateHoliday": 0.0}),
		row(map[string]any{"StateHoliday": "a"}),
	))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0}, m[0][2:6])
	assert.Equal(t, []float64{1, 0, 0, 0}, m[1][2:6])
	assert.Equal(t, []float64{0, 1, 0, 0}, m[2][2:6])
}

func TestTransform_UnknownCategoryFailsWithRow(t *testing.T) {
	ct := testTransformer(t, HandleUnknownError)
	_, err := ct.Transform(normalized(t, row(nil), row(nil), row(map[string]any{"StoreType": "z"})))

	var te *pipeline.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, te.Row)
	assert.Equal(t, "StoreType", te.Column)
	assert.Equal(t, "z", te.Value)
}

func TestTransform_UnknownCategoryIgnored(t *testing.T) {
	ct := testTransformer(t, HandleUnknownIgnore)
	m, err := ct.Transform(normalized(t, row(map[string]any{"StoreType": "z"})))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, m[0][6:10])
}

func TestTransform_TextInNumericColumn(t *testing.T) {
	ct := testTransformer(t, "")
	_, err := ct.Transform(normalized(t, row(map[string]any{"CompetitionDistance": "far"})))
	var te *pipeline.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "CompetitionDistance", te.Column)
	assert.Equal(t, "not a number", te.Reason)
}

func TestTransform_NonFiniteNumbersRejected(t *testing.T) {
	ct := testTransformer(t, "")
	for _, v := range []any{"Inf", "+Inf", "Infinity", "-inf", "1e400", math.Inf(1), math.Inf(-1)} {
		_, err := ct.Transform(normalized(t, row(nil), row(map[string]any{"CompetitionDistance": v})))
		var te *pipeline.TransformError
		require.ErrorAs(t, err, &te, "value %v", v)
		assert.Equal(t, 1, te.Row)
		assert.Equal(t, "CompetitionDistance", te.Column)
		assert.Equal(t, "not a number", te.Reason)
	}
}

func TestTransform_ScalingOverflowRejected(t *testing.T) {
	ct, err := New(ColumnSpec{Name: "Customers", Kind: KindNumeric, Mean: -math.MaxFloat64, Std: 0.5, Scale: true})
	require.NoError(t, err)
	_, err = ct.Transform(normalized(t, row(map[string]any{"Customers": math.MaxFloat64})))
	var te *pipeline.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "out of range", te.Reason)
}

func TestTransform_ZeroStdLeavesCentredValue(t *testing.T) {
	ct, err := New(ColumnSpec{Name: "Customers", Kind: KindNumeric, Mean: 500, Std: 0, Scale: true})
	require.NoError(t, err)
	m, err := ct.Transform(normalized(t, row(nil)))
	require.NoError(t, err)
	assert.Equal(t, 55.0, m[0][0])
}

func TestTransform_Empty(t *testing.T) {
	ct := testTransformer(t, "")
	m, err := ct.Transform(normalized(t))
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestTransform_DateAsTimeValue(t *testing.T) {
	ct, err := New(ColumnSpec{Name: "Date", Kind: KindDate, DateFill: make([]float64, 5)})
	require.NoError(t, err)
	tbl := &pipeline.NormalizedTable{Table: pipeline.Table{
		Columns: pipeline.RequiredSchema(),
		Records: []pipeline.Record{{"Date": time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}}
	m, err := ct.Transform(tbl)
	require.NoError(t, err)
	assert.Equal(t, []float64{2015, 1, 1, 1, 1}, m[0])
}

func TestDecode(t *testing.T) {
	src := `{"columns":[
		{"name":"Promo","kind":"numeric","fill":0},
		{"name":"Assortment","kind":"categorical","categories":["a","b","c"],"handle_unknown":"ignore"}
	]}`
	ct, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"Promo", "Assortment_a", "Assortment_b", "Assortment_c"}, ct.FeatureNames())
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", `{"columns":[]}`, "no columns"},
		{"not required", `{"columns":[{"name":"Weather","kind":"numeric"}]}`, "not a required input column"},
		{"duplicate", `{"columns":[{"name":"Promo","kind":"numeric"},{"name":"Promo","kind":"numeric"}]}`, "listed twice"},
		{"bad kind", `{"columns":[{"name":"Promo","kind":"ordinal"}]}`, "unknown kind"},
		{"no categories", `{"columns":[{"name":"StoreType","kind":"categorical"}]}`, "empty category list"},
		{"bad policy", `{"columns":[{"name":"StoreType","kind":"categorical","categories":["a"],"handle_unknown":"drop"}]}`, "handle_unknown"},
		{"bad fill", `{"columns":[{"name":"StoreType","kind":"categorical","categories":["a"],"fill_category":"z"}]}`, "fill category"},
		{"short date fill", `{"columns":[{"name":"Date","kind":"date","date_fill":[2015]}]}`, "date_fill"},
		{"unknown field", `{"columns":[],"scaler":"minmax"}`, "unknown field"},
		{"not json", `columns:`, "decode transformer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
