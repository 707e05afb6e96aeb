package pipeline

import "time"

// Record is one input row keyed by column name. A nil value is missing.
// Values are int64, float64, string, bool or time.Time.
type Record map[string]any

// Table is a parsed batch in upload order.
type Table struct {
	Columns []string
	Records []Record
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// ValidatedTable holds exactly the required columns, in required order.
type ValidatedTable struct {
	Table
}

// NormalizedTable is a ValidatedTable whose Date values are time.Time or nil.
type NormalizedTable struct {
	Table
}

// Date returns the normalized date of row i, or nil when it is missing.
func (t *NormalizedTable) Date(i int) *time.Time {
	d, ok := t.Records[i][ColumnDate].(time.Time)
	if !ok {
		return nil
	}
	return &d
}

// FeatureMatrix is the model-ready representation, one row per input row.
type FeatureMatrix [][]float64

// ForecastVector holds one forecast per FeatureMatrix row.
type ForecastVector []float64

// ResultRecord pairs a row's identifiers with its forecast.
type ResultRecord struct {
	Store         any
	Date          *time.Time
	ExpectedSales float64
}

// DateString renders the date as YYYY-MM-DD, or "" when it is null.
func (r ResultRecord) DateString() string {
	if r.Date == nil {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// Result is the outcome of a successful Run.
type Result struct {
	Records  []ResultRecord     `json:"results"`
	Warnings []DateParseWarning `json:"warnings,omitempty"`
	State    State              `json:"state"`
}
