package stats

import (
	"fmt"
	"time"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// Column kinds reported by Summarize.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindDate        = "date"
	KindEmpty       = "empty"
)

// NumericSummary describes a column whose values are all numbers.
type NumericSummary struct {
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// CategoricalSummary describes a text or mixed column.
type CategoricalSummary struct {
	Unique  int    `json:"unique"`
	Top     string `json:"top"`
	TopFreq int    `json:"top_freq"`
}

// DateSummary describes the Date column.
type DateSummary struct {
	First       string `json:"first,omitempty"`
	Last        string `json:"last,omitempty"`
	Unparseable int    `json:"unparseable"`
}

// ColumnSummary is one column of a Summary.
type ColumnSummary struct {
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Count       int                 `json:"count"`
	Missing     int                 `json:"missing"`
	Numeric     *NumericSummary     `json:"numeric,omitempty"`
	Categorical *CategoricalSummary `json:"categorical,omitempty"`
	Date        *DateSummary        `json:"date,omitempty"`
}

// Summary describes an uploaded table before it is scored.
type Summary struct {
	Rows            int             `json:"rows"`
	Columns         []ColumnSummary `json:"columns"`
	MissingRequired []string        `json:"missing_required"`
}

// Summarize computes per-column statistics in header order and reports which
// required columns are absent.
func Summarize(t *pipeline.Table) Summary {
	if t == nil {
		t = &pipeline.Table{}
	}
	s := Summary{
		Rows:            t.Len(),
		Columns:         make([]ColumnSummary, 0, len(t.Columns)),
		MissingRequired: pipeline.MissingColumns(t.Columns),
	}
	if s.MissingRequired == nil {
		s.MissingRequired = []string{}
	}
	for _, name := range t.Columns {
		s.Columns = append(s.Columns, summarizeColumn(name, t.Records))
	}
	return s
}

func summarizeColumn(name string, records []pipeline.Record) ColumnSummary {
	cs := ColumnSummary{Name: name}
	values := make([]any, 0, len(records))
	for _, rec := range records {
		v := rec[name]
		if v == nil {
			cs.Missing++
			continue
		}
		values = append(values, v)
	}
	cs.Count = len(values)

	switch {
	case len(values) == 0:
		cs.Kind = KindEmpty
	case name == pipeline.ColumnDate:
		cs.Kind = KindDate
		cs.Date = summarizeDates(values)
	default:
		if nums, ok := numbers(values); ok {
			cs.Kind = KindNumeric
			lo, hi := MinMax(nums)
			cs.Numeric = &NumericSummary{
				Min:    lo,
				Mean:   Mean(nums),
				Std:    Std(nums),
				Median: Median(nums),
				Max:    hi,
			}
			break
		}
		cs.Kind = KindCategorical
		strs := make([]string, len(values))
		unique := make(map[string]struct{})
		for i, v := range values {
			strs[i] = fmt.Sprint(v)
			unique[strs[i]] = struct{}{}
		}
		top, freq := TopValue(strs)
		cs.Categorical = &CategoricalSummary{Unique: len(unique), Top: top, TopFreq: freq}
	}
	return cs
}

func numbers(values []any) ([]float64, bool) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int64:
			out = append(out, float64(n))
		case float64:
			out = append(out, n)
		default:
			return nil, false
		}
	}
	return out, true
}

func summarizeDates(values []any) *DateSummary {
	ds := &DateSummary{}
	var first, last time.Time
	seen := false
	for _, v := range values {
		d, ok := pipeline.ParseDate(v)
		if !ok {
			ds.Unparseable++
			continue
		}
		if !seen || d.Before(first) {
			first = d
		}
		if !seen || d.After(last) {
			last = d
		}
		seen = true
	}
	if seen {
		ds.First = first.Format(pipeline.DateLayout)
		ds.Last = last.Format(pipeline.DateLayout)
	}
	return ds
}
