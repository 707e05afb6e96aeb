package pipeline

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// ISO calendar date, optionally followed by a time of day which is discarded.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate converts a raw Date cell to a UTC calendar date. ok is false when
// the value is missing or unparseable.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return truncateDate(d), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return truncateDate(t), true
			}
		}
	}
	return time.Time{}, false
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeDates converts the Date column to time.Time. Values that cannot be
// parsed become nil and are reported as warnings; missing values become nil
// silently. Row order and count are unchanged.
func NormalizeDates(v *ValidatedTable) (*NormalizedTable, []DateParseWarning) {
	var warnings []DateParseWarning
	records := make([]Record, len(v.Records))

	for i, rec := range v.Records {
		out := make(Record, len(rec))
		for k, val := range rec {
			out[k] = val
		}

		raw := rec[ColumnDate]
		if d, ok := ParseDate(raw); ok {
			out[ColumnDate] = d
		} else {
			out[ColumnDate] = nil
			if raw != nil {
				warnings = append(warnings, DateParseWarning{Row: i, Value: raw})
			}
		}
		records[i] = out
	}

	columns := make([]string, len(v.Columns))
	copy(columns, v.Columns)
	return &NormalizedTable{Table: Table{Columns: columns, Records: records}}, warnings
}
