package dataprep

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// Kind selects how a column is encoded.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDate        Kind = "date"
)

// Unknown category policies.
const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// DateParts are the features a date column expands to, in output order.
var DateParts = []string{"Year", "Month", "Day", "WeekOfYear", "DayOfYear"}

// ColumnSpec holds the fitted parameters for one input column.
type ColumnSpec struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// numeric
	Fill  float64 `json:"fill,omitempty"`
	Mean  float64 `json:"mean,omitempty"`
	Std   float64 `json:"std,omitempty"`
	Scale bool    `json:"scale,omitempty"`

	// categorical
	Categories    []string `json:"categories,omitempty"`
	FillCategory  string   `json:"fill_category,omitempty"`
	HandleUnknown string   `json:"handle_unknown,omitempty"`

	// date, one value per DateParts entry
	DateFill []float64 `json:"date_fill,omitempty"`

	index map[string]int
}

// ColumnTransformer turns a normalized table into a fixed-width feature
// matrix using fitted parameters. It is read-only after Decode.
type ColumnTransformer struct {
	Columns []ColumnSpec `json:"columns"`

	width int
	names []string
}

// Decode reads a fitted transformer from JSON and checks it is usable.
func Decode(r io.Reader) (*ColumnTransformer, error) {
	var ct ColumnTransformer
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ct); err != nil {
		return nil, fmt.Errorf("decode transformer: %w", err)
	}
	if err := ct.init(); err != nil {
		return nil, err
	}
	return &ct, nil
}

// New builds a transformer from column specs.
func New(columns ...ColumnSpec) (*ColumnTransformer, error) {
	ct := &ColumnTransformer{Columns: columns}
	if err := ct.init(); err != nil {
		return nil, err
	}
	return ct, nil
}

func (ct *ColumnTransformer) init() error {
	if len(ct.Columns) == 0 {
		return errors.New("transformer has no columns")
	}
	required := make(map[string]struct{})
	for _, c := range pipeline.RequiredSchema() {
		required[c] = struct{}{}
	}
	seen := make(map[string]struct{}, len(ct.Columns))
	ct.names = ct.names[:0]

	for i := range ct.Columns {
		c := &ct.Columns[i]
		if _, ok := required[c.Name]; !ok {
			return fmt.Errorf("transformer column %q is not a required input column", c.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("transformer column %q listed twice", c.Name)
		}
		seen[c.Name] = struct{}{}

		switch c.Kind {
		case KindNumeric:
			if c.Std < 0 {
				return fmt.Errorf("column %q: negative std", c.Name)
			}
			ct.names = append(ct.names, c.Name)
		case KindCategorical:
			if len(c.Categories) == 0 {
				return fmt.Errorf("column %q: empty category list", c.Name)
			}
			switch c.HandleUnknown {
			case "":
				c.HandleUnknown = HandleUnknownError
			case HandleUnknownError, HandleUnknownIgnore:
			default:
				return fmt.Errorf("column %q: handle_unknown must be %q or %q", c.Name, HandleUnknownError, HandleUnknownIgnore)
			}
			c.index = make(map[string]int, len(c.Categories))
			for j, cat := range c.Categories {
				if _, dup := c.index[cat]; dup {
					return fmt.Errorf("column %q: category %q listed twice", c.Name, cat)
				}
				c.index[cat] = j
				ct.names = append(ct.names, c.Name+"_"+cat)
			}
			if c.FillCategory != "" {
				if _, ok := c.index[c.FillCategory]; !ok {
					return fmt.Errorf("column %q: fill category %q is not a fitted category", c.Name, c.FillCategory)
				}
			}
		case KindDate:
			if len(c.DateFill) != len(DateParts) {
				return fmt.Errorf("column %q: date_fill needs %d values", c.Name, len(DateParts))
			}
			for _, p := range DateParts {
				ct.names = append(ct.names, c.Name+p)
			}
		default:
			return fmt.Errorf("column %q: unknown kind %q", c.Name, c.Kind)
		}
	}
	ct.width = len(ct.names)
	return nil
}

// Width is the number of features emitted per row.
func (ct *ColumnTransformer) Width() int { return ct.width }

// FeatureNames returns the output column names in emitted order.
func (ct *ColumnTransformer) FeatureNames() []string {
	out := make([]string, len(ct.names))
	copy(out, ct.names)
	return out
}

// Transform encodes every row. The first value that cannot be coerced aborts
// the whole table with a *pipeline.TransformError.
func (ct *ColumnTransformer) Transform(t *pipeline.NormalizedTable) (pipeline.FeatureMatrix, error) {
	out := make(pipeline.FeatureMatrix, len(t.Records))
	for i, rec := range t.Records {
		row := make([]float64, 0, ct.width)
		for j := range ct.Columns {
			var err error
			row, err = ct.Columns[j].encode(row, rec[ct.Columns[j].Name])
			if err != nil {
				var te *pipeline.TransformError
				if errors.As(err, &te) {
					te.Row = i
				}
				return nil, err
			}
		}
		out[i] = row
	}
	return out, nil
}

func (c *ColumnSpec) encode(row []float64, v any) ([]float64, error) {
	switch c.Kind {
	case KindNumeric:
		f, missing, ok := toNumber(v)
		if !ok {
			return nil, &pipeline.TransformError{Column: c.Name, Value: v, Reason: "not a number"}
		}
		if missing {
			f = c.Fill
		}
		if c.Scale {
			std := c.Std
			if std == 0 {
				std = 1
			}
			f = (f - c.Mean) / std
		}
		if math.IsInf(f, 0) {
			return nil, &pipeline.TransformError{Column: c.Name, Value: v, Reason: "out of range"}
		}
		return append(row, f), nil

	case KindCategorical:
		start := len(row)
		for range c.Categories {
			row = append(row, 0)
		}
		key, missing := categoryKey(v)
		if missing {
			key = c.FillCategory
		}
		if key == "" {
			if c.HandleUnknown == HandleUnknownIgnore {
				return row, nil
			}
			return nil, &pipeline.TransformError{Column: c.Name, Value: v, Reason: "missing value"}
		}
		j, ok := c.index[key]
		if !ok {
			if c.HandleUnknown == HandleUnknownIgnore {
				return row, nil
			}
			return nil, &pipeline.TransformError{Column: c.Name, Value: v, Reason: "unknown category"}
		}
		row[start+j] = 1
		return row, nil

	case KindDate:
		var d time.Time
		switch dv := v.(type) {
		case nil:
			return append(row, c.DateFill...), nil
		case time.Time:
			d = dv
		default:
			parsed, ok := pipeline.ParseDate(v)
			if !ok {
				return nil, &pipeline.TransformError{Column: c.Name, Value: v, Reason: "not a date"}
			}
			d = parsed
		}
		_, week := d.ISOWeek()
		return append(row,
			float64(d.Year()),
			float64(d.Month()),
			float64(d.Day()),
			float64(week),
			float64(d.YearDay()),
		), nil
	}
	return nil, fmt.Errorf("column %q: unknown kind %q", c.Name, c.Kind)
}
