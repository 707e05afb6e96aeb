package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// ResultHeader is the header row of a scored CSV.
var ResultHeader = []string{"Store", "Date", "Expected Sales"}

// WriteResults renders scored rows as CSV. Null dates are left blank and
// sales are written with two decimals.
func WriteResults(w io.Writer, records []pipeline.ResultRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			FormatCell(r.Store),
			r.DateString(),
			strconv.FormatFloat(r.ExpectedSales, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCell renders a typed cell back to text. Missing cells are empty.
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int64:
		return strconv.FormatInt(c, 10)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	case time.Time:
		return c.Format(pipeline.DateLayout)
	}
	return fmt.Sprint(v)
}

// PreviewTable is the head of a table rendered as text.
type PreviewTable struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
}

// Preview returns the first n rows of t in header order.
func Preview(t *pipeline.Table, n int) PreviewTable {
	p := PreviewTable{Columns: append([]string{}, t.Columns...), Rows: [][]string{}, TotalRows: t.Len()}
	for i := 0; i < n && i < t.Len(); i++ {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = FormatCell(t.Records[i][c])
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}
