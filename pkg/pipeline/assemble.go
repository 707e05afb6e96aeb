package pipeline

import "encoding/json"

// Assemble zips each row's Store and Date with its forecast, by position.
func Assemble(t *NormalizedTable, forecasts ForecastVector) ([]ResultRecord, error) {
	if len(forecasts) != len(t.Records) {
		return nil, &AlignmentError{Stage: StatePredicted, Records: len(t.Records), Forecasts: len(forecasts)}
	}

	out := make([]ResultRecord, len(t.Records))
	for i, rec := range t.Records {
		out[i] = ResultRecord{
			Store:         rec[ColumnStore],
			Date:          t.Date(i),
			ExpectedSales: forecasts[i],
		}
	}
	return out, nil
}

type resultRecordJSON struct {
	Store         any     `json:"store"`
	Date          *string `json:"date"`
	ExpectedSales float64 `json:"expected_sales"`
}

// MarshalJSON renders the date as YYYY-MM-DD or null.
func (r ResultRecord) MarshalJSON() ([]byte, error) {
	out := resultRecordJSON{Store: r.Store, ExpectedSales: r.ExpectedSales}
	if r.Date != nil {
		s := r.Date.Format(DateLayout)
		out.Date = &s
	}
	return json.Marshal(out)
}
