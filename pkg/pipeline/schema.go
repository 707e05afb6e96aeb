package pipeline

// Column names referenced directly by the pipeline.
const (
	ColumnStore = "Store"
	ColumnDate  = "Date"
	ColumnSales = "Sales"
)

var requiredSchema = []string{
	"Store", "DayOfWeek", "Date", "Sales", "Customers", "Open", "Promo",
	"StateHoliday", "SchoolHoliday", "StoreType", "Assortment",
	"CompetitionDistance", "CompetitionOpenSinceMonth",
	"CompetitionOpenSinceYear", "Promo2", "Promo2SinceWeek",
	"Promo2SinceYear", "PromoInterval",
}

// RequiredSchema returns a copy of the ordered column set every upload must contain.
func RequiredSchema() []string {
	out := make([]string, len(requiredSchema))
	copy(out, requiredSchema)
	return out
}

// MissingColumns lists the required columns absent from columns, in required
// order. Names are matched exactly.
func MissingColumns(columns []string) []string {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	var missing []string
	for _, c := range requiredSchema {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Validate restricts t to the required columns in required order. Extra
// columns are dropped; any absent required column yields a *SchemaError.
// The input table is not modified.
func Validate(t *Table) (*ValidatedTable, error) {
	if t == nil {
		t = &Table{}
	}
	if missing := MissingColumns(t.Columns); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	records := make([]Record, len(t.Records))
	for i, rec := range t.Records {
		out := make(Record, len(requiredSchema))
		for _, c := range requiredSchema {
			out[c] = rec[c]
		}
		records[i] = out
	}

	return &ValidatedTable{Table: Table{Columns: RequiredSchema(), Records: records}}, nil
}
