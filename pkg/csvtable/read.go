package csvtable

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseError reports CSV that cannot be turned into a table.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv at line %d: %s", e.Line, e.Msg)
	}
	return "invalid csv: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrTooManyRows is wrapped by a ParseError when Options.MaxRows is exceeded.
var ErrTooManyRows = errors.New("too many rows")

// Options controls Read.
type Options struct {
	// MaxRows caps the number of data rows; 0 means no limit.
	MaxRows int
}

// Read parses a CSV with a header row into a table of typed cells. Empty,
// NA, NaN and null cells become nil; integers become int64, other numbers
// float64, true/false bool, and everything else a trimmed string.
func Read(r io.Reader, opts Options) (*pipeline.Table, error) {
	br := &bomStripper{r: r}
	cr := csv.NewReader(br)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Msg: "missing header row"}
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}

	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, &ParseError{Line: 1, Msg: fmt.Sprintf("empty column name at position %d", i+1)}
		}
		if _, dup := seen[name]; dup {
			return nil, &ParseError{Line: 1, Msg: fmt.Sprintf("duplicate column %q", name)}
		}
		seen[name] = struct{}{}
		columns[i] = name
	}

	t := &pipeline.Table{Columns: columns, Records: []pipeline.Record{}}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		if opts.MaxRows > 0 && len(t.Records) >= opts.MaxRows {
			return nil, &ParseError{Msg: fmt.Sprintf("more than %d rows", opts.MaxRows), Err: ErrTooManyRows}
		}
		rec := make(pipeline.Record, len(columns))
		for i, cell := range row {
			rec[columns[i]] = ParseCell(cell)
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// ParseCell converts one raw cell to its typed value.
func ParseCell(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return nil
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !strings.ContainsAny(s, "xXpP_") {
		return f
	}
	return s
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Msg: pe.Err.Error(), Err: err}
	}
	return &ParseError{Msg: err.Error(), Err: err}
}

// bomStripper drops a leading UTF-8 byte order mark.
type bomStripper struct {
	r       io.Reader
	checked bool
	buf     []byte
}

func (b *bomStripper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(b.r, head)
		head = head[:n]
		if !bytes.Equal(head, utf8BOM) {
			b.buf = head
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return 0, err
		}
	}
	if len(b.buf) > 0 {
		n := copy(p, b.buf)
		b.buf = b.buf[n:]
		return n, nil
	}
	return b.r.Read(p)
}
