package charts

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
)

// ErrNoData is returned when no record has a date to plot against.
var ErrNoData = errors.New("no dated forecasts to plot")

// DefaultMaxStores caps the number of lines on one chart.
const DefaultMaxStores = 5

// Options controls ForecastChart.
type Options struct {
	Title     string
	MaxStores int
	Width     vg.Length
	Height    vg.Length
}

func (o *Options) defaults() {
	if o.Title == "" {
		o.Title = "Expected Sales"
	}
	if o.MaxStores <= 0 {
		o.MaxStores = DefaultMaxStores
	}
	if o.Width <= 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 4 * vg.Inch
	}
}

// Series is one store's forecasts ordered by date.
type Series struct {
	Store  string
	Points plotter.XYs
}

// GroupByStore builds one series per store in order of first appearance,
// keeping at most maxStores. Rows without a date are skipped.
func GroupByStore(records []pipeline.ResultRecord, maxStores int) []Series {
	index := make(map[string]int)
	var out []Series
	for _, r := range records {
		if r.Date == nil {
			continue
		}
		key := fmt.Sprint(r.Store)
		i, ok := index[key]
		if !ok {
			if len(out) >= maxStores {
				continue
			}
			i = len(out)
			index[key] = i
			out = append(out, Series{Store: key})
		}
		out[i].Points = append(out[i].Points, plotter.XY{X: float64(r.Date.Unix()), Y: r.ExpectedSales})
	}
	for i := range out {
		pts := out[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
	}
	return out
}

// ForecastChart renders expected sales over time, one line per store, and
// writes it to w as PNG.
func ForecastChart(w io.Writer, records []pipeline.ResultRecord, opts Options) error {
	opts.defaults()
	series := GroupByStore(records, opts.MaxStores)
	if len(series) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Expected Sales"
	p.X.Tick.Marker = plot.TimeTicks{Format: pipeline.DateLayout}
	p.Add(plotter.NewGrid())

	for i, s := range series {
		l, pts, err := plotter.NewLinePoints(s.Points)
		if err != nil {
			return fmt.Errorf("store %s: %w", s.Store, err)
		}
		l.Color = plotutil.Color(i)
		l.LineStyle.Width = vg.Points(1.5)
		pts.Color = plotutil.Color(i)
		pts.Shape = plotutil.Shape(i)
		p.Add(l, pts)
		p.Legend.Add("Store "+s.Store, l, pts)
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
