package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrMissingColumn indicates a column lookup on a dataset that lacks it.
var ErrMissingColumn = errors.New("missing column")

// Dataset is an immutable, column-oriented set of reviews. Every operation
// returns a new Dataset and leaves the receiver untouched.
type Dataset struct {
	df dataframe.DataFrame
}

// New wraps a DataFrame, surfacing any deferred gota error.
func New(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataframe: %w", df.Err)
	}
	return &Dataset{df: df}, nil
}

// FromReviews builds a dataset with the standard review columns.
func FromReviews(reviews []Review) *Dataset {
	n := len(reviews)
	country := make([]string, n)
	desc := make([]string, n)
	points := make([]float64, n)
	price := make([]float64, n)
	province := make([]string, n)
	region := make([]string, n)
	variety := make([]string, n)
	winery := make([]string, n)
	for i, r := range reviews {
		country[i] = r.Country
		desc[i] = r.Description
		points[i] = float64(r.Points)
		price[i] = r.Price
		province[i] = r.Province
		region[i] = r.Region
		variety[i] = r.Variety
		winery[i] = r.Winery
	}
	df := dataframe.New(
		series.New(country, series.String, ColCountry),
		series.New(desc, series.String, ColDescription),
		series.New(points, series.Float, ColPoints),
		series.New(price, series.Float, ColPrice),
		series.New(province, series.String, ColProvince),
		series.New(region, series.String, ColRegion),
		series.New(variety, series.String, ColVariety),
		series.New(winery, series.String, ColWinery),
	)
	return &Dataset{df: df}
}

// DataFrame exposes the underlying frame.
func (d *Dataset) DataFrame() dataframe.DataFrame { return d.df }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.df.Nrow() }

// Names returns the column names in order.
func (d *Dataset) Names() []string { return d.df.Names() }

// Has reports whether the dataset carries the named column.
func (d *Dataset) Has(col string) bool {
	for _, n := range d.df.Names() {
		if n == col {
			return true
		}
	}
	return false
}

func (d *Dataset) col(col string) (series.Series, error) {
	if !d.Has(col) {
		return series.Series{}, fmt.Errorf("%w: %s", ErrMissingColumn, col)
	}
	s := d.df.Col(col)
	if s.Err != nil {
		return series.Series{}, fmt.Errorf("column %s: %w", col, s.Err)
	}
	return s, nil
}

// Strings returns a column as text. Null cells come back as "".
func (d *Dataset) Strings(col string) ([]string, error) {
	s, err := d.col(col)
	if err != nil {
		return nil, err
	}
	out := make([]string, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() || (s.Type() == series.String && isNullToken(e.String())) {
			continue
		}
		out[i] = e.String()
	}
	return out, nil
}

// Floats returns a column as float64. Null or unparsable cells are NaN.
func (d *Dataset) Floats(col string) ([]float64, error) {
	s, err := d.col(col)
	if err != nil {
		return nil, err
	}
	return s.Float(), nil
}

// Nulls marks the rows whose cell in col is missing or blank.
func (d *Dataset) Nulls(col string) ([]bool, error) {
	s, err := d.col(col)
	if err != nil {
		return nil, err
	}
	out := make([]bool, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = true
			continue
		}
		if s.Type() == series.Float {
			out[i] = math.IsNaN(e.Float())
			continue
		}
		out[i] = isNullToken(e.String())
	}
	return out, nil
}

func isNullToken(s string) bool {
	s = strings.TrimSpace(s)
	for _, tok := range nullTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// WithFloats adds or replaces a float column.
func (d *Dataset) WithFloats(col string, vals []float64) (*Dataset, error) {
	if len(vals) != d.Len() {
		return nil, fmt.Errorf("column %s: got %d values for %d rows", col, len(vals), d.Len())
	}
	return New(d.df.Mutate(series.New(vals, series.Float, col)))
}

// WithStrings adds or replaces a text column.
func (d *Dataset) WithStrings(col string, vals []string) (*Dataset, error) {
	if len(vals) != d.Len() {
		return nil, fmt.Errorf("column %s: got %d values for %d rows", col, len(vals), d.Len())
	}
	return New(d.df.Mutate(series.New(vals, series.String, col)))
}

// WhereIn keeps rows whose col value is one of values. Null cells never match.
func (d *Dataset) WhereIn(col string, values []string) (*Dataset, error) {
	keep, err := d.match(col, func(v string) bool {
		for _, w := range values {
			if v == w {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if !anyTrue(keep) {
		return d.empty(), nil
	}
	return New(d.df.Filter(dataframe.F{Colname: col, Comparator: series.In, Comparando: values}))
}

// WhereEq keeps rows whose col value equals value exactly.
func (d *Dataset) WhereEq(col, value string) (*Dataset, error) {
	keep, err := d.match(col, func(v string) bool { return v == value })
	if err != nil {
		return nil, err
	}
	if !anyTrue(keep) {
		return d.empty(), nil
	}
	return New(d.df.Filter(dataframe.F{Colname: col, Comparator: series.Eq, Comparando: value}))
}

// WhereContains keeps rows whose col value contains sub.
func (d *Dataset) WhereContains(col, sub string) (*Dataset, error) {
	keep, err := d.match(col, func(v string) bool { return strings.Contains(v, sub) })
	if err != nil {
		return nil, err
	}
	return d.WhereRows(keep)
}

// WhereRows keeps the rows flagged true.
func (d *Dataset) WhereRows(keep []bool) (*Dataset, error) {
	if len(keep) != d.Len() {
		return nil, fmt.Errorf("row mask: got %d flags for %d rows", len(keep), d.Len())
	}
	idx := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return d.empty(), nil
	}
	if len(idx) == d.Len() {
		return d, nil
	}
	return New(d.df.Subset(idx))
}

// Review materializes row i.
func (d *Dataset) Review(i int) Review {
	get := func(col string) string {
		if !d.Has(col) {
			return ""
		}
		e := d.df.Col(col).Elem(i)
		if e.IsNA() || isNullToken(e.String()) {
			return ""
		}
		return e.String()
	}
	num := func(col string) float64 {
		if !d.Has(col) {
			return math.NaN()
		}
		return d.df.Col(col).Elem(i).Float()
	}
	r := Review{
		Country:     get(ColCountry),
		Description: get(ColDescription),
		Price:       num(ColPrice),
		Province:    get(ColProvince),
		Region:      get(ColRegion),
		Variety:     get(ColVariety),
		Winery:      get(ColWinery),
	}
	if p := num(ColPoints); !math.IsNaN(p) {
		r.Points = int(math.Round(p))
	}
	return r
}

func (d *Dataset) match(col string, fn func(string) bool) ([]bool, error) {
	vals, err := d.Strings(col)
	if err != nil {
		return nil, err
	}
	nulls, err := d.Nulls(col)
	if err != nil {
		return nil, err
	}
	keep := make([]bool, len(vals))
	for i, v := range vals {
		keep[i] = !nulls[i] && fn(v)
	}
	return keep, nil
}

// empty returns a zero-row dataset with the same schema.
func (d *Dataset) empty() *Dataset {
	names := d.df.Names()
	cols := make([]series.Series, len(names))
	for i, n := range names {
		cols[i] = series.New([]string{}, d.df.Col(n).Type(), n)
	}
	return &Dataset{df: dataframe.New(cols...)}
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
