// Package factor enumerates the review dimensions a session can rank by and
// narrows a dataset to the most common values of one of them.
package factor

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
)

// Factor is a rankable review dimension.
type Factor string

const (
	Country     Factor = "country"
	Description Factor = "description"
	Province    Factor = "province"
	Region      Factor = "region"
	Variety     Factor = "variety"
	Winery      Factor = "winery"
)

// All lists every factor in prompt order.
var All = []Factor{Country, Description, Province, Region, Variety, Winery}

// Column returns the dataset column backing the factor.
func (f Factor) Column() string {
	switch f {
	case Region:
		return dataset.ColRegion
	default:
		return string(f)
	}
}

// IsText reports whether the factor is free text rather than categorical.
func (f Factor) IsText() bool { return f == Description }

// Parse maps user input onto a known factor. The source column name
// region_1 is accepted as an alias for region.
func Parse(s string) (Factor, bool) {
	if s == dataset.ColRegion {
		return Region, true
	}
	for _, f := range All {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Defaults for the most-common filtering heuristic.
const (
	// DefaultAllValuesBelow keeps every value when a factor has fewer distinct values.
	DefaultAllValuesBelow = 20
	// DefaultMinCount is the count a value must exceed otherwise.
	DefaultMinCount = 10
	// DefaultMaxValues caps the number of values kept.
	DefaultMaxValues = 10
)

// Policy parameterizes Filter.
type Policy struct {
	AllValuesBelow int
	MinCount       int
	MaxValues      int
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{AllValuesBelow: DefaultAllValuesBelow, MinCount: DefaultMinCount, MaxValues: DefaultMaxValues}
}

// ValueCount is a factor value and the number of rows carrying it.
type ValueCount struct {
	Value string
	Count int
}

// Counts tallies non-null values of col, most frequent first, ties by value.
func Counts(ds *dataset.Dataset, col string) ([]ValueCount, error) {
	vals, err := ds.Strings(col)
	if err != nil {
		return nil, err
	}
	nulls, err := ds.Nulls(col)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for i, v := range vals {
		if nulls[i] {
			continue
		}
		counts[v]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

// MostCommon applies the policy to counts sorted by Counts.
func (p Policy) MostCommon(counts []ValueCount) []string {
	cands := counts
	if len(counts) >= p.AllValuesBelow {
		cands = cands[:0:0]
		for _, vc := range counts {
			if vc.Count > p.MinCount {
				cands = append(cands, vc)
			}
		}
	}
	if p.MaxValues > 0 && len(cands) > p.MaxValues {
		cands = cands[:p.MaxValues]
	}
	out := make([]string, len(cands))
	for i, vc := range cands {
		out[i] = vc.Value
	}
	return out
}

// Filter restricts ds to rows whose factor value is among the most common
// values under p. Text factors pass through unchanged. Rows with a null
// factor value are not candidates and drop out through the membership test.
func Filter(ds *dataset.Dataset, f Factor, p Policy) (*dataset.Dataset, error) {
	if f.IsText() {
		return ds, nil
	}
	counts, err := Counts(ds, f.Column())
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", f, err)
	}
	return ds.WhereIn(f.Column(), p.MostCommon(counts))
}
