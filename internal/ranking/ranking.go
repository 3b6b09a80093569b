// Package ranking orders factor values (or description words) by value and
// splits them into above- and below-expected contributors.
package ranking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
)

// ErrUnknownKey indicates a lookup for a key absent from the ranking.
var ErrUnknownKey = errors.New("unknown ranking key")

// Entry is one ranked key with its mean value (or coefficient).
type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	// Count is the group size; zero for coefficient rankings.
	Count int `json:"count,omitempty"`
}

// Ranking is a list of entries sorted ascending by value.
type Ranking struct {
	Label   string  `json:"label"`
	Entries []Entry `json:"entries"`
}

// Split is the ranking partitioned around zero.
type Split struct {
	// Top holds value > 0, largest first.
	Top []Entry `json:"top"`
	// Bottom holds value <= 0, most negative first.
	Bottom []Entry `json:"bottom"`
}

func ascending(es []Entry) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].Value == es[j].Value {
			return es[i].Key < es[j].Key
		}
		return es[i].Value < es[j].Value
	})
}

// ByFactor groups ds by col and ranks groups by mean value. Null keys are skipped.
func ByFactor(ds *dataset.Dataset, col string) (*Ranking, error) {
	keys, err := ds.Strings(col)
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", col, err)
	}
	nulls, err := ds.Nulls(col)
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", col, err)
	}
	vals, err := ds.Floats(dataset.ColValue)
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", col, err)
	}
	type acc struct {
		sum float64
		n   int
	}
	groups := map[string]*acc{}
	for i, k := range keys {
		if nulls[i] {
			continue
		}
		a := groups[k]
		if a == nil {
			a = &acc{}
			groups[k] = a
		}
		a.sum += vals[i]
		a.n++
	}
	r := &Ranking{Label: col, Entries: make([]Entry, 0, len(groups))}
	for k, a := range groups {
		r.Entries = append(r.Entries, Entry{Key: k, Value: a.sum / float64(a.n), Count: a.n})
	}
	ascending(r.Entries)
	return r, nil
}

// FromCoefficients ranks word coefficients.
func FromCoefficients(label string, coef map[string]float64) *Ranking {
	r := &Ranking{Label: label, Entries: make([]Entry, 0, len(coef))}
	for k, v := range coef {
		r.Entries = append(r.Entries, Entry{Key: k, Value: v})
	}
	ascending(r.Entries)
	return r
}

// Split partitions entries: strictly positive values descending, the rest ascending.
func (r *Ranking) Split() Split {
	var s Split
	for _, e := range r.Entries {
		if e.Value > 0 {
			s.Top = append(s.Top, e)
		} else {
			s.Bottom = append(s.Bottom, e)
		}
	}
	ascending(s.Bottom)
	ascending(s.Top)
	for i, j := 0, len(s.Top)-1; i < j; i, j = i+1, j-1 {
		s.Top[i], s.Top[j] = s.Top[j], s.Top[i]
	}
	return s
}

// Has reports whether key is ranked.
func (r *Ranking) Has(key string) bool {
	_, err := r.Lookup(key)
	return err == nil
}

// Lookup returns the entry for key.
func (r *Ranking) Lookup(key string) (Entry, error) {
	for _, e := range r.Entries {
		if e.Key == key {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Keys returns ranked keys in ranking order.
func (r *Ranking) Keys() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Key
	}
	return out
}

// Head returns at most n entries.
func Head(es []Entry, n int) []Entry {
	if n >= 0 && len(es) > n {
		return es[:n]
	}
	return es
}
