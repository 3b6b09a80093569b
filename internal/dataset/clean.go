package dataset

import "fmt"

// Clean drops rows with a null in any of CleanColumns. region_1 and winery
// may stay null; factor filtering excludes those rows on demand.
func Clean(d *Dataset) (*Dataset, error) {
	keep := make([]bool, d.Len())
	for i := range keep {
		keep[i] = true
	}
	for _, c := range CleanColumns {
		nulls, err := d.Nulls(c)
		if err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
		for i, n := range nulls {
			if n {
				keep[i] = false
			}
		}
	}
	return d.WhereRows(keep)
}
