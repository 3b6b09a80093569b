package ranking_test

import (
	"math/rand"
	"testing"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"github.com/KaramelBytes/winevalue-cli/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(t *testing.T, countries []string, vals []float64) *dataset.Dataset {
	t.Helper()
	rs := make([]dataset.Review, len(countries))
	for i, c := range countries {
		rs[i] = dataset.Review{Country: c, Description: "d", Points: 85, Price: 10, Province: "P", Variety: "V", Winery: "W"}
	}
	ds, err := dataset.FromReviews(rs).WithFloats(dataset.ColValue, vals)
	require.NoError(t, err)
	return ds
}

func TestByFactorMeansAscending(t *testing.T) {
	ds := scored(t,
		[]string{"France", "France", "Italy", "US", "US", "", "Chile"},
		[]float64{1, 3, -1, -2, -4, 100, 0},
	)
	r, err := ranking.ByFactor(ds, dataset.ColCountry)
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "Italy", "Chile", "France"}, r.Keys())
	us, err := r.Lookup("US")
	require.NoError(t, err)
	assert.InDelta(t, -3, us.Value, 1e-12)
	assert.Equal(t, 2, us.Count)
	assert.False(t, r.Has(""), "null keys are not ranked")
}

func TestByFactorRequiresValue(t *testing.T) {
	ds := dataset.FromReviews([]dataset.Review{{Country: "US"}})
	_, err := ranking.ByFactor(ds, dataset.ColCountry)
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestSplit(t *testing.T) {
	r := ranking.FromCoefficients("description", map[string]float64{
		"cherry": 1.5, "oak": -0.5, "jam": -2, "zero": 0, "plum": 0.2, "spice": 3,
	})
	s := r.Split()
	assert.Equal(t, []ranking.Entry{{Key: "spice", Value: 3}, {Key: "cherry", Value: 1.5}, {Key: "plum", Value: 0.2}}, s.Top)
	assert.Equal(t, []ranking.Entry{{Key: "jam", Value: -2}, {Key: "oak", Value: -0.5}, {Key: "zero", Value: 0}}, s.Bottom)
}

func TestSplitProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	coef := map[string]float64{}
	for i := 0; i < 200; i++ {
		coef[string(rune('a'+i%26))+string(rune('a'+i/26))] = rng.NormFloat64()
	}
	s := ranking.FromCoefficients("w", coef).Split()
	assert.Equal(t, len(coef), len(s.Top)+len(s.Bottom))
	for i, e := range s.Top {
		assert.Greater(t, e.Value, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, s.Top[i-1].Value, e.Value)
		}
	}
	for i, e := range s.Bottom {
		assert.LessOrEqual(t, e.Value, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, s.Bottom[i-1].Value, e.Value)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	r := ranking.FromCoefficients("w", map[string]float64{"a": 1})
	_, err := r.Lookup("b")
	assert.ErrorIs(t, err, ranking.ErrUnknownKey)
}

func TestHead(t *testing.T) {
	es := []ranking.Entry{{Key: "a"}, {Key: "b"}, {Key: "c"}}
	assert.Len(t, ranking.Head(es, 2), 2)
	assert.Len(t, ranking.Head(es, 5), 3)
}
