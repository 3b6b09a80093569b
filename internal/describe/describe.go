// Package describe relates words in review descriptions to value by
// regressing value on a bag-of-words presence matrix.
package describe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

// DefaultVocabSize is the number of most frequent words used as features.
const DefaultVocabSize = 100

// epsilon is the float64 machine epsilon used to scale the rank cutoff.
const epsilon = 2.220446049250313e-16

var (
	// ErrInsufficientData indicates too few words or rows for the regression.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMissingValue indicates the dataset has not been scored yet.
	ErrMissingValue = errors.New("value column missing")
)

// Options configures Fit.
type Options struct {
	VocabSize int
	// StopWords replaces the default stop list when non-nil.
	StopWords map[string]struct{}
}

// DefaultOptions returns the standard vocabulary size and stop list.
func DefaultOptions() Options {
	return Options{VocabSize: DefaultVocabSize}
}

// Result holds the fitted coefficient for each vocabulary word.
type Result struct {
	Vocabulary   []string
	Coefficients map[string]float64
	Rank         int
}

// Normalize strips parentheses from every description.
func Normalize(ds *dataset.Dataset) (*dataset.Dataset, error) {
	descs, err := ds.Strings(dataset.ColDescription)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(descs))
	r := strings.NewReplacer("(", "", ")", "")
	for i, d := range descs {
		out[i] = r.Replace(d)
	}
	return ds.WithStrings(dataset.ColDescription, out)
}

// Vocabulary returns the most frequent non-stop words across all descriptions.
func Vocabulary(descriptions []string, size int, stop map[string]struct{}) ([]string, error) {
	freqs := Frequencies(Tokenize(strings.Join(descriptions, " ")), stop)
	if len(freqs) < size {
		return nil, fmt.Errorf("%w: %d distinct words, need %d", ErrInsufficientData, len(freqs), size)
	}
	out := make([]string, size)
	for i := range out {
		out[i] = freqs[i].Word
	}
	return out, nil
}

// Fit builds the presence matrix over the vocabulary and solves
// value = X·beta by least squares without an intercept. The returned dataset
// carries the parenthesis-free descriptions.
func Fit(ds *dataset.Dataset, opt Options) (*dataset.Dataset, *Result, error) {
	if !ds.Has(dataset.ColValue) {
		return nil, nil, ErrMissingValue
	}
	size := opt.VocabSize
	if size <= 0 {
		size = DefaultVocabSize
	}
	stop := opt.StopWords
	if stop == nil {
		stop = StopWords()
	}
	raw, err := ds.Strings(dataset.ColDescription)
	if err != nil {
		return nil, nil, err
	}
	vocab, err := Vocabulary(raw, size, stop)
	if err != nil {
		return nil, nil, err
	}
	n := ds.Len()
	if n < size {
		return nil, nil, fmt.Errorf("%w: %d rows for %d features", ErrInsufficientData, n, size)
	}

	norm, err := Normalize(ds)
	if err != nil {
		return nil, nil, err
	}
	descs, err := norm.Strings(dataset.ColDescription)
	if err != nil {
		return nil, nil, err
	}
	values, err := norm.Floats(dataset.ColValue)
	if err != nil {
		return nil, nil, err
	}

	x := mat.NewDense(n, size, nil)
	for i, d := range descs {
		for j, w := range vocab {
			if strings.Contains(d, w) {
				x.Set(i, j, 1)
			}
		}
	}
	beta, rank, err := leastSquares(x, mat.NewVecDense(n, values))
	if err != nil {
		return nil, nil, err
	}
	res := &Result{Vocabulary: vocab, Coefficients: make(map[string]float64, size), Rank: rank}
	for j, w := range vocab {
		res.Coefficients[w] = beta.AtVec(j)
	}
	return norm, res, nil
}

// leastSquares returns the minimum-norm solution via the SVD pseudo-inverse,
// so collinear or never-present words do not make the fit fail.
func leastSquares(x *mat.Dense, y *mat.VecDense) (*mat.VecDense, int, error) {
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("%w: svd did not converge", ErrInsufficientData)
	}
	rows, cols := x.Dims()
	rank := svd.Rank(float64(max(rows, cols)) * epsilon)
	if rank == 0 {
		return nil, 0, fmt.Errorf("%w: no vocabulary word appears in any description", ErrInsufficientData)
	}
	beta := mat.NewVecDense(cols, nil)
	svd.SolveVecTo(beta, y, rank)
	return beta, rank, nil
}
