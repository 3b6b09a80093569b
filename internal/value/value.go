// Package value scores each review by how far its rating sits above or below
// what its price predicts.
package value

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// MinRows is the smallest dataset a price/points regression can be fit on.
const MinRows = 2

var (
	// ErrInsufficientData indicates too few rows to fit the regression.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidInput indicates a price or rating the regression cannot use.
	ErrInvalidInput = errors.New("invalid input")
)

// Model is a fitted points_normalized ~ Intercept + Slope*log(price) line.
type Model struct {
	Intercept float64
	Slope     float64
	N         int
}

// Predict returns the expected normalized rating for a price.
func (m Model) Predict(price float64) float64 {
	return m.Intercept + m.Slope*math.Log(price)
}

// Compute adds points_normalized (points minus their mean) and value (actual
// minus predicted normalized points) to a copy of ds.
func Compute(ds *dataset.Dataset) (*dataset.Dataset, Model, error) {
	n := ds.Len()
	if n < MinRows {
		return nil, Model{}, fmt.Errorf("%w: %d rows, need at least %d", ErrInsufficientData, n, MinRows)
	}
	points, err := ds.Floats(dataset.ColPoints)
	if err != nil {
		return nil, Model{}, err
	}
	prices, err := ds.Floats(dataset.ColPrice)
	if err != nil {
		return nil, Model{}, err
	}
	logPrice := make([]float64, n)
	for i, p := range prices {
		if math.IsNaN(p) || p <= 0 {
			return nil, Model{}, fmt.Errorf("%w: row %d has price %v", ErrInvalidInput, i, p)
		}
		if math.IsNaN(points[i]) {
			return nil, Model{}, fmt.Errorf("%w: row %d has no points", ErrInvalidInput, i)
		}
		logPrice[i] = math.Log(p)
	}

	mean := stat.Mean(points, nil)
	norm := make([]float64, n)
	for i, p := range points {
		norm[i] = p - mean
	}

	m := fit(logPrice, norm)
	residual := make([]float64, n)
	for i := range norm {
		residual[i] = norm[i] - (m.Intercept + m.Slope*logPrice[i])
	}

	out, err := ds.WithFloats(dataset.ColPointsNormalized, norm)
	if err != nil {
		return nil, Model{}, err
	}
	out, err = out.WithFloats(dataset.ColValue, residual)
	if err != nil {
		return nil, Model{}, err
	}
	return out, m, nil
}

// fit runs ordinary least squares with an intercept. A constant predictor has
// no slope, so the prediction collapses to the mean of y.
func fit(x, y []float64) Model {
	constant := true
	for _, v := range x[1:] {
		if v != x[0] {
			constant = false
			break
		}
	}
	if constant {
		return Model{Intercept: stat.Mean(y, nil), N: len(x)}
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Model{Intercept: alpha, Slope: beta, N: len(x)}
}
