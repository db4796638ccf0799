package ml

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
)

const initRange = 0.1

type Predictor interface {
	Predict(features []float64) (float64, error)
}

// LinearRegression is a single-output linear model: y = w·x + b.
type LinearRegression struct {
	Weights []float64
	Bias    float64
	LR      float64
}

// NewLinearRegression draws every weight and the bias from U[-0.1, 0.1) using rng.
// A nil rng is replaced by a time-seeded source.
func NewLinearRegression(featureCount int, lr float64, rng *rand.Rand) *LinearRegression {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if featureCount < 0 {
		featureCount = 0
	}
	weights := make([]float64, featureCount)
	for i := range weights {
		weights[i] = uniform(rng)
	}
	return &LinearRegression{
		Weights: weights,
		Bias:    uniform(rng),
		LR:      lr,
	}
}

func uniform(rng *rand.Rand) float64 {
	return (rng.Float64()*2 - 1) * initRange
}

func (m *LinearRegression) FeatureCount() int {
	return len(m.Weights)
}

func (m *LinearRegression) Predict(features []float64) (float64, error) {
	if err := checkDims(len(m.Weights), len(features)); err != nil {
		return 0, err
	}
	return m.predict(features), nil
}

// predict assumes len(features) == len(m.Weights).
func (m *LinearRegression) predict(features []float64) float64 {
	if len(features) == 0 {
		return m.Bias
	}
	return floats.Dot(m.Weights, features) + m.Bias
}

func (m *LinearRegression) Clone() *LinearRegression {
	return &LinearRegression{
		Weights: append([]float64(nil), m.Weights...),
		Bias:    m.Bias,
		LR:      m.LR,
	}
}
