package ml

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewLinearRegressionInitRange(t *testing.T) {
	model := NewLinearRegression(50, 0.01, rand.New(rand.NewSource(7)))
	if len(model.Weights) != 50 {
		t.Fatalf("expected 50 weights, got %d", len(model.Weights))
	}
	if model.LR != 0.01 {
		t.Fatalf("learning rate changed: %v", model.LR)
	}
	for i, w := range model.Weights {
		if w < -0.1 || w >= 0.1 {
			t.Fatalf("weight %d out of range: %v", i, w)
		}
	}
	if model.Bias < -0.1 || model.Bias >= 0.1 {
		t.Fatalf("bias out of range: %v", model.Bias)
	}
}

func TestNewLinearRegressionSeeded(t *testing.T) {
	a := NewLinearRegression(3, 0.1, rand.New(rand.NewSource(42)))
	b := NewLinearRegression(3, 0.1, rand.New(rand.NewSource(42)))
	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			t.Fatalf("weight %d differs for equal seeds: %v vs %v", i, a.Weights[i], b.Weights[i])
		}
	}
	if a.Bias != b.Bias {
		t.Fatalf("bias differs for equal seeds")
	}
}

func TestZeroFeatureModelPredictsBias(t *testing.T) {
	model := NewLinearRegression(0, 0.1, rand.New(rand.NewSource(1)))
	got, err := model.Predict(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.Bias {
		t.Fatalf("expected bias %v, got %v", model.Bias, got)
	}
}

func TestPredictExact(t *testing.T) {
	model := &LinearRegression{Weights: []float64{2.0, -1.0}, Bias: 0.5, LR: 0.01}
	got, err := model.Predict([]float64{1.0, 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	model := &LinearRegression{Weights: []float64{2.0, -1.0}, Bias: 0.5}

	tests := []struct {
		name     string
		features []float64
	}{
		{name: "shorter", features: []float64{1.0}},
		{name: "longer", features: []float64{1.0, 1.0, 1.0}},
		{name: "empty", features: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Predict(tt.features)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Fatalf("expected dimension mismatch, got %v", err)
			}
			var dimErr *DimensionMismatchError
			if !errors.As(err, &dimErr) {
				t.Fatalf("expected *DimensionMismatchError, got %T", err)
			}
			if dimErr.Want != 2 || dimErr.Got != len(tt.features) {
				t.Fatalf("unexpected lengths: %+v", dimErr)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	model := &LinearRegression{Weights: []float64{1, 2}, Bias: 3, LR: 0.5}
	clone := model.Clone()
	clone.Weights[0] = 100
	if model.Weights[0] != 1 {
		t.Fatalf("clone shares weight storage")
	}
}
