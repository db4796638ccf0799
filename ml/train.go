package ml

import (
	"fmt"
	"math/rand"
	"time"
)

const DefaultReportEvery = 100

// TrainConfig captures the knobs of a training run.
type TrainConfig struct {
	Epochs      int
	Rand        *rand.Rand
	ReportEvery int
	Reporter    Reporter
}

// EpochReport is emitted every ReportEvery epochs.
type EpochReport struct {
	Epoch int
	MSE   float64
}

type Reporter interface {
	ReportEpoch(report EpochReport)
}

type ReporterFunc func(report EpochReport)

func (f ReporterFunc) ReportEpoch(report EpochReport) {
	f(report)
}

// LossHistory keeps every report it receives.
type LossHistory struct {
	Reports []EpochReport
}

func (h *LossHistory) ReportEpoch(report EpochReport) {
	h.Reports = append(h.Reports, report)
}

func (h *LossHistory) Last() (EpochReport, bool) {
	if len(h.Reports) == 0 {
		return EpochReport{}, false
	}
	return h.Reports[len(h.Reports)-1], true
}

// Train runs cfg.Epochs passes of per-example SGD over (x, y), updating m in place.
// Every row is checked before the first update, so a rejected dataset leaves m unchanged.
func (m *LinearRegression) Train(x [][]float64, y []float64, cfg TrainConfig) error {
	if err := checkDims(len(x), len(y)); err != nil {
		return fmt.Errorf("features and targets: %w", err)
	}
	for i, row := range x {
		if err := checkDims(len(m.Weights), len(row)); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	if cfg.Epochs < 0 {
		return fmt.Errorf("epochs must be >= 0 (got %d)", cfg.Epochs)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	reportEvery := cfg.ReportEvery
	if reportEvery <= 0 {
		reportEvery = DefaultReportEvery
	}

	n := len(x)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		totalLoss := 0.0
		for _, idx := range indices {
			totalLoss += m.step(x[idx], y[idx])
		}

		if cfg.Reporter != nil && epoch%reportEvery == 0 {
			mse := 0.0
			if n > 0 {
				mse = totalLoss / float64(n)
			}
			cfg.Reporter.ReportEpoch(EpochReport{Epoch: epoch, MSE: mse})
		}
	}
	return nil
}

// step applies one squared-error gradient update and returns the squared residual
// measured before the update.
func (m *LinearRegression) step(features []float64, target float64) float64 {
	residual := target - m.predict(features)
	scale := m.LR * 2 * residual
	for j, v := range features {
		m.Weights[j] += scale * v
	}
	m.Bias += scale
	return residual * residual
}
