package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultThresholds are the relative-error buckets, in percent, reported by Accuracy.
var DefaultThresholds = []float64{5, 10}

type AccuracyBucket struct {
	Threshold float64
	Count     int
	Percent   float64
}

type AccuracyReport struct {
	Total   int
	Buckets []AccuracyBucket
}

// Bucket returns the bucket for threshold, if it was requested.
func (r AccuracyReport) Bucket(threshold float64) (AccuracyBucket, bool) {
	for _, b := range r.Buckets {
		if b.Threshold == threshold {
			return b, true
		}
	}
	return AccuracyBucket{}, false
}

// MeanSquaredError returns 0 for empty input.
func MeanSquaredError(trueValues, predicted []float64) (float64, error) {
	if err := checkDims(len(trueValues), len(predicted)); err != nil {
		return 0, err
	}
	if len(trueValues) == 0 {
		return 0, nil
	}
	diff := make([]float64, len(trueValues))
	floats.SubTo(diff, trueValues, predicted)
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// Accuracy counts predictions whose error is within each threshold (percent).
// The error is relative to |true| when true != 0 and absolute otherwise.
func Accuracy(trueValues, predicted []float64, thresholds ...float64) (AccuracyReport, error) {
	if err := checkDims(len(trueValues), len(predicted)); err != nil {
		return AccuracyReport{}, err
	}
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}

	errs := make([]float64, len(trueValues))
	for i, t := range trueValues {
		errs[i] = errorPercent(t, predicted[i])
	}

	report := AccuracyReport{Total: len(trueValues), Buckets: make([]AccuracyBucket, len(thresholds))}
	for i, threshold := range thresholds {
		count := 0
		for _, e := range errs {
			if e <= threshold {
				count++
			}
		}
		bucket := AccuracyBucket{Threshold: threshold, Count: count}
		if report.Total > 0 {
			bucket.Percent = float64(count) / float64(report.Total) * 100
		}
		report.Buckets[i] = bucket
	}
	return report, nil
}

func errorPercent(trueValue, predicted float64) float64 {
	diff := math.Abs(trueValue - predicted)
	if trueValue == 0 {
		return diff
	}
	return diff / math.Abs(trueValue) * 100
}

// PredictAll scores every row, failing on the first row the model rejects.
func PredictAll(p Predictor, x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := p.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
