package main

import (
	"fmt"
	"io"
	"strconv"

	"sgdreg/ml"
)

func renderAccuracy(w io.Writer, report ml.AccuracyReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Accuracy Matrix ===")
	fmt.Fprintf(w, "Total Predictions: %d\n", report.Total)
	fmt.Fprintln(w, "┌─────────────────┬─────────┬─────────┐")
	fmt.Fprintln(w, "│ Threshold       │ Correct │ Accuracy│")
	fmt.Fprintln(w, "├─────────────────┼─────────┼─────────┤")
	for _, b := range report.Buckets {
		label := "±" + strconv.FormatFloat(b.Threshold, 'f', -1, 64) + "%"
		fmt.Fprintf(w, "│ %-15s │ %7d │ %6.1f%% │\n", label, b.Count, b.Percent)
	}
	fmt.Fprintln(w, "└─────────────────┴─────────┴─────────┘")
}
