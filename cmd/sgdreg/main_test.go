package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"sgdreg/ml"
)

func writeLineCSV(t *testing.T, dir string, rows int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < rows; i++ {
		x := float64(i) / float64(rows)
		fmt.Fprintf(&b, "%g,%g\n", x, 3*x+2)
	}
	path := filepath.Join(dir, "line.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestTrainTestPredictHistory(t *testing.T) {
	dir := t.TempDir()
	csv := writeLineCSV(t, dir, 50)
	modelPath := filepath.Join(dir, "models", "line.json")
	dbPath := filepath.Join(dir, "runs.db")

	code, out, errOut := runCLI("train", csv, "--lr", "0.01", "--epochs", "400", "--seed", "3",
		"--out", modelPath, "--db", dbPath, "--holdout", "0.2", "--log-level", "warn")
	if code != exitOK {
		t.Fatalf("train exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Model saved to "+modelPath) || !strings.Contains(out, "Holdout Mean Squared Error") {
		t.Fatalf("unexpected train output: %s", out)
	}
	model, err := ml.Load(modelPath)
	if err != nil {
		t.Fatalf("load trained model: %v", err)
	}
	if len(model.Weights) != 1 || model.LR != 0.01 {
		t.Fatalf("unexpected model %+v", model)
	}

	code, out, errOut = runCLI("test", csv, "--model", modelPath, "--db", dbPath, "--log-level", "warn")
	if code != exitOK {
		t.Fatalf("test exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Mean Squared Error:") || !strings.Contains(out, "±10%") {
		t.Fatalf("unexpected test output: %s", out)
	}

	code, out, errOut = runCLI("predict", "--model", modelPath, "0.5")
	if code != exitOK {
		t.Fatalf("predict exit %d: %s", code, errOut)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(out, "Prediction:")), 64)
	if err != nil {
		t.Fatalf("unexpected predict output %q", out)
	}
	if value < 3.3 || value > 3.7 {
		t.Fatalf("expected prediction near 3.5, got %v", value)
	}

	code, out, errOut = runCLI("history", "--db", dbPath, "--log-level", "warn")
	if code != exitOK {
		t.Fatalf("history exit %d: %s", code, errOut)
	}
	if strings.Count(out, csv) != 2 {
		t.Fatalf("expected one training and one evaluation run in history: %s", out)
	}
}

func TestPredictNegativeFeatures(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	model := &ml.LinearRegression{Weights: []float64{2.0, -1.0}, Bias: 0.5, LR: 0.01}
	if err := model.Save(modelPath); err != nil {
		t.Fatalf("save: %v", err)
	}
	code, out, errOut := runCLI("predict", "-1", "--model", modelPath, "-2.5")
	if code != exitOK {
		t.Fatalf("predict exit %d: %s", code, errOut)
	}
	if strings.TrimSpace(out) != "Prediction: 1.0000" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	if err := (&ml.LinearRegression{Weights: []float64{1, 1}, LR: 0.1}).Save(modelPath); err != nil {
		t.Fatalf("save: %v", err)
	}
	code, _, errOut := runCLI("predict", "--model", modelPath, "1")
	if code != exitFailure || !strings.Contains(errOut, "dimension mismatch") {
		t.Fatalf("expected dimension failure, got %d: %s", code, errOut)
	}
}

func TestTrainFailuresWriteNoModel(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("1,2\nx,3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, []byte("\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	modelPath := filepath.Join(dir, "model.json")

	for _, csv := range []string{bad, empty, filepath.Join(dir, "missing.csv")} {
		code, _, errOut := runCLI("train", csv, "--out", modelPath, "--epochs", "5")
		if code != exitFailure {
			t.Fatalf("%s: expected failure exit, got %d: %s", csv, code, errOut)
		}
		if _, err := os.Stat(modelPath); !os.IsNotExist(err) {
			t.Fatalf("%s: model file must not be written", csv)
		}
	}
}

func TestTrainExplicitZeroOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	csv := writeLineCSV(t, dir, 20)
	cfgPath := filepath.Join(dir, "sgdreg.yaml")
	body := "train:\n  epochs: 50\n  holdout: 0.5\n  seed: 9\nlog:\n  level: warn\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	code, out, errOut := runCLI("train", csv, "--config", cfgPath, "--out", filepath.Join(dir, "held.json"))
	if code != exitOK {
		t.Fatalf("train exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Holdout Mean Squared Error") {
		t.Fatalf("config holdout should apply: %s", out)
	}

	modelPath := filepath.Join(dir, "zero.json")
	code, out, errOut = runCLI("train", csv, "--config", cfgPath, "--holdout", "0", "--epochs", "0", "--out", modelPath)
	if code != exitOK {
		t.Fatalf("train exit %d: %s", code, errOut)
	}
	if strings.Contains(out, "Holdout Mean Squared Error") {
		t.Fatalf("--holdout 0 should disable the holdout: %s", out)
	}
	if _, err := ml.Load(modelPath); err != nil {
		t.Fatalf("zero-epoch model not saved: %v", err)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"fit"}},
		{name: "train without csv", args: []string{"train"}},
		{name: "unknown flag", args: []string{"test", "a.csv", "--bogus"}},
		{name: "bad feature", args: []string{"predict", "abc"}},
		{name: "bad learning rate", args: []string{"train", "a.csv", "--lr", "-1"}},
		{name: "zero learning rate", args: []string{"train", "a.csv", "--lr", "0"}},
		{name: "negative cache size", args: []string{"serve", "--cache-size", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(tt.args...)
			if code != exitUsage {
				t.Fatalf("expected usage exit, got %d", code)
			}
		})
	}
}
