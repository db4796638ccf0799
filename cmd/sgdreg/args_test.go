package main

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	"sgdreg/ml"
)

func TestSetFlags(t *testing.T) {
	fs := newFlagSet("t", io.Discard)
	fs.Int("epochs", 0, "")
	fs.Float64("holdout", 0, "")
	fs.Int64("seed", 0, "")
	if _, err := parseArgs(fs, []string{"data.csv", "--epochs", "0", "--holdout=0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set := setFlags(fs)
	if !set["epochs"] || !set["holdout"] {
		t.Fatalf("explicit zero flags must be reported as set: %v", set)
	}
	if set["seed"] {
		t.Fatalf("seed was not given: %v", set)
	}
}

func TestParseArgsInterleaved(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantPos    []string
		wantLR     float64
		wantVerify bool
	}{
		{name: "flags after positional", args: []string{"data.csv", "--lr", "0.5"}, wantPos: []string{"data.csv"}, wantLR: 0.5},
		{name: "flags before positional", args: []string{"-lr=0.25", "data.csv"}, wantPos: []string{"data.csv"}, wantLR: 0.25},
		{name: "negative numbers", args: []string{"-1", "--lr", "-0.5", "-2e3"}, wantPos: []string{"-1", "-2e3"}, wantLR: -0.5},
		{name: "bool flag", args: []string{"--verify", "x"}, wantPos: []string{"x"}, wantVerify: true},
		{name: "terminator", args: []string{"--", "--lr"}, wantPos: []string{"--lr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFlagSet("t", io.Discard)
			lr := fs.Float64("lr", 0, "")
			verify := fs.Bool("verify", false, "")
			pos, err := parseArgs(fs, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(pos, tt.wantPos) {
				t.Fatalf("positionals: want %v, got %v", tt.wantPos, pos)
			}
			if *lr != tt.wantLR || *verify != tt.wantVerify {
				t.Fatalf("flags: lr=%v verify=%v", *lr, *verify)
			}
		})
	}
}

func TestParseFeatures(t *testing.T) {
	got, err := parseFeatures([]string{"1", " -2.5", "3e2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{1, -2.5, 300}) {
		t.Fatalf("unexpected features %v", got)
	}
	if _, err := parseFeatures([]string{"one"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRenderAccuracy(t *testing.T) {
	report, err := ml.Accuracy([]float64{10, 20}, []float64{10.4, 22.5})
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	var buf bytes.Buffer
	renderAccuracy(&buf, report)
	out := buf.String()
	for _, want := range []string{"Total Predictions: 2", "│ ±5%             │       1 │   50.0% │", "│ ±10%            │       1 │   50.0% │"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
