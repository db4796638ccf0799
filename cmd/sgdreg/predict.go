package main

import (
	"fmt"
	"io"

	"sgdreg/config"
	"sgdreg/ml"
)

func runPredict(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("predict", stderr)
	var c common
	c.register(fs)
	modelPath := fs.String("model", "", "model path (default model.json)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	features, err := parseFeatures(positional)
	if err != nil {
		return err
	}

	env, err := c.setup(config.Overrides{ModelPath: *modelPath}, stderr)
	if err != nil {
		return err
	}
	defer env.close()

	model, err := ml.Load(env.cfg.Model.Path)
	if err != nil {
		return err
	}
	prediction, err := model.Predict(features)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Prediction: %.4f\n", prediction)
	return nil
}
