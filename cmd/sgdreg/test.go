package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"sgdreg/config"
	"sgdreg/dataset"
	"sgdreg/db"
	"sgdreg/ml"
)

type evaluation struct {
	mse      float64
	accuracy ml.AccuracyReport
}

func evaluate(model *ml.LinearRegression, ds *dataset.Dataset) (evaluation, error) {
	preds, err := ml.PredictAll(model, ds.Features)
	if err != nil {
		return evaluation{}, err
	}
	mse, err := ml.MeanSquaredError(ds.Targets, preds)
	if err != nil {
		return evaluation{}, err
	}
	accuracy, err := ml.Accuracy(ds.Targets, preds)
	if err != nil {
		return evaluation{}, err
	}
	return evaluation{mse: mse, accuracy: accuracy}, nil
}

func runTest(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("test", stderr)
	var c common
	c.register(fs)
	modelPath := fs.String("model", "", "model path (default model.json)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageError{msg: "test needs exactly one csv path"}
	}
	csvPath := positional[0]

	env, err := c.setup(config.Overrides{ModelPath: *modelPath}, stderr)
	if err != nil {
		return err
	}
	defer env.close()

	ds, err := dataset.Load(csvPath, dataset.Options{Encoding: env.cfg.Data.Encoding})
	if err != nil {
		return err
	}
	model, err := ml.Load(env.cfg.Model.Path)
	if err != nil {
		return err
	}
	env.log.Info("evaluating model", zap.String("model", env.cfg.Model.Path), zap.Int("rows", ds.Len()))

	eval, err := evaluate(model, ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Mean Squared Error: %.6f\n", eval.mse)
	renderAccuracy(stdout, eval.accuracy)

	run := db.EvaluationRun{
		DatasetPath: csvPath,
		ModelPath:   env.cfg.Model.Path,
		Rows:        ds.Len(),
		MSE:         eval.mse,
	}
	if b, ok := eval.accuracy.Bucket(5); ok {
		run.Within5 = b.Count
	}
	if b, ok := eval.accuracy.Bucket(10); ok {
		run.Within10 = b.Count
	}
	store, err := env.openStore()
	if err != nil {
		env.log.Warn("open run history", zap.Error(err))
		return nil
	}
	if store != nil {
		defer store.Close()
		if _, err := store.RecordEvaluation(context.Background(), run); err != nil {
			env.log.Warn("record evaluation run", zap.Error(err))
		}
	}
	return nil
}
