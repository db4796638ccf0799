package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"sgdreg/config"
	"sgdreg/dataset"
	"sgdreg/db"
	"sgdreg/ml"
)

func runTrain(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("train", stderr)
	var c common
	c.register(fs)
	lr := fs.Float64("lr", 0, "learning rate (default 0.001)")
	epochs := fs.Int("epochs", 0, "number of epochs (default 1000)")
	out := fs.String("out", "", "output model path (default model.json)")
	seed := fs.Int64("seed", 0, "random seed; 0 draws one from the clock")
	reportEvery := fs.Int("report-every", 0, "log mean loss every N epochs (default 100)")
	holdout := fs.Float64("holdout", 0, "fraction of rows held out for evaluation")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageError{msg: "train needs exactly one csv path"}
	}
	csvPath := positional[0]

	o := config.Overrides{ModelPath: *out}
	set := setFlags(fs)
	if set["lr"] {
		o.LearningRate = lr
	}
	if set["epochs"] {
		o.Epochs = epochs
	}
	if set["seed"] {
		o.Seed = seed
	}
	if set["report-every"] {
		o.ReportEvery = reportEvery
	}
	if set["holdout"] {
		o.Holdout = holdout
	}
	env, err := c.setup(o, stderr)
	if err != nil {
		return err
	}
	defer env.close()
	cfg := env.cfg

	runSeed := cfg.Train.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(runSeed))

	env.log.Info("loading data", zap.String("path", csvPath))
	ds, err := dataset.Load(csvPath, dataset.Options{Encoding: cfg.Data.Encoding})
	if err != nil {
		return err
	}
	if ds.Len() == 0 {
		return fmt.Errorf("dataset %s has no rows", csvPath)
	}
	trainSet, testSet := ds.Split(cfg.Train.Holdout, rng)

	env.log.Info("training model",
		zap.Int("rows", trainSet.Len()),
		zap.Int("holdout_rows", testSet.Len()),
		zap.Int("features", ds.FeatureCount()),
		zap.Float64("lr", cfg.Train.LearningRate),
		zap.Int("epochs", cfg.Train.Epochs),
		zap.Int64("seed", runSeed),
	)
	model := ml.NewLinearRegression(ds.FeatureCount(), cfg.Train.LearningRate, rng)
	env.log.Debug("initial parameters", zap.Float64s("weights", model.Weights), zap.Float64("bias", model.Bias))

	start := time.Now()
	err = model.Train(trainSet.Features, trainSet.Targets, ml.TrainConfig{
		Epochs:      cfg.Train.Epochs,
		Rand:        rng,
		ReportEvery: cfg.Train.ReportEvery,
		Reporter: ml.ReporterFunc(func(r ml.EpochReport) {
			env.log.Info("epoch", zap.Int("epoch", r.Epoch), zap.Float64("mse", r.MSE))
		}),
	})
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	elapsed := time.Since(start)

	trainMSE, err := datasetMSE(model, trainSet)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Training Mean Squared Error: %.6f\n", trainMSE)

	var holdoutMSE *float64
	if testSet.Len() > 0 {
		eval, err := evaluate(model, testSet)
		if err != nil {
			return err
		}
		holdoutMSE = &eval.mse
		fmt.Fprintf(stdout, "Holdout Mean Squared Error: %.6f\n", eval.mse)
		renderAccuracy(stdout, eval.accuracy)
	}

	if dir := filepath.Dir(cfg.Model.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create model dir: %v", ml.ErrIO, err)
		}
	}
	if err := model.Save(cfg.Model.Path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Model saved to %s\n", cfg.Model.Path)

	recordTraining(env, db.TrainingRun{
		DatasetPath: csvPath,
		ModelPath:   cfg.Model.Path,
		Rows:        trainSet.Len(),
		Features:    ds.FeatureCount(),
		LR:          cfg.Train.LearningRate,
		Epochs:      cfg.Train.Epochs,
		Seed:        runSeed,
		TrainMSE:    trainMSE,
		HoldoutMSE:  holdoutMSE,
		Duration:    elapsed,
	})
	return nil
}

func datasetMSE(model *ml.LinearRegression, ds *dataset.Dataset) (float64, error) {
	preds, err := ml.PredictAll(model, ds.Features)
	if err != nil {
		return 0, err
	}
	return ml.MeanSquaredError(ds.Targets, preds)
}

// recordTraining never fails the command: the model is already on disk.
func recordTraining(env *env, run db.TrainingRun) {
	store, err := env.openStore()
	if err != nil {
		env.log.Warn("open run history", zap.Error(err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()
	if _, err := store.RecordTraining(context.Background(), run); err != nil {
		env.log.Warn("record training run", zap.Error(err))
	}
}
