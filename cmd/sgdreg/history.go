package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"sgdreg/config"
)

func runHistory(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("history", stderr)
	var c common
	c.register(fs)
	limit := fs.Int("limit", 20, "number of runs to list per table")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 0 {
		return usageError{msg: "history takes no positional arguments"}
	}

	env, err := c.setup(config.Overrides{}, stderr)
	if err != nil {
		return err
	}
	defer env.close()

	store, err := env.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("no run history configured; set database.path or pass --db")
	}
	defer store.Close()

	ctx := context.Background()
	training, err := store.ListTrainingRuns(ctx, *limit)
	if err != nil {
		return err
	}
	evaluations, err := store.ListEvaluationRuns(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRAINED AT\tDATASET\tMODEL\tROWS\tLR\tEPOCHS\tSEED\tTRAIN MSE\tHOLDOUT MSE\tDURATION")
	for _, run := range training {
		holdout := "-"
		if run.HoldoutMSE != nil {
			holdout = fmt.Sprintf("%.6f", *run.HoldoutMSE)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%g\t%d\t%d\t%.6f\t%s\t%s\n",
			run.TrainedAt.Format(time.RFC3339), run.DatasetPath, run.ModelPath, run.Rows,
			run.LR, run.Epochs, run.Seed, run.TrainMSE, holdout, run.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "EVALUATED AT\tDATASET\tMODEL\tROWS\tMSE\t±5%\t±10%")
	for _, run := range evaluations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.6f\t%d\t%d\n",
			run.EvaluatedAt.Format(time.RFC3339), run.DatasetPath, run.ModelPath, run.Rows,
			run.MSE, run.Within5, run.Within10)
	}
	return tw.Flush()
}
