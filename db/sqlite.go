package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store records training and evaluation runs in SQLite.
type Store struct {
	db *sql.DB
}

type TrainingRun struct {
	ID          int64         `json:"id"`
	DatasetPath string        `json:"dataset_path"`
	ModelPath   string        `json:"model_path"`
	Rows        int           `json:"rows"`
	Features    int           `json:"features"`
	LR          float64       `json:"lr"`
	Epochs      int           `json:"epochs"`
	Seed        int64         `json:"seed"`
	TrainMSE    float64       `json:"train_mse"`
	HoldoutMSE  *float64      `json:"holdout_mse,omitempty"`
	Duration    time.Duration `json:"duration"`
	TrainedAt   time.Time     `json:"trained_at"`
}

type EvaluationRun struct {
	ID          int64     `json:"id"`
	DatasetPath string    `json:"dataset_path"`
	ModelPath   string    `json:"model_path"`
	Rows        int       `json:"rows"`
	MSE         float64   `json:"mse"`
	Within5     int       `json:"within_5"`
	Within10    int       `json:"within_10"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Open initializes the database at path, creating its directory and tables.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		database.SetMaxOpenConns(1)
	}

	query := `
    CREATE TABLE IF NOT EXISTS training_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        dataset_path TEXT NOT NULL,
        model_path TEXT NOT NULL,
        row_count INTEGER NOT NULL,
        features INTEGER NOT NULL,
        lr REAL NOT NULL,
        epochs INTEGER NOT NULL,
        seed INTEGER NOT NULL,
        train_mse REAL NOT NULL,
        holdout_mse REAL,
        duration_ms INTEGER NOT NULL,
        trained_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS evaluation_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        dataset_path TEXT NOT NULL,
        model_path TEXT NOT NULL,
        row_count INTEGER NOT NULL,
        mse REAL NOT NULL,
        within_5 INTEGER NOT NULL,
        within_10 INTEGER NOT NULL,
        evaluated_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_training_runs_trained_at ON training_runs(trained_at);
    CREATE INDEX IF NOT EXISTS idx_evaluation_runs_evaluated_at ON evaluation_runs(evaluated_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) RecordTraining(ctx context.Context, run TrainingRun) (int64, error) {
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now().UTC()
	}
	var holdout sql.NullFloat64
	if run.HoldoutMSE != nil {
		holdout = sql.NullFloat64{Float64: *run.HoldoutMSE, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO training_runs (
            dataset_path, model_path, row_count, features, lr, epochs, seed,
            train_mse, holdout_mse, duration_ms, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.DatasetPath, run.ModelPath, run.Rows, run.Features, run.LR, run.Epochs, run.Seed,
		run.TrainMSE, holdout, run.Duration.Milliseconds(), run.TrainedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert training run: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) RecordEvaluation(ctx context.Context, run EvaluationRun) (int64, error) {
	if run.EvaluatedAt.IsZero() {
		run.EvaluatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO evaluation_runs (
            dataset_path, model_path, row_count, mse, within_5, within_10, evaluated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.DatasetPath, run.ModelPath, run.Rows, run.MSE, run.Within5, run.Within10, run.EvaluatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert evaluation run: %w", err)
	}
	return res.LastInsertId()
}

// ListTrainingRuns returns the most recent runs first.
func (s *Store) ListTrainingRuns(ctx context.Context, limit int) ([]TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, dataset_path, model_path, row_count, features, lr, epochs, seed,
               train_mse, holdout_mse, duration_ms, trained_at
        FROM training_runs
        ORDER BY trained_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		var holdout sql.NullFloat64
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.DatasetPath, &run.ModelPath, &run.Rows, &run.Features,
			&run.LR, &run.Epochs, &run.Seed, &run.TrainMSE, &holdout, &durationMS, &run.TrainedAt); err != nil {
			return nil, err
		}
		if holdout.Valid {
			v := holdout.Float64
			run.HoldoutMSE = &v
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) ListEvaluationRuns(ctx context.Context, limit int) ([]EvaluationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, dataset_path, model_path, row_count, mse, within_5, within_10, evaluated_at
        FROM evaluation_runs
        ORDER BY evaluated_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]EvaluationRun, 0)
	for rows.Next() {
		var run EvaluationRun
		if err := rows.Scan(&run.ID, &run.DatasetPath, &run.ModelPath, &run.Rows, &run.MSE,
			&run.Within5, &run.Within10, &run.EvaluatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
