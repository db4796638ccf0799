package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"sgdreg/dataset"
)

// DefaultPath is read when no --config flag is given. A missing file at this path is not an error.
const DefaultPath = "sgdreg.yaml"

// Config captures the runtime knobs of the CLI.
type Config struct {
	Train    Train    `yaml:"train"`
	Model    Model    `yaml:"model"`
	Data     Data     `yaml:"data"`
	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Serve    Serve    `yaml:"serve"`
}

type Train struct {
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	Seed         int64   `yaml:"seed"`
	ReportEvery  int     `yaml:"report_every"`
	Holdout      float64 `yaml:"holdout"`
}

type Model struct {
	Path string `yaml:"path"`
}

type Data struct {
	Encoding string `yaml:"encoding"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Serve struct {
	Port      int           `yaml:"port"`
	CacheSize int           `yaml:"cache_size"`
	Watch     bool          `yaml:"watch"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Overrides captures CLI supplied values. Nil numbers and empty strings leave the
// config untouched, so an explicit zero still overrides.
type Overrides struct {
	LearningRate *float64
	Epochs       *int
	Seed         *int64
	ReportEvery  *int
	Holdout      *float64
	ModelPath    string
	Encoding     string
	LogLevel     string
	DBPath       string
	Port         *int
}

func Default() *Config {
	return &Config{
		Train: Train{
			LearningRate: 0.001,
			Epochs:       1000,
			ReportEvery:  100,
		},
		Model: Model{Path: "model.json"},
		Data:  Data{Encoding: "utf-8"},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Serve: Serve{
			Port:      8080,
			CacheSize: 1024,
			Watch:     true,
			Timeout:   30 * time.Second,
		},
	}
}

// Load reads path over the defaults. A missing file at DefaultPath yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) ApplyOverrides(o Overrides) {
	if o.LearningRate != nil {
		c.Train.LearningRate = *o.LearningRate
	}
	if o.Epochs != nil {
		c.Train.Epochs = *o.Epochs
	}
	if o.Seed != nil {
		c.Train.Seed = *o.Seed
	}
	if o.ReportEvery != nil {
		c.Train.ReportEvery = *o.ReportEvery
	}
	if o.Holdout != nil {
		c.Train.Holdout = *o.Holdout
	}
	if o.ModelPath != "" {
		c.Model.Path = o.ModelPath
	}
	if o.Encoding != "" {
		c.Data.Encoding = o.Encoding
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.DBPath != "" {
		c.Database.Path = o.DBPath
	}
	if o.Port != nil {
		c.Serve.Port = *o.Port
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Train.LearningRate <= 0 {
		return fmt.Errorf("train.learning_rate must be > 0 (got %v)", c.Train.LearningRate)
	}
	if c.Train.Epochs < 0 {
		return fmt.Errorf("train.epochs must be >= 0 (got %d)", c.Train.Epochs)
	}
	if c.Train.ReportEvery < 0 {
		return fmt.Errorf("train.report_every must be >= 0 (got %d)", c.Train.ReportEvery)
	}
	if c.Train.Holdout < 0 || c.Train.Holdout >= 1 {
		return fmt.Errorf("train.holdout must be in [0, 1) (got %v)", c.Train.Holdout)
	}
	if c.Model.Path == "" {
		return errors.New("model.path must be set")
	}
	if _, err := dataset.LookupEncoding(c.Data.Encoding); err != nil {
		return fmt.Errorf("data.encoding: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Serve.CacheSize < 0 {
		return fmt.Errorf("serve.cache_size must be >= 0 (got %d)", c.Serve.CacheSize)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port out of range (got %d)", c.Serve.Port)
	}
	if c.Serve.Timeout <= 0 {
		return fmt.Errorf("serve.timeout must be > 0 (got %v)", c.Serve.Timeout)
	}
	return nil
}
