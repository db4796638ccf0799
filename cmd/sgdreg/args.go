package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sgdreg/config"
	"sgdreg/db"
	"sgdreg/logger"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseArgs lets flags appear on either side of positionals. Arguments that parse as
// numbers are positionals even with a leading '-', so negative features need no "--".
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !isFlag(arg) {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		f := fs.Lookup(name)
		if f == nil || isBoolFlag(f) {
			continue
		}
		if i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	if err := fs.Parse(flags); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, usageError{msg: err.Error()}
	}
	return positional, nil
}

// setFlags reports which flags were given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func isFlag(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(arg, 64)
	return err != nil
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

func parseFeatures(values []string) ([]float64, error) {
	features := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, usageError{msg: fmt.Sprintf("feature %d: %q is not a number", i+1, v)}
		}
		features[i] = f
	}
	return features, nil
}

// common holds the flags every command shares.
type common struct {
	configPath string
	logLevel   string
	dbPath     string
	encoding   string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", config.DefaultPath, "path to YAML config")
	fs.StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	fs.StringVar(&c.dbPath, "db", "", "SQLite run history path; empty uses the config value")
	fs.StringVar(&c.encoding, "encoding", "", "dataset encoding (utf-8, utf-16, gbk, latin1)")
}

type env struct {
	cfg *config.Config
	log *zap.Logger
}

func (c *common) setup(o config.Overrides, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	o.LogLevel = c.logLevel
	o.DBPath = c.dbPath
	o.Encoding = c.encoding
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, usageError{msg: fmt.Sprintf("invalid config: %v", err)}
	}
	log, err := logger.New(cfg.Log, stderr)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

// openStore returns nil when no history database is configured.
func (e *env) openStore() (*db.Store, error) {
	if e.cfg.Database.Path == "" {
		return nil, nil
	}
	return db.Open(e.cfg.Database.Path)
}

func (e *env) close() {
	_ = e.log.Sync()
}
