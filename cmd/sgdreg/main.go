package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

const usage = `usage: sgdreg <command> [arguments]

commands:
  train <csv> [--lr rate] [--epochs n] [--out path] [--seed s] [--report-every k] [--holdout f]
  test <csv> [--model path]
  predict [--model path] <feature...>
  serve [--model path] [--port p] [--cache-size n] [--watch]
  history [--limit n]

every command also accepts --config, --log-level, --db and --encoding.
`

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type command func(args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"train":   runTrain,
	"test":    runTest,
	"predict": runPredict,
	"serve":   runServe,
	"history": runHistory,
}

type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return e.msg
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return exitOK
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	err := cmd(args[1:], stdout, stderr)
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "sgdreg %s: %v\n\n%s", args[0], err, usage)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "sgdreg %s: %v\n", args[0], err)
		return exitFailure
	}
}
