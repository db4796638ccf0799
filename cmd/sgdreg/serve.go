package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sgdreg/config"
	shttp "sgdreg/http"
)

func runServe(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	var c common
	c.register(fs)
	modelPath := fs.String("model", "", "model path (default model.json)")
	port := fs.Int("port", 0, "listen port (default 8080)")
	cacheSize := fs.Int("cache-size", 0, "prediction cache entries; 0 disables the cache (default 1024)")
	watch := fs.Bool("watch", false, "reload the model when its file changes")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 0 {
		return usageError{msg: "serve takes no positional arguments"}
	}

	set := setFlags(fs)
	if set["cache-size"] && *cacheSize < 0 {
		return usageError{msg: fmt.Sprintf("--cache-size must be >= 0 (got %d)", *cacheSize)}
	}
	o := config.Overrides{ModelPath: *modelPath}
	if set["port"] {
		o.Port = port
	}
	env, err := c.setup(o, stderr)
	if err != nil {
		return err
	}
	defer env.close()
	cfg := env.cfg
	if set["cache-size"] {
		cfg.Serve.CacheSize = *cacheSize
	}
	if set["watch"] {
		cfg.Serve.Watch = *watch
	}

	holder, err := shttp.NewModelHolder(cfg.Model.Path)
	if err != nil {
		return err
	}
	server, err := shttp.NewServer(shttp.ServerConfig{
		Port:      cfg.Serve.Port,
		Timeout:   cfg.Serve.Timeout,
		CacheSize: cfg.Serve.CacheSize,
	}, holder, env.log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Serve.Watch {
		watcher, err := shttp.WatchModel(holder, env.log)
		if err != nil {
			return err
		}
		defer watcher.Close()
		go watcher.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	env.log.Info("received shutdown signal")
	if err := server.Stop(); err != nil {
		env.log.Error("shutdown", zap.Error(err))
		return err
	}
	return nil
}
