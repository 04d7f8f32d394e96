package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/runnable-dev/runnable-sdk/config"
	"github.com/runnable-dev/runnable-sdk/host"
	"github.com/runnable-dev/runnable-sdk/hostfuncs"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath string
	input      string
	inputFile  string
	export     string
	timeout    time.Duration
	metrics    bool
}

func newRunCmd() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [flags] <module.wasm>",
		Short: "Run a guest module once and print its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runModule(ctx, cmd, o, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "host configuration file (defaults to an in-memory cache only)")
	f.StringVarP(&o.input, "input", "i", "", "input passed to the guest")
	f.StringVar(&o.inputFile, "input-file", "", "read the guest input from a file")
	f.StringVar(&o.export, "export", host.DefaultExport, "guest export to call")
	f.DurationVar(&o.timeout, "timeout", 30*time.Second, "deadline for the run; zero disables it")
	f.BoolVar(&o.metrics, "metrics", false, "print host call metrics to stderr after the run")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
	return cmd
}

func runModule(ctx context.Context, cmd *cobra.Command, o *runOptions, path string) (err error) {
	cfg := config.Default()
	if o.configPath != "" {
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}

	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	input := []byte(o.input)
	if o.inputFile != "" {
		if input, err = os.ReadFile(o.inputFile); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	}

	wasm, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read module: %w", err)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	buildOpts := []config.BuildOption{config.WithLogger(logger)}
	reg := prometheus.NewRegistry()
	if o.metrics {
		m, err := hostfuncs.NewMetrics(reg)
		if err != nil {
			return err
		}
		buildOpts = append(buildOpts, config.WithMetrics(m))
	}

	backends, err := config.Build(ctx, cfg, buildOpts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, backends.Close()) }()

	hostOpts := []host.Option{
		host.WithRegistry(backends.Registry),
		host.WithLogger(logger),
		host.WithMaxRequestSize(cfg.MaxRequestSize),
		host.WithStderr(cmd.ErrOrStderr()),
	}
	if cfg.MemoryLimitPages > 0 {
		hostOpts = append(hostOpts, host.WithMemoryLimitPages(cfg.MemoryLimitPages))
	}
	exec, err := host.NewExecutor(ctx, hostOpts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, exec.Close(context.Background())) }()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	inst, err := exec.LoadModule(ctx, name, wasm)
	if err != nil {
		return err
	}

	out, err := inst.Run(ctx, o.export, input)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}

	if o.metrics {
		return writeMetrics(cmd.ErrOrStderr(), reg)
	}
	return nil
}
