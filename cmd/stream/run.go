package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"pipelined.dev/stream/algorithms"
	pipelineconfig "pipelined.dev/stream/config"
	"pipelined.dev/stream/log"
	"pipelined.dev/stream/metric"
	"pipelined.dev/stream/network"
	"pipelined.dev/stream/pool"
	"pipelined.dev/stream/registry"
)

type runCommand struct {
	mu       sync.Mutex // guards stdout
	stdout   io.Writer
	fs       *flag.FlagSet
	pipeline string
	out      string
	jobs     int
	metrics  bool
}

// Implement command interface.
func (cmd *runCommand) Name() string {
	return "run"
}

func (cmd *runCommand) Help() string {
	return "Run a pipeline over input files"
}

func (cmd *runCommand) Register(fs *flag.FlagSet) {
	cmd.fs = fs
	fs.StringVar(&cmd.pipeline, "pipeline", "", "pipeline description file (required)")
	fs.StringVar(&cmd.out, "out", "", "directory to save results (required)")
	fs.IntVar(&cmd.jobs, "jobs", 1, "number of files processed concurrently")
	fs.BoolVar(&cmd.metrics, "metrics", false, "print metrics after the run")
}

func (cmd *runCommand) Run() error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	p, err := pipelineconfig.LoadFile(cmd.pipeline)
	if err != nil {
		return err
	}
	r := registry.New()
	defer r.Close()
	if err := algorithms.Register(r); err != nil {
		return err
	}
	if err := os.MkdirAll(cmd.out, 0o755); err != nil {
		return err
	}

	var m *metric.Metrics
	if cmd.metrics {
		m = metric.New()
	}
	logger := log.GetLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cmd.jobs)
	for _, file := range cmd.fs.Args() {
		file := file
		g.Go(func() error {
			options := []network.Option{
				network.WithLogger(logger.WithField("file", file)),
				network.WithName(base(file)),
			}
			if m != nil {
				options = append(options, network.WithMetric(m))
			}
			if err := cmd.analyze(ctx, p, r, file, options...); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			return nil
		})
	}
	err = g.Wait()
	if m != nil {
		if werr := m.WriteText(cmd.stdout); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	return err
}

// analyze runs the pipeline over a single file and saves the results
// pool.
func (cmd *runCommand) analyze(ctx context.Context, p *pipelineconfig.Pipeline, r *registry.Registry, file string, options ...network.Option) (err error) {
	results := pool.New()
	g, err := p.Build(r, results, map[string]string{"input": file})
	if err != nil {
		return err
	}
	n, err := g.Network(options...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, n.Close())
	}()
	stats, err := n.Run(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(cmd.out, base(file)+".yaml"))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := results.WriteYAML(f); err != nil {
		return err
	}
	cmd.mu.Lock()
	defer cmd.mu.Unlock()
	fmt.Fprintf(cmd.stdout, "%s: %d passes, %d tokens discarded in %v\n", file, stats.Passes, stats.Discarded, stats.Duration)
	return nil
}

func (cmd *runCommand) Validate() error {
	var message string
	if cmd.pipeline == "" {
		message = message + "Missing -pipeline required flag\n"
	}
	if cmd.out == "" {
		message = message + "Missing -out required flag\n"
	}
	if cmd.jobs < 1 {
		message = message + "Flag -jobs must be positive\n"
	}
	if cmd.fs == nil || cmd.fs.NArg() == 0 {
		message = message + "Missing input files\n"
	} else {
		seen := make(map[string]string, cmd.fs.NArg())
		for _, file := range cmd.fs.Args() {
			if other, ok := seen[base(file)]; ok {
				message = message + fmt.Sprintf("Inputs %s and %s have the same name %s\n", other, file, base(file))
				continue
			}
			seen[base(file)] = file
		}
	}
	if message != "" {
		return errors.New(strings.TrimSpace(message))
	}
	return nil
}

func base(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}
