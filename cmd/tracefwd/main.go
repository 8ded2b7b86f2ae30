package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.opentelemetry.io/otel"

	"trace-forwarder/pkg/config"
	"trace-forwarder/pkg/forwarder"
	"trace-forwarder/pkg/registry"
	"trace-forwarder/pkg/telemetry"
	"trace-forwarder/pkg/version"
)

const meterName = "trace-forwarder"

func main() {
	args := os.Args[1:]
	if config.VersionRequested(args) {
		fmt.Println(version.Info())
		return
	}

	logger := log.New(os.Stderr, "[tracefwd] ", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args, os.Stdin, logger); err != nil {
		stop()
		if errors.Is(err, errConfig) {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var errConfig = errors.New("configuration")

// run forwards every line read from in until in is exhausted or ctx ends.
func run(ctx context.Context, args []string, in io.Reader, logger *log.Logger) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	if cfg == nil {
		return nil
	}
	if cfg.ConfigFile != "" {
		logger.Printf("loaded config file %s", cfg.ConfigFile)
	}

	agg := telemetry.NewAggregator(telemetry.RealClock{}, telemetry.DefaultConfig())
	publishers := []telemetry.TelemetryPublisher{agg}

	provider, err := newMeterProvider(ctx, cfg.MetricsEndpoint)
	if err != nil {
		return err
	}
	if provider != nil {
		otel.SetMeterProvider(provider)
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Printf("meter provider shutdown: %v", err)
			}
		}()
		metrics, err := telemetry.NewOTelPublisher(provider.Meter(meterName))
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
		publishers = append(publishers, metrics)
	} else {
		logger.Printf("metrics export disabled, set %s to enable", config.KeyMetricsEndpoint)
	}

	agg.Start(context.WithoutCancel(ctx))
	defer agg.Stop()

	fwd, err := forwarder.New(forwarder.ConfigFrom(cfg), logger,
		forwarder.WithTelemetry(telemetry.NewMultiPublisher(publishers...)))
	if err != nil {
		return err
	}
	defer fwd.Close()
	if !cfg.AutoStart {
		logger.Printf("auto start disabled, starting for stdin")
		fwd.Start()
	}

	cli := NewCLI(agg, cfg, logger)
	cliCtx, cancelCLI := context.WithCancel(ctx)
	cliDone := make(chan struct{})
	go func() {
		defer close(cliDone)
		_ = cli.Run(cliCtx)
	}()

	lines := make(chan error, 1)
	go func() { lines <- pump(in, registry.Default) }()

	select {
	case err = <-lines:
		if err != nil {
			logger.Printf("reading input: %v", err)
		}
	case <-ctx.Done():
		logger.Printf("interrupted, shutting down")
	}

	cancelCLI()
	<-cliDone
	_ = fwd.Close()
	agg.Stop()
	cli.PrintSummary()
	return err
}

// pump writes each line of in to r. Lines of any length are passed on; the
// forwarder drops the ones that are too large.
func pump(in io.Reader, r *registry.Registry) error {
	br := bufio.NewReader(in)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			r.WriteLine(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
