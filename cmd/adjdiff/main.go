package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/23skdu/longbow-adjdiff/internal/bench"
	"github.com/23skdu/longbow-adjdiff/internal/device"
	"github.com/23skdu/longbow-adjdiff/internal/kernel"
	"github.com/23skdu/longbow-adjdiff/internal/verify"
)

// chainLength is the benchmark size; tests shrink it.
var chainLength = bench.ChainLength

type options struct {
	kernelPath  string
	entryPoint  string
	backend     string
	platform    int
	device      int
	seed        uint64
	absTol      float64
	relTol      float64
	enableOTel  bool
	metricsFile string
	verbose     bool
}

func defaultBackend() string {
	if device.OpenCLAvailable {
		return device.KindOpenCL
	}
	return device.KindEmulated
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("adjdiff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.kernelPath, "kernel", "", "Path to the kernel source file (default: embedded adjacent_difference kernel)")
	fs.StringVar(&opts.entryPoint, "entry", kernel.DefaultEntryPoint, "Kernel entry point")
	fs.StringVar(&opts.backend, "backend", defaultBackend(), "Device backend (opencl, emulated)")
	fs.IntVar(&opts.platform, "platform", 0, "OpenCL platform index")
	fs.IntVar(&opts.device, "device", -1, "OpenCL device index (-1 selects the platform default)")
	fs.Uint64Var(&opts.seed, "seed", 0, "Seed for input generation (0 draws a random seed)")
	fs.Float64Var(&opts.absTol, "abs-tol", 0, "Absolute tolerance for validation (0 with -rel-tol 0 means exact)")
	fs.Float64Var(&opts.relTol, "rel-tol", 0, "Relative tolerance for validation")
	fs.BoolVar(&opts.enableOTel, "otel", false, "Enable OpenTelemetry tracing (stderr)")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.absTol < 0 || opts.relTol < 0 {
		return nil, fmt.Errorf("tolerances must not be negative")
	}
	return opts, nil
}

func setupLogging(w io.Writer, verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Caller().Logger()
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one benchmark and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	setupLogging(stderr, opts.verbose)

	ctx := context.Background()
	if opts.enableOTel {
		shutdown, err := initTracer(stderr)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize tracer")
			return exitGeneric
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
	}
	if opts.metricsFile != "" {
		defer writeMetrics(opts.metricsFile)
	}

	seed := opts.seed
	if seed == 0 {
		seed = randomSeed()
		log.Info().Uint64("seed", seed).Msg("Drew random seed")
	}

	backend, err := device.Open(opts.backend, opts.platform, opts.device)
	if err != nil {
		return reportFailure(err)
	}
	defer backend.Release()

	res, err := bench.Run(ctx, backend, bench.Config{
		KernelPath: opts.kernelPath,
		EntryPoint: opts.entryPoint,
		Length:     chainLength,
		Seed:       seed,
		Tolerance:  verify.Tolerance{Abs: opts.absTol, Rel: opts.relTol},
	})
	if err != nil {
		return reportFailure(err)
	}

	if err := bench.WriteReport(stdout, res); err != nil {
		log.Error().Err(err).Msg("Failed to write report")
		return exitGeneric
	}
	return 0
}

func randomSeed() uint64 {
	for {
		if s := rand.Uint64(); s != 0 {
			return s
		}
	}
}

func writeMetrics(path string) {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write metrics file")
		return
	}
	log.Debug().Str("path", path).Msg("Metrics written")
}

func initTracer(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("adjdiff"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
