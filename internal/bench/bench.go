package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/23skdu/longbow-adjdiff/internal/device"
	"github.com/23skdu/longbow-adjdiff/internal/kernel"
	"github.com/23skdu/longbow-adjdiff/internal/sequence"
	"github.com/23skdu/longbow-adjdiff/internal/verify"
)

// ChainLength is the number of elements processed per run.
const ChainLength = 100_000_000

// Config controls a benchmark run. Zero fields take their defaults.
type Config struct {
	// KernelPath is the kernel source file; empty selects the embedded kernel.
	KernelPath string
	// EntryPoint is the kernel function name. Defaults to kernel.DefaultEntryPoint.
	EntryPoint string
	// Length is the number of elements. Defaults to ChainLength.
	Length int
	// Seed drives input generation.
	Seed uint64
	// Tolerance is the validation policy; the zero value means exact equality.
	Tolerance verify.Tolerance
}

func (c Config) withDefaults() Config {
	if c.EntryPoint == "" {
		c.EntryPoint = kernel.DefaultEntryPoint
	}
	if c.Length == 0 {
		c.Length = ChainLength
	}
	return c
}

// Result is the outcome of a completed run.
type Result struct {
	Length     int
	Backend    string
	Device     device.Info
	KernelPath string
	Seed       uint64
	Tolerance  verify.Tolerance

	// DeviceElapsed covers dispatch, the completion barrier and the read-back.
	DeviceElapsed time.Duration
	// HostElapsed covers the sequential host computation.
	HostElapsed time.Duration

	Mismatch verify.Mismatch
}

// Equal reports whether host and device results agreed.
func (r *Result) Equal() bool {
	return r.Mismatch.Equal()
}

var tracer = otel.Tracer("adjdiff-bench")

// Run executes the benchmark on backend: resolve the device, build the
// program, prepare data, run the device pipeline, then verify on the host.
// Every step blocks; any failure aborts the run.
func Run(ctx context.Context, backend device.Backend, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if cfg.Length < 1 {
		return nil, fmt.Errorf("invalid length %d: must be at least 1", cfg.Length)
	}

	ctx, span := tracer.Start(ctx, "bench.Run", trace.WithAttributes(
		attribute.Int("length", cfg.Length),
		attribute.String("backend", backend.Name()),
	))
	defer span.End()

	res, err := run(ctx, backend, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		runFailures.WithLabelValues(Category(err)).Inc()
		return nil, err
	}
	observe(res)
	return res, nil
}

func run(ctx context.Context, backend device.Backend, cfg Config) (*Result, error) {
	res := &Result{
		Length:    cfg.Length,
		Backend:   backend.Name(),
		Seed:      cfg.Seed,
		Tolerance: cfg.Tolerance,
	}

	// 1. Device/queue resolution
	_, span := tracer.Start(ctx, "resolve_device")
	res.Device = backend.Info()
	span.SetAttributes(attribute.String("device", res.Device.Name))
	span.End()

	// 2. Program builder
	k, path, err := buildKernel(ctx, backend, cfg)
	if err != nil {
		return nil, err
	}
	defer k.release()
	res.KernelPath = path

	// 3. Data preparation
	_, span = tracer.Start(ctx, "prepare_data")
	x := sequence.Uniform(cfg.Length, cfg.Seed)
	y := sequence.Zeros(cfg.Length)
	span.End()
	log.Debug().Int("length", cfg.Length).Uint64("seed", cfg.Seed).Msg("Input prepared")

	// 4. Device execution pipeline
	elapsed, err := execute(ctx, backend, k.kernel, x, y)
	if err != nil {
		return nil, err
	}
	res.DeviceElapsed = elapsed

	// 5. Verification; x is only overwritten after the device copy-back.
	_, span = tracer.Start(ctx, "verify")
	defer span.End()
	start := time.Now()
	verify.AdjacentDifference(x)
	res.HostElapsed = time.Since(start)

	res.Mismatch, err = verify.Compare(x, y, cfg.Tolerance)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("equal", res.Equal()), attribute.Int("mismatches", res.Mismatch.Count))

	log.Debug().
		Dur("device_elapsed", res.DeviceElapsed).
		Dur("host_elapsed", res.HostElapsed).
		Int("mismatches", res.Mismatch.Count).
		Int("first_mismatch", res.Mismatch.First).
		Str("tolerance", cfg.Tolerance.String()).
		Msg("Run verified")
	return res, nil
}

type builtKernel struct {
	program device.Program
	kernel  device.Kernel
}

func (b *builtKernel) release() {
	b.kernel.Release()
	b.program.Release()
}

func buildKernel(ctx context.Context, backend device.Backend, cfg Config) (*builtKernel, string, error) {
	_, span := tracer.Start(ctx, "build_program")
	defer span.End()

	src, err := kernel.Load(cfg.KernelPath)
	if err != nil {
		return nil, "", err
	}
	span.SetAttributes(attribute.String("kernel.path", src.Path), attribute.String("kernel.entry", cfg.EntryPoint))

	// The emulated device only checks the source and then runs its Go
	// implementation of the entry point.
	if _, ok := backend.(*device.EmulatedBackend); ok && !src.Builtin() {
		log.Warn().
			Str("path", src.Path).
			Str("entry", cfg.EntryPoint).
			Msg("Emulated device does not execute custom kernel source; results reflect the built-in kernel")
	}

	start := time.Now()
	program, err := backend.Build(src.Text)
	if err != nil {
		return nil, "", fmt.Errorf("build %s: %w", src.Path, err)
	}
	buildDuration.Observe(time.Since(start).Seconds())

	k, err := program.Kernel(cfg.EntryPoint)
	if err != nil {
		program.Release()
		return nil, "", fmt.Errorf("resolve kernel %q: %w", cfg.EntryPoint, err)
	}
	// The pipeline binds exactly (source, destination).
	if k.NumArgs() != 2 {
		k.Release()
		program.Release()
		return nil, "", fmt.Errorf("kernel %q declares %d parameters, want 2: %w",
			cfg.EntryPoint, k.NumArgs(), &device.Error{Op: "clCreateKernel", Code: device.InvalidKernelArgs})
	}

	log.Debug().Str("path", src.Path).Str("entry", cfg.EntryPoint).Msg("Program built")
	return &builtKernel{program: program, kernel: k}, src.Path, nil
}

// execute moves x and y to the device, dispatches k over the full range and
// copies both buffers back. The returned duration starts at dispatch and
// ends after the read-back.
func execute(ctx context.Context, backend device.Backend, k device.Kernel, x, y []float32) (time.Duration, error) {
	_, span := tracer.Start(ctx, "execute")
	defer span.End()

	n := len(x)
	if len(y) != n {
		return 0, fmt.Errorf("output length %d does not match input length %d", len(y), n)
	}

	bufX, err := backend.NewBuffer(n)
	if err != nil {
		return 0, fmt.Errorf("allocate input buffer: %w", err)
	}
	defer bufX.Release()
	bufY, err := backend.NewBuffer(n)
	if err != nil {
		return 0, fmt.Errorf("allocate output buffer: %w", err)
	}
	defer bufY.Release()
	if bufX.Len() != n || bufY.Len() != n {
		return 0, fmt.Errorf("device buffers hold %d/%d elements, want %d", bufX.Len(), bufY.Len(), n)
	}

	if err := backend.Write(bufX, x); err != nil {
		return 0, fmt.Errorf("write input: %w", err)
	}
	if err := backend.Write(bufY, y); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}

	start := time.Now()
	if err := k.Enqueue(n, bufX, bufY); err != nil {
		return 0, fmt.Errorf("dispatch %s: %w", k.Name(), err)
	}
	if err := backend.Finish(); err != nil {
		return 0, fmt.Errorf("finish: %w", err)
	}
	if err := backend.Read(bufX, x); err != nil {
		return 0, fmt.Errorf("read input: %w", err)
	}
	if err := backend.Read(bufY, y); err != nil {
		return 0, fmt.Errorf("read output: %w", err)
	}
	elapsed := time.Since(start)

	span.SetAttributes(attribute.Int64("elapsed_ns", elapsed.Nanoseconds()))
	return elapsed, nil
}

// Failure categories, checked in this order.
const (
	CategoryBuild   = "build"
	CategoryDevice  = "device"
	CategoryGeneric = "generic"
)

// Category classifies a run error as a build, device or generic failure.
func Category(err error) string {
	var buildErr *device.BuildError
	if errors.As(err, &buildErr) {
		return CategoryBuild
	}
	var devErr *device.Error
	if errors.As(err, &devErr) {
		return CategoryDevice
	}
	return CategoryGeneric
}
