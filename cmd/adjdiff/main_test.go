package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-adjdiff/internal/device"
	"github.com/23skdu/longbow-adjdiff/internal/kernel"
)

func shrinkChain(t *testing.T, n int) {
	t.Helper()
	prev := chainLength
	chainLength = n
	t.Cleanup(func() { chainLength = prev })
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Success(t *testing.T) {
	shrinkChain(t, 2048)

	code, stdout, _ := runCLI(t, "-backend", device.KindEmulated, "-seed", "42")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "The computational time for a 2,048 element long vector on the CPU:")
	assert.Contains(t, stdout, "The computational time for a 2,048 element long vector on the GPU:")
	assert.Contains(t, stdout, "\nValidation: The vectors are equal\n")
}

func TestRun_RandomSeed(t *testing.T) {
	shrinkChain(t, 16)

	code, stdout, stderr := runCLI(t, "-backend", device.KindEmulated, "-v")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Validation: The vectors are equal")
	assert.Contains(t, stderr, "Drew random seed")
}

func TestRun_MissingKernel(t *testing.T) {
	shrinkChain(t, 16)
	path := filepath.Join(t.TempDir(), "nope.cl")

	code, stdout, stderr := runCLI(t, "-backend", device.KindEmulated, "-kernel", path)
	assert.Equal(t, exitGeneric, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, path)
}

func TestRun_BuildFailure(t *testing.T) {
	shrinkChain(t, 16)
	path := filepath.Join(t.TempDir(), "broken.cl")
	require.NoError(t, os.WriteFile(path, []byte("__kernel void adjacent_difference(__global const float* x, __global float* y) {\n"), 0o644))

	code, stdout, stderr := runCLI(t, "-backend", device.KindEmulated, "-kernel", path)
	assert.Equal(t, device.BuildProgramFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Kernel build failed")
	assert.Contains(t, stderr, "Build log")
	assert.Contains(t, stderr, "unmatched '{'")
}

func TestRun_DeviceFailure(t *testing.T) {
	shrinkChain(t, 16)

	code, _, stderr := runCLI(t, "-backend", device.KindEmulated, "-entry", "inclusive_scan")
	assert.Equal(t, device.InvalidKernelName, code)
	assert.Contains(t, stderr, "CL_INVALID_KERNEL_NAME")
}

func TestRun_OpenCLUnavailable(t *testing.T) {
	if device.OpenCLAvailable {
		t.Skip("built with OpenCL support")
	}
	code, _, stderr := runCLI(t, "-backend", device.KindOpenCL)
	assert.Equal(t, device.DeviceNotFound, code)
	assert.Contains(t, stderr, "Device error")
}

func TestRun_UnknownBackend(t *testing.T) {
	code, _, stderr := runCLI(t, "-backend", "vulkan")
	assert.Equal(t, exitGeneric, code)
	assert.Contains(t, stderr, "vulkan")
}

func TestRun_BadFlags(t *testing.T) {
	code, _, _ := runCLI(t, "-abs-tol", "-1")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "extra")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "-no-such-flag")
	assert.Equal(t, 2, code)
}

func TestRun_MetricsFile(t *testing.T) {
	shrinkChain(t, 64)
	path := filepath.Join(t.TempDir(), "adjdiff.prom")

	code, _, _ := runCLI(t, "-backend", device.KindEmulated, "-seed", "1", "-metrics-file", path)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "adjdiff_validations_total")
	assert.Contains(t, string(data), "adjdiff_device_transfer_bytes_total")
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "", opts.kernelPath)
	assert.Equal(t, kernel.DefaultEntryPoint, opts.entryPoint)
	assert.Equal(t, defaultBackend(), opts.backend)
	assert.Equal(t, -1, opts.device)
	assert.Equal(t, uint64(0), opts.seed)
	assert.False(t, opts.verbose)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Build", fmt.Errorf("build: %w", &device.BuildError{Code: device.BuildProgramFailure}), device.BuildProgramFailure},
		{"Device", fmt.Errorf("finish: %w", &device.Error{Op: "clFinish", Code: device.OutOfResources}), device.OutOfResources},
		{"Generic", errors.New("boom"), exitGeneric},
		{"NotFound", &kernel.NotFoundError{Path: "x.cl", Err: os.ErrNotExist}, exitGeneric},
		{"ZeroCode", &device.Error{Op: "clFinish", Code: device.Success}, exitGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
