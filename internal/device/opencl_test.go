//go:build opencl

package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDevice(t *testing.T) *OpenCLBackend {
	t.Helper()
	b, err := NewOpenCLBackend(-1, -1)
	if err != nil {
		t.Skipf("no OpenCL device: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func TestOpenCL_AdjacentDifference(t *testing.T) {
	b := openTestDevice(t)
	t.Logf("device: %+v", b.Info())

	prog, err := b.Build(adjacentDifferenceSource)
	require.NoError(t, err)
	defer prog.Release()
	k, err := prog.Kernel("adjacent_difference")
	require.NoError(t, err)
	defer k.Release()
	assert.Equal(t, 2, k.NumArgs())

	x := []float32{10, 3, -2, 7}
	y := make([]float32, len(x))
	bufX, err := b.NewBuffer(len(x))
	require.NoError(t, err)
	defer bufX.Release()
	bufY, err := b.NewBuffer(len(y))
	require.NoError(t, err)
	defer bufY.Release()

	require.NoError(t, b.Write(bufX, x))
	require.NoError(t, b.Write(bufY, y))
	require.NoError(t, k.Enqueue(len(x), bufX, bufY))
	require.NoError(t, b.Finish())
	require.NoError(t, b.Read(bufY, y))

	assert.Equal(t, []float32{10, -7, -5, 9}, y)
}

func TestOpenCL_BuildFailure(t *testing.T) {
	b := openTestDevice(t)

	_, err := b.Build("__kernel void adjacent_difference(__global float* x, __global float* y) { y[0] = x[0] }")
	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr), "got %v", err)
	assert.Equal(t, BuildProgramFailure, buildErr.Code)
	require.Len(t, buildErr.Logs, 1)
	assert.NotEmpty(t, buildErr.Logs[0].Log)
}

func TestOpenCL_UnknownKernel(t *testing.T) {
	b := openTestDevice(t)
	prog, err := b.Build(adjacentDifferenceSource)
	require.NoError(t, err)
	defer prog.Release()

	_, err = prog.Kernel("missing")
	requireCode(t, err, InvalidKernelName)
}

func TestOpenCL_LogsSelectedDevice(t *testing.T) {
	buf := captureLog(t)
	b := openTestDevice(t)

	assert.Contains(t, buf.String(), `"message":"OpenCL device selected"`)
	assert.Contains(t, buf.String(), b.Info().Name)
}
