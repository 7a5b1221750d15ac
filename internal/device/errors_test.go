package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusName(t *testing.T) {
	assert.Equal(t, "CL_BUILD_PROGRAM_FAILURE", StatusName(BuildProgramFailure))
	assert.Equal(t, "CL_INVALID_KERNEL_NAME", StatusName(-46))
	assert.Equal(t, "CL_UNKNOWN_ERROR(-9999)", StatusName(-9999))
}

func TestErrorClassification(t *testing.T) {
	buildErr := &BuildError{
		Code: BuildProgramFailure,
		Logs: []BuildLog{{Device: "gpu0", Log: "error"}, {Device: "gpu1", Log: "error"}},
	}
	wrapped := fmt.Errorf("build program: %w", buildErr)

	var asBuild *BuildError
	assert.True(t, errors.As(wrapped, &asBuild))
	assert.Len(t, asBuild.Logs, 2)
	assert.Contains(t, buildErr.Error(), "gpu0, gpu1")

	// A build failure is not a plain device error
	var asDevice *Error
	assert.False(t, errors.As(wrapped, &asDevice))

	devErr := fmt.Errorf("dispatch: %w", newError("clEnqueueNDRangeKernel", InvalidGlobalWorkSize))
	assert.True(t, errors.As(devErr, &asDevice))
	assert.Equal(t, InvalidGlobalWorkSize, asDevice.Code)
	assert.Equal(t, "clEnqueueNDRangeKernel: CL_INVALID_GLOBAL_WORK_SIZE", asDevice.Error())
}

func TestNewBuildError_KeepsLogForAnyCode(t *testing.T) {
	tests := []struct {
		name string
		code int
		log  string
	}{
		{"CompileFailure", BuildProgramFailure, "<source>:1:1: error: unmatched '{'"},
		{"InvalidDevice", InvalidDevice, ""},
		{"OutOfResources", OutOfResources, "compiler ran out of memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newBuildError(tt.code, "gpu0", tt.log)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, []BuildLog{{Device: "gpu0", Log: tt.log}}, err.Logs)
			assert.Contains(t, err.Error(), "devices: gpu0")
		})
	}
}
