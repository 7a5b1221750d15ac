package device

import (
	"fmt"
	"strings"
)

// Status codes reported by the compute engine. The values match the OpenCL
// error codes so the emulated backend and the OpenCL backend agree on them.
const (
	Success                    = 0
	DeviceNotFound             = -1
	DeviceNotAvailable         = -2
	MemObjectAllocationFailure = -4
	OutOfResources             = -5
	OutOfHostMemory            = -6
	BuildProgramFailure        = -11
	InvalidValue               = -30
	InvalidPlatform            = -32
	InvalidDevice              = -33
	InvalidContext             = -34
	InvalidCommandQueue        = -36
	InvalidMemObject           = -38
	InvalidProgram             = -44
	InvalidProgramExecutable   = -45
	InvalidKernelName          = -46
	InvalidKernelDefinition    = -47
	InvalidKernel              = -48
	InvalidArgIndex            = -49
	InvalidArgValue            = -50
	InvalidKernelArgs          = -52
	InvalidWorkDimension       = -53
	InvalidBufferSize          = -61
	InvalidGlobalWorkSize      = -63
)

var statusNames = map[int]string{
	Success:                    "CL_SUCCESS",
	DeviceNotFound:             "CL_DEVICE_NOT_FOUND",
	DeviceNotAvailable:         "CL_DEVICE_NOT_AVAILABLE",
	MemObjectAllocationFailure: "CL_MEM_OBJECT_ALLOCATION_FAILURE",
	OutOfResources:             "CL_OUT_OF_RESOURCES",
	OutOfHostMemory:            "CL_OUT_OF_HOST_MEMORY",
	BuildProgramFailure:        "CL_BUILD_PROGRAM_FAILURE",
	InvalidValue:               "CL_INVALID_VALUE",
	InvalidPlatform:            "CL_INVALID_PLATFORM",
	InvalidDevice:              "CL_INVALID_DEVICE",
	InvalidContext:             "CL_INVALID_CONTEXT",
	InvalidCommandQueue:        "CL_INVALID_COMMAND_QUEUE",
	InvalidMemObject:           "CL_INVALID_MEM_OBJECT",
	InvalidProgram:             "CL_INVALID_PROGRAM",
	InvalidProgramExecutable:   "CL_INVALID_PROGRAM_EXECUTABLE",
	InvalidKernelName:          "CL_INVALID_KERNEL_NAME",
	InvalidKernelDefinition:    "CL_INVALID_KERNEL_DEFINITION",
	InvalidKernel:              "CL_INVALID_KERNEL",
	InvalidArgIndex:            "CL_INVALID_ARG_INDEX",
	InvalidArgValue:            "CL_INVALID_ARG_VALUE",
	InvalidKernelArgs:          "CL_INVALID_KERNEL_ARGS",
	InvalidWorkDimension:       "CL_INVALID_WORK_DIMENSION",
	InvalidBufferSize:          "CL_INVALID_BUFFER_SIZE",
	InvalidGlobalWorkSize:      "CL_INVALID_GLOBAL_WORK_SIZE",
}

// StatusName returns the symbolic name of an engine status code.
func StatusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return fmt.Sprintf("CL_UNKNOWN_ERROR(%d)", code)
}

// Error is a device-level failure carrying the engine status code and the
// operation that produced it.
type Error struct {
	Op   string
	Code int
}

func newError(op string, code int) *Error {
	return &Error{Op: op, Code: code}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, StatusName(e.Code))
}

// BuildLog is the compiler diagnostic output for one device.
type BuildLog struct {
	Device string
	Log    string
}

// BuildError reports that a program failed to compile for one or more devices.
// It carries one log per device the build was attempted on.
type BuildError struct {
	Code int
	Logs []BuildLog
}

// newBuildError records the log for device whatever the failure code; an
// empty log is kept so every attempted device is still listed.
func newBuildError(code int, device, text string) *BuildError {
	return &BuildError{Code: code, Logs: []BuildLog{{Device: device, Log: text}}}
}

func (e *BuildError) Error() string {
	devices := make([]string, 0, len(e.Logs))
	for _, l := range e.Logs {
		devices = append(devices, l.Device)
	}
	return fmt.Sprintf("build program: %s (devices: %s)", StatusName(e.Code), strings.Join(devices, ", "))
}
