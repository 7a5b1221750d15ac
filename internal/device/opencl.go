//go:build opencl

package device

/*
#cgo CFLAGS: -DCL_TARGET_OPENCL_VERSION=120 -DCL_USE_DEPRECATED_OPENCL_1_2_APIS
#cgo linux LDFLAGS: -lOpenCL
#cgo windows LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif

#include <stdlib.h>
*/
import "C"

import (
	"strings"
	"unsafe"

	"github.com/rs/zerolog/log"
)

// Check interface compliance
var _ Backend = (*OpenCLBackend)(nil)
var _ Program = (*openCLProgram)(nil)
var _ Kernel = (*openCLKernel)(nil)
var _ Buffer = (*openCLBuffer)(nil)

// OpenCLAvailable reports whether the binary was built with OpenCL support.
const OpenCLAvailable = true

// OpenCLBackend drives a real device through the OpenCL ICD loader.
type OpenCLBackend struct {
	platform C.cl_platform_id
	device   C.cl_device_id
	context  C.cl_context
	queue    C.cl_command_queue
	info     Info
}

// NewOpenCLBackend creates a context and an in-order command queue on the
// device at deviceIndex of the platform at platformIndex. Negative indices
// select the platform's default device.
func NewOpenCLBackend(platformIndex, deviceIndex int) (*OpenCLBackend, error) {
	var numPlatforms C.cl_uint
	if ret := C.clGetPlatformIDs(0, nil, &numPlatforms); ret != C.CL_SUCCESS || numPlatforms == 0 {
		return nil, newError("clGetPlatformIDs", DeviceNotFound)
	}
	platforms := make([]C.cl_platform_id, numPlatforms)
	if ret := C.clGetPlatformIDs(numPlatforms, &platforms[0], nil); ret != C.CL_SUCCESS {
		return nil, newError("clGetPlatformIDs", int(ret))
	}
	if platformIndex < 0 {
		platformIndex = 0
	}
	if platformIndex >= len(platforms) {
		return nil, newError("clGetPlatformIDs", InvalidPlatform)
	}

	b := &OpenCLBackend{platform: platforms[platformIndex]}

	deviceType := C.cl_device_type(C.CL_DEVICE_TYPE_ALL)
	if deviceIndex < 0 {
		deviceType = C.CL_DEVICE_TYPE_DEFAULT
		deviceIndex = 0
	}
	var numDevices C.cl_uint
	if ret := C.clGetDeviceIDs(b.platform, deviceType, 0, nil, &numDevices); ret != C.CL_SUCCESS || numDevices == 0 {
		return nil, newError("clGetDeviceIDs", DeviceNotFound)
	}
	devices := make([]C.cl_device_id, numDevices)
	if ret := C.clGetDeviceIDs(b.platform, deviceType, numDevices, &devices[0], nil); ret != C.CL_SUCCESS {
		return nil, newError("clGetDeviceIDs", int(ret))
	}
	if deviceIndex >= len(devices) {
		return nil, newError("clGetDeviceIDs", InvalidDevice)
	}
	b.device = devices[deviceIndex]

	var ret C.cl_int
	b.context = C.clCreateContext(nil, 1, &b.device, nil, nil, &ret)
	if ret != C.CL_SUCCESS {
		return nil, newError("clCreateContext", int(ret))
	}

	b.queue = C.clCreateCommandQueue(b.context, b.device, 0, &ret)
	if ret != C.CL_SUCCESS {
		C.clReleaseContext(b.context)
		return nil, newError("clCreateCommandQueue", int(ret))
	}

	b.info = Info{
		Name:         deviceString(b.device, C.CL_DEVICE_NAME),
		Vendor:       deviceString(b.device, C.CL_DEVICE_VENDOR),
		Version:      deviceString(b.device, C.CL_DEVICE_VERSION),
		ComputeUnits: int(deviceUint(b.device, C.CL_DEVICE_MAX_COMPUTE_UNITS)),
		GlobalMem:    deviceUlong(b.device, C.CL_DEVICE_GLOBAL_MEM_SIZE),
	}
	log.Debug().
		Int("platform", platformIndex).
		Int("platforms", len(platforms)).
		Int("device", deviceIndex).
		Int("devices", len(devices)).
		Str("name", b.info.Name).
		Msg("OpenCL device selected")
	return b, nil
}

func openOpenCL(platformIndex, deviceIndex int) (Backend, error) {
	b, err := NewOpenCLBackend(platformIndex, deviceIndex)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *OpenCLBackend) Name() string {
	return "OpenCL"
}

func (b *OpenCLBackend) Info() Info {
	return b.info
}

func (b *OpenCLBackend) Build(source string) (Program, error) {
	src := C.CString(source)
	defer C.free(unsafe.Pointer(src))

	var ret C.cl_int
	length := C.size_t(len(source))
	program := C.clCreateProgramWithSource(b.context, 1, &src, &length, &ret)
	if ret != C.CL_SUCCESS {
		recordBuild(b.Name(), newError("clCreateProgramWithSource", int(ret)))
		return nil, newError("clCreateProgramWithSource", int(ret))
	}

	ret = C.clBuildProgram(program, 1, &b.device, nil, nil, nil)
	if ret != C.CL_SUCCESS {
		err := newBuildError(int(ret), b.info.Name, buildLog(program, b.device))
		C.clReleaseProgram(program)
		recordBuild(b.Name(), err)
		return nil, err
	}
	recordBuild(b.Name(), nil)
	return &openCLProgram{backend: b, program: program}, nil
}

func (b *OpenCLBackend) NewBuffer(n int) (Buffer, error) {
	if n < 1 {
		return nil, newError("clCreateBuffer", InvalidBufferSize)
	}
	size := C.size_t(n) * 4

	var ret C.cl_int
	mem := C.clCreateBuffer(b.context, C.CL_MEM_READ_WRITE, size, nil, &ret)
	if ret != C.CL_SUCCESS {
		return nil, newError("clCreateBuffer", int(ret))
	}
	allocatedBytes.WithLabelValues(b.Name()).Add(float64(size))
	return &openCLBuffer{backend: b, mem: mem, n: n}, nil
}

func (b *OpenCLBackend) Write(buf Buffer, src []float32) error {
	cb, err := b.own("clEnqueueWriteBuffer", buf)
	if err != nil {
		return err
	}
	if len(src) != cb.n {
		return newError("clEnqueueWriteBuffer", InvalidValue)
	}
	size := C.size_t(len(src)) * 4
	ret := C.clEnqueueWriteBuffer(b.queue, cb.mem, C.CL_TRUE, 0, size, unsafe.Pointer(&src[0]), 0, nil, nil)
	if ret != C.CL_SUCCESS {
		return newError("clEnqueueWriteBuffer", int(ret))
	}
	transferBytes.WithLabelValues(b.Name(), directionToDevice).Add(float64(size))
	return nil
}

func (b *OpenCLBackend) Read(buf Buffer, dst []float32) error {
	cb, err := b.own("clEnqueueReadBuffer", buf)
	if err != nil {
		return err
	}
	if len(dst) != cb.n {
		return newError("clEnqueueReadBuffer", InvalidValue)
	}
	size := C.size_t(len(dst)) * 4
	ret := C.clEnqueueReadBuffer(b.queue, cb.mem, C.CL_TRUE, 0, size, unsafe.Pointer(&dst[0]), 0, nil, nil)
	if ret != C.CL_SUCCESS {
		return newError("clEnqueueReadBuffer", int(ret))
	}
	transferBytes.WithLabelValues(b.Name(), directionToHost).Add(float64(size))
	return nil
}

func (b *OpenCLBackend) Finish() error {
	if ret := C.clFinish(b.queue); ret != C.CL_SUCCESS {
		return newError("clFinish", int(ret))
	}
	return nil
}

func (b *OpenCLBackend) Release() {
	if b.queue != nil {
		C.clFinish(b.queue)
		C.clReleaseCommandQueue(b.queue)
		b.queue = nil
	}
	if b.context != nil {
		C.clReleaseContext(b.context)
		b.context = nil
	}
}

func (b *OpenCLBackend) own(op string, buf Buffer) (*openCLBuffer, error) {
	cb, ok := buf.(*openCLBuffer)
	if !ok || cb == nil || cb.backend != b || cb.mem == nil {
		return nil, newError(op, InvalidMemObject)
	}
	return cb, nil
}

type openCLBuffer struct {
	backend *OpenCLBackend
	mem     C.cl_mem
	n       int
}

func (cb *openCLBuffer) Len() int {
	return cb.n
}

func (cb *openCLBuffer) Release() {
	if cb.mem == nil {
		return
	}
	C.clReleaseMemObject(cb.mem)
	cb.mem = nil
	allocatedBytes.WithLabelValues(cb.backend.Name()).Sub(float64(cb.n * 4))
}

type openCLProgram struct {
	backend *OpenCLBackend
	program C.cl_program
}

func (p *openCLProgram) Kernel(name string) (Kernel, error) {
	kName := C.CString(name)
	defer C.free(unsafe.Pointer(kName))

	var ret C.cl_int
	kernel := C.clCreateKernel(p.program, kName, &ret)
	if ret != C.CL_SUCCESS {
		return nil, newError("clCreateKernel", int(ret))
	}

	var numArgs C.cl_uint
	ret = C.clGetKernelInfo(kernel, C.CL_KERNEL_NUM_ARGS, C.size_t(unsafe.Sizeof(numArgs)), unsafe.Pointer(&numArgs), nil)
	if ret != C.CL_SUCCESS {
		C.clReleaseKernel(kernel)
		return nil, newError("clGetKernelInfo", int(ret))
	}
	return &openCLKernel{backend: p.backend, kernel: kernel, name: name, numArgs: int(numArgs)}, nil
}

func (p *openCLProgram) Release() {
	if p.program != nil {
		C.clReleaseProgram(p.program)
		p.program = nil
	}
}

type openCLKernel struct {
	backend *OpenCLBackend
	kernel  C.cl_kernel
	name    string
	numArgs int
}

func (k *openCLKernel) Name() string {
	return k.name
}

func (k *openCLKernel) NumArgs() int {
	return k.numArgs
}

func (k *openCLKernel) Enqueue(global int, args ...Buffer) error {
	const op = "clEnqueueNDRangeKernel"
	if len(args) != k.numArgs {
		return newError(op, InvalidKernelArgs)
	}
	if global < 1 {
		return newError(op, InvalidGlobalWorkSize)
	}
	for i, a := range args {
		cb, err := k.backend.own("clSetKernelArg", a)
		if err != nil {
			return err
		}
		if global > cb.n {
			return newError(op, InvalidGlobalWorkSize)
		}
		ret := C.clSetKernelArg(k.kernel, C.cl_uint(i), C.size_t(unsafe.Sizeof(cb.mem)), unsafe.Pointer(&cb.mem))
		if ret != C.CL_SUCCESS {
			return newError("clSetKernelArg", int(ret))
		}
	}

	globalSize := C.size_t(global)
	ret := C.clEnqueueNDRangeKernel(k.backend.queue, k.kernel, 1, nil, &globalSize, nil, 0, nil, nil)
	if ret != C.CL_SUCCESS {
		return newError(op, int(ret))
	}
	kernelDispatches.WithLabelValues(k.backend.Name(), k.name).Inc()
	return nil
}

func (k *openCLKernel) Release() {
	if k.kernel != nil {
		C.clReleaseKernel(k.kernel)
		k.kernel = nil
	}
}

func buildLog(program C.cl_program, device C.cl_device_id) string {
	var logSize C.size_t
	if C.clGetProgramBuildInfo(program, device, C.CL_PROGRAM_BUILD_LOG, 0, nil, &logSize) != C.CL_SUCCESS || logSize == 0 {
		return ""
	}
	text := make([]byte, logSize)
	if C.clGetProgramBuildInfo(program, device, C.CL_PROGRAM_BUILD_LOG, logSize, unsafe.Pointer(&text[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(text), "\x00\n")
}

func deviceString(device C.cl_device_id, param C.cl_device_info) string {
	var size C.size_t
	if C.clGetDeviceInfo(device, param, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if C.clGetDeviceInfo(device, param, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

func deviceUint(device C.cl_device_id, param C.cl_device_info) uint32 {
	var v C.cl_uint
	C.clGetDeviceInfo(device, param, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil)
	return uint32(v)
}

func deviceUlong(device C.cl_device_id, param C.cl_device_info) uint64 {
	var v C.cl_ulong
	C.clGetDeviceInfo(device, param, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil)
	return uint64(v)
}
