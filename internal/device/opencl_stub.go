//go:build !opencl

package device

// OpenCLAvailable reports whether the binary was built with OpenCL support.
const OpenCLAvailable = false

// openOpenCL always fails: no OpenCL queue can exist in this build.
// Build with -tags opencl and an ICD loader installed to use a real device.
func openOpenCL(platformIndex, deviceIndex int) (Backend, error) {
	return nil, newError("clGetPlatformIDs", DeviceNotFound)
}
