package device

// Info describes the device backing a command queue.
type Info struct {
	Name         string
	Vendor       string
	Version      string
	ComputeUnits int
	// GlobalMem is the device memory size in bytes; 0 means no fixed limit.
	GlobalMem uint64
}

// Buffer is a block of float32 memory resident on a device.
// Host code never touches its contents directly; use Backend.Write and
// Backend.Read to move data across.
type Buffer interface {
	// Len returns the number of float32 elements the buffer holds.
	Len() int

	// Release frees the device memory. Releasing twice is a no-op.
	Release()
}

// Kernel is a compiled entry point that can be dispatched over a 1-D index range.
type Kernel interface {
	Name() string

	// NumArgs returns the number of parameters declared by the kernel.
	NumArgs() int

	// Enqueue binds args positionally and dispatches the kernel over
	// [0, global). It returns once the work is queued; call
	// Backend.Finish to wait for completion.
	Enqueue(global int, args ...Buffer) error

	Release()
}

// Program owns device code compiled from a single source text.
type Program interface {
	// Kernel resolves a named entry point.
	Kernel(name string) (Kernel, error)

	Release()
}

// Backend is an explicit device context: one device plus its in-order command queue.
// All transfer methods are blocking relative to the calling goroutine.
type Backend interface {
	Name() string

	// Info answers the device info query for the queue's device.
	Info() Info

	// Build compiles source for the device. Compilation failures are
	// reported as *BuildError.
	Build(source string) (Program, error)

	// NewBuffer allocates an n-element float32 buffer. No data is transferred.
	NewBuffer(n int) (Buffer, error)

	// Write copies src into buf and waits for the copy to finish.
	Write(buf Buffer, src []float32) error

	// Read copies buf into dst and waits for the copy to finish.
	Read(buf Buffer, dst []float32) error

	// Finish blocks until all previously enqueued work has completed.
	Finish() error

	// Release tears down the queue and context.
	Release()
}
