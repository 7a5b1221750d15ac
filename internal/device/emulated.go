package device

import (
	"runtime"
	"strings"
	"sync"

	"github.com/23skdu/longbow-adjdiff/internal/simd"
)

// ensure interface compliance
var _ Backend = (*EmulatedBackend)(nil)
var _ Program = (*emulatedProgram)(nil)
var _ Kernel = (*emulatedKernel)(nil)
var _ Buffer = (*emulatedBuffer)(nil)

// numWorkers defines the default parallelism for emulated work items
var numWorkers = runtime.NumCPU()

// nativeKernel executes a kernel over [0, global) on host memory.
type nativeKernel struct {
	arity int
	run   func(global int, args [][]float32) error
}

// nativeKernels lists the kernels the emulated device knows how to execute.
var nativeKernels = map[string]nativeKernel{
	"adjacent_difference": {arity: 2, run: runAdjacentDifference},
}

// EmulatedBackend is a device that lives in host memory and executes known
// kernels on goroutines. It behaves like an in-order command queue: kernels
// run asynchronously, and transfers wait for previously enqueued work.
type EmulatedBackend struct {
	mu       sync.Mutex
	pending  sync.WaitGroup
	asyncErr error
	released bool

	maxAlloc  int64
	allocated int64
}

func NewEmulatedBackend() *EmulatedBackend {
	return &EmulatedBackend{}
}

func (b *EmulatedBackend) Name() string {
	return "Emulated"
}

func (b *EmulatedBackend) Info() Info {
	return Info{
		Name:         "Go emulated device",
		Vendor:       "longbow",
		Version:      "OpenCL C 1.2 (emulated)",
		ComputeUnits: numWorkers,
		GlobalMem:    uint64(b.maxAlloc),
	}
}

// SetMaxAllocBytes caps the total bytes the device can hold. Zero means unlimited.
func (b *EmulatedBackend) SetMaxAllocBytes(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxAlloc = n
}

func (b *EmulatedBackend) Build(source string) (Program, error) {
	if err := b.checkQueue("clBuildProgram"); err != nil {
		return nil, err
	}
	decls, diags := compileSource(source)
	if len(diags) > 0 {
		err := newBuildError(BuildProgramFailure, b.Info().Name, strings.Join(diags, "\n"))
		recordBuild(b.Name(), err)
		return nil, err
	}
	recordBuild(b.Name(), nil)

	p := &emulatedProgram{backend: b, kernels: make(map[string]kernelDecl, len(decls))}
	for _, d := range decls {
		p.kernels[d.name] = d
	}
	return p, nil
}

func (b *EmulatedBackend) NewBuffer(n int) (Buffer, error) {
	if err := b.checkQueue("clCreateBuffer"); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, newError("clCreateBuffer", InvalidBufferSize)
	}
	size := int64(n) * 4

	b.mu.Lock()
	if b.maxAlloc > 0 && b.allocated+size > b.maxAlloc {
		b.mu.Unlock()
		return nil, newError("clCreateBuffer", MemObjectAllocationFailure)
	}
	b.allocated += size
	b.mu.Unlock()

	allocatedBytes.WithLabelValues(b.Name()).Add(float64(size))
	return &emulatedBuffer{backend: b, data: make([]float32, n)}, nil
}

func (b *EmulatedBackend) Write(buf Buffer, src []float32) error {
	eb, err := b.own("clEnqueueWriteBuffer", buf)
	if err != nil {
		return err
	}
	if len(src) != len(eb.data) {
		return newError("clEnqueueWriteBuffer", InvalidValue)
	}
	b.pending.Wait()
	copy(eb.data, src)
	transferBytes.WithLabelValues(b.Name(), directionToDevice).Add(float64(len(src) * 4))
	return nil
}

func (b *EmulatedBackend) Read(buf Buffer, dst []float32) error {
	eb, err := b.own("clEnqueueReadBuffer", buf)
	if err != nil {
		return err
	}
	if len(dst) != len(eb.data) {
		return newError("clEnqueueReadBuffer", InvalidValue)
	}
	b.pending.Wait()
	copy(dst, eb.data)
	transferBytes.WithLabelValues(b.Name(), directionToHost).Add(float64(len(dst) * 4))
	return nil
}

func (b *EmulatedBackend) Finish() error {
	if err := b.checkQueue("clFinish"); err != nil {
		return err
	}
	b.pending.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.asyncErr
	b.asyncErr = nil
	return err
}

func (b *EmulatedBackend) Release() {
	b.pending.Wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
}

func (b *EmulatedBackend) checkQueue(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return newError(op, InvalidCommandQueue)
	}
	return nil
}

// own returns buf as a live buffer of this backend.
func (b *EmulatedBackend) own(op string, buf Buffer) (*emulatedBuffer, error) {
	if err := b.checkQueue(op); err != nil {
		return nil, err
	}
	eb, ok := buf.(*emulatedBuffer)
	if !ok || eb == nil || eb.backend != b || eb.data == nil {
		return nil, newError(op, InvalidMemObject)
	}
	return eb, nil
}

type emulatedBuffer struct {
	backend *EmulatedBackend
	data    []float32
}

func (eb *emulatedBuffer) Len() int {
	return len(eb.data)
}

func (eb *emulatedBuffer) Release() {
	if eb.data == nil {
		return
	}
	size := int64(len(eb.data)) * 4
	eb.backend.pending.Wait()
	eb.backend.mu.Lock()
	eb.backend.allocated -= size
	eb.backend.mu.Unlock()
	allocatedBytes.WithLabelValues(eb.backend.Name()).Sub(float64(size))
	eb.data = nil
}

type emulatedProgram struct {
	backend *EmulatedBackend
	kernels map[string]kernelDecl
}

func (p *emulatedProgram) Kernel(name string) (Kernel, error) {
	if p.kernels == nil {
		return nil, newError("clCreateKernel", InvalidProgram)
	}
	decl, ok := p.kernels[name]
	if !ok {
		return nil, newError("clCreateKernel", InvalidKernelName)
	}
	native, ok := nativeKernels[name]
	if !ok {
		return nil, newError("clCreateKernel", InvalidKernelDefinition)
	}
	return &emulatedKernel{backend: p.backend, decl: decl, native: native}, nil
}

func (p *emulatedProgram) Release() {
	p.kernels = nil
}

type emulatedKernel struct {
	backend *EmulatedBackend
	decl    kernelDecl
	native  nativeKernel
}

func (k *emulatedKernel) Name() string {
	return k.decl.name
}

func (k *emulatedKernel) NumArgs() int {
	return len(k.decl.params)
}

func (k *emulatedKernel) Enqueue(global int, args ...Buffer) error {
	const op = "clEnqueueNDRangeKernel"
	if err := k.backend.checkQueue(op); err != nil {
		return err
	}
	if len(args) != k.NumArgs() || len(args) != k.native.arity {
		return newError(op, InvalidKernelArgs)
	}
	if global < 1 {
		return newError(op, InvalidGlobalWorkSize)
	}
	data := make([][]float32, len(args))
	for i, a := range args {
		eb, err := k.backend.own(op, a)
		if err != nil {
			return err
		}
		if global > len(eb.data) {
			return newError(op, InvalidGlobalWorkSize)
		}
		data[i] = eb.data
	}

	// In-order queue: wait for earlier work before starting this kernel.
	k.backend.pending.Wait()
	kernelDispatches.WithLabelValues(k.backend.Name(), k.decl.name).Inc()

	k.backend.pending.Add(1)
	go func() {
		defer k.backend.pending.Done()
		if err := k.native.run(global, data); err != nil {
			k.backend.mu.Lock()
			if k.backend.asyncErr == nil {
				k.backend.asyncErr = err
			}
			k.backend.mu.Unlock()
		}
	}()
	return nil
}

func (k *emulatedKernel) Release() {}

// runAdjacentDifference computes y[i] = x[i] - x[i-1], y[0] = x[0], one work item per index.
func runAdjacentDifference(global int, args [][]float32) error {
	x, y := args[0], args[1]
	if global > len(x) || global > len(y) {
		return newError("clEnqueueNDRangeKernel", InvalidGlobalWorkSize)
	}

	var wg sync.WaitGroup
	itemsPerWorker := (global + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * itemsPerWorker
		end := start + itemsPerWorker
		if start >= global {
			break
		}
		if end > global {
			end = global
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			simd.AdjacentDifference(y, x, start, end)
		}(start, end)
	}
	wg.Wait()
	return nil
}
