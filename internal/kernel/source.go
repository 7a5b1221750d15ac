package kernel

import (
	_ "embed"
	"fmt"
	"os"
)

// DefaultEntryPoint is the kernel function the benchmark dispatches.
const DefaultEntryPoint = "adjacent_difference"

// BuiltinPath is reported as the path of the embedded kernel source.
const BuiltinPath = "builtin:adjacent_difference.cl"

//go:embed kernels/adjacent_difference.cl
var builtinSource string

// Source is kernel program text together with where it came from.
type Source struct {
	Path string
	Text string
}

// Builtin reports whether the text is the embedded adjacent_difference
// kernel, whichever path it was loaded from.
func (s *Source) Builtin() bool {
	return s.Text == builtinSource
}

// NotFoundError reports that kernel source could not be opened.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot open kernel source: %s: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Load reads kernel source from path. An empty path selects the embedded
// adjacent_difference kernel. The path is checked for existence before it
// is opened; failures are returned as *NotFoundError.
func Load(path string) (*Source, error) {
	if path == "" {
		return &Source{Path: BuiltinPath, Text: builtinSource}, nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	if fi.IsDir() {
		return nil, &NotFoundError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	return &Source{Path: path, Text: string(data)}, nil
}
