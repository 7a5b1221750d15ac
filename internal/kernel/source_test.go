package kernel

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Builtin(t *testing.T) {
	src, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BuiltinPath, src.Path)
	assert.Contains(t, src.Text, "__kernel void "+DefaultEntryPoint+"(")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.cl")
	text := "__kernel void adjacent_difference(__global const float* x, __global float* y) {}\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Path)
	assert.Equal(t, text, src.Text)
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.cl")

	_, err := Load(path)
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, path, nf.Path)
	assert.Contains(t, err.Error(), path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Contains(t, err.Error(), "is a directory")
}

func TestSource_Builtin(t *testing.T) {
	src, err := Load("")
	require.NoError(t, err)
	assert.True(t, src.Builtin())

	// Same text from a file still counts as the built-in kernel
	path := filepath.Join(t.TempDir(), "copy.cl")
	require.NoError(t, os.WriteFile(path, []byte(builtinSource), 0644))
	src, err = Load(path)
	require.NoError(t, err)
	assert.True(t, src.Builtin())

	assert.False(t, (&Source{Path: "x.cl", Text: "__kernel void f() {}"}).Builtin())
}
