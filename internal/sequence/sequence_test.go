package sequence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestUniform_Reproducible(t *testing.T) {
	a := Uniform(1000, 42)
	b := Uniform(1000, 42)
	require.Len(t, a, 1000)

	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("seeded sequences diverge at %d: %v != %v", i, a[i], b[i])
		}
	}

	c := Uniform(1000, 43)
	assert.NotEqual(t, a, c, "different seeds should give different sequences")
}

func TestUniform_Range(t *testing.T) {
	xs := Uniform(100000, 7)
	values := make([]float64, len(xs))
	for i, v := range xs {
		if v <= Min || v >= Max {
			t.Fatalf("value %v at %d outside (%v, %v)", v, i, Min, Max)
		}
		values[i] = float64(v)
	}

	// Uniform(-100, 100): mean 0, variance 200^2/12
	mean, std := stat.MeanStdDev(values, nil)
	assert.InDelta(t, 0, mean, 1.5)
	assert.InDelta(t, 200/math.Sqrt(12), std, 1.0)
}

func TestUniform_Lengths(t *testing.T) {
	assert.Empty(t, Uniform(0, 1))
	assert.Len(t, Uniform(1, 1), 1)
}

func TestZeros(t *testing.T) {
	zs := Zeros(5)
	assert.Equal(t, []float32{0, 0, 0, 0, 0}, zs)
}
