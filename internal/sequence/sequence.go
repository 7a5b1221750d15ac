package sequence

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Bounds of the generated values. Both ends are excluded.
const (
	Min = -100.0
	Max = 100.0
)

// Uniform returns n pseudo-random float32 values uniformly distributed in
// (Min, Max). The same seed always yields the same sequence.
func Uniform(n int, seed uint64) []float32 {
	dist := distuv.Uniform{
		Min: Min,
		Max: Max,
		Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}

	out := make([]float32, n)
	for i := range out {
		v := float32(dist.Rand())
		// Narrowing to float32 can round onto a bound; draw again.
		for v <= Min || v >= Max {
			v = float32(dist.Rand())
		}
		out[i] = v
	}
	return out
}

// Zeros returns the zero-initialised output sequence of length n.
func Zeros(n int) []float32 {
	return make([]float32, n)
}
