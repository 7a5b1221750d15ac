package simd

// Sub performs dst[i] = a[i] - b[i] for float32 vectors.
// dst, a and b must have the same length; dst may alias a.
func Sub(dst, a, b []float32) {
	n := len(dst)
	a = a[:n]
	b = b[:n]
	// Unrolled loop for better pipelining
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = a[i] - b[i]
		dst[i+1] = a[i+1] - b[i+1]
		dst[i+2] = a[i+2] - b[i+2]
		dst[i+3] = a[i+3] - b[i+3]
	}
	// Handle remainder
	for ; i < n; i++ {
		dst[i] = a[i] - b[i]
	}
}

// AdjacentDifference writes dst[i] = src[i] - src[i-1] for i in [lo, hi),
// with dst[0] = src[0] when lo is 0. dst must not alias src.
func AdjacentDifference(dst, src []float32, lo, hi int) {
	if lo >= hi {
		return
	}
	if lo == 0 {
		dst[0] = src[0]
		lo = 1
	}
	if lo < hi {
		Sub(dst[lo:hi], src[lo:hi], src[lo-1:hi-1])
	}
}
