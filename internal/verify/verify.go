package verify

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// AdjacentDifference replaces xs with its adjacent difference in place:
// xs[0] is kept, xs[i] becomes xs[i] - xs[i-1] of the original values.
func AdjacentDifference(xs []float32) {
	if len(xs) == 0 {
		return
	}
	prev := xs[0]
	for i := 1; i < len(xs); i++ {
		cur := xs[i]
		xs[i] = cur - prev
		prev = cur
	}
}

// Tolerance bounds the accepted difference between host and device values.
// The zero value demands exact equality.
type Tolerance struct {
	Abs float64
	Rel float64
}

// Exact reports whether t requires bitwise-equal results (up to signed zero).
func (t Tolerance) Exact() bool {
	return t.Abs == 0 && t.Rel == 0
}

func (t Tolerance) equal(a, b float32) bool {
	if t.Exact() {
		return a == b
	}
	return scalar.EqualWithinAbsOrRel(float64(a), float64(b), t.Abs, t.Rel)
}

func (t Tolerance) String() string {
	if t.Exact() {
		return "exact"
	}
	return fmt.Sprintf("abs=%g rel=%g", t.Abs, t.Rel)
}

// Mismatch summarises where two sequences disagree.
type Mismatch struct {
	Count int
	// First is the index of the first disagreeing element, or -1.
	First int
	Want  float32
	Got   float32
}

// Equal reports whether no element disagreed.
func (m Mismatch) Equal() bool {
	return m.Count == 0
}

// Compare checks want and got elementwise under tol.
// Sequences of different lengths are an error, not a mismatch.
func Compare(want, got []float32, tol Tolerance) (Mismatch, error) {
	if len(want) != len(got) {
		return Mismatch{}, fmt.Errorf("compare: length mismatch: %d != %d", len(want), len(got))
	}
	m := Mismatch{First: -1}
	for i := range want {
		if tol.equal(want[i], got[i]) {
			continue
		}
		if m.Count == 0 {
			m.First = i
			m.Want = want[i]
			m.Got = got[i]
		}
		m.Count++
	}
	return m, nil
}
