// Package indicator computes technical indicators over an ordered price
// series. Every computation returns a Series aligned to the input bars:
// positions where the indicator window is not yet full hold no value.
// Callers must treat absent positions as not-available, never as zero.
//
// All computations use the prior-bar-inclusive convention: the value at
// index i is derived from bars [i-N+1, i]. No look-ahead.
package indicator

import (
	"github.com/moznion/go-optional"
)

// Series is an ordered sequence of indicator values aligned to the bars the
// indicator was computed from. Leading positions are None until the window
// is full.
type Series []optional.Option[float64]

// NewSeries returns an all-absent series of the given length.
func NewSeries(length int) Series {
	return make(Series, length)
}

// At returns the value at index i, or None when i is out of range.
func (s Series) At(i int) optional.Option[float64] {
	if i < 0 || i >= len(s) {
		return optional.None[float64]()
	}

	return s[i]
}

// Last returns the value at the final position, or None for an empty series.
func (s Series) Last() optional.Option[float64] {
	return s.At(len(s) - 1)
}

// ValidFrom returns the index of the first present value, or -1 when every
// position is absent.
func (s Series) ValidFrom() int {
	for i, v := range s {
		if v.IsSome() {
			return i
		}
	}

	return -1
}
