package pyentropy

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Decimalise maps length-n base-m words onto scalar word identifiers.
// x[i][t] is variable i of trial t.
func Decimalise(x [][]int, n, m int) ([]int, error) {
	if len(x) != n {
		return nil, errors.Wrapf(ErrInvalidArgument, "input has %d rows, expected %d", len(x), n)
	}

	if n == 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "empty word length")
	}

	trials := len(x[0])

	powers := make([]int, n)
	for i := range powers {
		powers[i] = intPow(m, n-1-i)
	}

	out := make([]int, trials)

	for i, row := range x {
		if len(row) != trials {
			return nil, errors.Wrapf(ErrInvalidArgument, "row %d has %d trials, expected %d", i, len(row), trials)
		}

		for t, v := range row {
			if v < 0 || v >= m {
				return nil, errors.Wrapf(ErrInvalidArgument, "value %d outside [0, %d)", v, m)
			}

			out[t] += v * powers[i]
		}
	}

	return out, nil
}

// Dec2Base expands scalar word identifiers into rows of digits in the
// given base, most significant digit first.
func Dec2Base(x []int, b, digits int) [][]int {
	out := make([][]int, len(x))

	for t, v := range x {
		row := make([]int, digits)

		for d := digits - 1; d >= 0; d-- {
			row[d] = v % b
			v /= b
		}

		out[t] = row
	}

	return out
}

// Base2Dec collapses rows of base-b digits (x[t][i], most significant
// first) to scalar values.
func Base2Dec(x [][]int, b int) []int {
	out := make([]int, len(x))

	for t, row := range x {
		v := 0
		for _, d := range row {
			v = v*b + d
		}

		out[t] = v
	}

	return out
}

// Quantised is the output of Quantise: the level index per input
// sample, the m-1 interior bin bounds, and the m bin centers.
type Quantised struct {
	Values  []int
	Bounds  []float64
	Centers []float64
}

// Quantise bins a continuous vector into m unsigned levels. With
// uniform "sampling" the bins are equally occupied; with uniform
// "bins" they have equal widths over minmax (or the data range when
// minmax is nil).
func Quantise(input []float64, m int, uniform string, minmax *[2]float64) (*Quantised, error) {
	if m < 2 {
		return nil, errors.Wrapf(ErrInvalidArgument, "quantisation needs at least 2 levels, got %d", m)
	}

	bounds := make([]float64, m-1)
	centers := make([]float64, m)

	switch uniform {
	case "sampling":
		binNumel := len(input) / m
		if binNumel == 0 {
			return nil, errors.Wrapf(ErrInvalidArgument, "%d samples cannot fill %d bins", len(input), m)
		}

		sorted := append([]float64(nil), input...)
		sort.Float64s(sorted)

		for j := 1; j < m; j++ {
			bounds[j-1] = sorted[j*binNumel]
		}

		centers[0] = (bounds[0] + sorted[0]) / 2
		for i := 1; i < m-1; i++ {
			centers[i] = (bounds[i] + bounds[i-1]) / 2
		}
		centers[m-1] = (sorted[len(sorted)-1] + bounds[m-2]) / 2

	case "bins":
		var lo, hi float64

		if minmax != nil {
			lo, hi = minmax[0], minmax[1]
		} else {
			lo, hi = math.Inf(1), math.Inf(-1)
			for _, v := range input {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}

		width := (hi - lo) / float64(m)

		for j := 1; j < m; j++ {
			bounds[j-1] = lo + width*float64(j)
		}

		for i := 0; i < m; i++ {
			centers[i] = lo + width*(float64(i)+0.5)
		}

	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown quantisation mode %q", uniform)
	}

	values := make([]int, len(input))
	for i, v := range input {
		values[i] = sort.Search(len(bounds), func(j int) bool {
			return bounds[j] > v
		})
	}

	return &Quantised{
		Values:  values,
		Bounds:  bounds,
		Centers: centers,
	}, nil
}

func intPow(b, e int) int {
	out := 1
	for i := 0; i < e; i++ {
		out *= b
	}
	return out
}
