package pyentropy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimalise(t *testing.T) {
	t.Run("maps words to scalar identifiers", func(t *testing.T) {
		r := require.New(t)

		// two binary variables over two trials: words 01 and 10
		d, err := Decimalise([][]int{{0, 1}, {1, 0}}, 2, 2)
		r.NoError(err)
		r.Equal([]int{1, 2}, d)
	})

	t.Run("base three words", func(t *testing.T) {
		r := require.New(t)

		d, err := Decimalise([][]int{{2, 0}, {1, 2}}, 2, 3)
		r.NoError(err)
		r.Equal([]int{7, 2}, d)
	})

	t.Run("rejects mismatched row counts", func(t *testing.T) {
		r := require.New(t)

		_, err := Decimalise([][]int{{0, 1}}, 2, 2)
		r.ErrorIs(err, ErrInvalidArgument)
	})

	t.Run("rejects out of range digits", func(t *testing.T) {
		r := require.New(t)

		_, err := Decimalise([][]int{{0, 2}}, 1, 2)
		r.ErrorIs(err, ErrInvalidArgument)
	})
}

func TestBaseConversion(t *testing.T) {
	t.Run("round trips through digit rows", func(t *testing.T) {
		r := require.New(t)

		x := []int{0, 5, 7, 3}

		rows := Dec2Base(x, 2, 3)
		r.Equal([]int{1, 0, 1}, rows[1])
		r.Equal([]int{1, 1, 1}, rows[2])

		r.Equal(x, Base2Dec(rows, 2))
	})

	t.Run("base ten digits", func(t *testing.T) {
		r := require.New(t)

		rows := Dec2Base([]int{123}, 10, 3)
		r.Equal([]int{1, 2, 3}, rows[0])
	})
}

func TestQuantise(t *testing.T) {
	t.Run("equal width bins", func(t *testing.T) {
		r := require.New(t)

		input := []float64{0, 1, 2, 3, 4, 5, 6, 7}

		q, err := Quantise(input, 2, "bins", &[2]float64{0, 8})
		r.NoError(err)

		r.Equal([]float64{4}, q.Bounds)
		r.Equal([]float64{2, 6}, q.Centers)
		r.Equal([]int{0, 0, 0, 0, 1, 1, 1, 1}, q.Values)
	})

	t.Run("bins over the data range", func(t *testing.T) {
		r := require.New(t)

		q, err := Quantise([]float64{0, 10, 20, 30}, 3, "bins", nil)
		r.NoError(err)

		r.InDelta(10, q.Bounds[0], 1e-12)
		r.InDelta(20, q.Bounds[1], 1e-12)
		r.Equal([]int{0, 1, 2, 2}, q.Values)
	})

	t.Run("equal occupancy bins", func(t *testing.T) {
		r := require.New(t)

		input := []float64{9, 1, 5, 3, 7, 11, 13, 15}

		q, err := Quantise(input, 2, "sampling", nil)
		r.NoError(err)

		// half the samples land in each level
		var counts [2]int
		for _, v := range q.Values {
			counts[v]++
		}

		r.Equal(4, counts[0])
		r.Equal(4, counts[1])
	})

	t.Run("rejects too few levels", func(t *testing.T) {
		r := require.New(t)

		_, err := Quantise([]float64{1, 2}, 1, "bins", nil)
		r.ErrorIs(err, ErrInvalidArgument)
	})

	t.Run("rejects underfilled sampling bins", func(t *testing.T) {
		r := require.New(t)

		_, err := Quantise([]float64{1, 2}, 4, "sampling", nil)
		r.ErrorIs(err, ErrInvalidArgument)
	})

	t.Run("rejects unknown modes", func(t *testing.T) {
		r := require.New(t)

		_, err := Quantise([]float64{1, 2}, 2, "magic", nil)
		r.ErrorIs(err, ErrInvalidArgument)
	})
}
