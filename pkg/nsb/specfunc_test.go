package nsb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const eulerGamma = 0.5772156649015329

func TestSpecfunc(t *testing.T) {
	t.Run("digamma at small integers", func(t *testing.T) {
		r := require.New(t)

		r.InDelta(-eulerGamma, digamma(1), 1e-12)
		r.InDelta(1-eulerGamma, digamma(2), 1e-12)
		r.InDelta(1.5-eulerGamma, digamma(3), 1e-12)
	})

	t.Run("digamma recurrence", func(t *testing.T) {
		r := require.New(t)

		for _, x := range []float64{0.1, 0.7, 3.3, 12.5, 400} {
			r.InDelta(digamma(x)+1/x, digamma(x+1), 1e-10)
		}
	})

	t.Run("digamma asymptotics", func(t *testing.T) {
		r := require.New(t)

		x := 1e6
		r.InDelta(math.Log(x)-1/(2*x), digamma(x), 1e-12)
	})

	t.Run("trigamma at one", func(t *testing.T) {
		r := require.New(t)

		r.InDelta(math.Pi*math.Pi/6, trigamma(1), 1e-12)
	})

	t.Run("trigamma recurrence", func(t *testing.T) {
		r := require.New(t)

		for _, x := range []float64{0.2, 1.5, 8.1, 77} {
			r.InDelta(trigamma(x)-1/(x*x), trigamma(x+1), 1e-10)
		}
	})
}

func TestGauleg(t *testing.T) {
	t.Run("weights sum to interval length", func(t *testing.T) {
		r := require.New(t)

		for _, n := range []int{4, 16, 64} {
			_, w := gauleg(n)

			var sum float64
			for _, wi := range w {
				sum += wi
			}

			r.InDelta(2.0, sum, 1e-12)
		}
	})

	t.Run("integrates polynomials exactly", func(t *testing.T) {
		r := require.New(t)

		x, w := gauleg(8)

		var quad float64
		for i := range x {
			quad += w[i] * x[i] * x[i]
		}

		r.InDelta(2.0/3.0, quad, 1e-12)
	})
}
