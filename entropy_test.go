package pyentropy

import (
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func testLog() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "test",
		Level: hclog.Error,
	})
}

func TestValidation(t *testing.T) {
	log := testLog()

	calc, err := NewCalculator(log)
	require.NoError(t, err)
	defer calc.Close()

	t.Run("rejects a length mismatch", func(t *testing.T) {
		r := require.New(t)

		_, err := calc.Entropy([]float64{0.5, 0.5}, 10, 3)
		r.ErrorIs(err, ErrInvalidArgument)
	})

	t.Run("rejects a non-positive dimension", func(t *testing.T) {
		r := require.New(t)

		_, err := calc.Entropy(nil, 10, 0)
		r.ErrorIs(err, ErrInvalidArgument)
	})

	t.Run("rejects negative probabilities", func(t *testing.T) {
		r := require.New(t)

		_, err := calc.Entropy([]float64{1.5, -0.5}, 10, 2)
		r.ErrorIs(err, ErrInvalidArgument)
	})

	t.Run("rejects an unnormalized vector", func(t *testing.T) {
		r := require.New(t)

		_, err := calc.Entropy([]float64{0.5, 0.4}, 10, 2)
		r.ErrorIs(err, ErrInvalidArgument)
	})

	t.Run("rejects non-positive trial counts", func(t *testing.T) {
		r := require.New(t)

		_, err := calc.Entropy([]float64{0.5, 0.5}, 0, 2)
		r.ErrorIs(err, ErrInvalidArgument)
	})
}

func TestEntropy(t *testing.T) {
	log := testLog()

	t.Run("uniform distribution approaches the log dimension", func(t *testing.T) {
		r := require.New(t)

		calc, err := NewCalculator(log)
		r.NoError(err)
		defer calc.Close()

		h, err := calc.Entropy([]float64{0.25, 0.25, 0.25, 0.25}, 100, 4)
		r.NoError(err)

		r.InDelta(math.Log(4), h, 0.1)
		r.LessOrEqual(h, math.Log(4))
	})

	t.Run("degenerate distribution approaches zero", func(t *testing.T) {
		r := require.New(t)

		calc, err := NewCalculator(log)
		r.NoError(err)
		defer calc.Close()

		h, err := calc.Entropy([]float64{1, 0}, 100, 2)
		r.NoError(err)

		r.GreaterOrEqual(h, 0.0)
		r.Less(h, 0.1)
	})

	t.Run("variance is non-negative and finite", func(t *testing.T) {
		r := require.New(t)

		calc, err := NewCalculator(log)
		r.NoError(err)
		defer calc.Close()

		h, v, err := calc.EntropyVariance([]float64{0.5, 0.3, 0.2}, 50, 3)
		r.NoError(err)

		r.False(math.IsNaN(h))
		r.GreaterOrEqual(v, 0.0)
		r.False(math.IsInf(v, 0))
	})

	t.Run("cached and uncached calls agree", func(t *testing.T) {
		r := require.New(t)

		cached, err := NewCalculator(log)
		r.NoError(err)
		defer cached.Close()

		uncached, err := NewCalculator(log, WithCacheSize(0))
		r.NoError(err)
		defer uncached.Close()

		p := []float64{0.4, 0.35, 0.25}

		// prime the cache, then hit it
		first, err := cached.Entropy(p, 40, 3)
		r.NoError(err)

		second, err := cached.Entropy(p, 40, 3)
		r.NoError(err)
		r.Equal(first, second)

		direct, err := uncached.Entropy(p, 40, 3)
		r.NoError(err)
		r.InDelta(direct, first, 1e-12)
	})

	t.Run("cache hits count as served estimates", func(t *testing.T) {
		r := require.New(t)

		path := filepath.Join(t.TempDir(), "history.db")

		calc, err := NewCalculator(log, WithHistory(path))
		r.NoError(err)

		p := []float64{0.7, 0.3}

		ranBefore := testutil.ToFloat64(estimatesRun)
		hitsBefore := testutil.ToFloat64(cacheHits)

		first, err := calc.Entropy(p, 30, 2)
		r.NoError(err)

		second, err := calc.Entropy(p, 30, 2)
		r.NoError(err)
		r.Equal(first, second)

		r.InDelta(ranBefore+2, testutil.ToFloat64(estimatesRun), 0.01)
		r.InDelta(hitsBefore+1, testutil.ToFloat64(cacheHits), 0.01)

		r.NoError(calc.Close())

		hs, err := OpenHistory(log, path)
		r.NoError(err)
		defer hs.Close()

		recs, err := hs.List()
		r.NoError(err)
		r.Len(recs, 2)
	})

	t.Run("concurrent estimates match the sequential baseline", func(t *testing.T) {
		r := require.New(t)

		calc, err := NewCalculator(log, WithCacheSize(0))
		r.NoError(err)
		defer calc.Close()

		p := []float64{0.1, 0.2, 0.3, 0.4}

		baseline, err := calc.Entropy(p, 60, 4)
		r.NoError(err)

		const workers = 8

		var (
			wg   sync.WaitGroup
			got  [workers]float64
			errs [workers]error
		)

		for w := 0; w < workers; w++ {
			wg.Add(1)

			go func(w int) {
				defer wg.Done()
				got[w], errs[w] = calc.Entropy(p, 60, 4)
			}(w)
		}

		wg.Wait()

		for w := 0; w < workers; w++ {
			r.NoError(errs[w])
			r.InDelta(baseline, got[w], 1e-12)
		}
	})
}

func TestBuildHistogram(t *testing.T) {
	t.Run("counts round half to even", func(t *testing.T) {
		r := require.New(t)

		h := buildHistogram([]float64{0.125, 0.875}, 4)

		r.Equal(4, h.Trials)
		r.Equal(2, h.Words)
		r.Equal([]int{0, 1}, h.WordList)
		r.Equal([]float64{0, 4}, h.Counts)
	})

	t.Run("exact counts survive untouched", func(t *testing.T) {
		r := require.New(t)

		h := buildHistogram([]float64{0.2, 0.3, 0.5}, 10)

		r.Equal([]float64{2, 3, 5}, h.Counts)
	})
}

func TestBuildEstimatorOptions(t *testing.T) {
	r := require.New(t)

	calc, err := NewCalculator(testLog(), WithPrecision(1e-4), WithPossibleWords(32))
	r.NoError(err)
	defer calc.Close()

	opts := calc.buildEstimatorOptions(true)

	r.Equal(1e-4, opts.Precision)
	r.Equal(32, opts.PossibleWords)
	r.Len(opts.Methods, 1)
	r.Equal("nsb", opts.Methods[0].Name)
	r.Len(opts.Methods[0].Variance, 1)
	r.Equal("nsb_var", opts.Methods[0].Variance[0].Name)

	opts = calc.buildEstimatorOptions(false)
	r.Empty(opts.Methods[0].Variance)
}

func TestEstimateDigest(t *testing.T) {
	r := require.New(t)

	calc, err := NewCalculator(testLog())
	r.NoError(err)
	defer calc.Close()

	opts := calc.buildEstimatorOptions(false)

	h1 := buildHistogram([]float64{0.5, 0.5}, 10)
	h2 := buildHistogram([]float64{0.6, 0.4}, 10)

	r.NotEqual(estimateDigest(h1, opts, false), estimateDigest(h2, opts, false))
	r.NotEqual(estimateDigest(h1, opts, false), estimateDigest(h1, opts, true))
	r.Equal(estimateDigest(h1, opts, false), estimateDigest(h1, opts, false))
}
