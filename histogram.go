package pyentropy

import (
	"math"

	"github.com/robince/pyentropy-svn/pkg/nsb"
)

// buildHistogram converts a validated probability vector and trial
// count into the word/count representation the estimator consumes.
// Words are the positional indices 0..dim-1. Counts round half to even
// (matching numpy's rounding in the original toolchain) and their sum
// is deliberately not corrected back to n; the estimator tolerates the
// rounding slack and reports it as a warning.
func buildHistogram(p []float64, n int) *nsb.Histogram {
	words := make([]int, len(p))
	counts := make([]float64, len(p))

	for i, pi := range p {
		words[i] = i
		counts[i] = math.RoundToEven(pi * float64(n))
	}

	return &nsb.Histogram{
		Trials:   n,
		Words:    len(p),
		WordList: words,
		Counts:   counts,
	}
}
