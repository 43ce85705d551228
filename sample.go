package pyentropy

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Prob histograms an integer sequence onto 0..m-1 and estimates the
// probability distribution with the chosen sampling method.
func Prob(x []int, m int, method string) ([]float64, error) {
	counts := make([]float64, m)

	for i, v := range x {
		if v < 0 || v >= m {
			return nil, errors.Wrapf(ErrInvalidArgument, "value %d at trial %d outside [0, %d)", v, i, m)
		}

		counts[v]++
	}

	return ProbCount(counts, len(x), method)
}

// ProbCount estimates a probability distribution from bin counts.
// Methods: "naive" (plain frequencies), "kt" (Krichevsky-Trofimov
// add-half), "beta:x" (general add-constant) and "shrink" (James-Stein
// shrinkage toward uniform).
func ProbCount(counts []float64, n int, method string) ([]float64, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "trial count %d must be positive", n)
	}

	nf := float64(n)
	size := float64(len(counts))

	p := make([]float64, len(counts))

	name, arg, _ := strings.Cut(strings.ToLower(method), ":")

	switch name {
	case "naive":
		for i, c := range counts {
			p[i] = c / nf
		}

	case "kt":
		for i, c := range counts {
			p[i] = (c + 0.5) / (nf + size/2)
		}

	case "beta":
		beta, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "bad beta value %q", arg)
		}

		for i, c := range counts {
			p[i] = (c + beta) / (nf + beta*size)
		}

	case "shrink":
		naive := make([]float64, len(counts))
		for i, c := range counts {
			naive[i] = c / nf
		}

		target := 1 / size
		lam := lambdaShrink(nf, naive, target)

		for i, u := range naive {
			p[i] = lam*target + (1-lam)*u
		}

	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown sampling method %q", method)
	}

	return p, nil
}

// lambdaShrink estimates the James-Stein shrinkage intensity toward
// target from the unbiased variance of the naive frequencies.
func lambdaShrink(nf float64, u []float64, target float64) float64 {
	var msp float64

	for _, ui := range u {
		d := ui - target
		msp += d * d
	}

	if msp == 0 {
		return 1
	}

	var lam float64

	for _, ui := range u {
		lam += ui * (1 - ui) / (nf - 1)
	}
	lam /= msp

	if lam > 1 {
		return 1
	}
	if lam < 0 {
		return 0
	}

	return lam
}
