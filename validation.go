package pyentropy

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidArgument marks precondition failures detected before any
// estimator structure is allocated.
var ErrInvalidArgument = errors.New("invalid argument")

var machineEpsilon = math.Nextafter(1, 2) - 1

// validateProbabilities checks the shape and normalization of a
// probability vector. The sum tolerance scales with the vector length
// since summing dim terms accumulates dim rounding errors.
func validateProbabilities(p []float64, dim int) error {
	if dim <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "dimension %d must be positive", dim)
	}

	if len(p) != dim {
		return errors.Wrapf(ErrInvalidArgument, "probability vector has %d elements, declared dimension %d",
			len(p), dim)
	}

	var sum float64

	for i, pi := range p {
		if pi < 0 || math.IsNaN(pi) {
			return errors.Wrapf(ErrInvalidArgument, "probability %g at index %d", pi, i)
		}

		sum += pi
	}

	tol := 4 * machineEpsilon * float64(dim)

	if math.Abs(sum-1) > tol {
		return errors.Wrapf(ErrInvalidArgument, "probabilities sum to %.17g", sum)
	}

	return nil
}
