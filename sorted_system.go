package pyentropy

import (
	"math/rand"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// SortedDiscreteSystem holds joint observations that arrive already
// sorted by stimulus: the first ny[0] trials of X belong to stimulus 0,
// the next ny[1] to stimulus 1, and so on. This is the layout recorded
// spike-train data usually comes in, and it spares the caller from
// materializing a Y sequence.
type SortedDiscreteSystem struct {
	sys *DiscreteSystem
	ny  []int

	shuffleForQE bool
}

// NewSortedDiscreteSystem builds a system over stimulus-sorted
// responses. ym is the stimulus alphabet size and ny the per-stimulus
// trial counts, in the same order as the X blocks; the counts must sum
// to the number of trials.
func NewSortedDiscreteSystem(log hclog.Logger, calc *Calculator, x [][]int, xDims SystemDims, ym int, ny []int, options ...SystemOption) (*SortedDiscreteSystem, error) {
	if len(ny) != ym {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d stimulus counts for alphabet size %d", len(ny), ym)
	}

	var total int

	for i, n := range ny {
		if n < 0 {
			return nil, errors.Wrapf(ErrInvalidArgument, "negative trial count %d for stimulus %d", n, i)
		}

		total += n
	}

	if len(x) == 0 || len(x[0]) != total {
		return nil, errors.Wrapf(ErrInvalidArgument, "stimulus counts sum to %d trials, X carries %d", total, rowLen(x))
	}

	// expand the block structure into an explicit stimulus sequence so
	// the joint sampling machinery applies unchanged
	yRow := make([]int, 0, total)
	for i, n := range ny {
		for k := 0; k < n; k++ {
			yRow = append(yRow, i)
		}
	}

	sys, err := NewDiscreteSystem(log, calc, x, xDims, [][]int{yRow}, SystemDims{N: 1, M: ym}, options...)
	if err != nil {
		return nil, err
	}

	return &SortedDiscreteSystem{
		sys:          sys,
		ny:           append([]int(nil), ny...),
		shuffleForQE: sys.shuffleForQE,
	}, nil
}

func rowLen(x [][]int) int {
	if len(x) == 0 {
		return 0
	}

	return len(x[0])
}

// Entropies computes HX, HY and HXY with the chosen bias correction
// method, as for DiscreteSystem. HY is estimated directly from the
// per-stimulus trial counts.
func (s *SortedDiscreteSystem) Entropies(method, sampling string) (*Entropies, error) {
	name, qeBase, _ := strings.Cut(method, ":")

	switch name {
	case "plugin", "pt", "nsb":
		return s.sys.entropies(name, sampling)

	case "qe":
		if qeBase == "" {
			qeBase = "plugin"
		}

		if qeBase == "qe" {
			return nil, errors.Wrapf(ErrInvalidArgument, "qe cannot extrapolate itself")
		}

		return s.qeEntropies(qeBase, sampling)

	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown correction method %q", method)
	}
}

// MutualInformation computes I(X;Y) = HX - HXY, in bits.
func (s *SortedDiscreteSystem) MutualInformation(method, sampling string) (float64, error) {
	ents, err := s.Entropies(method, sampling)
	if err != nil {
		return 0, err
	}

	return ents.HX - ents.HXY, nil
}

// qeEntropies runs the quadratic extrapolation on the sorted layout.
// Unlike the unsorted system it cannot shuffle trials freely: each
// stimulus block is shuffled in place and subsampled separately, so
// every subsample keeps the per-stimulus trial proportions.
func (s *SortedDiscreteSystem) qeEntropies(base, sampling string) (*Entropies, error) {
	if s.sys.trials < 8 {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d trials is too few for quadratic extrapolation", s.sys.trials)
	}

	cols := make([]int, s.sys.trials)

	start := 0
	for _, n := range s.ny {
		if s.shuffleForQE {
			for j, p := range rand.Perm(n) {
				cols[start+j] = start + p
			}
		} else {
			for j := 0; j < n; j++ {
				cols[start+j] = start + j
			}
		}

		start += n
	}

	full, err := s.sys.entropies(base, sampling)
	if err != nil {
		return nil, err
	}

	h2, err := s.averagedIntervals(cols, 2, base, sampling)
	if err != nil {
		return nil, err
	}

	h4, err := s.averagedIntervals(cols, 4, base, sampling)
	if err != nil {
		return nil, err
	}

	n1 := float64(s.sys.trials)
	n2 := n1 / 2
	n4 := n1 / 4

	return &Entropies{
		HX:  quadLeadingCoeff(n4, n4*n4*h4.HX, n2, n2*n2*h2.HX, n1, n1*n1*full.HX),
		HY:  quadLeadingCoeff(n4, n4*n4*h4.HY, n2, n2*n2*h2.HY, n1, n1*n1*full.HY),
		HXY: quadLeadingCoeff(n4, n4*n4*h4.HXY, n2, n2*n2*h2.HXY, n1, n1*n1*full.HXY),
	}, nil
}

// averagedIntervals averages the base entropies over the frac interval
// subsamples, each taking the i-th 1/frac slice of every stimulus
// block.
func (s *SortedDiscreteSystem) averagedIntervals(cols []int, frac int, base, sampling string) (*Entropies, error) {
	var acc Entropies

	for i := 0; i < frac; i++ {
		sub := make([]int, 0, len(cols)/frac)

		start := 0
		for _, n := range s.ny {
			size := n / frac
			sub = append(sub, cols[start+i*size:start+(i+1)*size]...)
			start += n
		}

		ents, err := s.sys.subsystem(sub).entropies(base, sampling)
		if err != nil {
			return nil, err
		}

		acc.HX += ents.HX
		acc.HY += ents.HY
		acc.HXY += ents.HXY
	}

	f := float64(frac)
	acc.HX /= f
	acc.HY /= f
	acc.HXY /= f

	return &acc, nil
}
