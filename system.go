package pyentropy

import (
	"math"
	"math/rand"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// SystemDims describes a discrete space of length-N base-M words.
type SystemDims struct {
	N int // word length
	M int // alphabet base
}

// Dim is the size of the decimalised space, M^N.
func (d SystemDims) Dim() int {
	return intPow(d.M, d.N)
}

// Entropies holds the computed entropy terms, in bits.
type Entropies struct {
	HX  float64
	HY  float64
	HXY float64
}

// DiscreteSystem holds joint observations of a discrete stochastic
// system (responses X against stimuli Y) and computes bias-corrected
// entropies and mutual information over the decimalised word spaces.
type DiscreteSystem struct {
	log  hclog.Logger
	calc *Calculator

	x, y         [][]int
	xDims, yDims SystemDims
	xDim, yDim   int
	trials       int

	shuffleForQE bool
}

type SystemOption func(*DiscreteSystem)

// NoQEShuffle skips the trial shuffle before quadratic extrapolation.
// Only safe when the trials are already in random order.
func NoQEShuffle() SystemOption {
	return func(s *DiscreteSystem) {
		s.shuffleForQE = false
	}
}

func NewDiscreteSystem(log hclog.Logger, calc *Calculator, x [][]int, xDims SystemDims, y [][]int, yDims SystemDims, options ...SystemOption) (*DiscreteSystem, error) {
	s := &DiscreteSystem{
		log:          log,
		calc:         calc,
		x:            x,
		y:            y,
		xDims:        xDims,
		yDims:        yDims,
		xDim:         xDims.Dim(),
		yDim:         yDims.Dim(),
		shuffleForQE: true,
	}

	if err := s.checkInputs(); err != nil {
		return nil, err
	}

	s.trials = len(x[0])

	for _, fn := range options {
		fn(s)
	}

	return s, nil
}

func (s *DiscreteSystem) checkInputs() error {
	if len(s.x) != s.xDims.N {
		return errors.Wrapf(ErrInvalidArgument, "X has %d rows, expected %d", len(s.x), s.xDims.N)
	}

	if len(s.y) != s.yDims.N {
		return errors.Wrapf(ErrInvalidArgument, "Y has %d rows, expected %d", len(s.y), s.yDims.N)
	}

	trials := len(s.x[0])

	for _, row := range s.x {
		if len(row) != trials {
			return errors.Wrapf(ErrInvalidArgument, "ragged X rows")
		}

		for _, v := range row {
			if v < 0 || v >= s.xDims.M {
				return errors.Wrapf(ErrInvalidArgument, "X value %d outside [0, %d)", v, s.xDims.M)
			}
		}
	}

	for _, row := range s.y {
		if len(row) != trials {
			return errors.Wrapf(ErrInvalidArgument, "X and Y must contain the same number of trials")
		}

		for _, v := range row {
			if v < 0 || v >= s.yDims.M {
				return errors.Wrapf(ErrInvalidArgument, "Y value %d outside [0, %d)", v, s.yDims.M)
			}
		}
	}

	return nil
}

// sampled holds the probability distributions estimated from the
// observations for one calculation pass.
type sampled struct {
	px  []float64
	py  []float64
	pxy [][]float64
	ny  []int
}

func (s *DiscreteSystem) sample(sampling string) (*sampled, error) {
	dx, err := Decimalise(s.x, s.xDims.N, s.xDims.M)
	if err != nil {
		return nil, err
	}

	dy, err := Decimalise(s.y, s.yDims.N, s.yDims.M)
	if err != nil {
		return nil, err
	}

	sm := &sampled{
		pxy: make([][]float64, s.yDim),
		ny:  make([]int, s.yDim),
	}

	sm.px, err = Prob(dx, s.xDim, sampling)
	if err != nil {
		return nil, err
	}

	sm.py, err = Prob(dy, s.yDim, sampling)
	if err != nil {
		return nil, err
	}

	// output conditional ensembles
	byStim := make([][]int, s.yDim)
	for t, yv := range dy {
		byStim[yv] = append(byStim[yv], dx[t])
	}

	for yv, oce := range byStim {
		sm.ny[yv] = len(oce)

		if len(oce) == 0 {
			s.log.Warn("null output conditional ensemble", "output", yv)
			continue
		}

		sm.pxy[yv], err = Prob(oce, s.xDim, sampling)
		if err != nil {
			return nil, err
		}
	}

	return sm, nil
}

// Entropies computes HX, HY and HXY with the chosen bias correction
// method: "plugin", "pt", "nsb", or "qe" (optionally "qe:pt" /
// "qe:nsb" to pick the base method extrapolated over).
func (s *DiscreteSystem) Entropies(method, sampling string) (*Entropies, error) {
	name, qeBase, _ := strings.Cut(method, ":")

	switch name {
	case "plugin", "pt", "nsb":
		return s.entropies(name, sampling)

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
func (s *DiscreteSystem) MutualInformation(method, sampling string) (float64, error) {
	ents, err := s.Entropies(method, sampling)
	if err != nil {
		return 0, err
	}

	return ents.HX - ents.HXY, nil
}

func (s *DiscreteSystem) entropies(method, sampling string) (*Entropies, error) {
	sm, err := s.sample(sampling)
	if err != nil {
		return nil, err
	}

	n := float64(s.trials)

	var ents Entropies

	switch method {
	case "plugin", "pt":
		ents.HX = PluginEntropy(sm.px)
		ents.HY = PluginEntropy(sm.py)

		for yv, py := range sm.py {
			if sm.pxy[yv] != nil {
				ents.HXY += py * PluginEntropy(sm.pxy[yv])
			}
		}

		if method == "pt" {
			ents.HX += ptCorrection(PTBayesCount(sm.px, n), n)
			ents.HY += ptCorrection(PTBayesCount(sm.py, n), n)

			for yv := range sm.py {
				if sm.pxy[yv] != nil {
					ents.HXY += ptCorrection(PTBayesCount(sm.pxy[yv], float64(sm.ny[yv])), n)
				}
			}
		}

	case "nsb":
		hx, err := s.calc.Entropy(sm.px, s.trials, s.xDim)
		if err != nil {
			return nil, err
		}

		hy, err := s.calc.Entropy(sm.py, s.trials, s.yDim)
		if err != nil {
			return nil, err
		}

		ents.HX = hx / math.Ln2
		ents.HY = hy / math.Ln2

		for yv, py := range sm.py {
			if sm.pxy[yv] == nil || sm.ny[yv] == 0 {
				continue
			}

			hxy, err := s.calc.Entropy(sm.pxy[yv], sm.ny[yv], s.xDim)
			if err != nil {
				return nil, err
			}

			ents.HXY += py * hxy / math.Ln2
		}
	}

	return &ents, nil
}

// qeEntropies runs the quadratic extrapolation correction: the base
// method's entropies at N, N/2 and N/4 trials are fit as
// N²H(N) = aN² + bN + c, and the N→∞ limit a is the corrected value.
func (s *DiscreteSystem) qeEntropies(base, sampling string) (*Entropies, error) {
	cols := rand.Perm(s.trials)
	if !s.shuffleForQE {
		for i := range cols {
			cols[i] = i
		}
	}

	// truncate to a multiple of four so the subsamples tile evenly
	n := s.trials - s.trials%4
	if n < 8 {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d trials is too few for quadratic extrapolation", s.trials)
	}
	cols = cols[:n]

	full, err := s.subsystem(cols).entropies(base, sampling)
	if err != nil {
		return nil, err
	}

	h2, err := s.averagedSubsamples(cols, 2, base, sampling)
	if err != nil {
		return nil, err
	}

	h4, err := s.averagedSubsamples(cols, 4, base, sampling)
	if err != nil {
		return nil, err
	}

	n1 := float64(n)
	n2 := n1 / 2
	n4 := n1 / 4

	return &Entropies{
		HX:  quadLeadingCoeff(n4, n4*n4*h4.HX, n2, n2*n2*h2.HX, n1, n1*n1*full.HX),
		HY:  quadLeadingCoeff(n4, n4*n4*h4.HY, n2, n2*n2*h2.HY, n1, n1*n1*full.HY),
		HXY: quadLeadingCoeff(n4, n4*n4*h4.HXY, n2, n2*n2*h2.HXY, n1, n1*n1*full.HXY),
	}, nil
}

func (s *DiscreteSystem) averagedSubsamples(cols []int, frac int, base, sampling string) (*Entropies, error) {
	var acc Entropies

	size := len(cols) / frac

	for i := 0; i < frac; i++ {
		sub := s.subsystem(cols[i*size : (i+1)*size])

		ents, err := sub.entropies(base, sampling)
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

// subsystem builds a column-sliced view sharing the calculator and
// logger.
func (s *DiscreteSystem) subsystem(cols []int) *DiscreteSystem {
	sliced := func(rows [][]int) [][]int {
		out := make([][]int, len(rows))

		for i, row := range rows {
			nr := make([]int, len(cols))
			for j, c := range cols {
				nr[j] = row[c]
			}
			out[i] = nr
		}

		return out
	}

	return &DiscreteSystem{
		log:    s.log,
		calc:   s.calc,
		x:      sliced(s.x),
		y:      sliced(s.y),
		xDims:  s.xDims,
		yDims:  s.yDims,
		xDim:   s.xDim,
		yDim:   s.yDim,
		trials: len(cols),
	}
}

// quadLeadingCoeff returns the leading coefficient of the quadratic
// interpolating the three points.
func quadLeadingCoeff(x1, y1, x2, y2, x3, y3 float64) float64 {
	return y1/((x1-x2)*(x1-x3)) + y2/((x2-x1)*(x2-x3)) + y3/((x3-x1)*(x3-x2))
}
