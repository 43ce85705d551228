// Nemenman-Shafee-Bialek Bayesian entropy estimation over discrete
// word/count histograms. The package exposes the same allocate/run/release
// contract the classic C estimator uses: callers allocate a result sized
// to the methods they request, run the estimator which fills it in place
// (including diagnostic messages), and release it exactly once.

package nsb

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Method identifies an entropy estimation method code.
type Method int

const (
	MethodNSB Method = 1
)

func (m Method) String() string {
	switch m {
	case MethodNSB:
		return "nsb"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// VarianceMethod identifies a variance estimation method code.
type VarianceMethod int

const (
	VarianceNSB VarianceMethod = 1
)

func (m VarianceMethod) String() string {
	switch m {
	case VarianceNSB:
		return "nsb_var"
	default:
		return fmt.Sprintf("variance(%d)", int(m))
	}
}

const (
	// DefaultPrecision is the convergence tolerance the estimator
	// refines toward when the options don't override it.
	DefaultPrecision = 1e-6

	// Unconstrained requests no prior bound on the alphabet size; the
	// estimator uses the histogram's own word count.
	Unconstrained = -1
)

// VarianceRequest asks for one variance sub-estimate attached to an
// entropy method.
type VarianceRequest struct {
	Method VarianceMethod
	Name   string
}

// MethodRequest asks for one entropy estimate, with zero or more
// variance sub-requests linked to it.
type MethodRequest struct {
	Method   Method
	Name     string
	Variance []VarianceRequest
}

// Options configures a single estimator invocation. The descriptor
// slices are owned by the Options value and stay valid for the whole
// call.
type Options struct {
	PossibleWords int
	Precision     float64
	Methods       []MethodRequest
}

// Histogram is the discrete representation the estimator consumes:
// Trials observations over Words distinct words, with a real-valued
// count per word. WordList carries the word identities in count order.
type Histogram struct {
	Trials   int
	Words    int
	WordList []int
	Counts   []float64
}

// Value is a named scalar output.
type Value struct {
	Name  string
	Value float64
}

// Messages collects the diagnostic text an invocation produced. The
// three sequences are independently sized. Abnormal conditions are
// reported through Errors rather than a failure return.
type Messages struct {
	Status   []string
	Warnings []string
	Errors   []string
}

// Estimate is one top-level result slot: a named value plus any
// variance sub-estimates and auxiliary extras.
type Estimate struct {
	Name     string
	Value    float64
	Variance []Value
	Extras   []Value
	Messages Messages
}

// Result is the allocated output structure for one invocation. It holds
// one Estimate per requested method and must be released exactly once.
type Result struct {
	Estimates []Estimate

	released bool
}

var (
	ErrBadOptions = errors.New("inconsistent estimator options")
	ErrReleased   = errors.New("estimate already released")
	ErrBadInput   = errors.New("histogram does not match options")
)

func checkOptions(opts *Options) error {
	if opts == nil || len(opts.Methods) == 0 {
		return errors.Wrapf(ErrBadOptions, "no estimation methods requested")
	}

	for i, req := range opts.Methods {
		if req.Method != MethodNSB {
			return errors.Wrapf(ErrBadOptions, "unknown method code %d in slot %d", int(req.Method), i)
		}

		for j, vr := range req.Variance {
			if vr.Method != VarianceNSB {
				return errors.Wrapf(ErrBadOptions, "unknown variance code %d in slot %d/%d", int(vr.Method), i, j)
			}
		}
	}

	if opts.Precision < 0 {
		return errors.Wrapf(ErrBadOptions, "negative precision %g", opts.Precision)
	}

	return nil
}

// Allocate builds a Result sized to the methods the options request,
// assigning the requested names to each slot. The caller owns the
// result and must Release it.
func Allocate(opts *Options) (*Result, error) {
	if err := checkOptions(opts); err != nil {
		return nil, err
	}

	res := &Result{
		Estimates: make([]Estimate, len(opts.Methods)),
	}

	for i, req := range opts.Methods {
		est := &res.Estimates[i]

		est.Name = req.Name
		if est.Name == "" {
			est.Name = req.Method.String()
		}

		est.Variance = make([]Value, len(req.Variance))
		for j, vr := range req.Variance {
			est.Variance[j].Name = vr.Name
			if est.Variance[j].Name == "" {
				est.Variance[j].Name = vr.Method.String()
			}
		}
	}

	return res, nil
}

// Release frees the result. Calling it a second time is an error, as is
// running against a released result.
func (r *Result) Release() error {
	if r.released {
		return ErrReleased
	}

	r.released = true
	r.Estimates = nil

	return nil
}

// Released reports whether Release has run.
func (r *Result) Released() bool {
	return r.released
}

// Run invokes the estimator, writing values and diagnostics into the
// previously allocated result. Estimation trouble (failed convergence,
// suspicious histograms) lands in the Messages sequences; the error
// return covers only contract violations.
func Run(h *Histogram, opts *Options, res *Result) error {
	if err := checkOptions(opts); err != nil {
		return err
	}

	if res == nil || res.released {
		return ErrReleased
	}

	if len(res.Estimates) != len(opts.Methods) {
		return errors.Wrapf(ErrBadOptions, "result sized for %d methods, options request %d",
			len(res.Estimates), len(opts.Methods))
	}

	if h == nil || len(h.Counts) != h.Words {
		return errors.Wrapf(ErrBadInput, "histogram carries %d counts for %d words",
			len(h.Counts), h.Words)
	}

	precision := opts.Precision
	if precision == 0 {
		precision = DefaultPrecision
	}

	for i := range opts.Methods {
		runNSB(h, opts, precision, &res.Estimates[i])
	}

	return nil
}

func runNSB(h *Histogram, opts *Options, precision float64, est *Estimate) {
	msgs := &est.Messages

	k := opts.PossibleWords
	if k == Unconstrained {
		k = h.Words
	}

	if k < h.Words {
		msgs.Warnings = append(msgs.Warnings,
			fmt.Sprintf("nsb: possible words %d below histogram support %d, using support", k, h.Words))
		k = h.Words
	}

	var (
		total   float64
		nonzero []float64
	)

	for _, c := range h.Counts {
		total += c
		if c > 0 {
			nonzero = append(nonzero, c)
		}
	}

	if math.Abs(total-float64(h.Trials)) > 0.5 {
		msgs.Warnings = append(msgs.Warnings,
			fmt.Sprintf("nsb: histogram counts sum to %g, expected %d trials", total, h.Trials))
	}

	if k <= 1 {
		est.Value = 0
		for j := range est.Variance {
			est.Variance[j].Value = 0
		}
		msgs.Status = append(msgs.Status, "nsb: single-word alphabet, entropy is zero")
		return
	}

	zeroBins := k - len(nonzero)

	out := integrate(nonzero, total, zeroBins, k, precision)

	est.Value = out.mean
	for j := range est.Variance {
		est.Variance[j].Value = out.variance
	}

	msgs.Status = append(msgs.Status,
		fmt.Sprintf("nsb: %d words (%d occupied), %g counts", k, len(nonzero), total))

	if out.converged {
		msgs.Status = append(msgs.Status,
			fmt.Sprintf("nsb: converged with %d quadrature nodes (delta %.3g)", out.nodes, out.delta))
	} else {
		msgs.Errors = append(msgs.Errors,
			fmt.Sprintf("nsb: requested precision %g not reached after %d nodes (delta %.3g)",
				precision, out.nodes, out.delta))
	}
}
