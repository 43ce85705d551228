package pyentropy

import (
	"github.com/oklog/ulid/v2"

	"github.com/robince/pyentropy-svn/pkg/nsb"
)

type opts struct {
	precision     float64
	possibleWords int
	verbose       bool
	cacheSize     int
	historyPath   string
	seqGen        func() ulid.ULID
}

type Option func(o *opts)

// WithPrecision sets the numerical convergence tolerance the estimator
// refines toward.
func WithPrecision(p float64) Option {
	return func(o *opts) {
		o.precision = p
	}
}

// WithPossibleWords sets the prior bound on the alphabet size.
// nsb.Unconstrained (the default) lets the histogram dimension stand.
func WithPossibleWords(k int) Option {
	return func(o *opts) {
		o.possibleWords = k
	}
}

// Verbose surfaces the estimator's status and warning diagnostics to
// the logger. Error diagnostics are surfaced regardless.
func Verbose(ok bool) Option {
	return func(o *opts) {
		o.verbose = ok
	}
}

// WithCacheSize sets the finished-estimate LRU size. Zero disables the
// cache.
func WithCacheSize(n int) Option {
	return func(o *opts) {
		o.cacheSize = n
	}
}

// WithHistory records every finished estimate in a bolt database at
// path.
func WithHistory(path string) Option {
	return func(o *opts) {
		o.historyPath = path
	}
}

// WithSeqGen overrides the request id generator.
func WithSeqGen(f func() ulid.ULID) Option {
	return func(o *opts) {
		o.seqGen = f
	}
}

// buildEstimatorOptions constructs the estimator configuration:
// exactly one NSB entropy method, with one linked NSB variance
// sub-request when the caller wants variance. The descriptor slices are
// freshly owned per call so nothing dangles across invocations.
func (c *Calculator) buildEstimatorOptions(wantVariance bool) *nsb.Options {
	req := nsb.MethodRequest{
		Method: nsb.MethodNSB,
		Name:   "nsb",
	}

	if wantVariance {
		req.Variance = []nsb.VarianceRequest{
			{Method: nsb.VarianceNSB, Name: "nsb_var"},
		}
	}

	return &nsb.Options{
		PossibleWords: c.possibleWords,
		Precision:     c.precision,
		Methods:       []nsb.MethodRequest{req},
	}
}
