// Bayesian entropy estimation for discrete distributions observed over
// a finite number of trials, wrapping the NSB estimator in pkg/nsb with
// validation, caching and diagnostics reporting.

package pyentropy

import (
	"crypto/rand"
	"math"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/lab47/mode"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/robince/pyentropy-svn/pkg/nsb"
)

// ErrAllocation marks a failure to build the estimator output
// structure. Nothing acquired before the failure leaks.
var ErrAllocation = errors.New("estimate allocation failed")

const defaultCacheSize = 128

// Calculator runs NSB entropy estimates. Each call builds, uses and
// releases its own histogram, options and output structures, so a
// single Calculator is safe for concurrent use.
type Calculator struct {
	log hclog.Logger

	precision     float64
	possibleWords int
	verbose       bool

	seqGen  func() ulid.ULID
	cache   *resultCache
	history *HistoryStore
}

func NewCalculator(log hclog.Logger, options ...Option) (*Calculator, error) {
	o := opts{
		precision:     nsb.DefaultPrecision,
		possibleWords: nsb.Unconstrained,
		cacheSize:     defaultCacheSize,
	}

	for _, fn := range options {
		fn(&o)
	}

	c := &Calculator{
		log:           log,
		precision:     o.precision,
		possibleWords: o.possibleWords,
		verbose:       o.verbose,
		seqGen:        o.seqGen,
	}

	if c.seqGen == nil {
		c.seqGen = func() ulid.ULID {
			return ulid.MustNew(ulid.Now(), rand.Reader)
		}
	}

	cache, err := newResultCache(o.cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "creating result cache")
	}
	c.cache = cache

	if o.historyPath != "" {
		hs, err := OpenHistory(log, o.historyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "opening history store")
		}
		c.history = hs
	}

	return c, nil
}

// Close releases resources held across calls (the history store).
func (c *Calculator) Close() error {
	if c.history != nil {
		return c.history.Close()
	}

	return nil
}

// Entropy estimates the Shannon entropy, in nats, of the distribution p
// observed over n trials. len(p) must equal dim and p must sum to one.
func (c *Calculator) Entropy(p []float64, n, dim int) (float64, error) {
	out, err := c.estimate(p, n, dim, false)
	if err != nil {
		return 0, err
	}

	return out.entropy, nil
}

// EntropyVariance estimates the entropy along with the posterior
// variance of the estimate. Both are in nats.
func (c *Calculator) EntropyVariance(p []float64, n, dim int) (float64, float64, error) {
	out, err := c.estimate(p, n, dim, true)
	if err != nil {
		return 0, 0, err
	}

	return out.entropy, out.variance, nil
}

type estimateOut struct {
	entropy  float64
	variance float64
}

func (c *Calculator) estimate(p []float64, n, dim int, wantVariance bool) (estimateOut, error) {
	var out estimateOut

	start := time.Now()

	if err := validateProbabilities(p, dim); err != nil {
		return out, err
	}

	if n <= 0 {
		return out, errors.Wrapf(ErrInvalidArgument, "trial count %d must be positive", n)
	}

	id := c.seqGen()

	hist := buildHistogram(p, n)
	eopts := c.buildEstimatorOptions(wantVariance)

	if mode.Debug() {
		for _, cnt := range hist.Counts {
			if cnt < 0 || math.IsInf(cnt, 0) {
				c.log.Error("histogram count out of range", "count", cnt, "request", id.String())
			}
		}
	}

	if cached, ok := c.cache.lookup(hist, eopts, wantVariance); ok {
		cacheHits.Inc()
		out.entropy = cached.entropy
		out.variance = cached.variance

		// a hit is still a served estimate; keep the totals and the
		// history in step with what the caller saw
		c.finish(id, start, n, dim, wantVariance, out, cached.warnings, cached.errors)

		return out, nil
	}
	cacheMisses.Inc()

	res, err := nsb.Allocate(eopts)
	if err != nil {
		return out, errors.Wrapf(ErrAllocation, "%v", err)
	}

	defer func() {
		if rerr := res.Release(); rerr != nil {
			c.log.Error("error releasing estimate", "error", rerr, "request", id.String())
		}
	}()

	err = nsb.Run(hist, eopts, res)
	if err != nil {
		return out, errors.Wrapf(err, "running nsb estimator")
	}

	est := &res.Estimates[0]

	out.entropy = est.Value
	if wantVariance {
		out.variance = est.Variance[0].Value
	}

	c.report(id, est)

	if len(est.Messages.Errors) > 0 {
		diagnosticErrors.Add(float64(len(est.Messages.Errors)))
	}

	c.cache.store(hist, eopts, wantVariance, cachedEstimate{
		entropy:  out.entropy,
		variance: out.variance,
		warnings: len(est.Messages.Warnings),
		errors:   len(est.Messages.Errors),
	})

	c.finish(id, start, n, dim, wantVariance, out, len(est.Messages.Warnings), len(est.Messages.Errors))

	return out, nil
}

// finish accounts for one served estimate, cached or freshly run: the
// totals, the latency observation, and the history record.
func (c *Calculator) finish(id ulid.ULID, start time.Time, n, dim int, wantVariance bool, out estimateOut, warnCount, errCount int) {
	estimatesRun.Inc()
	estimateTime.Observe(time.Since(start).Seconds())

	if c.history == nil {
		return
	}

	rec := &HistoryRecord{
		Id:            id.String(),
		When:          start,
		Dim:           dim,
		Trials:        n,
		PossibleWords: c.possibleWords,
		Precision:     c.precision,
		Entropy:       out.entropy,
		Variance:      out.variance,
		HasVariance:   wantVariance,
		Warnings:      warnCount,
		Errors:        errCount,
	}

	if herr := c.history.Record(rec); herr != nil {
		c.log.Error("error recording estimate history", "error", herr, "request", id.String())
	}
}

// report surfaces the diagnostics side channel. Status and warnings are
// informational and gated on verbose; a non-empty error sequence means
// the estimator flagged abnormal conditions and is always surfaced.
func (c *Calculator) report(id ulid.ULID, est *nsb.Estimate) {
	if c.verbose {
		for _, s := range est.Messages.Status {
			c.log.Info(s, "request", id.String())
		}

		for _, s := range est.Messages.Warnings {
			c.log.Warn(s, "request", id.String())
		}
	}

	for _, s := range est.Messages.Errors {
		c.log.Error(s, "request", id.String())
	}
}
