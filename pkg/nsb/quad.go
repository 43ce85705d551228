package nsb

import (
	"math"
	"sync"
)

// The NSB estimate integrates the Dirichlet posterior entropy moments
// over the entropy-flat hyperprior. The integration variable is
// ξ(β) = ψ(Kβ+1) - ψ(β+1), the a-priori expected entropy, which runs
// from 0 (β→0) to ln K (β→∞) and keeps the integrand smooth and
// bounded so Gauss-Legendre quadrature converges quickly.

type integration struct {
	mean      float64
	variance  float64
	nodes     int
	delta     float64
	converged bool
}

const (
	startNodes = 64
	maxNodes   = 2048
)

func integrate(counts []float64, total float64, zeroBins, k int, precision float64) integration {
	var out integration

	kf := float64(k)
	xiMax := math.Log(kf)

	prev := math.NaN()
	out.delta = math.Inf(1)

	for n := startNodes; n <= maxNodes; n *= 2 {
		mean, second := quadrature(counts, total, zeroBins, kf, xiMax, n)

		out.nodes = n
		if !math.IsNaN(prev) {
			out.delta = math.Abs(mean - prev)
		}
		prev = mean

		out.mean = mean
		out.variance = math.Max(0, second-mean*mean)

		if out.delta <= precision {
			out.converged = true
			break
		}
	}

	return out
}

// quadrature evaluates the posterior mean and second moment of the
// entropy with an n-node Gauss-Legendre rule over ξ ∈ (0, ln K).
// Evidence weights are normalized by their maximum before
// exponentiation to avoid underflow.
func quadrature(counts []float64, total float64, zeroBins int, kf, xiMax float64, n int) (float64, float64) {
	x, w := gauleg(n)

	logw := scratch.get(n)
	m1 := scratch.get(n)
	m2 := scratch.get(n)

	defer func() {
		scratch.put(logw)
		scratch.put(m1)
		scratch.put(m2)
	}()

	maxLogw := math.Inf(-1)

	for i := 0; i < n; i++ {
		xi := (x[i] + 1) / 2 * xiMax
		beta := betaForXi(xi, kf)

		logw[i] = logEvidence(counts, total, beta, kf)
		m1[i], m2[i] = moments(counts, total, zeroBins, beta, kf)

		if logw[i] > maxLogw {
			maxLogw = logw[i]
		}
	}

	var z, mean, second float64

	for i := 0; i < n; i++ {
		wt := w[i] * math.Exp(logw[i]-maxLogw)
		z += wt
		mean += wt * m1[i]
		second += wt * m2[i]
	}

	return mean / z, second / z
}

// logEvidence is log P(n|β): the Dirichlet-multinomial marginal
// likelihood of the observed counts, up to β-independent terms.
func logEvidence(counts []float64, total, beta, kf float64) float64 {
	lgKb, _ := math.Lgamma(kf * beta)
	lgNKb, _ := math.Lgamma(total + kf*beta)
	lgB, _ := math.Lgamma(beta)

	ev := lgKb - lgNKb

	for _, c := range counts {
		lgCb, _ := math.Lgamma(c + beta)
		ev += lgCb - lgB
	}

	return ev
}

// moments returns E[S|β,n] and E[S²|β,n] for the Dirichlet posterior
// with parameters a_i = n_i + β (Wolpert-Wolf closed forms). The
// zeroBins unobserved words all share a_i = β and are folded in by
// multiplicity instead of being materialized.
func moments(counts []float64, total float64, zeroBins int, beta, kf float64) (float64, float64) {
	a := total + kf*beta

	psiA1 := digamma(a + 1)
	psiA2 := digamma(a + 2)
	tgA2 := trigamma(a + 2)

	zb := float64(zeroBins)

	// first moment
	mean := psiA1

	for _, c := range counts {
		ai := c + beta
		mean -= ai / a * digamma(ai+1)
	}
	if zeroBins > 0 {
		mean -= zb * beta / a * digamma(beta+1)
	}

	// second moment: cross terms via sum-of-squares identities, then
	// the diagonal contribution.
	var s1, s2, sa2, diag float64

	for _, c := range counts {
		ai := c + beta
		ti := digamma(ai+1) - psiA2
		ji := digamma(ai+2) - psiA2

		s1 += ai * ti
		s2 += ai * ti * ai * ti
		sa2 += ai * ai
		diag += ai * (ai + 1) * (ji*ji + trigamma(ai+2) - tgA2)
	}

	if zeroBins > 0 {
		t0 := digamma(beta+1) - psiA2
		j0 := digamma(beta+2) - psiA2

		s1 += zb * beta * t0
		s2 += zb * beta * t0 * beta * t0
		sa2 += zb * beta * beta
		diag += zb * beta * (beta + 1) * (j0*j0 + trigamma(beta+2) - tgA2)
	}

	norm := a * (a + 1)
	cross := (s1*s1 - s2 - tgA2*(a*a-sa2)) / norm

	return mean, cross + diag/norm
}

// betaForXi inverts ξ(β) = ψ(Kβ+1) - ψ(β+1) by bisection on ln β.
// ξ is strictly increasing in β.
func betaForXi(xi, kf float64) float64 {
	const (
		lnLo = -40.0
		lnHi = 40.0
	)

	xiOf := func(lnBeta float64) float64 {
		b := math.Exp(lnBeta)
		return digamma(kf*b+1) - digamma(b+1)
	}

	lo, hi := lnLo, lnHi

	if xiOf(lo) >= xi {
		return math.Exp(lo)
	}
	if xiOf(hi) <= xi {
		return math.Exp(hi)
	}

	for hi-lo > 1e-12 {
		mid := (lo + hi) / 2
		if xiOf(mid) < xi {
			lo = mid
		} else {
			hi = mid
		}
	}

	return math.Exp((lo + hi) / 2)
}

// gauleg computes the nodes and weights of the n-point Gauss-Legendre
// rule on (-1, 1) by Newton iteration on the Legendre recurrence.
func gauleg(n int) ([]float64, []float64) {
	x := make([]float64, n)
	w := make([]float64, n)

	m := (n + 1) / 2

	for i := 0; i < m; i++ {
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))

		var pp float64

		for it := 0; it < 100; it++ {
			p1, p2 := 1.0, 0.0

			for j := 0; j < n; j++ {
				p3 := p2
				p2 = p1
				p1 = ((2*float64(j)+1)*z*p2 - float64(j)*p3) / (float64(j) + 1)
			}

			pp = float64(n) * (z*p1 - p2) / (z*z - 1)

			z1 := z
			z = z1 - p1/pp

			if math.Abs(z-z1) < 1e-14 {
				break
			}
		}

		x[i] = -z
		x[n-1-i] = z
		w[i] = 2 / ((1 - z*z) * pp * pp)
		w[n-1-i] = w[i]
	}

	return x, w
}

type scratchPool struct {
	small sync.Pool
}

const smallScratch = maxNodes

func (p *scratchPool) get(sz int) []float64 {
	if sz <= smallScratch {
		var buf []float64

		v := p.small.Get()
		if v == nil {
			buf = make([]float64, smallScratch)
		} else {
			buf = v.([]float64)
		}

		return buf[:sz]
	}

	return make([]float64, sz)
}

func (p *scratchPool) put(buf []float64) {
	buf = buf[:cap(buf)]

	if len(buf) == smallScratch {
		p.small.Put(buf)
	}
}

var scratch scratchPool
