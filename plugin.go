package pyentropy

import "math"

// PluginEntropy computes the plug-in (maximum likelihood) entropy of a
// probability vector, in bits. Entries at or below machine epsilon are
// masked out.
func PluginEntropy(p []float64) float64 {
	var h float64

	for _, pi := range p {
		if pi > machineEpsilon {
			h -= pi * math.Log2(pi)
		}
	}

	return h
}

// PTBayesCount computes the support for the Panzeri-Treves (1996)
// analytic bias correction: the Bayesian estimate of the number of
// occupied response bins given nt trials.
func PTBayesCount(p []float64, nt float64) float64 {
	dim := len(p)

	var nz []float64

	for _, pi := range p {
		if pi > machineEpsilon {
			nz = append(nz, pi)
		}
	}

	rnaive := float64(len(nz))

	if len(nz) >= dim {
		return rnaive
	}

	rexpected := rnaive
	for _, pi := range nz {
		rexpected -= math.Pow(1-pi, nt)
	}

	deltaRPrev := float64(dim)
	deltaR := math.Abs(rnaive - rexpected)
	xtr := 0.0

	for deltaR < deltaRPrev && rnaive+xtr < float64(dim) {
		xtr++

		gamma := xtr * (1 - math.Pow(nt/(nt+rnaive), 1/nt))

		rexpected = 0

		// occupied bins
		for _, pi := range nz {
			pbayes := ((1 - gamma) / (nt + rnaive)) * (pi*nt + 1)
			rexpected += 1 - math.Pow(1-pbayes, nt)
		}

		// non-occupied bins
		pbayes := gamma / xtr
		rexpected += xtr * (1 - math.Pow(1-pbayes, nt))

		deltaRPrev = deltaR
		deltaR = math.Abs(rnaive - rexpected)
	}

	rnaive = rnaive + xtr - 1
	if deltaR < deltaRPrev {
		rnaive++
	}

	return rnaive
}

// ptCorrection is the Panzeri-Treves analytic bias term, in bits.
func ptCorrection(r, n float64) float64 {
	return (r - 1) / (2 * n * math.Ln2)
}
