package nsb

import "math"

// digamma computes ψ(x) for x > 0 by shifting into the asymptotic
// regime with the recurrence ψ(x) = ψ(x+1) - 1/x.
func digamma(x float64) float64 {
	var result float64

	for x < 6 {
		result -= 1 / x
		x++
	}

	r := 1 / x
	r2 := r * r

	result += math.Log(x) - 0.5*r
	result -= r2 * (1.0/12 - r2*(1.0/120 - r2*(1.0/252 - r2*(1.0/240 - r2*(1.0/132)))))

	return result
}

// trigamma computes ψ'(x) for x > 0 with the matching recurrence
// ψ'(x) = ψ'(x+1) + 1/x².
func trigamma(x float64) float64 {
	var result float64

	for x < 6 {
		result += 1 / (x * x)
		x++
	}

	r := 1 / x
	r2 := r * r

	result += r * (1 + 0.5*r + r2*(1.0/6 - r2*(1.0/30 - r2*(1.0/42 - r2*(1.0/30)))))

	return result
}
