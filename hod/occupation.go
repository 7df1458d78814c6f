package hod

import "math"

// invSqrt2Pi is 1/sqrt(2*pi), the Gaussian normalization.
const invSqrt2Pi = 0.3989422804014327

// NCenLRG is the standard Zheng et al. (2005) central occupation:
// 0.5*erfc((logM_cut - log10 M) / (sqrt(2)*sigma)).
func NCenLRG(m, logMCut, sigma float64) float64 {
	return 0.5 * math.Erfc((logMCut-math.Log10(m))/(math.Sqrt2*sigma))
}

// NSatLRG is the Zheng et al. (2005) satellite power law modulated by the
// central occupation shape. The power-law base is clamped at zero below
// kappa*M_cut, where the expectation vanishes.
func NSatLRG(m, logMCut, mCut, m1, sigma, alpha, kappa float64) float64 {
	base := (m - kappa*mCut) / m1
	if base <= 0 {
		return 0
	}
	return math.Pow(base, alpha) * 0.5 * math.Erfc((logMCut-math.Log10(m))/(math.Sqrt2*sigma))
}

// NSatGeneric is the satellite power law with an amplitude parameter,
// shared by the ELG and QSO tracers.
func NSatGeneric(m, mCut, kappa, m1, alpha, aS float64) float64 {
	base := (m - kappa*mCut) / m1
	if base <= 0 {
		return 0
	}
	return aS * math.Pow(base, alpha)
}

// NCenELG is the emission-line galaxy central occupation from
// arXiv:1910.05095: a Gaussian peak near M_cut skewed by an error-function
// factor, plus a 1/Q plateau switched on above the cut.
func NCenELG(m, pMax, q, logMCut, sigma, gamma float64) float64 {
	logM := math.Log10(m)
	phi := elgPhi(logM, logMCut, sigma)
	bigPhi := elgBigPhi(logM, logMCut, sigma, gamma)
	a := elgA(pMax, q)
	return 2*a*phi*bigPhi + 0.5/q*(1+math.Erf((logM-logMCut)*100))
}

// NCenQSO is the quasar central occupation: an error-function step
// saturating at p_max.
func NCenQSO(m, pMax, logMCut, sigma float64) float64 {
	return 0.5 * pMax * (1 + math.Erf((math.Log10(m)-logMCut)/(math.Sqrt2*sigma)))
}

// elgPhi, elgBigPhi and elgA make up the skewed-Gaussian peak of NCenELG.
func elgPhi(logM, logMCut, sigma float64) float64 {
	return gaussian(logM, logMCut, sigma)
}

func elgBigPhi(logM, logMCut, sigma, gamma float64) float64 {
	x := gamma * (logM - logMCut) / sigma
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func elgA(pMax, q float64) float64 {
	return pMax - 1/q
}

func gaussian(x, mean, sigma float64) float64 {
	d := x - mean
	return invSqrt2Pi / sigma * math.Exp(-d*d/(2*sigma*sigma))
}

// wrap maps a coordinate displaced across a periodic boundary back into
// [-l/2, l/2). A single period is enough: displacements never exceed one
// box length.
func wrap(x, l float64) float64 {
	half := l / 2
	if x >= half {
		return x - l
	}
	if x < -half {
		return x + l
	}
	return x
}
