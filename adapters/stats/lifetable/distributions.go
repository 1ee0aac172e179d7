package lifetable

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions wraps the reference distributions used by the estimator and
// the log-rank test.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// ChiSquarePValue computes the upper-tail p-value of a chi-square statistic
func (d *Distributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	if chiSquare <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return chiDist.Survival(chiSquare)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// CriticalValue returns z such that a two-sided normal interval of the given
// level is ±z (1.959964 for 0.95).
func (d *Distributions) CriticalValue(level float64) float64 {
	return d.NormalQuantile(1 - (1-level)/2)
}
