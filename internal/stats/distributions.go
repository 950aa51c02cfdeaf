// Package stats holds the hypothesis tests behind the change detectors.
// P-values come from gonum's distributions; callers treat a false ok as
// statistical insufficiency, never as an error.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestPValue computes the two-tailed p-value of a t statistic
func TTestPValue(tStatistic, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(tStatistic) {
		return math.NaN()
	}
	if math.IsInf(tStatistic, 0) {
		return 0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	return clampP(2 * tDist.Survival(math.Abs(tStatistic)))
}

// CorrelationPValue computes the two-tailed p-value of a Pearson coefficient
func CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 || math.IsNaN(correlation) {
		return math.NaN()
	}
	df := float64(sampleSize - 2)
	if math.Abs(correlation) >= 1 {
		return 0
	}
	tStatistic := correlation * math.Sqrt(df/(1-correlation*correlation))
	return TTestPValue(tStatistic, df)
}

// FTestPValue computes the upper-tail p-value of an F statistic
func FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(fStatistic) {
		return math.NaN()
	}
	if math.IsInf(fStatistic, 1) {
		return 0
	}
	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return clampP(fDist.Survival(fStatistic))
}

// ChiSquarePValue computes the upper-tail p-value of a chi-square statistic
func ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return math.NaN()
	}
	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return clampP(chiDist.Survival(chiSquare))
}

func clampP(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
