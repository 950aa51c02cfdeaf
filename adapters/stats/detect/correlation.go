package detect

import (
	"math"

	"gocausal/domain/omics"
	"gocausal/internal/stats"
)

// CorrelationDetector decides the joint change of two data from the sign of
// their correlation across samples. The test depends on the data kinds:
// Pearson for numeric pairs, one-way ANOVA with Pearson on ranks for mixed
// pairs, chi-square with Pearson on codes for categorical pairs.
type CorrelationDetector struct {
	pValueThreshold      float64
	CorrelationThreshold float64
	// CorrelationUpperThreshold excludes near-perfect correlations that are
	// likely artifacts. Nil disables the filter.
	CorrelationUpperThreshold *float64
	MinimumSampleSize         int
}

// NewCorrelationDetector creates a correlation detector
func NewCorrelationDetector(pValueThreshold, correlationThreshold float64) *CorrelationDetector {
	return &CorrelationDetector{
		pValueThreshold:      pValueThreshold,
		CorrelationThreshold: correlationThreshold,
		MinimumSampleSize:    DefaultMinimumSampleSize,
	}
}

// WithUpperThreshold returns a copy that rejects |r| above upper
func (d *CorrelationDetector) WithUpperThreshold(upper float64) *CorrelationDetector {
	cp := *d
	cp.CorrelationUpperThreshold = &upper
	return &cp
}

// PValueThreshold returns the current p-value threshold
func (d *CorrelationDetector) PValueThreshold() float64 {
	return d.pValueThreshold
}

// WithPValueThreshold returns a copy using another p-value threshold
func (d *CorrelationDetector) WithPValueThreshold(threshold float64) *CorrelationDetector {
	cp := *d
	cp.pValueThreshold = threshold
	return &cp
}

// Test computes the correlation, its p-value and the paired sample size
func (d *CorrelationDetector) Test(a, b *omics.ExperimentData) stats.Correlation {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return stats.PearsonTest(a.Values, b.Values)
	case a.IsNumeric():
		return mixedTest(a.Values, b.Series())
	case b.IsNumeric():
		return mixedTest(b.Values, a.Series())
	}
	xs, ys := stats.PairedComplete(a.Series(), b.Series())
	_, _, p := stats.ChiSquareIndependence(toCodes(xs), toCodes(ys))
	return stats.Correlation{R: stats.Pearson(xs, ys), P: p, N: len(xs)}
}

func mixedTest(values, codes []float64) stats.Correlation {
	xs, cs := stats.PairedComplete(values, codes)
	_, p := stats.OneWayANOVA(xs, toCodes(cs))
	r := math.NaN()
	if len(xs) >= 2 {
		r = stats.Pearson(stats.Ranks(xs), stats.Ranks(cs))
	}
	return stats.Correlation{R: r, P: p, N: len(xs)}
}

// ChangeSign returns the correlation sign when every filter passes
func (d *CorrelationDetector) ChangeSign(a, b *omics.ExperimentData) (int, error) {
	c := d.Test(a, b)
	if c.N < minimumOrDefault(d.MinimumSampleSize) || !c.Valid() {
		return 0, nil
	}
	if c.P > d.pValueThreshold {
		return 0, nil
	}
	abs := math.Abs(c.R)
	if abs < d.CorrelationThreshold {
		return 0, nil
	}
	if d.CorrelationUpperThreshold != nil && abs > *d.CorrelationUpperThreshold {
		return 0, nil
	}
	return Sign(c.R), nil
}

func toCodes(xs []float64) []int {
	out := make([]int, len(xs))
	for i, v := range xs {
		out[i] = int(v)
	}
	return out
}
