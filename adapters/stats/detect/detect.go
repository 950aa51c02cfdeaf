// Package detect implements the change detectors bound to experiment data and
// relations. Detectors are immutable after construction; re-thresholding
// produces a new detector that callers rebind.
package detect

import (
	"math"

	"gocausal/domain/omics"
)

// DefaultMinimumSampleSize is the smallest usable sample count per group or
// per pair below which a comparison reports no change.
const DefaultMinimumSampleSize = 3

// PValueDetector is a one-datum detector whose verdict depends on a p-value
// threshold that FDR control can tighten.
type PValueDetector interface {
	omics.OneDataChangeDetector
	PValue(d *omics.ExperimentData) (float64, error)
	PValueThreshold() float64
	WithPValueThreshold(threshold float64) omics.OneDataChangeDetector
}

// Sign returns the sign of v, treating NaN as 0
func Sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// fold maps a positive ratio into (-inf,-1] U [1,inf)
func fold(ratio float64) float64 {
	if math.IsNaN(ratio) || ratio <= 0 {
		return math.NaN()
	}
	if ratio >= 1 {
		return ratio
	}
	return -1 / ratio
}

func minimumOrDefault(n int) int {
	if n <= 0 {
		return DefaultMinimumSampleSize
	}
	return n
}

var (
	_ omics.OneDataChangeDetector = (*ThresholdDetector)(nil)
	_ omics.OneDataChangeDetector = (*DifferenceDetector)(nil)
	_ omics.OneDataChangeDetector = (*FoldChangeDetector)(nil)
	_ PValueDetector              = (*SignificanceDetector)(nil)
	_ omics.TwoDataChangeDetector = (*AgreementDetector)(nil)
	_ omics.TwoDataChangeDetector = (*CorrelationDetector)(nil)
)
