package detect

import (
	"math"

	"gocausal/domain/omics"
	"gocausal/internal/stats"

	mstats "github.com/montanaflynn/stats"
)

// Averaging selects how a threshold detector summarizes a value series
type Averaging int

const (
	ArithmeticMean Averaging = iota
	// FoldChangeMean treats values as fold changes and averages geometrically
	FoldChangeMean
)

func (a Averaging) String() string {
	if a == FoldChangeMean {
		return "fold-change-mean"
	}
	return "arithmetic-mean"
}

// ThresholdDetector reports a change when the average of a datum's values
// reaches the threshold in absolute value.
type ThresholdDetector struct {
	Threshold float64
	Averaging Averaging
}

// NewThresholdDetector creates a threshold detector
func NewThresholdDetector(threshold float64, averaging Averaging) *ThresholdDetector {
	return &ThresholdDetector{Threshold: threshold, Averaging: averaging}
}

// ChangeValue returns the average, NaN when no value is defined
func (d *ThresholdDetector) ChangeValue(data *omics.ExperimentData) (float64, error) {
	values := stats.Defined(data.Series())
	if d.Averaging == FoldChangeMean {
		return foldMean(values), nil
	}
	mean, err := mstats.Mean(values)
	if err != nil {
		return math.NaN(), nil
	}
	return mean, nil
}

// ChangeSign returns the sign of the average when |average| >= Threshold
func (d *ThresholdDetector) ChangeSign(data *omics.ExperimentData) (int, error) {
	v, err := d.ChangeValue(data)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.Abs(v) < d.Threshold {
		return 0, nil
	}
	return Sign(v), nil
}

// foldMean converts folded values back to ratios, takes their geometric mean
// and folds the result.
func foldMean(values []float64) float64 {
	ratios := make([]float64, 0, len(values))
	for _, v := range values {
		switch {
		case v >= 1:
			ratios = append(ratios, v)
		case v <= -1:
			ratios = append(ratios, -1/v)
		case v > 0:
			ratios = append(ratios, v)
		}
	}
	g, err := mstats.GeometricMean(ratios)
	if err != nil {
		return math.NaN()
	}
	return fold(g)
}
