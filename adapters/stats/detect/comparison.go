package detect

import (
	"fmt"
	"math"

	"gocausal/domain/core"
	"gocausal/domain/omics"
	"gocausal/internal/stats"

	mstats "github.com/montanaflynn/stats"
)

// Comparison selects two disjoint sample subsets of the same value series.
// Every group needs at least MinimumSampleSize defined values, otherwise the
// comparison reports no change.
type Comparison struct {
	Control           []bool
	Test              []bool
	MinimumSampleSize int
}

// NewComparison validates the masks
func NewComparison(control, test []bool) (Comparison, error) {
	if len(control) != len(test) {
		return Comparison{}, fmt.Errorf("%w: control has %d samples, test has %d", core.ErrInvalidComparison, len(control), len(test))
	}
	nc, nt := 0, 0
	for i := range control {
		if control[i] && test[i] {
			return Comparison{}, fmt.Errorf("%w: sample %d is both control and test", core.ErrInvalidComparison, i)
		}
		if control[i] {
			nc++
		}
		if test[i] {
			nt++
		}
	}
	if nc == 0 || nt == 0 {
		return Comparison{}, fmt.Errorf("%w: empty control or test group", core.ErrInvalidComparison)
	}
	return Comparison{Control: control, Test: test}, nil
}

// MaskFromIndices builds a mask of length n selecting the given positions
func MaskFromIndices(n int, indices ...int) []bool {
	mask := make([]bool, n)
	for _, i := range indices {
		if i >= 0 && i < n {
			mask[i] = true
		}
	}
	return mask
}

// split returns the defined control and test values
func (c Comparison) split(series []float64) (control, test []float64) {
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		if i < len(c.Control) && c.Control[i] {
			control = append(control, v)
		} else if i < len(c.Test) && c.Test[i] {
			test = append(test, v)
		}
	}
	return control, test
}

// groups splits the series and reports whether both groups are large enough
func (c Comparison) groups(series []float64) ([]float64, []float64, bool) {
	control, test := c.split(series)
	need := minimumOrDefault(c.MinimumSampleSize)
	return control, test, len(control) >= need && len(test) >= need
}

func groupMeans(control, test []float64) (float64, float64) {
	mc, err := mstats.Mean(control)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	mt, err := mstats.Mean(test)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	return mc, mt
}

// DifferenceDetector measures mean(test) - mean(control)
type DifferenceDetector struct {
	Comparison
	Threshold float64
}

// NewDifferenceDetector creates a difference-of-means detector
func NewDifferenceDetector(c Comparison, threshold float64) *DifferenceDetector {
	return &DifferenceDetector{Comparison: c, Threshold: threshold}
}

// ChangeValue returns the signed difference of means
func (d *DifferenceDetector) ChangeValue(data *omics.ExperimentData) (float64, error) {
	control, test, ok := d.groups(data.Series())
	if !ok {
		return math.NaN(), nil
	}
	mc, mt := groupMeans(control, test)
	return mt - mc, nil
}

// ChangeSign returns the sign of the difference when it reaches the threshold
func (d *DifferenceDetector) ChangeSign(data *omics.ExperimentData) (int, error) {
	v, _ := d.ChangeValue(data)
	if math.IsNaN(v) || math.Abs(v) < d.Threshold {
		return 0, nil
	}
	return Sign(v), nil
}

// FoldChangeDetector measures mean(test)/mean(control) folded into
// (-inf,-1] U [1,inf). It only accepts numeric data.
type FoldChangeDetector struct {
	Comparison
	Threshold float64
}

// NewFoldChangeDetector creates a fold-change detector
func NewFoldChangeDetector(c Comparison, threshold float64) *FoldChangeDetector {
	return &FoldChangeDetector{Comparison: c, Threshold: threshold}
}

// ChangeValue returns the folded ratio of means
func (d *FoldChangeDetector) ChangeValue(data *omics.ExperimentData) (float64, error) {
	if !data.IsNumeric() {
		return 0, core.NewDetectorMisuseError("fold-change detector", data.ID, data.Type.String()+" data is not numeric")
	}
	control, test, ok := d.groups(data.Values)
	if !ok {
		return math.NaN(), nil
	}
	mc, mt := groupMeans(control, test)
	if mc <= 0 || mt <= 0 {
		return math.NaN(), nil
	}
	return fold(mt / mc), nil
}

// ChangeSign returns the fold direction when |fold| exceeds 1 and reaches the
// threshold.
func (d *FoldChangeDetector) ChangeSign(data *omics.ExperimentData) (int, error) {
	v, err := d.ChangeValue(data)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.Abs(v) <= 1 || math.Abs(v) < d.Threshold {
		return 0, nil
	}
	return Sign(v), nil
}

// SignificanceDetector runs a two-sample test between the groups: Welch's
// t-test for numeric data, chi-square independence of group and category for
// categorical data. A direction is reported only when p <= the threshold.
type SignificanceDetector struct {
	Comparison
	pValueThreshold float64
}

// NewSignificanceDetector creates a significance detector
func NewSignificanceDetector(c Comparison, pValueThreshold float64) *SignificanceDetector {
	return &SignificanceDetector{Comparison: c, pValueThreshold: pValueThreshold}
}

// PValueThreshold returns the current threshold
func (d *SignificanceDetector) PValueThreshold() float64 {
	return d.pValueThreshold
}

// WithPValueThreshold returns a copy using another threshold
func (d *SignificanceDetector) WithPValueThreshold(threshold float64) omics.OneDataChangeDetector {
	cp := *d
	cp.pValueThreshold = threshold
	return &cp
}

// PValue returns the raw p-value, NaN when the test is undefined
func (d *SignificanceDetector) PValue(data *omics.ExperimentData) (float64, error) {
	p, _ := d.test(data)
	return p, nil
}

// test returns the p-value and the direction of the test group
func (d *SignificanceDetector) test(data *omics.ExperimentData) (float64, int) {
	control, test, ok := d.groups(data.Series())
	if !ok {
		return math.NaN(), 0
	}
	mc, mt := groupMeans(control, test)
	direction := Sign(mt - mc)

	if data.IsNumeric() {
		_, _, p := stats.WelchTTest(test, control)
		return p, direction
	}

	groups := make([]int, 0, len(control)+len(test))
	codes := make([]int, 0, len(control)+len(test))
	for _, v := range control {
		groups = append(groups, 0)
		codes = append(codes, int(v))
	}
	for _, v := range test {
		groups = append(groups, 1)
		codes = append(codes, int(v))
	}
	_, _, p := stats.ChiSquareIndependence(groups, codes)
	return p, direction
}

// ChangeSign returns the direction of the test group when significant
func (d *SignificanceDetector) ChangeSign(data *omics.ExperimentData) (int, error) {
	p, direction := d.test(data)
	if math.IsNaN(p) || p > d.pValueThreshold {
		return 0, nil
	}
	return direction, nil
}

// ChangeValue returns the signed -log10 p-value, 0 when undefined
func (d *SignificanceDetector) ChangeValue(data *omics.ExperimentData) (float64, error) {
	p, direction := d.test(data)
	if math.IsNaN(p) || direction == 0 {
		return 0, nil
	}
	if p == 0 {
		return math.Copysign(math.Inf(1), float64(direction)), nil
	}
	return float64(direction) * -math.Log10(p), nil
}
