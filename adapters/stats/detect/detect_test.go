package detect

import (
	"errors"
	"math"
	"testing"

	"gocausal/domain/core"
	"gocausal/domain/omics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numeric(t *testing.T, id string, values ...float64) *omics.ExperimentData {
	t.Helper()
	d, err := omics.NewNumeric(id, omics.TypeProtein, []string{id}, values)
	require.NoError(t, err)
	return d
}

func categorical(t *testing.T, id string, codes ...int) *omics.ExperimentData {
	t.Helper()
	calls := make([]omics.Call, len(codes))
	for i, c := range codes {
		if c < 0 {
			calls[i] = omics.MissingCall()
			continue
		}
		calls[i] = omics.Call{Code: c}
	}
	d, err := omics.NewCategorical(id, omics.TypeMutation, []string{id}, calls)
	require.NoError(t, err)
	return d
}

func halves(t *testing.T, n int) Comparison {
	t.Helper()
	control := make([]int, 0, n/2)
	test := make([]int, 0, n/2)
	for i := 0; i < n; i++ {
		if i < n/2 {
			control = append(control, i)
		} else {
			test = append(test, i)
		}
	}
	c, err := NewComparison(MaskFromIndices(n, control...), MaskFromIndices(n, test...))
	require.NoError(t, err)
	return c
}

func TestThresholdDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		averaging Averaging
		values    []float64
		wantSign  int
		wantValue float64
	}{
		{"below threshold", 1.0, ArithmeticMean, []float64{0.5, 1.0, 0.9}, 0, 0.8},
		{"at threshold", 1.0, ArithmeticMean, []float64{1.0, 1.0}, 1, 1.0},
		{"negative above threshold", 1.0, ArithmeticMean, []float64{-2, -1, math.NaN()}, -1, -1.5},
		{"negative below threshold", 2.0, ArithmeticMean, []float64{-2, -1}, 0, -1.5},
		{"fold up", 1.5, FoldChangeMean, []float64{2, 2}, 1, 2},
		{"fold down", 1.5, FoldChangeMean, []float64{-4, -4}, -1, -4},
		{"fold cancels", 1.5, FoldChangeMean, []float64{2, -2}, 0, 1},
		{"raw ratios", 1.5, FoldChangeMean, []float64{0.25, 0.25}, -1, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := NewThresholdDetector(tt.threshold, tt.averaging)
			d := numeric(t, "x", tt.values...)

			v, err := det.ChangeValue(d)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantValue, v, 1e-9)

			s, err := det.ChangeSign(d)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSign, s)
		})
	}

	empty := numeric(t, "empty", math.NaN())
	s, err := NewThresholdDetector(0, ArithmeticMean).ChangeSign(empty)
	require.NoError(t, err)
	assert.Equal(t, 0, s)
}

func TestThresholdDetectorProperty(t *testing.T) {
	det := NewThresholdDetector(0.75, ArithmeticMean)
	for v := -2.0; v <= 2.0; v += 0.125 {
		s, err := det.ChangeSign(numeric(t, "x", v, v))
		require.NoError(t, err)
		switch {
		case math.Abs(v) < 0.75:
			assert.Equal(t, 0, s, "value %v", v)
		default:
			assert.Equal(t, Sign(v), s, "value %v", v)
		}
	}
}

func TestNewComparisonValidates(t *testing.T) {
	_, err := NewComparison([]bool{true, false}, []bool{false})
	assert.True(t, errors.Is(err, core.ErrInvalidComparison))

	_, err = NewComparison([]bool{true, true}, []bool{false, true})
	assert.True(t, errors.Is(err, core.ErrInvalidComparison))

	_, err = NewComparison([]bool{false, false}, []bool{true, true})
	assert.True(t, errors.Is(err, core.ErrInvalidComparison))
}

func TestDifferenceDetector(t *testing.T) {
	det := NewDifferenceDetector(halves(t, 6), 0.5)

	v, err := det.ChangeValue(numeric(t, "x", 1, 1, 1, 3, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	s, _ := det.ChangeSign(numeric(t, "x", 3, 3, 3, 1, 1, 1))
	assert.Equal(t, -1, s)

	s, _ = det.ChangeSign(numeric(t, "x", 1, 1, 1, 1.2, 1.2, 1.2))
	assert.Equal(t, 0, s)

	// two usable control samples are below the default minimum
	s, _ = det.ChangeSign(numeric(t, "x", 1, math.NaN(), 1, 3, 3, 3))
	assert.Equal(t, 0, s)
}

func TestFoldChangeDetector(t *testing.T) {
	det := NewFoldChangeDetector(halves(t, 6), 1.5)

	v, err := det.ChangeValue(numeric(t, "up", 2, 2, 2, 8, 8, 8))
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
	s, _ := det.ChangeSign(numeric(t, "up", 2, 2, 2, 8, 8, 8))
	assert.Equal(t, 1, s)

	v, _ = det.ChangeValue(numeric(t, "down", 8, 8, 8, 2, 2, 2))
	assert.Equal(t, -4.0, v)
	s, _ = det.ChangeSign(numeric(t, "down", 8, 8, 8, 2, 2, 2))
	assert.Equal(t, -1, s)

	s, _ = det.ChangeSign(numeric(t, "same", 2, 2, 2, 2, 2, 2))
	assert.Equal(t, 0, s)

	for _, series := range [][]float64{{1, 2, 3, 4, 5, 6}, {6, 5, 4, 3, 2, 1}, {5, 5, 5, 6, 6, 6}} {
		v, _ := det.ChangeValue(numeric(t, "any", series...))
		assert.GreaterOrEqual(t, math.Abs(v), 1.0)
	}

	_, err = det.ChangeSign(categorical(t, "mut", 0, 0, 0, 1, 1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDetectorMisuse))
	assert.Contains(t, err.Error(), "mut")
}

func TestSignificanceDetectorNumeric(t *testing.T) {
	c := halves(t, 10)
	strict := NewSignificanceDetector(c, 0.01)
	d := numeric(t, "x", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	p, err := strict.PValue(d)
	require.NoError(t, err)
	assert.InDelta(t, 0.00105, p, 1e-4)

	s, _ := strict.ChangeSign(d)
	assert.Equal(t, 1, s)

	tighter := strict.WithPValueThreshold(0.0001)
	s, _ = tighter.ChangeSign(d)
	assert.Equal(t, 0, s)
	assert.Equal(t, 0.01, strict.PValueThreshold(), "rebinding must not mutate the original")

	v, _ := strict.ChangeValue(d)
	assert.InDelta(t, -math.Log10(p), v, 1e-9)
}

func TestSignificanceDetectorPermissiveThreshold(t *testing.T) {
	det := NewSignificanceDetector(halves(t, 6), 1.0)

	s, _ := det.ChangeSign(numeric(t, "weak", 1, 5, 3, 2, 6, 3.5))
	assert.Equal(t, 1, s)

	s, _ = det.ChangeSign(numeric(t, "flat", 3, 3, 3, 3, 3, 3))
	assert.Equal(t, 0, s)
}

func TestSignificanceDetectorCategorical(t *testing.T) {
	det := NewSignificanceDetector(halves(t, 16), 0.05)

	d := categorical(t, "mut", 0, 0, 0, 0, 0, 0, 0, -1, 1, 1, 1, 1, 1, 1, 1, 1)
	s, err := det.ChangeSign(d)
	require.NoError(t, err)
	assert.Equal(t, 1, s)

	d = categorical(t, "mut", 0, 1, 0, 1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1, 0)
	s, _ = det.ChangeSign(d)
	assert.Equal(t, 0, s)
}

func TestAgreementDetector(t *testing.T) {
	up := numeric(t, "up", 2)
	up.Detector = NewThresholdDetector(1, ArithmeticMean)
	down := numeric(t, "down", -2)
	down.Detector = NewThresholdDetector(1, ArithmeticMean)
	flat := numeric(t, "flat", 0.1)
	flat.Detector = NewThresholdDetector(1, ArithmeticMean)

	det := NewAgreementDetector()
	s, err := det.ChangeSign(up, up)
	require.NoError(t, err)
	assert.Equal(t, 1, s)
	s, _ = det.ChangeSign(up, down)
	assert.Equal(t, -1, s)
	s, _ = det.ChangeSign(flat, down)
	assert.Equal(t, 0, s)

	_, err = det.ChangeSign(up, numeric(t, "unbound", 3))
	assert.True(t, errors.Is(err, core.ErrNoDetector))
}

func TestCorrelationDetector(t *testing.T) {
	x := numeric(t, "x", 1, 2, 3, 4, 5, 6, 7, 8)
	y := numeric(t, "y", 1.5, 1.8, 3.6, 3.7, 5.6, 5.4, 7.9, 7.2)
	neg := numeric(t, "neg", 8, 7, 6, 5, 4, 3, 2, 1)
	noise := numeric(t, "noise", 3, 1, 4, 1, 5, 9, 2, 6)

	det := NewCorrelationDetector(0.05, 0.5)

	s, err := det.ChangeSign(x, y)
	require.NoError(t, err)
	assert.Equal(t, 1, s)

	s, _ = det.ChangeSign(x, neg)
	assert.Equal(t, -1, s)

	s, _ = det.ChangeSign(x, noise)
	assert.Equal(t, 0, s)

	capped := det.WithUpperThreshold(0.99)
	s, _ = capped.ChangeSign(x, neg)
	assert.Equal(t, 0, s, "perfect correlation is excluded by the upper bound")
	s, _ = capped.ChangeSign(x, y)
	assert.Equal(t, 1, s)

	short := numeric(t, "short", 1, 2, math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN())
	s, _ = det.ChangeSign(x, short)
	assert.Equal(t, 0, s)

	tight := det.WithPValueThreshold(1e-12)
	s, _ = tight.ChangeSign(x, y)
	assert.Equal(t, 0, s)
	assert.Equal(t, 0.05, det.PValueThreshold())
}

func TestCorrelationDetectorMixedKinds(t *testing.T) {
	values := numeric(t, "expr", 1, 1.2, 0.9, 1.1, 5, 5.2, 4.9, 5.1)
	mut := categorical(t, "mut", 0, 0, 0, 0, 1, 1, 1, 1)
	wt := categorical(t, "wt", 1, 1, 1, 1, 0, 0, 0, 0)

	det := NewCorrelationDetector(0.05, 0.3)

	c := det.Test(values, mut)
	assert.Equal(t, 8, c.N)
	assert.Greater(t, c.R, 0.5)
	assert.Less(t, c.P, 0.05)

	s, err := det.ChangeSign(mut, values)
	require.NoError(t, err)
	assert.Equal(t, 1, s)

	s, _ = det.ChangeSign(values, wt)
	assert.Equal(t, -1, s)

	s, _ = det.ChangeSign(mut, wt)
	assert.Equal(t, -1, s)
}
