package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPearsonTest(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, math.NaN()}
	y := []float64{2, 4, 6, 8, 10, 12}

	c := PearsonTest(x, y)
	assert.Equal(t, 5, c.N)
	assert.InDelta(t, 1.0, c.R, 1e-12)
	assert.Equal(t, 0.0, c.P)
	assert.True(t, c.Valid())

	flat := PearsonTest([]float64{1, 1, 1, 1}, []float64{1, 2, 3, 4})
	assert.False(t, flat.Valid())

	noisy := PearsonTest([]float64{1, 2, 3, 4, 5, 6}, []float64{2, 1, 4, 3, 6, 5})
	assert.Greater(t, noisy.R, 0.0)
	assert.Greater(t, noisy.P, 0.0)
	assert.Less(t, noisy.P, 0.1)
}

func TestRanksAverageTies(t *testing.T) {
	assert.Equal(t, []float64{2, 3.5, 3.5, 1}, Ranks([]float64{10, 20, 20, 5}))
	assert.Empty(t, Ranks(nil))
}

func TestWelchTTest(t *testing.T) {
	tStat, df, p := WelchTTest([]float64{1, 2, 3, 4, 5}, []float64{6, 7, 8, 9, 10})
	assert.InDelta(t, -5.0, tStat, 1e-9)
	assert.InDelta(t, 8.0, df, 1e-9)
	assert.InDelta(t, 0.00105, p, 1e-4)

	_, _, p = WelchTTest([]float64{1}, []float64{2, 3})
	assert.True(t, math.IsNaN(p))

	_, _, p = WelchTTest([]float64{2, 2}, []float64{2, 2})
	assert.True(t, math.IsNaN(p))

	tStat, _, p = WelchTTest([]float64{1, 1, 1}, []float64{3, 3, 3})
	assert.True(t, math.IsInf(tStat, -1))
	assert.Equal(t, 0.0, p)
}

func TestChiSquareIndependence(t *testing.T) {
	chi, df, p := ChiSquareIndependence(
		[]int{0, 0, 0, 0, 1, 1, 1, 1},
		[]int{0, 0, 0, 0, 1, 1, 1, 1},
	)
	assert.InDelta(t, 8.0, chi, 1e-9)
	assert.Equal(t, 1, df)
	assert.InDelta(t, 0.00468, p, 1e-4)

	_, _, p = ChiSquareIndependence([]int{0, 0, 0}, []int{0, 1, 0})
	assert.True(t, math.IsNaN(p))
}

func TestOneWayANOVA(t *testing.T) {
	f, p := OneWayANOVA([]float64{1, 2, 3, 4, 5, 6}, []int{0, 0, 0, 1, 1, 1})
	assert.InDelta(t, 13.5, f, 1e-9)
	assert.Greater(t, p, 0.01)
	assert.Less(t, p, 0.03)

	_, p = OneWayANOVA([]float64{1, 2, 3}, []int{0, 0, 0})
	assert.True(t, math.IsNaN(p))
}

func TestPValueGuards(t *testing.T) {
	assert.True(t, math.IsNaN(TTestPValue(1, 0)))
	assert.True(t, math.IsNaN(CorrelationPValue(0.5, 2)))
	assert.True(t, math.IsNaN(FTestPValue(1, 0, 3)))
	assert.True(t, math.IsNaN(ChiSquarePValue(1, 0)))
	assert.Equal(t, 0.0, TTestPValue(math.Inf(1), 3))
	assert.InDelta(t, 1.0, TTestPValue(0, 10), 1e-12)
}
