package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Correlation is the outcome of a pairwise association test
type Correlation struct {
	R float64
	P float64
	N int
}

// Valid reports whether both the coefficient and p-value are defined
func (c Correlation) Valid() bool {
	return !math.IsNaN(c.R) && !math.IsNaN(c.P)
}

// PairedComplete keeps the positions where both series are defined
func PairedComplete(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// Defined drops NaN values
func Defined(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Pearson computes the correlation of two complete series. A constant series
// gives NaN.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	if constant(x) || constant(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// PearsonTest pairs the series, then computes r and its p-value
func PearsonTest(x, y []float64) Correlation {
	xs, ys := PairedComplete(x, y)
	r := Pearson(xs, ys)
	return Correlation{R: r, P: CorrelationPValue(r, len(xs)), N: len(xs)}
}

// Ranks converts values to ranks, averaging ties
func Ranks(data []float64) []float64 {
	n := len(data)
	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j
	}
	return ranks
}

// WelchTTest compares the means of two samples with unequal variances.
// It returns the t statistic, the Welch-Satterthwaite degrees of freedom and
// the two-tailed p-value; p is NaN when the test is undefined.
func WelchTTest(a, b []float64) (tStat, df, p float64) {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 < 2 || n2 < 2 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	mean1, var1 := stat.MeanVariance(a, nil)
	mean2, var2 := stat.MeanVariance(b, nil)

	se2 := var1/n1 + var2/n2
	if se2 == 0 {
		if mean1 == mean2 {
			return math.NaN(), math.NaN(), math.NaN()
		}
		return math.Copysign(math.Inf(1), mean1-mean2), n1 + n2 - 2, 0
	}
	tStat = (mean1 - mean2) / math.Sqrt(se2)
	df = se2 * se2 / (math.Pow(var1/n1, 2)/(n1-1) + math.Pow(var2/n2, 2)/(n2-1))
	return tStat, df, TTestPValue(tStat, df)
}

// ChiSquareIndependence tests the independence of two label vectors of equal
// length. Empty rows and columns are dropped before computing the degrees of
// freedom.
func ChiSquareIndependence(rows, cols []int) (chiSq float64, df int, p float64) {
	if len(rows) != len(cols) || len(rows) == 0 {
		return math.NaN(), 0, math.NaN()
	}
	rowIdx := indexLabels(rows)
	colIdx := indexLabels(cols)
	if len(rowIdx) < 2 || len(colIdx) < 2 {
		return math.NaN(), 0, math.NaN()
	}

	table := make([][]float64, len(rowIdx))
	for i := range table {
		table[i] = make([]float64, len(colIdx))
	}
	rowSum := make([]float64, len(rowIdx))
	colSum := make([]float64, len(colIdx))
	for i := range rows {
		r, c := rowIdx[rows[i]], colIdx[cols[i]]
		table[r][c]++
		rowSum[r]++
		colSum[c]++
	}

	n := float64(len(rows))
	for r := range table {
		for c := range table[r] {
			expected := rowSum[r] * colSum[c] / n
			diff := table[r][c] - expected
			chiSq += diff * diff / expected
		}
	}
	df = (len(rowIdx) - 1) * (len(colIdx) - 1)
	return chiSq, df, ChiSquarePValue(chiSq, df)
}

// OneWayANOVA tests whether the group means of values differ
func OneWayANOVA(values []float64, groups []int) (f float64, p float64) {
	if len(values) != len(groups) || len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	sums := make(map[int]float64)
	counts := make(map[int]float64)
	total := 0.0
	for i, v := range values {
		sums[groups[i]] += v
		counts[groups[i]]++
		total += v
	}
	k := len(counts)
	n := len(values)
	if k < 2 || n <= k {
		return math.NaN(), math.NaN()
	}
	grand := total / float64(n)

	ssb := 0.0
	for g, s := range sums {
		m := s / counts[g]
		ssb += counts[g] * (m - grand) * (m - grand)
	}
	ssw := 0.0
	for i, v := range values {
		m := sums[groups[i]] / counts[groups[i]]
		ssw += (v - m) * (v - m)
	}

	df1, df2 := k-1, n-k
	if ssw == 0 {
		if ssb == 0 {
			return math.NaN(), math.NaN()
		}
		return math.Inf(1), 0
	}
	f = (ssb / float64(df1)) / (ssw / float64(df2))
	return f, FTestPValue(f, df1, df2)
}

func indexLabels(labels []int) map[int]int {
	distinct := make([]int, 0)
	seen := make(map[int]bool)
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			distinct = append(distinct, l)
		}
	}
	sort.Ints(distinct)
	idx := make(map[int]int, len(distinct))
	for i, l := range distinct {
		idx[l] = i
	}
	return idx
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
