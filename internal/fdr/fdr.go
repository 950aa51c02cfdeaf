// Package fdr selects p-value thresholds that control the false discovery
// rate with the Benjamini-Hochberg step-up procedure and rebinds detectors
// to them.
package fdr

import (
	"math"
	"sort"
)

// Threshold returns the largest p-value p(k) with p(k) <= fdr*k/m over the
// defined p-values, or 0 when none qualifies. Keys only identify the tests.
func Threshold(pvals map[string]float64, fdr float64) float64 {
	ps := make([]float64, 0, len(pvals))
	for _, p := range pvals {
		if !math.IsNaN(p) {
			ps = append(ps, p)
		}
	}
	return thresholdOf(ps, fdr)
}

func thresholdOf(ps []float64, fdr float64) float64 {
	if len(ps) == 0 || fdr <= 0 {
		return 0
	}
	sort.Float64s(ps)
	m := float64(len(ps))
	threshold := 0.0
	for i, p := range ps {
		if p <= fdr*float64(i+1)/m {
			threshold = p
		}
	}
	return threshold
}
