package fdr

import (
	"math"

	"gocausal/adapters/stats/detect"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal/causality"
	"gocausal/internal/stats"
)

// CorrelationAdjuster controls the FDR of pairwise correlations with one
// global threshold.
type CorrelationAdjuster struct {
	FDR               float64
	MinimumSampleSize int
}

type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// PValues returns the Pearson p-values of the numeric pairs the searcher
// scores: compatible, not shadowed by total protein data and with a source of
// known effect. Each unordered pair of data is counted once and pairs with too
// few paired samples are left out.
func (a *CorrelationAdjuster) PValues(relations []*network.Relation, searcher *causality.Searcher) ([]float64, error) {
	minimum := a.MinimumSampleSize
	if minimum <= 0 {
		minimum = detect.DefaultMinimumSampleSize
	}

	seen := make(map[pairKey]struct{})
	var ps []float64
	err := searcher.CompatiblePairs(relations, func(r *network.Relation, source, target *omics.ExperimentData) error {
		if !source.IsNumeric() || !target.IsNumeric() || source.Effect() == 0 {
			return nil
		}
		k := newPairKey(source.ID, target.ID)
		if _, ok := seen[k]; ok {
			return nil
		}
		seen[k] = struct{}{}

		c := stats.PearsonTest(source.Values, target.Values)
		if c.N < minimum || math.IsNaN(c.P) {
			return nil
		}
		ps = append(ps, c.P)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ps, nil
}

// Threshold returns the BH threshold over PValues
func (a *CorrelationAdjuster) Threshold(relations []*network.Relation, searcher *causality.Searcher) (float64, error) {
	ps, err := a.PValues(relations, searcher)
	if err != nil {
		return 0, err
	}
	return thresholdOf(ps, a.FDR), nil
}

// Apply rebinds every relation's correlation detector to threshold and
// returns the number of rebound relations.
func (a *CorrelationAdjuster) Apply(relations []*network.Relation, threshold float64) int {
	n := 0
	for _, r := range relations {
		if cd, ok := r.Detector.(*detect.CorrelationDetector); ok {
			r.Detector = cd.WithPValueThreshold(threshold)
			n++
		}
	}
	return n
}
