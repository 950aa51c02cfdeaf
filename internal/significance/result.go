package significance

import (
	"sort"

	"gocausal/internal/fdr"
)

// Result holds the permutation p-values. Genes with fewer potential targets
// than the configured minimum are absent from every map.
type Result struct {
	Iterations int

	// Downstream is the p-value of observing at least as many changed
	// downstream target genes as in the data.
	Downstream map[string]float64
	Activating map[string]float64
	Inhibiting map[string]float64

	BaselineDownstream map[string]int
	BaselineActivating map[string]int
	BaselineInhibiting map[string]int
	Potential          map[string]int

	// GraphSize is the number of result triples in the data
	GraphSize       int
	GraphSizePValue float64
}

// Thresholds are the BH p-value thresholds of each map
type Thresholds struct {
	Downstream float64
	Activating float64
	Inhibiting float64
}

// SignificantGenes lists, sorted, the genes passing each threshold
type SignificantGenes struct {
	Downstream []string
	Activating []string
	Inhibiting []string
}

func (c *Calculator) result(g *graph, baseline *tally, total *counts) *Result {
	n := float64(c.Iterations)
	r := &Result{
		Iterations:         c.Iterations,
		Downstream:         make(map[string]float64),
		Activating:         make(map[string]float64),
		Inhibiting:         make(map[string]float64),
		BaselineDownstream: make(map[string]int),
		BaselineActivating: make(map[string]int),
		BaselineInhibiting: make(map[string]int),
		Potential:          make(map[string]int),
		GraphSize:          baseline.size,
		GraphSizePValue:    float64(total.size) / n,
	}
	for i, gene := range g.genes {
		if g.potential[i] == 0 || g.potential[i] < c.MinimumPotentialTargets {
			continue
		}
		r.Potential[gene] = g.potential[i]
		r.BaselineDownstream[gene] = baseline.downstream[i]
		r.BaselineActivating[gene] = baseline.activating[i]
		r.BaselineInhibiting[gene] = baseline.inhibiting[i]
		r.Downstream[gene] = geneP(total.downstream[i], n)
		r.Activating[gene] = geneP(total.activating[i], n)
		r.Inhibiting[gene] = geneP(total.inhibiting[i], n)
	}
	return r
}

// geneP never reports 0; one iteration is the resolution of the test
func geneP(count int, n float64) float64 {
	if count < 1 {
		count = 1
	}
	return float64(count) / n
}

// Thresholds derives the BH thresholds of each map at the given FDR
func (r *Result) Thresholds(rate float64) Thresholds {
	return Thresholds{
		Downstream: fdr.Threshold(r.Downstream, rate),
		Activating: fdr.Threshold(r.Activating, rate),
		Inhibiting: fdr.Threshold(r.Inhibiting, rate),
	}
}

// SignificantGenes returns the genes whose p-value is within the threshold
func (r *Result) SignificantGenes(rate float64) SignificantGenes {
	th := r.Thresholds(rate)
	return SignificantGenes{
		Downstream: passing(r.Downstream, th.Downstream),
		Activating: passing(r.Activating, th.Activating),
		Inhibiting: passing(r.Inhibiting, th.Inhibiting),
	}
}

func passing(pvals map[string]float64, threshold float64) []string {
	var out []string
	for gene, p := range pvals {
		if p <= threshold {
			out = append(out, gene)
		}
	}
	sort.Strings(out)
	return out
}
