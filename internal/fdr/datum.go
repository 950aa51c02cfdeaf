package fdr

import (
	"fmt"
	"math"

	"gocausal/adapters/stats/detect"
	"gocausal/domain/omics"
)

// DatumAdjuster controls the FDR of data bound to p-value detectors,
// separately per data type.
type DatumAdjuster struct {
	// FDR per data type. Types without an entry are left untouched.
	FDR map[omics.DataType]float64
	// PoolProteomics adjusts total and phospho protein data together
	PoolProteomics bool
}

func (a *DatumAdjuster) group(t omics.DataType) omics.DataType {
	if a.PoolProteomics && t == omics.TypePhosphoProtein {
		return omics.TypeProtein
	}
	return t
}

func (a *DatumAdjuster) fdrFor(t omics.DataType) (float64, bool) {
	if f, ok := a.FDR[t]; ok {
		return f, true
	}
	if a.PoolProteomics && t == omics.TypeProtein {
		f, ok := a.FDR[omics.TypePhosphoProtein]
		return f, ok
	}
	return 0, false
}

// Thresholds computes one p-value threshold per data type from the data bound
// to p-value detectors. When proteomics is pooled, protein and phospho protein
// share the same entry.
func (a *DatumAdjuster) Thresholds(data []*omics.ExperimentData) (map[omics.DataType]float64, error) {
	pvals := make(map[omics.DataType]map[string]float64)
	for _, d := range data {
		pd, ok := d.Detector.(detect.PValueDetector)
		if !ok {
			continue
		}
		g := a.group(d.Type)
		if _, ok := a.fdrFor(g); !ok {
			continue
		}
		p, err := pd.PValue(d)
		if err != nil {
			return nil, fmt.Errorf("p-value of %s: %w", d.ID, err)
		}
		if math.IsNaN(p) {
			continue
		}
		if pvals[g] == nil {
			pvals[g] = make(map[string]float64)
		}
		pvals[g][d.ID] = p
	}

	thresholds := make(map[omics.DataType]float64, len(pvals))
	for g, ps := range pvals {
		f, _ := a.fdrFor(g)
		thresholds[g] = Threshold(ps, f)
		if a.PoolProteomics && g == omics.TypeProtein {
			thresholds[omics.TypePhosphoProtein] = thresholds[g]
		}
	}
	return thresholds, nil
}

// Apply rebinds the detector of every datum whose type has a threshold and
// returns the number of rebound data.
func (a *DatumAdjuster) Apply(data []*omics.ExperimentData, thresholds map[omics.DataType]float64) int {
	n := 0
	for _, d := range data {
		pd, ok := d.Detector.(detect.PValueDetector)
		if !ok {
			continue
		}
		t, ok := thresholds[d.Type]
		if !ok {
			continue
		}
		d.Detector = pd.WithPValueThreshold(t)
		n++
	}
	return n
}

// BindAll rebinds every p-value detector to threshold, used to admit every
// datum before the FDR phase collects p-values.
func BindAll(data []*omics.ExperimentData, threshold float64) int {
	n := 0
	for _, d := range data {
		if pd, ok := d.Detector.(detect.PValueDetector); ok {
			d.Detector = pd.WithPValueThreshold(threshold)
			n++
		}
	}
	return n
}
