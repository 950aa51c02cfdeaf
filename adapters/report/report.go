// Package report writes analysis results as flat tab-separated files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gocausal/app"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal/significance"
)

// File names used by WriteDir
const (
	CausalFile       = "causative.tsv"
	ConflictingFile  = "conflicting.tsv"
	CausalSIFFile    = "causative.sif"
	AnnotationFile   = "needs-annotation.tsv"
	SignificanceFile = "significance-pvals.tsv"
)

var resultHeader = []string{
	"Source", "Relation", "Target", "Sites",
	"Source data ID", "Source data type", "Source change",
	"Target data ID", "Target data type", "Target change",
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

func writeRunHeader(w io.Writer, runID string) error {
	if runID == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "# run %s\n", runID)
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func siteLabels(sites []omics.Site) string {
	labels := make([]string, len(sites))
	for i, s := range sites {
		labels[i] = s.Label()
	}
	return strings.Join(labels, ";")
}

// WriteResults writes one row per triple, sorted by relation and data IDs
func WriteResults(w io.Writer, runID string, set *network.ResultSet) error {
	if err := writeRunHeader(w, runID); err != nil {
		return err
	}
	cw := newWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return err
	}
	for _, t := range set.Sorted() {
		row := []string{t.Relation.Source, t.Relation.Type.String(), t.Relation.Target, siteLabels(t.Relation.Sites)}
		for _, d := range []*omics.ExperimentData{t.Source, t.Target} {
			if d == nil {
				row = append(row, "", "", "")
				continue
			}
			v, err := d.ChangeValue()
			if err != nil {
				return fmt.Errorf("change value of %s: %w", d.ID, err)
			}
			row = append(row, d.ID, d.Type.String(), formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSIF writes each distinct relation of the set once as
// "source<TAB>type<TAB>target"
func WriteSIF(w io.Writer, set *network.ResultSet) error {
	cw := newWriter(w)
	for _, r := range set.Relations() {
		if err := cw.Write([]string{r.Source, r.Type.String(), r.Target}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAnnotation lists data that changed but no relation explains
func WriteAnnotation(w io.Writer, runID string, data []*omics.ExperimentData) error {
	if err := writeRunHeader(w, runID); err != nil {
		return err
	}
	cw := newWriter(w)
	if err := cw.Write([]string{"ID", "Genes", "Type", "Sites", "Change"}); err != nil {
		return err
	}
	for _, d := range data {
		v, err := d.ChangeValue()
		if err != nil {
			return fmt.Errorf("change value of %s: %w", d.ID, err)
		}
		row := []string{d.ID, strings.Join(d.Genes, ";"), d.Type.String(), siteLabels(d.Sites), formatFloat(v)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSignificance writes per-gene permutation p-values. The trailing
// comment lines carry the graph size test and the BH thresholds at rate.
func WriteSignificance(w io.Writer, runID string, res *significance.Result, rate float64) error {
	if err := writeRunHeader(w, runID); err != nil {
		return err
	}
	cw := newWriter(w)
	header := []string{
		"Gene", "Potential targets",
		"Downstream", "Downstream p",
		"Activating", "Activating p",
		"Inhibiting", "Inhibiting p",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	genes := make([]string, 0, len(res.Potential))
	for gene := range res.Potential {
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	for _, gene := range genes {
		row := []string{
			gene, strconv.Itoa(res.Potential[gene]),
			strconv.Itoa(res.BaselineDownstream[gene]), formatFloat(res.Downstream[gene]),
			strconv.Itoa(res.BaselineActivating[gene]), formatFloat(res.Activating[gene]),
			strconv.Itoa(res.BaselineInhibiting[gene]), formatFloat(res.Inhibiting[gene]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	th := res.Thresholds(rate)
	_, err := fmt.Fprintf(w, "# graph size %d, p %s\n# thresholds at FDR %s: downstream %s, activating %s, inhibiting %s\n",
		res.GraphSize, formatFloat(res.GraphSizePValue), formatFloat(rate),
		formatFloat(th.Downstream), formatFloat(th.Activating), formatFloat(th.Inhibiting))
	return err
}

// WriteDir writes every part of the report into dir and returns the paths
// written. The significance file is only written when the report has one.
func WriteDir(dir string, r *app.Report, geneFDR float64) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	runID := r.RunID.String()

	parts := []part{
		{CausalFile, func(w io.Writer) error { return WriteResults(w, runID, r.Causal) }},
		{ConflictingFile, func(w io.Writer) error { return WriteResults(w, runID, r.Conflicting) }},
		{CausalSIFFile, func(w io.Writer) error { return WriteSIF(w, r.Causal) }},
		{AnnotationFile, func(w io.Writer) error { return WriteAnnotation(w, runID, r.NeedsAnnotation) }},
	}
	if r.Significance != nil {
		parts = append(parts, part{SignificanceFile, func(w io.Writer) error {
			return WriteSignificance(w, runID, r.Significance, geneFDR)
		}})
	}

	var written []string
	for _, p := range parts {
		path := filepath.Join(dir, p.name)
		if err := writeFile(path, p.write); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

type part struct {
	name  string
	write func(io.Writer) error
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
