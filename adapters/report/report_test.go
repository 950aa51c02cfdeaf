package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocausal/app"
	"gocausal/domain/core"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal/significance"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleSet() *network.ResultSet {
	akt := testkit.Protein("AKT1", 2)
	gsk := testkit.Phospho("GSK3B", 9, 0, 1.5)
	r := testkit.Link(
		network.NewRelation("AKT1", "GSK3B", network.Phosphorylates, omics.Site{Gene: "GSK3B", Residue: "S", Position: 9}),
		testkit.Sources(akt), gsk)
	myc := testkit.Expression("MYC", 3)
	r2 := testkit.Link(network.NewRelation("AKT1", "MYC", network.UpregulatesExpression), testkit.Sources(akt), myc)

	set := network.NewResultSet()
	set.Add(network.RelationAndSelectedData{Relation: r, Source: akt, Target: gsk})
	set.Add(network.RelationAndSelectedData{Relation: r2, Source: akt, Target: myc})
	return set
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, "run-1", exampleSet()))

	got := lines(buf.String())
	require.Len(t, got, 4)
	assert.Equal(t, "# run run-1", got[0])
	assert.Equal(t, strings.Join(resultHeader, "\t"), got[1])
	assert.Equal(t, "AKT1\tphosphorylates\tGSK3B\tGSK3B_S9\tAKT1_total\tprotein\t2\tGSK3B_pS9\tphosphoprotein\t1.5", got[2])
	assert.Equal(t, "AKT1\tupregulates-expression\tMYC\t\tAKT1_total\tprotein\t2\tMYC_rna\texpression\t3", got[3])
}

func TestWriteResultsRequiresDetectors(t *testing.T) {
	set := exampleSet()
	for _, r := range set.Sorted() {
		r.Target.Detector = nil
	}
	err := WriteResults(&bytes.Buffer{}, "", set)
	assert.ErrorIs(t, err, core.ErrNoDetector)
}

func TestWriteSIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSIF(&buf, exampleSet()))
	assert.Equal(t, []string{
		"AKT1\tphosphorylates\tGSK3B",
		"AKT1\tupregulates-expression\tMYC",
	}, lines(buf.String()))
}

func TestWriteAnnotation(t *testing.T) {
	var buf bytes.Buffer
	data := []*omics.ExperimentData{testkit.Phospho("MAPK1", 185, 0, -2)}
	require.NoError(t, WriteAnnotation(&buf, "", data))
	assert.Equal(t, []string{
		"ID\tGenes\tType\tSites\tChange",
		"MAPK1_pS185\tMAPK1\tphosphoprotein\tMAPK1_S185\t-2",
	}, lines(buf.String()))
}

func sampleResult() *significance.Result {
	return &significance.Result{
		Iterations:         100,
		Downstream:         map[string]float64{"AKT1": 0.01, "PTEN": 0.5},
		Activating:         map[string]float64{"AKT1": 0.02, "PTEN": 0.6},
		Inhibiting:         map[string]float64{"AKT1": 0.9, "PTEN": 0.04},
		BaselineDownstream: map[string]int{"AKT1": 3, "PTEN": 1},
		BaselineActivating: map[string]int{"AKT1": 3, "PTEN": 0},
		BaselineInhibiting: map[string]int{"AKT1": 0, "PTEN": 1},
		Potential:          map[string]int{"AKT1": 3, "PTEN": 1},
		GraphSize:          4,
		GraphSizePValue:    0.03,
	}
}

func TestWriteSignificance(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSignificance(&buf, "run-2", sampleResult(), 0.1))

	got := lines(buf.String())
	require.Len(t, got, 6)
	assert.Equal(t, "# run run-2", got[0])
	assert.True(t, strings.HasPrefix(got[1], "Gene\tPotential targets"))
	assert.Equal(t, "AKT1\t3\t3\t0.01\t3\t0.02\t0\t0.9", got[2])
	assert.Equal(t, "PTEN\t1\t1\t0.5\t0\t0.6\t1\t0.04", got[3])
	assert.Equal(t, "# graph size 4, p 0.03", got[4])
	assert.Contains(t, got[5], "downstream 0.01")
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := &app.Report{
		RunID:       core.RunID("run-3"),
		Causal:      exampleSet(),
		Conflicting: network.NewResultSet(),
	}

	written, err := WriteDir(dir, r, 0.1)
	require.NoError(t, err)
	assert.Len(t, written, 4)
	assert.NoFileExists(t, filepath.Join(dir, SignificanceFile))

	content, err := os.ReadFile(filepath.Join(dir, CausalFile))
	require.NoError(t, err)
	assert.Len(t, lines(string(content)), 4)

	r.Significance = sampleResult()
	written, err = WriteDir(dir, r, 0.1)
	require.NoError(t, err)
	assert.Len(t, written, 5)
	assert.FileExists(t, filepath.Join(dir, SignificanceFile))
}
