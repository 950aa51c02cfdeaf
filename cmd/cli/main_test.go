package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"gocausal/adapters/report"
	"gocausal/app"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleBundle = "../../adapters/bundle/testdata/example.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append(args, "--log-level", "ERROR"))
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "search", exampleBundle, "--out", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Causal triples: 10")
	assert.Contains(t, out, "Conflicting triples: 1")
	assert.Contains(t, out, "Unexplained changed data: 1")
	assert.FileExists(t, filepath.Join(dir, report.CausalFile))
	assert.NoFileExists(t, filepath.Join(dir, report.SignificanceFile))
}

func TestAnnotateCommand(t *testing.T) {
	out, err := execute(t, "annotate", exampleBundle)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "# run "))
	assert.True(t, strings.HasPrefix(lines[2], "MAPK1_pT185\tMAPK1\tphosphoprotein"))
}

func TestSignificanceCommand(t *testing.T) {
	out, err := execute(t, "significance", exampleBundle,
		"--iterations", "64", "--seed", "7", "--min-potential-targets", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "(64 iterations)")
	assert.Contains(t, out, "Significant at FDR")
}

func TestCommandErrors(t *testing.T) {
	_, err := execute(t, "search")
	assert.Error(t, err)

	_, err = execute(t, "search", "missing.yaml")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = execute(t, "search", exampleBundle, "--mode", "sideways")
	assert.Error(t, err)
}

func TestPrintSummaryOrdersThresholds(t *testing.T) {
	rep := &app.Report{
		Name:        "ordered",
		Causal:      network.NewResultSet(),
		Conflicting: network.NewResultSet(),
		DataThresholds: map[omics.DataType]float64{
			omics.TypePhosphoProtein: 0.01,
			omics.TypeExpression:     0.02,
			omics.TypeProtein:        0.03,
			omics.TypeMutation:       0.05,
		},
	}
	var first string
	for i := 0; i < 10; i++ {
		var out bytes.Buffer
		printSummary(&out, rep)
		if i == 0 {
			first = out.String()
			continue
		}
		require.Equal(t, first, out.String())
	}

	expression := strings.Index(first, "expression p-value")
	mutation := strings.Index(first, "mutation p-value")
	phospho := strings.Index(first, "phosphoprotein p-value")
	require.True(t, expression >= 0 && mutation >= 0 && phospho >= 0, first)
	assert.Less(t, expression, mutation)
	assert.Less(t, mutation, phospho)
}
