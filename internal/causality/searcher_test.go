package causality

import (
	"errors"
	"testing"

	"gocausal/domain/core"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal/compat"
	"gocausal/internal/testkit"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripleIDs(rs *network.ResultSet) []string {
	var out []string
	for _, r := range rs.Sorted() {
		out = append(out, r.Relation.String()+": "+r.Source.ID+" -> "+r.Target.ID)
	}
	return out
}

func ids(data []*omics.ExperimentData) []string {
	return omics.NewSet(data...).IDs()
}

func newSearcher() *Searcher {
	return NewSearcher(compat.NewChecker(0, false))
}

func TestRunCausalAndConflicting(t *testing.T) {
	relations := []*network.Relation{
		testkit.Link(network.NewRelation("A", "B", network.Phosphorylates),
			testkit.Sources(testkit.Protein("A", 1)), testkit.Phospho("B", 10, 1, 1)),
		testkit.Link(network.NewRelation("A", "C", network.Dephosphorylates),
			testkit.Sources(testkit.Protein("A", 1)), testkit.Phospho("C", 20, 1, 1)),
		testkit.Link(network.NewRelation("D", "E", network.UpregulatesExpression),
			testkit.Sources(testkit.Phospho("D", 30, -1, 1)), testkit.Expression("E", -1)),
		testkit.Link(network.NewRelation("F", "G", network.UpregulatesExpression),
			testkit.Sources(testkit.Protein("F", 0.1)), testkit.Expression("G", 1)),
	}

	s := newSearcher()
	causal, err := s.Run(relations)
	require.NoError(t, err)
	conflicting, err := s.WithMode(Conflicting).Run(relations)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff([]string{
		"A phosphorylates B: A_total -> B_pS10",
		"D upregulates-expression E: D_pS30 -> E_rna",
	}, tripleIDs(causal)))
	assert.Empty(t, cmp.Diff([]string{
		"A dephosphorylates C: A_total -> C_pS20",
	}, tripleIDs(conflicting)))
	assert.Equal(t, Causal, s.Mode, "WithMode must not modify the receiver")
}

func TestRunMutationSource(t *testing.T) {
	r := testkit.Link(network.NewRelation("KRAS", "MYC", network.UpregulatesExpression),
		testkit.Sources(testkit.Mutation("KRAS", 1, true)), testkit.Protein("MYC", 1), testkit.Expression("MYC", 1))

	causal, err := newSearcher().Run([]*network.Relation{r})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{
		"KRAS upregulates-expression MYC: KRAS_mut -> MYC_total",
	}, tripleIDs(causal)), "mutation cannot explain RNA, and MYC_rna is shadowed by MYC_total")
}

func TestRunGTPase(t *testing.T) {
	r := testkit.Link(network.NewRelation("VAV1", "RAC1", network.ActivatesGTPase),
		testkit.Sources(testkit.Protein("VAV1", 1)), testkit.Activity("RAC1", 1), testkit.Protein("RAC1", 1))

	causal, err := newSearcher().Run([]*network.Relation{r})
	require.NoError(t, err)
	assert.Equal(t, []string{"VAV1 activates-gtpase RAC1: VAV1_total -> RAC1_act"}, tripleIDs(causal))
}

func TestOverrides(t *testing.T) {
	r := testkit.Link(network.NewRelation("A", "B", network.UpregulatesExpression),
		testkit.Sources(testkit.Protein("A", 1)), testkit.Expression("B", 1))
	shadow := testkit.Link(network.NewRelation("C", "B", network.UpregulatesExpression),
		testkit.Sources(testkit.Protein("C", 1)), testkit.Protein("B", 0))
	relations := []*network.Relation{r, shadow}

	assert.Contains(t, TotalProteinGenes(relations), "B")

	causal, err := newSearcher().Run(relations)
	require.NoError(t, err)
	assert.Zero(t, causal.Len(), "B_rna is shadowed by B_total")

	s := newSearcher()
	s.Overrides = map[string]struct{}{}
	causal, err = s.Run(relations)
	require.NoError(t, err)
	assert.Equal(t, 1, causal.Len())
}

func TestMissingDetectorIsFatal(t *testing.T) {
	r := network.NewRelation("A", "B", network.UpregulatesExpression)
	r.SourceData.Add(testkit.Protein("A", 1))
	r.TargetData.Add(testkit.Protein("B", 1))

	_, err := newSearcher().Run([]*network.Relation{r})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoDetector))
	assert.True(t, core.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "A_total -> B_total")

	testkit.Link(r, nil)
	r.SourceData.Items()[0].Detector = nil
	_, err = newSearcher().Run([]*network.Relation{r})
	assert.ErrorIs(t, err, core.ErrNoDetector)
}

func TestFindDataThatNeedsAnnotation(t *testing.T) {
	unknown := testkit.Phospho("A", 5, 0, 1)
	unchanged := testkit.Phospho("A", 6, 0, 0.1)
	relations := []*network.Relation{
		testkit.Link(network.NewRelation("A", "B", network.UpregulatesExpression),
			testkit.Sources(unknown, unchanged), testkit.Protein("B", 1)),
		testkit.Link(network.NewRelation("X", "C", network.UpregulatesExpression),
			testkit.Sources(testkit.Phospho("X", 7, 0, 1)), testkit.Protein("C", 1)),
		testkit.Link(network.NewRelation("Y", "C", network.UpregulatesExpression),
			testkit.Sources(testkit.Protein("Y", 1)), testkit.Protein("C", 1)),
	}

	s := newSearcher()
	causal, err := s.Run(relations)
	require.NoError(t, err)
	require.Equal(t, 1, causal.Len())

	found, err := s.FindDataThatNeedsAnnotation(relations, causal)
	require.NoError(t, err)
	assert.Equal(t, []string{"A_pS5"}, ids(found), "C is already explained and A_pS6 does not change")

	found, err = s.FindDataThatNeedsAnnotation(relations, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A_pS5", "X_pS7"}, ids(found))
}

func TestDataUsedForInference(t *testing.T) {
	relations := []*network.Relation{
		testkit.Link(network.NewRelation("A", "B", network.UpregulatesExpression),
			testkit.Sources(testkit.Protein("A", 1), testkit.Phospho("A", 3, 0, 1)), testkit.Protein("B", -1), testkit.Protein("Z", 0)),
		testkit.Link(network.NewRelation("C", "D", network.UpregulatesExpression),
			testkit.Sources(testkit.Protein("C", 0)), testkit.Protein("D", 1)),
	}

	used, err := newSearcher().DataUsedForInference(relations)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{"A_total", "B_total"}, ids(used)))
}

// Every compatible pair with a non-zero sign product lands in exactly one of
// the causal and conflicting result sets.
func TestCausalAndConflictingPartition(t *testing.T) {
	relations := testkit.NewNetworkGenerator(testkit.DefaultNetworkConfig()).Generate()
	s := NewSearcher(compat.NewChecker(0, true))

	causal, err := s.Run(relations)
	require.NoError(t, err)
	conflicting, err := s.WithMode(Conflicting).Run(relations)
	require.NoError(t, err)
	require.Positive(t, causal.Len())

	nonZero := 0
	err = s.CompatiblePairs(relations, func(r *network.Relation, source, target *omics.ExperimentData) error {
		change, err := r.ChangeSign(source, target)
		if err != nil {
			return err
		}
		product := change * source.Effect() * r.Sign()
		k := network.RelationAndSelectedData{Relation: r, Source: source, Target: target}.Key()
		switch product {
		case 1:
			nonZero++
			assert.True(t, causal.Contains(k))
			assert.False(t, conflicting.Contains(k))
		case -1:
			nonZero++
			assert.True(t, conflicting.Contains(k))
			assert.False(t, causal.Contains(k))
		default:
			assert.False(t, causal.Contains(k) || conflicting.Contains(k))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, nonZero, causal.Union(conflicting).Len())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Conflicting")
	require.NoError(t, err)
	assert.Equal(t, Conflicting, m)
	assert.Equal(t, -1, m.TargetSign())
	assert.Equal(t, 1, Causal.TargetSign())

	_, err = ParseMode("sideways")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
