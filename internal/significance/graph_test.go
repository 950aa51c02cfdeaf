package significance

import (
	"math/rand"
	"sort"
	"testing"

	"gocausal/domain/network"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermuteKeepsLabelsInTheirPool(t *testing.T) {
	relations := []*network.Relation{
		testkit.Link(network.NewRelation("KRAS", "MYC", network.UpregulatesExpression),
			testkit.Sources(testkit.Mutation("KRAS", 1, true), testkit.Protein("KRAS", 1)), testkit.Protein("MYC", 1)),
		testkit.Link(network.NewRelation("VAV1", "RAC1", network.ActivatesGTPase),
			testkit.Sources(testkit.Mutation("VAV1", 1, false), testkit.Protein("VAV1", 0)), testkit.Activity("RAC1", 1)),
	}
	g, err := buildGraph(searcher(), relations, false)
	require.NoError(t, err)

	inPool := make(map[int]int)
	for p, pool := range g.pools {
		for _, i := range pool {
			inPool[i] = p
		}
	}
	require.Len(t, inPool, len(g.data))

	rnd := rand.New(rand.NewSource(1))
	assign := g.identity()
	for it := 0; it < 50; it++ {
		g.permute(rnd, assign)
		for i, from := range assign {
			assert.Equal(t, inPool[i], inPool[from])
		}
		sorted := append([]int(nil), assign...)
		sort.Ints(sorted)
		assert.Equal(t, g.identity(), sorted)
	}
}

func TestBaselineMatchesSearcher(t *testing.T) {
	relations := testkit.NewNetworkGenerator(testkit.DefaultNetworkConfig()).Generate()
	s := searcher()
	g, err := buildGraph(s, relations, false)
	require.NoError(t, err)

	baseline, err := g.evaluate(g.identity(), nil, g.newScratch())
	require.NoError(t, err)

	causal, err := s.Run(relations)
	require.NoError(t, err)
	assert.Equal(t, causal.Len(), baseline.size)

	for i := range g.genes {
		assert.LessOrEqual(t, baseline.downstream[i], g.potential[i])
		assert.LessOrEqual(t, baseline.activating[i], baseline.downstream[i])
		assert.LessOrEqual(t, baseline.inhibiting[i], baseline.downstream[i])
	}
}

func TestRepeatedRelationsCountOnce(t *testing.T) {
	a, b := testkit.Protein("A", 1), testkit.Protein("B", 1)
	relations := []*network.Relation{
		testkit.Link(network.NewRelation("A", "B", network.UpregulatesExpression), testkit.Sources(a), b),
		testkit.Link(network.NewRelation("A", "B", network.UpregulatesExpression), testkit.Sources(a), b),
	}
	s := searcher()
	g, err := buildGraph(s, relations, false)
	require.NoError(t, err)
	assert.Len(t, g.triples, 1)
	assert.Len(t, g.edges, 1)

	causal, err := s.Run(relations)
	require.NoError(t, err)
	require.Equal(t, 1, causal.Len())

	baseline, err := g.evaluate(g.identity(), nil, g.newScratch())
	require.NoError(t, err)
	assert.Equal(t, causal.Len(), baseline.size)
	assert.Equal(t, []int{1}, g.potential)
}
