package significance

import (
	"fmt"
	"math/rand"

	"gocausal/domain/core"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal/causality"
)

// edge is a source-free (relation, target) link used for downstream counts
type edge struct {
	pair   int
	sign   int
	target int
}

// triple is a compatible (relation, source, target) combination
type triple struct {
	relation *network.Relation
	pair     int
	sign     int
	source   int
	target   int
}

// graph is the read-only surrogate of a relation set. Data are addressed by
// index so that a permutation is just an assignment array.
type graph struct {
	correlation bool
	want        int

	data    []*omics.ExperimentData
	signs   []int
	effects []int
	pools   [][]int

	genes      []string
	pairSource []int
	potential  []int

	edges   []edge
	triples []triple
}

type graphBuilder struct {
	g         *graph
	dataIndex map[string]int
	geneIndex map[string]int
	pairIndex map[[2]string]int
}

func buildGraph(searcher *causality.Searcher, relations []*network.Relation, correlation bool) (*graph, error) {
	b := &graphBuilder{
		g:         &graph{correlation: correlation, want: searcher.Mode.TargetSign()},
		dataIndex: make(map[string]int),
		geneIndex: make(map[string]int),
		pairIndex: make(map[[2]string]int),
	}

	// repeated relations count once, as in a result set
	seen := make(map[network.TripleKey]struct{})
	err := searcher.CompatiblePairs(relations, func(r *network.Relation, source, target *omics.ExperimentData) error {
		k := network.TripleKey{Relation: r.Key(), SourceID: source.ID, TargetID: target.ID}
		if _, ok := seen[k]; ok {
			return nil
		}
		seen[k] = struct{}{}
		b.g.triples = append(b.g.triples, triple{
			relation: r,
			pair:     b.pair(r.Source, r.Target),
			sign:     r.Sign(),
			source:   b.datum(source),
			target:   b.datum(target),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !correlation {
		linked := make(map[network.TripleKey]struct{})
		err = searcher.CompatibleTargets(relations, func(r *network.Relation, target *omics.ExperimentData) error {
			k := network.TripleKey{Relation: r.Key(), TargetID: target.ID}
			if _, ok := linked[k]; ok {
				return nil
			}
			linked[k] = struct{}{}
			b.g.edges = append(b.g.edges, edge{
				pair:   b.pair(r.Source, r.Target),
				sign:   r.Sign(),
				target: b.datum(target),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := b.finish(); err != nil {
		return nil, err
	}
	return b.g, nil
}

func (b *graphBuilder) datum(d *omics.ExperimentData) int {
	if i, ok := b.dataIndex[d.ID]; ok {
		return i
	}
	i := len(b.g.data)
	b.dataIndex[d.ID] = i
	b.g.data = append(b.g.data, d)
	return i
}

func (b *graphBuilder) gene(name string) int {
	if i, ok := b.geneIndex[name]; ok {
		return i
	}
	i := len(b.g.genes)
	b.geneIndex[name] = i
	b.g.genes = append(b.g.genes, name)
	return i
}

func (b *graphBuilder) pair(source, target string) int {
	k := [2]string{source, target}
	if i, ok := b.pairIndex[k]; ok {
		return i
	}
	i := len(b.g.pairSource)
	b.pairIndex[k] = i
	b.g.pairSource = append(b.g.pairSource, b.gene(source))
	return i
}

func (b *graphBuilder) finish() error {
	g := b.g

	g.effects = make([]int, len(g.data))
	var numeric, categorical []int
	for i, d := range g.data {
		g.effects[i] = d.Effect()
		if d.IsNumeric() {
			numeric = append(numeric, i)
		} else {
			categorical = append(categorical, i)
		}
	}
	g.pools = [][]int{numeric, categorical}

	if g.correlation {
		for _, pool := range g.pools {
			if err := sameLength(g.data, pool); err != nil {
				return err
			}
		}
	} else {
		g.signs = make([]int, len(g.data))
		for i, d := range g.data {
			s, err := d.ChangeSign()
			if err != nil {
				return fmt.Errorf("change of %s: %w", d.ID, err)
			}
			g.signs[i] = s
		}
	}

	// potential counts distinct target genes per source gene
	linked := make([]bool, len(g.pairSource))
	if g.correlation {
		for _, t := range g.triples {
			linked[t.pair] = true
		}
	} else {
		for _, e := range g.edges {
			linked[e.pair] = true
		}
	}
	g.potential = make([]int, len(g.genes))
	for p, ok := range linked {
		if ok {
			g.potential[g.pairSource[p]]++
		}
	}
	return nil
}

// sameLength guards correlation mode, where moving values between data only
// keeps samples aligned when every datum of a pool has the same length.
func sameLength(data []*omics.ExperimentData, pool []int) error {
	if len(pool) == 0 {
		return nil
	}
	n := data[pool[0]].Len()
	for _, i := range pool[1:] {
		if data[i].Len() != n {
			return fmt.Errorf("%w: %s has %d samples, %s has %d",
				core.ErrInvalidPermutationOp, data[pool[0]].ID, n, data[i].ID, data[i].Len())
		}
	}
	return nil
}

// identity returns the assignment that leaves every label in place
func (g *graph) identity() []int {
	assign := make([]int, len(g.data))
	for i := range assign {
		assign[i] = i
	}
	return assign
}

// permute shuffles labels within each pool into assign
func (g *graph) permute(rnd *rand.Rand, assign []int) {
	for _, pool := range g.pools {
		for _, i := range pool {
			assign[i] = i
		}
		rnd.Shuffle(len(pool), func(a, b int) {
			assign[pool[a]], assign[pool[b]] = assign[pool[b]], assign[pool[a]]
		})
	}
}

// surrogates returns private copies of the data whose values evaluate moves
func (g *graph) surrogates() []*omics.ExperimentData {
	out := make([]*omics.ExperimentData, len(g.data))
	for i, d := range g.data {
		out[i] = d.Surrogate(d.Detector)
	}
	return out
}

func (g *graph) surrogatesIfNeeded() []*omics.ExperimentData {
	if !g.correlation {
		return nil
	}
	return g.surrogates()
}

// tally holds the per gene counts of one evaluation
type tally struct {
	downstream []int
	activating []int
	inhibiting []int
	size       int
}

// scratch is the per worker mutable state of evaluate
type scratch struct {
	stamp int
	seen  []int
	act   []int
	inh   []int
	tally tally
}

func (g *graph) newScratch() *scratch {
	n := len(g.pairSource)
	return &scratch{
		seen: make([]int, n),
		act:  make([]int, n),
		inh:  make([]int, n),
		tally: tally{
			downstream: make([]int, len(g.genes)),
			activating: make([]int, len(g.genes)),
			inhibiting: make([]int, len(g.genes)),
		},
	}
}

func (sc *scratch) reset() {
	sc.stamp++
	t := &sc.tally
	for i := range t.downstream {
		t.downstream[i] = 0
		t.activating[i] = 0
		t.inhibiting[i] = 0
	}
	t.size = 0
}

// mark counts the pair once per evaluation for the given direction
func (g *graph) mark(sc *scratch, pair, direction int) {
	gene := g.pairSource[pair]
	if sc.seen[pair] != sc.stamp {
		sc.seen[pair] = sc.stamp
		sc.tally.downstream[gene]++
	}
	switch {
	case direction > 0 && sc.act[pair] != sc.stamp:
		sc.act[pair] = sc.stamp
		sc.tally.activating[gene]++
	case direction < 0 && sc.inh[pair] != sc.stamp:
		sc.inh[pair] = sc.stamp
		sc.tally.inhibiting[gene]++
	}
}

// evaluate counts downstream genes and the result size under assign. The
// returned tally is owned by sc.
func (g *graph) evaluate(assign []int, surr []*omics.ExperimentData, sc *scratch) (*tally, error) {
	sc.reset()
	if g.correlation {
		return g.evaluateCorrelation(assign, surr, sc)
	}

	for _, e := range g.edges {
		if d := g.signs[assign[e.target]] * e.sign; d != 0 {
			g.mark(sc, e.pair, d)
		}
	}
	for _, t := range g.triples {
		product := g.signs[assign[t.source]] * g.signs[assign[t.target]] * g.effects[t.source] * t.sign
		if product == g.want {
			sc.tally.size++
		}
	}
	return &sc.tally, nil
}

func (g *graph) evaluateCorrelation(assign []int, surr []*omics.ExperimentData, sc *scratch) (*tally, error) {
	for i, s := range surr {
		from := g.data[assign[i]]
		s.Values = from.Values
		s.Calls = from.Calls
	}
	for _, t := range g.triples {
		if g.effects[t.source] == 0 {
			continue
		}
		change, err := t.relation.ChangeSign(surr[t.source], surr[t.target])
		if err != nil {
			return nil, fmt.Errorf("relation %s: %w", t.relation.Key(), err)
		}
		if change*g.effects[t.source]*t.sign != g.want {
			continue
		}
		sc.tally.size++
		g.mark(sc, t.pair, t.sign)
	}
	return &sc.tally, nil
}
