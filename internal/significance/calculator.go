// Package significance estimates, by label permutation, how unlikely the
// observed downstream counts of each gene and the size of the causal network
// are under a random assignment of data to network nodes.
package significance

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"gocausal/adapters/rng"
	"gocausal/domain/core"
	"gocausal/domain/network"
	"gocausal/internal"
	"gocausal/internal/causality"
	"gocausal/ports"

	"golang.org/x/sync/errgroup"
)

// chunkSize is the number of iterations sharing one random stream. Chunks,
// not workers, own the streams, so results do not depend on Workers.
const chunkSize = 64

// Calculator runs the permutation test
type Calculator struct {
	Searcher *causality.Searcher
	// CorrelationBased moves raw values instead of change signs and asks the
	// relation detectors again on every iteration.
	CorrelationBased        bool
	Iterations              int
	MinimumPotentialTargets int
	Workers                 int
	Seed                    int64
	RunID                   string
	RNG                     ports.RNGPort
	Logger                  *internal.Logger
}

// NewCalculator creates a calculator with a seeded RNG and no logging
func NewCalculator(searcher *causality.Searcher, iterations int) *Calculator {
	return &Calculator{
		Searcher:   searcher,
		Iterations: iterations,
		RNG:        rng.NewSeeded(),
		Logger:     internal.NewNopLogger(),
	}
}

// counts accumulates, per gene, the iterations that reached the baseline
type counts struct {
	downstream []int
	activating []int
	inhibiting []int
	size       int
}

func newCounts(genes int) *counts {
	return &counts{
		downstream: make([]int, genes),
		activating: make([]int, genes),
		inhibiting: make([]int, genes),
	}
}

func (c *counts) observe(t, baseline *tally) {
	for i := range c.downstream {
		if t.downstream[i] >= baseline.downstream[i] {
			c.downstream[i]++
		}
		if t.activating[i] >= baseline.activating[i] {
			c.activating[i]++
		}
		if t.inhibiting[i] >= baseline.inhibiting[i] {
			c.inhibiting[i]++
		}
	}
	if t.size >= baseline.size {
		c.size++
	}
}

func (c *counts) merge(other *counts) {
	for i := range c.downstream {
		c.downstream[i] += other.downstream[i]
		c.activating[i] += other.activating[i]
		c.inhibiting[i] += other.inhibiting[i]
	}
	c.size += other.size
}

// Run computes the p-values of every gene with enough potential targets and
// of the network size.
func (c *Calculator) Run(ctx context.Context, relations []*network.Relation) (*Result, error) {
	if c.Iterations <= 0 {
		return nil, fmt.Errorf("%w: %d iterations", core.ErrInvalidPermutationOp, c.Iterations)
	}
	if c.Searcher == nil {
		return nil, fmt.Errorf("%w: no searcher", core.ErrInvalidPermutationOp)
	}
	logger := c.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	start := time.Now()
	g, err := buildGraph(c.Searcher, relations, c.CorrelationBased)
	if err != nil {
		return nil, err
	}
	logger.Info("Permutation graph: %d data, %d genes, %d triples, %d edges",
		len(g.data), len(g.genes), len(g.triples), len(g.edges))

	baselineScratch := g.newScratch()
	baseline, err := g.evaluate(g.identity(), g.surrogatesIfNeeded(), baselineScratch)
	if err != nil {
		return nil, err
	}

	total, err := c.permute(ctx, g, baseline, logger)
	if err != nil {
		return nil, err
	}

	result := c.result(g, baseline, total)
	logger.Info("Permutation test finished: %d iterations in %s, graph size %d (p=%.4g)",
		c.Iterations, time.Since(start).Round(time.Millisecond), result.GraphSize, result.GraphSizePValue)
	return result, nil
}

func (c *Calculator) permute(ctx context.Context, g *graph, baseline *tally, logger *internal.Logger) (*counts, error) {
	chunks := (c.Iterations + chunkSize - 1) / chunkSize
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	source := c.RNG
	if source == nil {
		source = rng.NewSeeded()
	}

	results := make([]*counts, chunks)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for chunk := 0; chunk < chunks; chunk++ {
		chunk := chunk
		n := chunkSize
		if rest := c.Iterations - chunk*chunkSize; rest < n {
			n = rest
		}
		eg.Go(func() error {
			rnd, err := source.Stream(ctx, c.RunID, "permutation", fmt.Sprintf("chunk-%d", chunk), c.Seed)
			if err != nil {
				return fmt.Errorf("random stream for chunk %d: %w", chunk, err)
			}
			cnt := newCounts(len(g.genes))
			assign := g.identity()
			surr := g.surrogatesIfNeeded()
			sc := g.newScratch()
			for it := 0; it < n; it++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				g.permute(rnd, assign)
				t, err := g.evaluate(assign, surr, sc)
				if err != nil {
					return err
				}
				cnt.observe(t, baseline)
			}
			results[chunk] = cnt
			logger.Trace("Permutation chunk %d done (%d iterations)", chunk, n)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := newCounts(len(g.genes))
	for _, r := range results {
		total.merge(r)
	}
	return total, nil
}
