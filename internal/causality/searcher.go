// Package causality matches relations of a prior network against observed
// change directions and returns the relation, source and target triples that
// explain each other.
package causality

import (
	"fmt"
	"strings"

	"gocausal/domain/core"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal/compat"
)

// Mode selects which sign product a search keeps
type Mode int

const (
	// Causal keeps triples whose observed directions agree with the relation
	Causal Mode = iota
	// Conflicting keeps triples whose observed directions contradict it
	Conflicting
)

// TargetSign is the sign product a triple needs in this mode
func (m Mode) TargetSign() int {
	if m == Conflicting {
		return -1
	}
	return 1
}

func (m Mode) String() string {
	if m == Conflicting {
		return "conflicting"
	}
	return "causal"
}

// ParseMode parses "causal" or "conflicting"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "causal":
		return Causal, nil
	case "conflicting", "conflict":
		return Conflicting, nil
	}
	return Causal, fmt.Errorf("%w: unknown search mode %q", core.ErrInvalidInput, s)
}

// Searcher finds the relations whose data changes agree (or conflict) with
// the relation sign. It holds no mutable state and is safe to share.
type Searcher struct {
	Checker *compat.Checker
	Mode    Mode
	// Overrides lists genes whose total protein is measured. Expression and
	// copy number data of these genes are not used as targets. When nil the
	// set is derived from the relations on each run.
	Overrides map[string]struct{}
}

// NewSearcher creates a searcher in causal mode
func NewSearcher(checker *compat.Checker) *Searcher {
	return &Searcher{Checker: checker, Mode: Causal}
}

// WithMode returns a copy of the searcher running in mode m
func (s *Searcher) WithMode(m Mode) *Searcher {
	cp := *s
	cp.Mode = m
	return &cp
}

// Run returns every relation/source/target triple whose sign product equals
// the mode's target sign.
func (s *Searcher) Run(relations []*network.Relation) (*network.ResultSet, error) {
	results := network.NewResultSet()
	want := s.Mode.TargetSign()

	err := s.walk(relations, func(r *network.Relation, source, target *omics.ExperimentData) error {
		effect := source.Effect()
		if effect == 0 {
			return nil
		}
		change, err := r.ChangeSign(source, target)
		if err != nil {
			return wrapPair(r, source, target, err)
		}
		if change*effect*r.Sign() == want {
			results.Add(network.RelationAndSelectedData{Relation: r, Source: source, Target: target})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindDataThatNeedsAnnotation returns the source data of unknown effect that
// would take part in an explanation if their effect were known. Targets whose
// gene is already explained by a relation in explained are ignored.
func (s *Searcher) FindDataThatNeedsAnnotation(relations []*network.Relation, explained *network.ResultSet) ([]*omics.ExperimentData, error) {
	explainedGenes := explained.TargetGenes()
	found := omics.NewSet()

	err := s.walk(relations, func(r *network.Relation, source, target *omics.ExperimentData) error {
		if source.Effect() != 0 || found.Contains(source.ID) {
			return nil
		}
		if _, ok := explainedGenes[r.Target]; ok {
			return nil
		}
		change, err := r.ChangeSign(source, target)
		if err != nil {
			return wrapPair(r, source, target, err)
		}
		if change*r.Sign() != 0 {
			found.Add(source)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found.Items(), nil
}

// DataUsedForInference returns every datum that takes part in a compatible
// pair with a non-zero sign product, in either mode.
func (s *Searcher) DataUsedForInference(relations []*network.Relation) ([]*omics.ExperimentData, error) {
	used := omics.NewSet()

	err := s.walk(relations, func(r *network.Relation, source, target *omics.ExperimentData) error {
		effect := source.Effect()
		if effect == 0 {
			return nil
		}
		change, err := r.ChangeSign(source, target)
		if err != nil {
			return wrapPair(r, source, target, err)
		}
		if change*effect*r.Sign() != 0 {
			used.Add(source)
			used.Add(target)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return used.Items(), nil
}

// CompatiblePairs calls fn for each compatible source/target pair of each
// relation, honoring the total protein overrides.
func (s *Searcher) CompatiblePairs(relations []*network.Relation, fn func(r *network.Relation, source, target *omics.ExperimentData) error) error {
	return s.walk(relations, fn)
}

// CompatibleTargets calls fn for each target datum that a relation could
// explain regardless of which source datum changed.
func (s *Searcher) CompatibleTargets(relations []*network.Relation, fn func(r *network.Relation, target *omics.ExperimentData) error) error {
	overrides := s.overrides(relations)
	for _, r := range relations {
		for _, target := range r.TargetData.Items() {
			if shadowed(overrides, target) || !s.Checker.Compatible(nil, r, target) {
				continue
			}
			if err := fn(r, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Searcher) overrides(relations []*network.Relation) map[string]struct{} {
	if s.Overrides != nil {
		return s.Overrides
	}
	return TotalProteinGenes(relations)
}

// shadowed reports whether an expression or copy number target belongs to a
// gene whose total protein is measured.
func shadowed(overrides map[string]struct{}, target *omics.ExperimentData) bool {
	if !target.Type.IndirectProxy() {
		return false
	}
	for _, g := range target.Genes {
		if _, ok := overrides[g]; ok {
			return true
		}
	}
	return false
}

func (s *Searcher) walk(relations []*network.Relation, fn func(r *network.Relation, source, target *omics.ExperimentData) error) error {
	overrides := s.overrides(relations)
	for _, r := range relations {
		if r.SourceData.Len() == 0 || r.TargetData.Len() == 0 {
			continue
		}
		for _, target := range r.TargetData.Items() {
			if shadowed(overrides, target) {
				continue
			}
			for _, source := range r.SourceData.Items() {
				if source.ID == target.ID {
					continue
				}
				if !s.Checker.Compatible(source, r, target) {
					continue
				}
				if err := fn(r, source, target); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// TotalProteinGenes returns the genes that have total protein data attached
// to any relation.
func TotalProteinGenes(relations []*network.Relation) map[string]struct{} {
	genes := make(map[string]struct{})
	for _, r := range relations {
		for _, set := range []*omics.Set{r.SourceData, r.TargetData} {
			for _, d := range set.Items() {
				if d.Type != omics.TypeProtein {
					continue
				}
				for _, g := range d.Genes {
					genes[g] = struct{}{}
				}
			}
		}
	}
	return genes
}

func wrapPair(r *network.Relation, source, target *omics.ExperimentData, err error) error {
	return fmt.Errorf("relation %s (%s -> %s): %w", r.Key(), source.ID, target.ID, err)
}
