package network

import (
	"sort"

	"gocausal/domain/omics"
)

// RelationAndSelectedData is one causal explanation: a relation together with
// the source and target data that make it hold.
type RelationAndSelectedData struct {
	Relation *Relation
	Source   *omics.ExperimentData
	Target   *omics.ExperimentData
}

// TripleKey is the value identity of a RelationAndSelectedData
type TripleKey struct {
	Relation Key
	SourceID string
	TargetID string
}

// Key returns the value identity of the triple
func (r RelationAndSelectedData) Key() TripleKey {
	k := TripleKey{Relation: r.Relation.Key()}
	if r.Source != nil {
		k.SourceID = r.Source.ID
	}
	if r.Target != nil {
		k.TargetID = r.Target.ID
	}
	return k
}

// ResultSet is a set of triples deduplicated by value. A relation can appear
// several times with different data pairs.
type ResultSet struct {
	items map[TripleKey]RelationAndSelectedData
}

// NewResultSet creates an empty result set
func NewResultSet() *ResultSet {
	return &ResultSet{items: make(map[TripleKey]RelationAndSelectedData)}
}

// Add inserts the triple, returning false when an equal one is present
func (s *ResultSet) Add(r RelationAndSelectedData) bool {
	k := r.Key()
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = r
	return true
}

// Contains reports whether an equal triple is present
func (s *ResultSet) Contains(k TripleKey) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[k]
	return ok
}

// Len returns the number of triples
func (s *ResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Sorted returns the triples in a stable order
func (s *ResultSet) Sorted() []RelationAndSelectedData {
	if s == nil {
		return nil
	}
	out := make([]RelationAndSelectedData, 0, len(s.items))
	for _, r := range s.items {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessTriple(out[i].Key(), out[j].Key())
	})
	return out
}

// Relations returns the distinct relations of the set, sorted by key
func (s *ResultSet) Relations() []*Relation {
	if s == nil {
		return nil
	}
	seen := make(map[Key]*Relation)
	for _, r := range s.items {
		seen[r.Relation.Key()] = r.Relation
	}
	out := make([]*Relation, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessKey(out[i].Key(), out[j].Key())
	})
	return out
}

// TargetGenes returns the target genes of every relation in the set
func (s *ResultSet) TargetGenes() map[string]struct{} {
	genes := make(map[string]struct{})
	if s == nil {
		return genes
	}
	for _, r := range s.items {
		genes[r.Relation.Target] = struct{}{}
	}
	return genes
}

// Union returns a new set holding the triples of both sets
func (s *ResultSet) Union(other *ResultSet) *ResultSet {
	out := NewResultSet()
	for _, set := range []*ResultSet{s, other} {
		if set == nil {
			continue
		}
		for _, r := range set.items {
			out.Add(r)
		}
	}
	return out
}

func lessKey(a, b Key) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	return a.Type < b.Type
}

func lessTriple(a, b TripleKey) bool {
	if a.Relation != b.Relation {
		return lessKey(a.Relation, b.Relation)
	}
	if a.SourceID != b.SourceID {
		return a.SourceID < b.SourceID
	}
	return a.TargetID < b.TargetID
}
