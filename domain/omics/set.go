package omics

import "sort"

// Set is an insertion-ordered collection of data, deduplicated by ID
type Set struct {
	items []*ExperimentData
	index map[string]int
}

// NewSet creates a set holding the given data
func NewSet(items ...*ExperimentData) *Set {
	s := &Set{index: make(map[string]int, len(items))}
	for _, d := range items {
		s.Add(d)
	}
	return s
}

// Add inserts d unless a datum with the same ID is present
func (s *Set) Add(d *ExperimentData) bool {
	if d == nil {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[d.ID]; ok {
		return false
	}
	s.index[d.ID] = len(s.items)
	s.items = append(s.items, d)
	return true
}

// Get looks up a datum by ID
func (s *Set) Get(id string) (*ExperimentData, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.items[i], true
}

// Contains reports whether a datum with the ID is present
func (s *Set) Contains(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Len returns the number of data
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the data in insertion order. The slice must not be modified.
func (s *Set) Items() []*ExperimentData {
	if s == nil {
		return nil
	}
	return s.items
}

// IDs returns the sorted data IDs
func (s *Set) IDs() []string {
	ids := make([]string, 0, s.Len())
	for _, d := range s.Items() {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}
