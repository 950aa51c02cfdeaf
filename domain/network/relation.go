package network

import (
	"fmt"
	"strings"

	"gocausal/domain/core"
	"gocausal/domain/omics"
)

// RelationType is the semantic type of a signed, directed interaction
type RelationType int

const (
	Phosphorylates RelationType = iota
	Dephosphorylates
	UpregulatesExpression
	DownregulatesExpression
	ActivatesGTPase
	InhibitsGTPase
)

type relationTraits struct {
	name               string
	sign               int
	affectsPhosphoSite bool
	affectsTotalProt   bool
	affectsGTPase      bool
}

var relationTypes = map[RelationType]relationTraits{
	Phosphorylates:          {name: "phosphorylates", sign: 1, affectsPhosphoSite: true},
	Dephosphorylates:        {name: "dephosphorylates", sign: -1, affectsPhosphoSite: true},
	UpregulatesExpression:   {name: "upregulates-expression", sign: 1, affectsTotalProt: true},
	DownregulatesExpression: {name: "downregulates-expression", sign: -1, affectsTotalProt: true},
	ActivatesGTPase:         {name: "activates-gtpase", sign: 1, affectsGTPase: true},
	InhibitsGTPase:          {name: "inhibits-gtpase", sign: -1, affectsGTPase: true},
}

func (t RelationType) String() string {
	if tr, ok := relationTypes[t]; ok {
		return tr.name
	}
	return "unknown"
}

// Valid reports whether t is a known relation type
func (t RelationType) Valid() bool {
	_, ok := relationTypes[t]
	return ok
}

// Sign is +1 for activating semantics and -1 for inhibiting ones
func (t RelationType) Sign() int { return relationTypes[t].sign }

// AffectsPhosphoSite is true for (de)phosphorylation
func (t RelationType) AffectsPhosphoSite() bool { return relationTypes[t].affectsPhosphoSite }

// AffectsTotalProt is true for expression regulation
func (t RelationType) AffectsTotalProt() bool { return relationTypes[t].affectsTotalProt }

// AffectsGTPase is true for GTPase activation and inhibition
func (t RelationType) AffectsGTPase() bool { return relationTypes[t].affectsGTPase }

// ParseRelationType converts a SIF relation name to its enum value
func ParseRelationType(name string) (RelationType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, tr := range relationTypes {
		if tr.name == n {
			return t, nil
		}
	}
	return 0, core.NewUnknownRelationTypeError(name)
}

// MarshalText encodes the type by its SIF name
func (t RelationType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, core.NewUnknownRelationTypeError(t.String())
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a SIF relation name
func (t *RelationType) UnmarshalText(b []byte) error {
	parsed, err := ParseRelationType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Key is the value identity of a relation
type Key struct {
	Source string
	Target string
	Type   RelationType
}

func (k Key) String() string {
	return k.Source + " " + k.Type.String() + " " + k.Target
}

// Relation is a signed, typed edge between two genes together with the
// experiment data associated with each end.
type Relation struct {
	Source string
	Target string
	Type   RelationType
	// Sites on the target that the relation is annotated to modify
	Sites      []omics.Site
	SourceData *omics.Set
	TargetData *omics.Set
	Detector   omics.TwoDataChangeDetector
}

// NewRelation creates a relation with empty data sets
func NewRelation(source, target string, t RelationType, sites ...omics.Site) *Relation {
	return &Relation{
		Source:     source,
		Target:     target,
		Type:       t,
		Sites:      sites,
		SourceData: omics.NewSet(),
		TargetData: omics.NewSet(),
	}
}

// Key returns the (source, target, type) identity
func (r *Relation) Key() Key {
	return Key{Source: r.Source, Target: r.Target, Type: r.Type}
}

// Sign is the sign of the relation type
func (r *Relation) Sign() int {
	return r.Type.Sign()
}

// ChangeSign evaluates the bound two-datum detector
func (r *Relation) ChangeSign(source, target *omics.ExperimentData) (int, error) {
	if r.Detector == nil {
		return 0, fmt.Errorf("%w (relation %s)", core.ErrNoDetector, r.Key())
	}
	return r.Detector.ChangeSign(source, target)
}

// SiteKeysWithin expands the annotated sites to every GENE_position key
// within proximity positions of an annotated site.
func (r *Relation) SiteKeysWithin(proximity int) map[string]struct{} {
	if proximity < 0 {
		proximity = 0
	}
	keys := make(map[string]struct{}, len(r.Sites)*(2*proximity+1))
	for _, s := range r.Sites {
		gene := s.Gene
		if gene == "" {
			gene = r.Target
		}
		for p := s.Position - proximity; p <= s.Position+proximity; p++ {
			keys[omics.SiteKey(gene, p)] = struct{}{}
		}
	}
	return keys
}

func (r *Relation) String() string {
	return r.Key().String()
}
