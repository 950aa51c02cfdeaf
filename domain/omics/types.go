package omics

import (
	"strings"

	"gocausal/domain/core"
)

// Kind is the structural shape of a datum's measurements
type Kind int

const (
	KindNumeric Kind = iota
	KindCategorical
)

func (k Kind) String() string {
	if k == KindCategorical {
		return "categorical"
	}
	return "numeric"
}

// DataType classifies an experiment datum. The set is closed; the capability
// table below holds everything the core needs to know about each member.
type DataType int

const (
	TypeProtein DataType = iota
	TypePhosphoProtein
	TypeExpression
	TypeMutation
	TypeCNA
	TypeMetabolite
	TypeMethylation
	TypeActivity
)

type capability struct {
	name             string
	kind             Kind
	effect           int
	derivedEffect    bool
	siteSpecific     bool
	explainsActivity bool
	proteinLevel     bool
}

var capabilities = map[DataType]capability{
	TypeProtein:        {name: "protein", kind: KindNumeric, effect: 1, explainsActivity: true, proteinLevel: true},
	TypePhosphoProtein: {name: "phosphoprotein", kind: KindNumeric, derivedEffect: true, siteSpecific: true, explainsActivity: true, proteinLevel: true},
	TypeExpression:     {name: "expression", kind: KindNumeric, effect: 1},
	TypeMutation:       {name: "mutation", kind: KindCategorical, derivedEffect: true, explainsActivity: true},
	TypeCNA:            {name: "cna", kind: KindCategorical, effect: 1},
	TypeMetabolite:     {name: "metabolite", kind: KindNumeric, effect: 1},
	TypeMethylation:    {name: "methylation", kind: KindNumeric, effect: -1},
	TypeActivity:       {name: "activity", kind: KindCategorical, effect: 1},
}

// AllDataTypes lists every data type in declaration order
func AllDataTypes() []DataType {
	return []DataType{
		TypeProtein, TypePhosphoProtein, TypeExpression, TypeMutation,
		TypeCNA, TypeMetabolite, TypeMethylation, TypeActivity,
	}
}

func (t DataType) String() string {
	if c, ok := capabilities[t]; ok {
		return c.name
	}
	return "unknown"
}

// Valid reports whether t is a member of the closed set
func (t DataType) Valid() bool {
	_, ok := capabilities[t]
	return ok
}

// Kind returns the structural kind used by values of this type
func (t DataType) Kind() Kind {
	return capabilities[t].kind
}

// SiteSpecific is true for data annotated with modification sites
func (t DataType) SiteSpecific() bool {
	return capabilities[t].siteSpecific
}

// ExplainsActivity is true for types that can stand as the upstream cause of
// a relation: total protein, phosphoprotein and mutation.
func (t DataType) ExplainsActivity() bool {
	return capabilities[t].explainsActivity
}

// ProteinLevel is true for total and phospho protein measurements
func (t DataType) ProteinLevel() bool {
	return capabilities[t].proteinLevel
}

// IndirectProxy is true for measurements overridden by total protein data of
// the same gene.
func (t DataType) IndirectProxy() bool {
	return t == TypeExpression || t == TypeCNA
}

// ParseDataType converts a data type name to its enum value
func ParseDataType(name string) (DataType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, c := range capabilities {
		if c.name == n {
			return t, nil
		}
	}
	switch n {
	case "rna":
		return TypeExpression, nil
	case "phospho", "phosphosite":
		return TypePhosphoProtein, nil
	case "copynumber", "copy-number":
		return TypeCNA, nil
	}
	return 0, core.NewUnknownDataTypeError(name)
}

// MarshalText encodes the data type by name
func (t DataType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, core.NewUnknownDataTypeError(t.String())
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a data type name
func (t *DataType) UnmarshalText(b []byte) error {
	parsed, err := ParseDataType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
