package omics

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gocausal/domain/core"
)

// Call is one categorical observation. Missing marks a sample that was not
// measured; Code is meaningless when Missing is set.
type Call struct {
	Code    int    `json:"code" yaml:"code"`
	Missing bool   `json:"missing,omitempty" yaml:"missing,omitempty"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// MissingCall is the explicit not-measured observation
func MissingCall() Call {
	return Call{Missing: true}
}

// Site is one annotated modification site of a protein
type Site struct {
	Gene     string `json:"gene" yaml:"gene"`
	Residue  string `json:"residue,omitempty" yaml:"residue,omitempty"`
	Position int    `json:"position" yaml:"position"`
	// Effect of modifying the site on the protein's activity: 1 activating,
	// -1 inhibiting, 0 unknown.
	Effect int `json:"effect,omitempty" yaml:"effect,omitempty"`
}

// Key returns the GENE_position key used for site-level matching
func (s Site) Key() string {
	return SiteKey(s.Gene, s.Position)
}

// Label is the human readable form, e.g. AKT1_S473
func (s Site) Label() string {
	return s.Gene + "_" + s.Residue + strconv.Itoa(s.Position)
}

// SiteKey builds a GENE_position key
func SiteKey(gene string, position int) string {
	return gene + "_" + strconv.Itoa(position)
}

// ExperimentData is one measured entity: a numeric series or a categorical
// series tagged with its data type, optionally bound to a change detector.
type ExperimentData struct {
	ID     string
	Genes  []string
	Type   DataType
	Values []float64
	Calls  []Call
	Sites  []Site
	// MutationEffect is 1 for activating, -1 for inactivating, 0 unknown.
	// Only read for mutation data.
	MutationEffect int
	Detector       OneDataChangeDetector
}

// NewNumeric creates a numeric datum. NaN marks missing values.
func NewNumeric(id string, t DataType, genes []string, values []float64) (*ExperimentData, error) {
	if !t.Valid() {
		return nil, core.NewUnknownDataTypeError(t.String())
	}
	if t.Kind() != KindNumeric {
		return nil, fmt.Errorf("%w: %s data %s requires categorical values", core.ErrInvalidInput, t, id)
	}
	return &ExperimentData{ID: id, Genes: genes, Type: t, Values: values}, nil
}

// NewPhospho creates a phosphoprotein datum annotated with its sites
func NewPhospho(id string, genes []string, sites []Site, values []float64) *ExperimentData {
	return &ExperimentData{ID: id, Genes: genes, Type: TypePhosphoProtein, Values: values, Sites: sites}
}

// NewCategorical creates a categorical datum
func NewCategorical(id string, t DataType, genes []string, calls []Call) (*ExperimentData, error) {
	if !t.Valid() {
		return nil, core.NewUnknownDataTypeError(t.String())
	}
	if t.Kind() != KindCategorical {
		return nil, fmt.Errorf("%w: %s data %s requires numeric values", core.ErrInvalidInput, t, id)
	}
	return &ExperimentData{ID: id, Genes: genes, Type: t, Calls: calls}, nil
}

// Kind returns the structural kind of the datum
func (d *ExperimentData) Kind() Kind {
	return d.Type.Kind()
}

// IsNumeric reports whether the datum carries numeric values
func (d *ExperimentData) IsNumeric() bool {
	return d.Type.Kind() == KindNumeric
}

// Len is the number of samples
func (d *ExperimentData) Len() int {
	if d.IsNumeric() {
		return len(d.Values)
	}
	return len(d.Calls)
}

// Series returns the measurements as floats; categorical codes are converted
// and missing calls become NaN.
func (d *ExperimentData) Series() []float64 {
	if d.IsNumeric() {
		return d.Values
	}
	out := make([]float64, len(d.Calls))
	for i, c := range d.Calls {
		if c.Missing {
			out[i] = math.NaN()
		} else {
			out[i] = float64(c.Code)
		}
	}
	return out
}

// Gene returns the first associated gene symbol
func (d *ExperimentData) Gene() string {
	if len(d.Genes) == 0 {
		return ""
	}
	return d.Genes[0]
}

// HasGene reports whether the datum is associated with gene
func (d *ExperimentData) HasGene(gene string) bool {
	for _, g := range d.Genes {
		if g == gene {
			return true
		}
	}
	return false
}

// Effect is the sign by which a change of this datum changes the activity of
// its gene product.
func (d *ExperimentData) Effect() int {
	c := capabilities[d.Type]
	if !c.derivedEffect {
		return c.effect
	}
	if d.Type == TypeMutation {
		return sign(d.MutationEffect)
	}
	return siteEffect(d.Sites)
}

// siteEffect is +1 when every known site effect activates, -1 when every
// known one inhibits, 0 when they disagree or none is known.
func siteEffect(sites []Site) int {
	activating, inhibiting := false, false
	for _, s := range sites {
		switch {
		case s.Effect > 0:
			activating = true
		case s.Effect < 0:
			inhibiting = true
		}
	}
	switch {
	case activating && !inhibiting:
		return 1
	case inhibiting && !activating:
		return -1
	}
	return 0
}

// SiteKeys returns the sorted GENE_position keys of the annotated sites
func (d *ExperimentData) SiteKeys() []string {
	if len(d.Sites) == 0 {
		return nil
	}
	keys := make([]string, 0, len(d.Sites))
	for _, s := range d.Sites {
		keys = append(keys, s.Key())
	}
	sort.Strings(keys)
	return keys
}

// ChangeSign asks the bound detector for the change direction
func (d *ExperimentData) ChangeSign() (int, error) {
	if d.Detector == nil {
		return 0, core.NewNoDetectorError(d.ID)
	}
	return d.Detector.ChangeSign(d)
}

// ChangeValue asks the bound detector for the change magnitude
func (d *ExperimentData) ChangeValue() (float64, error) {
	if d.Detector == nil {
		return 0, core.NewNoDetectorError(d.ID)
	}
	return d.Detector.ChangeValue(d)
}

// Equal compares data by identity
func (d *ExperimentData) Equal(other *ExperimentData) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.ID == other.ID
}

func (d *ExperimentData) String() string {
	return d.ID
}

// Surrogate returns a structural copy sharing no mutable state with d except
// the read-only value slices. Sites are copied so effect annotation on the
// copy does not leak back.
func (d *ExperimentData) Surrogate(detector OneDataChangeDetector) *ExperimentData {
	cp := &ExperimentData{
		ID:             d.ID,
		Genes:          d.Genes,
		Type:           d.Type,
		Values:         d.Values,
		Calls:          d.Calls,
		MutationEffect: d.MutationEffect,
		Detector:       detector,
	}
	if len(d.Sites) > 0 {
		cp.Sites = append([]Site(nil), d.Sites...)
	}
	return cp
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
