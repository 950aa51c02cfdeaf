// Package bundle reads analysis bundles: the measured data, the prior
// relations, curated site effects and the sample groups, in one YAML document.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"gocausal/adapters/stats/detect"
	"gocausal/domain/core"
	"gocausal/domain/network"
	"gocausal/domain/omics"

	"gopkg.in/yaml.v3"
)

// Detection selects the one-datum detector bound to every datum
type Detection struct {
	// Method is threshold, difference, fold-change or significance
	Method          string  `yaml:"method"`
	Threshold       float64 `yaml:"threshold"`
	Averaging       string  `yaml:"averaging"`
	PValueThreshold float64 `yaml:"p_value_threshold"`
}

// Bundle is a decoded analysis input. Relations already carry the data of
// their source and target genes.
type Bundle struct {
	Name      string
	Samples   []string
	Control   []string
	Test      []string
	Detection Detection
	Data      []*omics.ExperimentData
	Relations []*network.Relation
	Effects   omics.EffectMap
}

type dataDoc struct {
	ID     string       `yaml:"id"`
	Type   string       `yaml:"type"`
	Genes  []string     `yaml:"genes"`
	Values []*float64   `yaml:"values"`
	Calls  []*int       `yaml:"calls"`
	Sites  []omics.Site `yaml:"sites"`
	// Effect is the mutation effect, ignored for other types
	Effect int `yaml:"effect"`
}

type relationDoc struct {
	Source string       `yaml:"source"`
	Target string       `yaml:"target"`
	Type   string       `yaml:"type"`
	Sites  []omics.Site `yaml:"sites"`
}

type comparisonDoc struct {
	Control []string `yaml:"control"`
	Test    []string `yaml:"test"`
}

type document struct {
	Name        string         `yaml:"name"`
	Samples     []string       `yaml:"samples"`
	Comparison  comparisonDoc  `yaml:"comparison"`
	Detection   Detection      `yaml:"detection"`
	Data        []dataDoc      `yaml:"data"`
	Relations   []relationDoc  `yaml:"relations"`
	SiteEffects map[string]int `yaml:"site_effects"`
}

// Load reads a bundle file
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: bundle %s", core.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a bundle, builds the data and attaches them to relations
func Parse(r io.Reader) (*Bundle, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode bundle: %v", core.ErrInvalidInput, err)
	}

	b := &Bundle{
		Name:      doc.Name,
		Samples:   doc.Samples,
		Control:   doc.Comparison.Control,
		Test:      doc.Comparison.Test,
		Detection: doc.Detection,
		Effects:   omics.EffectMap(doc.SiteEffects),
	}

	seen := make(map[string]bool, len(doc.Data))
	for _, dd := range doc.Data {
		if dd.ID == "" {
			return nil, fmt.Errorf("%w: datum without id", core.ErrInvalidInput)
		}
		if seen[dd.ID] {
			return nil, fmt.Errorf("%w: duplicate datum %s", core.ErrInvalidInput, dd.ID)
		}
		seen[dd.ID] = true

		d, err := dd.build()
		if err != nil {
			return nil, err
		}
		if len(b.Samples) > 0 && d.Len() != len(b.Samples) {
			return nil, fmt.Errorf("%w: datum %s has %d values for %d samples",
				core.ErrInvalidInput, d.ID, d.Len(), len(b.Samples))
		}
		b.Data = append(b.Data, d)
	}

	// relations repeated under one key are merged, sites combined
	byKey := make(map[network.Key]*network.Relation, len(doc.Relations))
	for _, rd := range doc.Relations {
		if rd.Source == "" || rd.Target == "" {
			return nil, fmt.Errorf("%w: relation without source or target", core.ErrInvalidInput)
		}
		if rd.Type == "" {
			return nil, fmt.Errorf("%w: relation %s-%s has no type", core.ErrInvalidInput, rd.Source, rd.Target)
		}
		t, err := network.ParseRelationType(rd.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: relation %s-%s: %w", core.ErrInvalidInput, rd.Source, rd.Target, err)
		}
		r := network.NewRelation(rd.Source, rd.Target, t, rd.Sites...)
		if prev, ok := byKey[r.Key()]; ok {
			prev.Sites = append(prev.Sites, r.Sites...)
			continue
		}
		byKey[r.Key()] = r
		b.Relations = append(b.Relations, r)
	}

	Attach(b.Relations, b.Data)
	return b, nil
}

func (dd dataDoc) build() (*omics.ExperimentData, error) {
	genes := dd.Genes
	if len(genes) == 0 {
		return nil, fmt.Errorf("%w: datum %s has no gene", core.ErrInvalidInput, dd.ID)
	}
	if dd.Type == "" {
		return nil, fmt.Errorf("%w: datum %s has no type", core.ErrInvalidInput, dd.ID)
	}
	t, err := omics.ParseDataType(dd.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: datum %s: %w", core.ErrInvalidInput, dd.ID, err)
	}

	if t.Kind() == omics.KindCategorical {
		calls := make([]omics.Call, len(dd.Calls))
		for i, c := range dd.Calls {
			if c == nil {
				calls[i] = omics.MissingCall()
			} else {
				calls[i] = omics.Call{Code: *c}
			}
		}
		d, err := omics.NewCategorical(dd.ID, t, genes, calls)
		if err != nil {
			return nil, err
		}
		d.MutationEffect = dd.Effect
		return d, nil
	}

	values := make([]float64, len(dd.Values))
	for i, v := range dd.Values {
		if v == nil {
			values[i] = math.NaN()
		} else {
			values[i] = *v
		}
	}
	if t == omics.TypePhosphoProtein {
		sites := make([]omics.Site, len(dd.Sites))
		for i, s := range dd.Sites {
			if s.Gene == "" {
				s.Gene = genes[0]
			}
			sites[i] = s
		}
		return omics.NewPhospho(dd.ID, genes, sites, values), nil
	}
	return omics.NewNumeric(dd.ID, t, genes, values)
}

// Attach adds every datum to the source and target sets of the relations of
// its genes.
func Attach(relations []*network.Relation, data []*omics.ExperimentData) {
	byGene := make(map[string][]*omics.ExperimentData)
	for _, d := range data {
		for _, g := range d.Genes {
			byGene[g] = append(byGene[g], d)
		}
	}
	for _, r := range relations {
		for _, d := range byGene[r.Source] {
			r.SourceData.Add(d)
		}
		for _, d := range byGene[r.Target] {
			r.TargetData.Add(d)
		}
	}
}

// Comparison resolves the control and test sample names to a comparison
func (b *Bundle) Comparison() (detect.Comparison, error) {
	index := make(map[string]int, len(b.Samples))
	for i, s := range b.Samples {
		index[s] = i
	}
	resolve := func(names []string) ([]int, error) {
		out := make([]int, 0, len(names))
		for _, n := range names {
			i, ok := index[n]
			if !ok {
				return nil, fmt.Errorf("%w: %w: sample %q", core.ErrInvalidComparison, core.ErrNotFound, n)
			}
			out = append(out, i)
		}
		return out, nil
	}
	control, err := resolve(b.Control)
	if err != nil {
		return detect.Comparison{}, err
	}
	test, err := resolve(b.Test)
	if err != nil {
		return detect.Comparison{}, err
	}
	n := len(b.Samples)
	return detect.NewComparison(detect.MaskFromIndices(n, control...), detect.MaskFromIndices(n, test...))
}

// HasComparison reports whether the bundle names control and test groups
func (b *Bundle) HasComparison() bool {
	return len(b.Control) > 0 || len(b.Test) > 0
}
