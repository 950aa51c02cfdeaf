package testkit

import (
	"fmt"
	"math/rand"

	"gocausal/adapters/stats/detect"
	"gocausal/domain/network"
	"gocausal/domain/omics"
)

// NetworkGeneratorConfig configures the synthetic network generator
type NetworkGeneratorConfig struct {
	Genes     int `yaml:"genes"`
	Relations int `yaml:"relations"`
	Samples   int `yaml:"samples"`
	// ChangeRate is the fraction of data that shift away from zero
	ChangeRate float64 `yaml:"change_rate"`
	// PhosphoRate is the fraction of genes with a measured phosphosite
	PhosphoRate float64 `yaml:"phospho_rate"`
	// ExpressionRate is the fraction of genes with measured RNA
	ExpressionRate float64 `yaml:"expression_rate"`
	Seed           int64   `yaml:"seed"`
}

// DefaultNetworkConfig returns a small network suitable for unit tests
func DefaultNetworkConfig() NetworkGeneratorConfig {
	return NetworkGeneratorConfig{
		Genes:          40,
		Relations:      120,
		Samples:        4,
		ChangeRate:     0.4,
		PhosphoRate:    0.5,
		ExpressionRate: 0.3,
		Seed:           42,
	}
}

// NetworkGenerator builds random prior networks with measured data bound to
// threshold detectors.
type NetworkGenerator struct {
	config NetworkGeneratorConfig
	rng    *rand.Rand
}

// NewNetworkGenerator creates a generator
func NewNetworkGenerator(config NetworkGeneratorConfig) *NetworkGenerator {
	return &NetworkGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

type geneData struct {
	protein *omics.ExperimentData
	phospho *omics.ExperimentData
	rna     *omics.ExperimentData
}

// Generate returns the relations of a random network. Relation keys are
// distinct and no relation is a self loop.
func (g *NetworkGenerator) Generate() []*network.Relation {
	genes := make([]string, g.config.Genes)
	data := make(map[string]*geneData, g.config.Genes)
	for i := range genes {
		genes[i] = fmt.Sprintf("G%04d", i)
		data[genes[i]] = g.geneData(genes[i], i)
	}

	types := []network.RelationType{
		network.Phosphorylates,
		network.Dephosphorylates,
		network.UpregulatesExpression,
		network.DownregulatesExpression,
	}

	seen := make(map[network.Key]bool)
	relations := make([]*network.Relation, 0, g.config.Relations)
	for attempts := 0; len(relations) < g.config.Relations && attempts < g.config.Relations*10; attempts++ {
		source := genes[g.rng.Intn(len(genes))]
		target := genes[g.rng.Intn(len(genes))]
		if source == target {
			continue
		}
		t := types[g.rng.Intn(len(types))]
		k := network.Key{Source: source, Target: target, Type: t}
		if seen[k] {
			continue
		}
		seen[k] = true

		var sites []omics.Site
		if t.AffectsPhosphoSite() && data[target].phospho != nil {
			sites = data[target].phospho.Sites
		}
		r := network.NewRelation(source, target, t, sites...)
		Link(r, data[source].sources(), data[target].targets()...)
		relations = append(relations, r)
	}
	return relations
}

func (d *geneData) sources() []*omics.ExperimentData {
	out := []*omics.ExperimentData{d.protein}
	if d.phospho != nil {
		out = append(out, d.phospho)
	}
	return out
}

func (d *geneData) targets() []*omics.ExperimentData {
	out := d.sources()
	if d.rna != nil {
		out = append(out, d.rna)
	}
	return out
}

func (g *NetworkGenerator) geneData(gene string, index int) *geneData {
	gd := &geneData{}
	gd.protein = g.datum(gene+"_total", omics.TypeProtein, gene)
	if g.rng.Float64() < g.config.PhosphoRate {
		effect := 1
		if g.rng.Intn(2) == 0 {
			effect = -1
		}
		site := omics.Site{Gene: gene, Residue: "S", Position: 10 + index, Effect: effect}
		gd.phospho = omics.NewPhospho(fmt.Sprintf("%s_%s", gene, site.Label()), []string{gene}, []omics.Site{site}, g.series())
		gd.phospho.Detector = detect.NewThresholdDetector(DefaultThreshold, detect.ArithmeticMean)
	}
	if g.rng.Float64() < g.config.ExpressionRate {
		gd.rna = g.datum(gene+"_rna", omics.TypeExpression, gene)
	}
	return gd
}

func (g *NetworkGenerator) datum(id string, t omics.DataType, gene string) *omics.ExperimentData {
	d, err := omics.NewNumeric(id, t, []string{gene}, g.series())
	if err != nil {
		panic(err)
	}
	d.Detector = detect.NewThresholdDetector(DefaultThreshold, detect.ArithmeticMean)
	return d
}

// series draws values centered on 0 or, for changed data, on +-1
func (g *NetworkGenerator) series() []float64 {
	shift := 0.0
	if g.rng.Float64() < g.config.ChangeRate {
		shift = 1
		if g.rng.Intn(2) == 0 {
			shift = -1
		}
	}
	n := g.config.Samples
	if n <= 0 {
		n = 1
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = shift + g.rng.NormFloat64()*0.1
	}
	return values
}
