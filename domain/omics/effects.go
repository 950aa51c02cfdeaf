package omics

// EffectLookup is a read-only curation resource answering the activity
// effect of a modification site (keyed GENE_position) or of a mutated gene
// (keyed by gene symbol). Unknown keys return 0.
type EffectLookup interface {
	EffectSign(key string) int
}

// EffectMap is an in-memory EffectLookup
type EffectMap map[string]int

// EffectSign implements EffectLookup
func (m EffectMap) EffectSign(key string) int {
	return sign(m[key])
}

// ApplyEffects fills still-unknown site and mutation effects from lookup and
// returns how many effects were set. Known effects are never overwritten.
func ApplyEffects(data []*ExperimentData, lookup EffectLookup) int {
	if lookup == nil {
		return 0
	}
	updated := 0
	for _, d := range data {
		switch d.Type {
		case TypePhosphoProtein:
			for i := range d.Sites {
				if d.Sites[i].Effect != 0 {
					continue
				}
				if e := lookup.EffectSign(d.Sites[i].Key()); e != 0 {
					d.Sites[i].Effect = e
					updated++
				}
			}
		case TypeMutation:
			if d.MutationEffect != 0 {
				continue
			}
			for _, g := range d.Genes {
				if e := lookup.EffectSign(g); e != 0 {
					d.MutationEffect = e
					updated++
					break
				}
			}
		}
	}
	return updated
}
