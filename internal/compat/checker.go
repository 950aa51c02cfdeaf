// Package compat decides, from data types and site annotations alone, whether
// a relation is able to explain a change in a target datum.
package compat

import (
	"gocausal/domain/network"
	"gocausal/domain/omics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoized site windows
const DefaultCacheSize = 4096

type windowKey struct {
	relation  network.Key
	proximity int
}

// Checker is the relation/target compatibility rule set. It is safe for
// concurrent use.
type Checker struct {
	// SiteProximity is how many residues an observed site may be away from an
	// annotated site and still match. It only applies with ForceSiteMatching.
	SiteProximity int
	// ForceSiteMatching requires an observed target site to fall in the
	// relation's annotated site window. Otherwise any phospho target of the
	// relation's target gene is accepted.
	ForceSiteMatching bool

	windows *lru.Cache[windowKey, map[string]struct{}]
}

// NewChecker creates a checker
func NewChecker(siteProximity int, forceSiteMatching bool) *Checker {
	windows, _ := lru.New[windowKey, map[string]struct{}](DefaultCacheSize)
	return &Checker{
		SiteProximity:     siteProximity,
		ForceSiteMatching: forceSiteMatching,
		windows:           windows,
	}
}

// Compatible reports whether r could explain a change of target given source.
// A nil source asks whether r could explain target at all, as downstream
// counting does.
func (c *Checker) Compatible(source *omics.ExperimentData, r *network.Relation, target *omics.ExperimentData) bool {
	if source != nil {
		if !source.Type.ExplainsActivity() {
			return false
		}
		if !source.Type.ProteinLevel() && !target.Type.ProteinLevel() {
			return false
		}
	}

	switch {
	case r.Type.AffectsTotalProt():
		return target.Type == omics.TypeProtein || target.Type == omics.TypeExpression
	case r.Type.AffectsPhosphoSite():
		if target.Type != omics.TypePhosphoProtein {
			return false
		}
		return c.sitesMatch(r, target)
	case r.Type.AffectsGTPase():
		return target.Type == omics.TypeActivity
	}
	return false
}

func (c *Checker) sitesMatch(r *network.Relation, target *omics.ExperimentData) bool {
	if !c.ForceSiteMatching {
		return true
	}
	window := c.window(r)
	if len(window) == 0 {
		return false
	}
	for _, s := range target.Sites {
		if _, ok := window[s.Key()]; ok {
			return true
		}
	}
	return false
}

// window returns the memoized site keys of r within the proximity
func (c *Checker) window(r *network.Relation) map[string]struct{} {
	if c.windows == nil {
		return r.SiteKeysWithin(c.SiteProximity)
	}
	k := windowKey{relation: r.Key(), proximity: c.SiteProximity}
	if w, ok := c.windows.Get(k); ok {
		return w
	}
	w := r.SiteKeysWithin(c.SiteProximity)
	c.windows.Add(k, w)
	return w
}
