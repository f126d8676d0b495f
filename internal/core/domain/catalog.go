package domain

import (
	"sort"
	"strings"
)

// CatalogEntry is one row of the frameworks catalog: a framework guide
// together with the language guide it extends.
type CatalogEntry struct {
	// Framework is the framework name the guide covers.
	Framework string

	// FrameworkVersion is the targeted version, empty when unpinned.
	FrameworkVersion string

	// GuidePath is the corpus-relative path of the guide.
	GuidePath string

	// GuideTitle is the guide's document title.
	GuideTitle string

	// Extends is the corpus-relative path of the parent language
	// guide, empty for standalone guides.
	Extends string

	// ExtendsTitle is the parent guide's title when Extends resolves.
	ExtendsTitle string
}

// Catalog is the full frameworks table in presentation order:
// sorted by framework name, then version, then path.
type Catalog struct {
	Entries []CatalogEntry
}

// Sort orders the entries into presentation order in place.
// Framework names compare case-insensitively.
func (c *Catalog) Sort() {
	sort.SliceStable(c.Entries, func(a, b int) bool {
		ea, eb := c.Entries[a], c.Entries[b]
		fa, fb := strings.ToLower(ea.Framework), strings.ToLower(eb.Framework)
		if fa != fb {
			return fa < fb
		}
		if ea.FrameworkVersion != eb.FrameworkVersion {
			return ea.FrameworkVersion < eb.FrameworkVersion
		}
		return ea.GuidePath < eb.GuidePath
	})
}

// Frameworks returns the distinct framework names in order.
func (c *Catalog) Frameworks() []string {
	seen := make(map[string]struct{}, len(c.Entries))
	var out []string
	for _, e := range c.Entries {
		if _, ok := seen[e.Framework]; ok {
			continue
		}
		seen[e.Framework] = struct{}{}
		out = append(out, e.Framework)
	}
	return out
}
