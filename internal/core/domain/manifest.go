package domain

import (
	"maps"
	"slices"
)

// Manifest describes a set of assets and their required-before relationships.
type Manifest struct {
	Assets map[string]ManifestAsset
}

// ManifestAsset is one asset entry in a manifest.
type ManifestAsset struct {
	Type      string
	Locator   string
	Priority  int
	DependsOn []string
}

// Requests converts the manifest into load requests in identity order.
func (m *Manifest) Requests() []LoadRequest {
	names := slices.Sorted(maps.Keys(m.Assets))
	reqs := make([]LoadRequest, 0, len(names))
	for _, name := range names {
		a := m.Assets[name]
		typ := AssetType(a.Type)
		if typ == "" {
			typ = TypeBlob
		}
		locator := a.Locator
		if locator == "" {
			locator = name
		}
		reqs = append(reqs, LoadRequest{
			ID:       NewIdentity(name),
			Locator:  locator,
			Type:     typ,
			Priority: a.Priority,
		})
	}
	return reqs
}

// Edges returns every declared dependency edge.
func (m *Manifest) Edges() []Edge {
	var edges []Edge
	for _, name := range slices.Sorted(maps.Keys(m.Assets)) {
		for _, dep := range m.Assets[name].DependsOn {
			edges = append(edges, Edge{From: NewIdentity(name), To: NewIdentity(dep)})
		}
	}
	return edges
}
