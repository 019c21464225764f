package domain

import (
	"strings"
	"unique"
)

// Identity is the opaque key naming one logical asset.
// It wraps a unique.Handle[string] so that repeated identities across the graph,
// the cache and the loader share one allocation and compare in O(1).
type Identity struct {
	h unique.Handle[string]
}

// NewIdentity interns s and returns its Identity.
func NewIdentity(s string) Identity {
	return Identity{h: unique.Make(s)}
}

// String returns the underlying key.
func (id Identity) String() string {
	var zero unique.Handle[string]
	if id.h == zero {
		return ""
	}
	return id.h.Value()
}

// IsZero reports whether the identity is empty or was never set.
func (id Identity) IsZero() bool {
	return strings.TrimSpace(id.String()) == ""
}

// Compare orders identities by their string value.
func (id Identity) Compare(other Identity) int {
	return strings.Compare(id.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	id.h = unique.Make(string(text))
	return nil
}

// Identities interns every string in ids.
func Identities(ids ...string) []Identity {
	res := make([]Identity, len(ids))
	for i, s := range ids {
		res[i] = NewIdentity(s)
	}
	return res
}

// Strings converts identities back to plain strings.
func Strings(ids []Identity) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = id.String()
	}
	return res
}
