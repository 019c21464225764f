// Package domain contains the core models of the asset pipeline: identities, assets,
// load requests, the dependency graph and runtime configuration.
package domain

import (
	"fmt"
	"time"

	"go.trai.ch/zerr"
)

// AssetType tags the kind of artifact a factory materializes.
type AssetType string

// Well-known asset types. The set is open: any non-empty tag is valid.
const (
	TypeTexture AssetType = "texture"
	TypeModel   AssetType = "model"
	TypeShader  AssetType = "shader"
	TypeAudio   AssetType = "audio"
	TypeConfig  AssetType = "config"
	TypeBlob    AssetType = "blob"
)

// String returns the tag value.
func (t AssetType) String() string {
	return string(t)
}

// Asset is a materialized artifact owned by the cache once inserted.
type Asset interface {
	// ID returns the identity the asset was loaded under.
	ID() Identity
	// Footprint returns the estimated memory footprint in bytes.
	Footprint() int64
	// Dispose releases the resources held by the asset.
	// It is called exactly once by the owner that destroys the asset.
	Dispose() error
}

// LoadRequest describes one asset to materialize.
type LoadRequest struct {
	ID        Identity
	Locator   string
	Type      AssetType
	Priority  int
	Submitted time.Time
}

// Validate rejects requests without an identity or type.
func (r LoadRequest) Validate() error {
	if r.ID.IsZero() {
		return ErrInvalidIdentity
	}
	if r.Type == "" {
		return zerr.With(zerr.Wrap(ErrUnregisteredType, "empty asset type"), "identity", r.ID.String())
	}
	return nil
}

// Tier is one of the three worker pools a load is routed to.
type Tier int

const (
	// TierLow serves bulk and background loads.
	TierLow Tier = iota
	// TierNormal serves regular loads.
	TierNormal
	// TierHigh serves urgent loads.
	TierHigh
)

// Tiers lists all tiers from most to least urgent.
var Tiers = [...]Tier{TierHigh, TierNormal, TierLow}

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierNormal:
		return "normal"
	case TierLow:
		return "low"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// TierFor maps a priority to its tier using the given thresholds.
func TierFor(priority, highThreshold, normalThreshold int) Tier {
	switch {
	case priority >= highThreshold:
		return TierHigh
	case priority >= normalThreshold:
		return TierNormal
	default:
		return TierLow
	}
}
