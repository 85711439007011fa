// Package capability models platform-version-dependent store features as a
// runtime query so orchestration logic stays portable and testable without
// real platform version checks.
package capability

// Capability identifies a store feature that only exists above a certain
// store-API version.
type Capability string

const (
	// PromotionalOffers gates attaching a signed promotional offer to a
	// purchase.
	PromotionalOffers Capability = "promotional_offers"
	// WinBackOffers gates both the purchase option and the eligibility query
	// for win-back offers.
	WinBackOffers Capability = "win_back_offers"
)

// minVersion is the single source of truth for the store-API major version
// each capability first appeared in.
var minVersion = map[Capability]int{
	PromotionalOffers: 17,
	WinBackOffers:     18,
}

// Detector answers capability queries for the running platform.
type Detector interface {
	Supports(c Capability) bool
}

// Static is a Detector pinned to a store-API version, typically taken from
// configuration at startup.
type Static struct {
	version int
}

// NewStatic builds a Detector for the given store-API major version.
func NewStatic(version int) Static {
	return Static{version: version}
}

// Supports reports whether the pinned version carries the capability.
// Unknown capabilities are unsupported.
func (s Static) Supports(c Capability) bool {
	min, ok := minVersion[c]
	if !ok {
		return false
	}
	return s.version >= min
}

// All is a Detector that supports every known capability; used by tests and
// the dev server.
type All struct{}

func (All) Supports(c Capability) bool {
	_, ok := minVersion[c]
	return ok
}

// None is a Detector that supports nothing.
type None struct{}

func (None) Supports(Capability) bool { return false }
