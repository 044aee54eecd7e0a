package validate

import (
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/registry"
)

// runPhaseB is the devname-kind check (spec.md §4.6 Phase B): a bound
// devname entry whose live device's PVID no longer matches the
// recorded one was matched to the wrong device and must be unbound.
// Devices left unclaimed by any entry afterwards are purged from the
// in-memory scan cache only (never the registry — one of spec.md §9's
// Open Questions, resolved that way here).
func (v *Validator) runPhaseB(entries []*registry.Entry) (dirty bool) {
	var purgeCandidates []*identity.Dev

	for _, e := range entries {
		if !e.Bound() || e.IDKind != identity.KindDevname {
			continue
		}
		d := e.Dev

		if d.PVID == e.PVID {
			if e.DevnameHint != d.PrimaryAlias {
				e.DevnameHint = d.PrimaryAlias
				dirty = true
			}
			continue
		}

		purgeCandidates = append(purgeCandidates, d)
		e.Unbind()
		dirty = true
	}

	for _, d := range purgeCandidates {
		if !stillClaimed(entries, d) {
			d.MatchedRegistry = false
		}
	}
	return dirty
}

func stillClaimed(entries []*registry.Entry, d *identity.Dev) bool {
	for _, e := range entries {
		if e.Dev == d {
			return true
		}
	}
	return false
}
