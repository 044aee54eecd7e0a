package validate

import (
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/registry"
)

// runPhaseA is the stable-kind check (spec.md §4.6 Phase A): for every
// bound, non-devname entry whose device was actually scanned this
// invocation, the registry's PVID and devname hint are brought in line
// with what the device currently reports.
func (v *Validator) runPhaseA(entries []*registry.Entry) (dirty bool) {
	for _, e := range entries {
		if !e.Bound() || e.IDKind == identity.KindDevname {
			continue
		}
		d := e.Dev
		if d.PVIDStatus != identity.PVIDScanned {
			continue
		}

		switch {
		case d.PVID != "" && d.PVID != e.PVID:
			e.PVID = d.PVID
			dirty = true
		case d.PVID == "" && e.PVID != "":
			e.PVID = ""
			dirty = true
		}

		if e.DevnameHint != d.PrimaryAlias {
			e.DevnameHint = d.PrimaryAlias
			dirty = true
		}
	}
	return dirty
}
