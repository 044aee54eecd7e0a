package validate

import (
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/registry"
	"k8s.io/klog/v2"
)

// runPhaseC searches for renamed PVs (spec.md §4.6 Phase C): devname
// entries whose device vanished are matched back to whichever live,
// unclaimed device now carries the same PVID.
func (v *Validator) runPhaseC(f *registry.File, devs []*identity.Dev) (dirty bool) {
	queued := v.collectUnresolvedPVIDs(f.Entries)
	if len(queued) == 0 {
		return false
	}
	if v.SentinelExists() {
		klog.V(4).Infof("validate: sentinel present, skipping renamed-PV search")
		return false
	}

	found := map[string][]*identity.Dev{}
	for _, d := range devs {
		if d.MatchedRegistry {
			continue
		}
		if v.Policy == SearchAuto && v.hasStableIdentifier(d) {
			continue
		}
		if v.NonContent != nil && !v.NonContent.Run(d) {
			continue
		}
		pvid, ok := v.Labels.ReadPVID(d.PrimaryAlias)
		if !ok {
			d.PVIDStatus = identity.PVIDScanFailed
			continue
		}
		d.PVID = pvid
		d.PVIDStatus = identity.PVIDScanned
		if _, wanted := queued[pvid]; wanted {
			found[pvid] = append(found[pvid], d)
		}
	}

	recovered := 0
	for pvid, ds := range found {
		if len(ds) > 1 {
			klog.Warningf("validate: duplicate PVID %s found on multiple devices (%v); neither chosen automatically, entry left unbound", pvid, aliasesOf(ds))
			continue
		}
		d := ds[0]
		e := queued[pvid]
		e.IDKind = identity.KindDevname
		e.IDValue = d.PrimaryAlias
		e.DevnameHint = d.PrimaryAlias
		e.Dev = d
		d.MatchedRegistry = true
		dirty = true
		recovered++
	}

	if recovered == 0 {
		if err := v.TouchSentinel(); err != nil {
			klog.Warningf("validate: touch sentinel %s: %v", v.SentinelPath, err)
		}
	}
	return dirty
}

// collectUnresolvedPVIDs gathers the PVIDs of devname-kind entries that
// are currently unbound, or bound to a device that a filter stage has
// since rejected — both are candidates Phase C tries to recover.
func (v *Validator) collectUnresolvedPVIDs(entries []*registry.Entry) map[string]*registry.Entry {
	queued := map[string]*registry.Entry{}
	for _, e := range entries {
		if e.IDKind != identity.KindDevname || e.PVID == "" {
			continue
		}
		if !e.Bound() || e.Dev.Filtered() {
			queued[e.PVID] = e
		}
	}
	return queued
}

// aliasesOf renders each device's primary alias for a duplicate-PVID
// warning message.
func aliasesOf(devs []*identity.Dev) []string {
	aliases := make([]string, len(devs))
	for i, d := range devs {
		aliases[i] = d.PrimaryAlias
	}
	return aliases
}

// hasStableIdentifier reports whether d already exposes a non-devname
// identifier, the "auto" search-policy optimisation's skip condition
// (spec.md §4.6). A device whose major the Identity Probe has no
// opinion about (ErrUnsupportedMajor) is treated as stable too: it is
// not a plain devname-only disk either.
func (v *Validator) hasStableIdentifier(d *identity.Dev) bool {
	id, err := v.Probe.ChooseID(d, identity.KindUnknown)
	if err != nil {
		return true
	}
	return id.Kind != identity.KindDevname
}
