// Package match implements the Matcher: pairing of persisted registry
// records with the live devices discovered in one invocation.
package match

import (
	"strings"

	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/registry"
	"k8s.io/klog/v2"
)

// Matcher pairs registry.Entry records with identity.Dev handles. It
// never reads device contents; it only probes sysfs-derived identifiers
// through the Identity Probe.
type Matcher struct {
	Probe  *identity.Probe
	Majors identity.MajorTable

	// statDevNode resolves a device-node path to major:minor, overridable
	// in tests so the DM equivalence rule doesn't need a real /dev node.
	statDevNode func(path string) (major, minor int, ok bool)
}

// NewMatcher builds a Matcher using probe to resolve identifiers.
func NewMatcher(probe *identity.Probe, majors identity.MajorTable) *Matcher {
	return &Matcher{Probe: probe, Majors: majors, statDevNode: statDevNodeMajorMinor}
}

// MatchAll pairs every entry in entries with at most one Dev from devs,
// per spec.md §4.5: a fast path through the entry's devname hint, then a
// fallback scan of every still-unmatched device.
func (m *Matcher) MatchAll(entries []*registry.Entry, devs []*identity.Dev) {
	aliasIndex := buildAliasIndex(devs)

	for _, e := range entries {
		if e.DevnameHint != "" {
			if d, ok := aliasIndex[e.DevnameHint]; ok && !d.MatchedRegistry {
				if m.Bind(e, d) {
					continue
				}
			}
		}
		for _, d := range devs {
			if d.MatchedRegistry {
				continue
			}
			if m.Bind(e, d) {
				break
			}
		}
	}
}

func buildAliasIndex(devs []*identity.Dev) map[string]*identity.Dev {
	idx := make(map[string]*identity.Dev, len(devs))
	for _, d := range devs {
		for _, alias := range d.Aliases {
			idx[alias] = d
		}
	}
	return idx
}

// Bind attempts to pair e with d, returning whether it succeeded. On
// success d.ChosenID is set to the matching identifier, e.Dev is set to
// d, and d.MatchedRegistry is set.
func (m *Matcher) Bind(e *registry.Entry, d *identity.Dev) bool {
	if !kindCompatibleWithMajor(e.IDKind, d.Major, m.Majors) {
		return false
	}
	if d.Partition != e.Partition {
		return false
	}

	id := m.Probe.ProbeKind(d, e.IDKind)
	matched := !id.Absent && id.Value == e.IDValue

	if !matched && d.Major == m.Majors.DM && isDMDevNodePath(e.IDValue) {
		matched = m.dmDevNodeEquivalent(e.IDValue, d)
	}

	if !matched {
		return false
	}

	d.SetChosen(id)
	e.Dev = d
	d.MatchedRegistry = true
	return true
}

// isDMDevNodePath reports whether value looks like one of DM's
// equivalent device-node spellings ("/dev/dm-N" or "/dev/mapper/...")
// rather than a dm/uuid value.
func isDMDevNodePath(value string) bool {
	return strings.HasPrefix(value, "/dev/dm-") || strings.HasPrefix(value, "/dev/mapper/")
}

// dmDevNodeEquivalent implements the DM device-node equivalence special
// rule (spec.md §4.5): a registry entry may name a DM device by one of
// its several equally valid device-node spellings instead of its
// dm/uuid; if that path stats to the same major:minor as d, it is the
// same device.
func (m *Matcher) dmDevNodeEquivalent(path string, d *identity.Dev) bool {
	major, minor, ok := m.statDevNode(path)
	if !ok {
		klog.V(4).Infof("match: could not stat DM device-node candidate %s", path)
		return false
	}
	return major == d.Major && minor == d.Minor
}
