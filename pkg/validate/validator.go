// Package validate implements the Validator/Repairer: after devices
// have been scanned and their PVIDs are known, it reconciles the
// registry against ground truth in three phases (spec.md §4.6).
package validate

import (
	"github.com/openlvm/devid/pkg/filter"
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/label"
	"github.com/openlvm/devid/pkg/metrics"
	"github.com/openlvm/devid/pkg/registry"
	"k8s.io/klog/v2"
)

// SearchPolicy controls how aggressively Phase C probes devices before
// reading their labels, per spec.md §4.6 "Search-mode policy".
type SearchPolicy string

const (
	SearchNone SearchPolicy = "none"
	SearchAuto SearchPolicy = "auto"
	SearchAll  SearchPolicy = "all"
)

// Validator runs the three reconciliation phases against a registry.File
// already paired with live devices by the Matcher.
//
//nolint:govet // fieldalignment: field order optimized for readability over memory layout
type Validator struct {
	Probe        *identity.Probe
	Labels       *label.Reader
	NonContent   *filter.Chain
	SentinelPath string
	Policy       SearchPolicy

	// Invalid is set when an invariant violation is observed during a
	// pass (spec.md §7): it suppresses the opportunistic write for this
	// invocation without aborting the rest of the reconciliation.
	Invalid bool
}

// NewValidator builds a Validator. nonContent may be nil, meaning no
// stage runs before a label read during Phase C (every candidate device
// is probed).
func NewValidator(probe *identity.Probe, labels *label.Reader, nonContent *filter.Chain, sentinelPath string, policy SearchPolicy) *Validator {
	return &Validator{
		Probe:        probe,
		Labels:       labels,
		NonContent:   nonContent,
		SentinelPath: sentinelPath,
		Policy:       policy,
	}
}

// Run executes Phase A, Phase B, and (policy permitting) Phase C in
// order against f's entries and devs, returning whether f.Entries ended
// up modified and therefore a candidate for the opportunistic write.
func (v *Validator) Run(f *registry.File, devs []*identity.Dev) (dirty bool) {
	if v.runPhaseA(f.Entries) {
		dirty = true
		metrics.RecordValidatorRepair(metrics.PhaseA)
	}
	if v.runPhaseB(f.Entries) {
		dirty = true
		metrics.RecordValidatorRepair(metrics.PhaseB)
	}
	if v.Policy != SearchNone {
		if v.runPhaseC(f, devs) {
			dirty = true
			metrics.RecordValidatorRepair(metrics.PhaseC)
		}
	}
	if dirty {
		klog.V(4).Infof("validate: reconciliation produced %d entries, dirty=%v", len(f.Entries), dirty)
	}
	return dirty
}
