// Package filter implements the generic filter chain external
// collaborator (spec.md §1): a small ordered sequence of named
// predicates the DIS asks about a device without owning the predicate
// logic itself. Only the two stages the DIS needs to exercise end to
// end are shipped here; a real deployment's filter chain is expected to
// carry many more, entirely outside DIS scope.
package filter

import (
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/multipath"
	"github.com/openlvm/devid/pkg/sysfs"
)

// Stage names a filter in the chain, surfaced in the device's
// FilteredMask reasoning and in CLI diagnostics.
type Stage string

const (
	StageSysfsReadable         Stage = "sysfs-readable"
	StageNotMultipathComponent Stage = "not-multipath-component"
)

// Func is one named filter stage: it reports whether dev passes, and
// never errors — a filter that cannot determine an answer passes the
// device through rather than blocking the invocation (spec.md §7,
// "absent-data... never fatal").
type Func func(dev *identity.Dev) bool

// Chain runs an ordered sequence of named filter stages, marking a
// device's identity.FilterReason bitfield on rejection.
type Chain struct {
	stages []namedStage
}

type namedStage struct {
	name Stage
	fn   Func
	mask identity.FilterReason
}

// NewChain returns an empty chain; use AddStage to populate it.
func NewChain() *Chain {
	return &Chain{}
}

// AddStage appends a named stage with the FilterReason bit it sets on
// rejection.
func (c *Chain) AddStage(name Stage, mask identity.FilterReason, fn Func) {
	c.stages = append(c.stages, namedStage{name: name, fn: fn, mask: mask})
}

// Run evaluates every stage against dev in order, marking dev.FilteredMask
// for each stage it fails, and reports whether dev passed all of them.
func (c *Chain) Run(dev *identity.Dev) bool {
	passed := true
	for _, s := range c.stages {
		if !s.fn(dev) {
			dev.MarkFiltered(s.mask)
			passed = false
		}
	}
	return passed
}

// SysfsReadableStage builds the built-in "sysfs-readable" stage: a
// device fails it if the Sysfs Reader cannot resolve its block name at
// all, meaning the device vanished between enumeration and filtering.
func SysfsReadableStage(reader *sysfs.Reader) Func {
	return func(dev *identity.Dev) bool {
		_, ok := reader.BlockName(dev.Major, dev.Minor)
		return ok
	}
}

// NotMultipathComponentStage builds the built-in
// "not-multipath-component" stage, wired to the Multipath Oracle: a
// device fails it if the oracle judges it a leg of an aggregate.
func NotMultipathComponentStage(oracle *multipath.Oracle) Func {
	return func(dev *identity.Dev) bool {
		return !oracle.IsComponent(dev)
	}
}
