// Package event models the external device-event provider spec.md §4.3
// treats as a collaborator: a source of out-of-band evidence ("this
// device is a multipath leg", "this device just appeared") that the
// Multipath Oracle and Validator can consult without owning the
// mechanism that produces it.
package event

// Provider answers evidence questions from an external device-event
// source. A real deployment would back this with whatever event bus or
// udev-rule-fed database the platform already runs; this package ships
// only the interface plus test/no-op implementations, since the event
// source itself is out of scope (spec.md §1).
type Provider interface {
	// IsMultipathComponent reports whether the external source has
	// positive evidence that the device at major:minor is a multipath
	// leg. A false return means "no evidence either way", not "no".
	IsMultipathComponent(major, minor int) bool

	// DeviceAppeared reports whether the external source observed a new
	// device matching pvid. No component of this module calls it: the
	// Validator neither clears the searched-devnames sentinel nor starts
	// a Phase C search on this evidence.
	DeviceAppeared(pvid string) bool
}

// NoOp is a Provider with no evidence of anything, the default when no
// external event source is configured.
type NoOp struct{}

func (NoOp) IsMultipathComponent(major, minor int) bool { return false }
func (NoOp) DeviceAppeared(pvid string) bool            { return false }
