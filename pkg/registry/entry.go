package registry

import (
	"github.com/openlvm/devid/pkg/identity"
)

// Entry is one persisted record from the devices file: an approved
// device described by a stable (or, until repaired, devname) identifier,
// an advisory devname hint, and the PVID last observed on it.
//
//nolint:govet // fieldalignment: field order optimized for readability over memory layout
type Entry struct {
	IDKind      identity.Kind
	IDValue     string
	DevnameHint string
	PVID        string // "" means absent; encoded on disk as "."
	Partition   int

	// Dev is the live device this entry is paired with for the
	// duration of one invocation. Nil means unbound. Never persisted.
	Dev *identity.Dev
}

// Bound reports whether this entry is currently paired with a live
// device.
func (e *Entry) Bound() bool {
	return e.Dev != nil
}

// Unbind clears the runtime pairing. Per spec section 4.6 Phase B, the
// devname hint is left in place as a historical clue even though the
// identifier itself is cleared.
func (e *Entry) Unbind() {
	e.Dev = nil
	if e.IDKind == identity.KindDevname {
		e.IDValue = ""
	}
}

// Key returns the tuple invariant I3 requires to be unique across the
// registry: (id_kind, id_value, partition).
type Key struct {
	Kind      identity.Kind
	Value     string
	Partition int
}

// Key returns e's uniqueness key.
func (e *Entry) Key() Key {
	return Key{Kind: e.IDKind, Value: e.IDValue, Partition: e.Partition}
}
