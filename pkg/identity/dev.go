package identity

// PVIDStatus tracks whether a device's on-disk label has been read this
// invocation, distinguishing "never tried" from "tried and found nothing".
// It does not gate later reads: the Validator's Phase C reads the label of
// every candidate device again, whatever its status, and updates it.
type PVIDStatus int

const (
	PVIDUnscanned PVIDStatus = iota
	PVIDScanned
	PVIDScanFailed
)

// FilterReason is a bit in Dev.FilteredMask identifying why a filter
// stage rejected a device.
type FilterReason uint32

const (
	FilterNone FilterReason = 0
	// FilterMultipathComponent marks a device hidden because the
	// Multipath Oracle judged it a leg of an aggregate device.
	FilterMultipathComponent FilterReason = 1 << iota
	// FilterNotApproved marks a device with no matching registry entry.
	FilterNotApproved
	// FilterUnreadable marks a device the Sysfs Reader could not reach.
	FilterUnreadable
)

// Dev is the runtime handle for one block device for the duration of a
// single invocation. Its Ids slice is an arena: Matcher and Validator
// code holds indexes into it (ChosenID) rather than copies, so a single
// probed Id is never duplicated across the Dev's lifetime.
//
//nolint:govet // fieldalignment: field order optimized for readability over memory layout
type Dev struct {
	Major         int
	Minor         int
	Partition     int // 0 for a whole disk
	Aliases       []string
	PrimaryAlias  string // Aliases[0] once chosen; kept separate so callers can read it without an index check
	Ids           []Id
	ChosenID      int // index into Ids, -1 until ChooseID runs
	PVID          string
	PVIDStatus    PVIDStatus
	FilteredMask  FilterReason
	MatchedRegistry bool
}

// NewDev builds a Dev with its identifier arena initialised and no chosen
// identifier yet.
func NewDev(major, minor, partition int, aliases []string) *Dev {
	primary := ""
	if len(aliases) > 0 {
		primary = aliases[0]
	}
	return &Dev{
		Major:        major,
		Minor:        minor,
		Partition:    partition,
		Aliases:      aliases,
		PrimaryAlias: primary,
		Ids:          nil,
		ChosenID:     -1,
	}
}

// Filtered reports whether any filter stage has rejected this device.
func (d *Dev) Filtered() bool {
	return d.FilteredMask != FilterNone
}

// MarkFiltered ORs a reason into the device's filtered-reasons bitfield.
func (d *Dev) MarkFiltered(reason FilterReason) {
	d.FilteredMask |= reason
}

// IdOfKind returns the Id of the given kind if this Dev has already
// probed it (present or absent), and whether it was found at all.
func (d *Dev) IdOfKind(k Kind) (Id, bool) {
	for _, id := range d.Ids {
		if id.Kind == k {
			return id, true
		}
	}
	return Id{}, false
}

// AddId appends a newly probed identifier, enforcing invariant I1 (at
// most one Id per kind per Dev) by replacing any existing entry of the
// same kind instead of duplicating it.
func (d *Dev) AddId(id Id) {
	for i := range d.Ids {
		if d.Ids[i].Kind == id.Kind {
			d.Ids[i] = id
			return
		}
	}
	d.Ids = append(d.Ids, id)
}

// Chosen returns the device's chosen identifier and whether one has been
// selected yet.
func (d *Dev) Chosen() (Id, bool) {
	if d.ChosenID < 0 || d.ChosenID >= len(d.Ids) {
		return Id{}, false
	}
	return d.Ids[d.ChosenID], true
}

// SetChosen records the index of id within d.Ids as the chosen
// identifier, appending it first if it isn't already present. Enforces
// invariant I2 (devname is never chosen while a stable kind is present)
// at the call site in Probe.ChooseID, not here — this is a pure setter.
func (d *Dev) SetChosen(id Id) {
	for i := range d.Ids {
		if d.Ids[i].Kind == id.Kind {
			d.Ids[i] = id
			d.ChosenID = i
			return
		}
	}
	d.Ids = append(d.Ids, id)
	d.ChosenID = len(d.Ids) - 1
}
