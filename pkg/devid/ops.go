package devid

import (
	"fmt"

	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/metrics"
	"github.com/openlvm/devid/pkg/registry"
)

// AddDevice chooses a stable identifier for dev (falling back to
// devname per the Identity Probe's priority order) and adds a new
// registry entry for it. It requires ctx.File to already be loaded
// under an exclusive lock (spec.md §5, "mutating commands").
func (ctx *DisContext) AddDevice(dev *identity.Dev) (*registry.Entry, error) {
	id, err := ctx.probe.ChooseID(dev, identity.KindUnknown)
	if err != nil {
		return nil, fmt.Errorf("devid: choose identifier for %s: %w", dev.PrimaryAlias, err)
	}

	e := &registry.Entry{
		IDKind:      id.Kind,
		IDValue:     id.Value,
		DevnameHint: dev.PrimaryAlias,
		Partition:   dev.Partition,
		Dev:         dev,
	}
	if err := ctx.File.Add(e); err != nil {
		return nil, err
	}
	dev.MatchedRegistry = true
	return e, nil
}

// RemoveDevice deletes the registry entry matching key, reporting
// whether one was found.
func (ctx *DisContext) RemoveDevice(key registry.Key) bool {
	return ctx.File.Remove(key)
}

// Persist writes ctx.File under the exclusive lock this context
// already holds (spec.md §5: mutating commands write before releasing
// the lock they acquired to load).
func (ctx *DisContext) Persist() error {
	if err := ctx.File.Write(); err != nil {
		metrics.RecordRegistryWrite("error")
		return fmt.Errorf("devid: persist registry: %w", err)
	}
	metrics.RecordRegistryWrite("ok")
	return nil
}

// Import adds every device in devs that isn't already claimed by an
// existing entry, matching the "import" subcommand's bulk-admit
// behaviour. It returns the entries created.
func (ctx *DisContext) Import(devs []*identity.Dev) ([]*registry.Entry, error) {
	var unbound []*registry.Entry
	for _, e := range ctx.File.Entries {
		if !e.Bound() {
			unbound = append(unbound, e)
		}
	}
	ctx.matcher.MatchAll(unbound, devs)

	var added []*registry.Entry
	for _, d := range devs {
		if d.MatchedRegistry {
			continue
		}
		e, err := ctx.AddDevice(d)
		if err != nil {
			return added, err
		}
		added = append(added, e)
	}
	return added, nil
}
