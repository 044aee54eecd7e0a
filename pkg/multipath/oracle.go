package multipath

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/openlvm/devid/pkg/event"
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/sysfs"
)

// Oracle decides whether a block device is a multipath component and
// must be hidden from the rest of the Device Identity Subsystem
// (spec.md §4.3). It fuses three independent evidence sources; any one
// of them returning positive is enough ("any positive is positive").
type Oracle struct {
	reader *sysfs.Reader
	majors identity.MajorTable
	wwids  *WWIDSet
	events event.Provider

	mu          sync.Mutex
	holderCache map[int]bool // DM minor -> is-multipath, memoised per invocation
}

// NewOracle builds an Oracle. wwids and events may be nil; a nil wwids
// set is treated as empty, a nil events provider as event.NoOp{}.
func NewOracle(reader *sysfs.Reader, majors identity.MajorTable, wwids *WWIDSet, events event.Provider) *Oracle {
	if wwids == nil {
		wwids = NewWWIDSet()
	}
	if events == nil {
		events = event.NoOp{}
	}
	return &Oracle{
		reader:      reader,
		majors:      majors,
		wwids:       wwids,
		events:      events,
		holderCache: map[int]bool{},
	}
}

// IsComponent reports whether dev is a leg of a multipath aggregate.
func (o *Oracle) IsComponent(dev *identity.Dev) bool {
	if o.events.IsMultipathComponent(dev.Major, dev.Minor) {
		return true
	}
	if o.wwidEvidence(dev) {
		return true
	}
	return o.sysfsHoldersEvidence(dev)
}

// wwidEvidence checks dev's sys_wwid identifier, if already probed,
// against the effective multipath exclusion set.
func (o *Oracle) wwidEvidence(dev *identity.Dev) bool {
	id, ok := dev.IdOfKind(identity.KindSysWWID)
	if !ok || id.Absent {
		return false
	}
	wwid := StripTypestrPrefix(id.Value)
	return o.wwids.Excluded(wwid)
}

// sysfsHoldersEvidence walks /sys/block/<primary>/holders/ for SCSI/NVMe
// devices only (spec.md §4.3): a device is a multipath component if any
// holder is a device-mapper node whose dm/uuid begins with "mpath-".
// Results are memoised by the holder's DM minor number, since the same
// dm-N target is typically consulted once per leg it aggregates.
func (o *Oracle) sysfsHoldersEvidence(dev *identity.Dev) bool {
	if !o.majors.IsSCSIOrNVMe(dev.Major) {
		return false
	}
	primaryName, ok := o.reader.BlockName(dev.Major, dev.Minor)
	if !ok {
		return false
	}
	if dev.Partition > 0 {
		// A partition's dev/block link points at .../block/<primary>/<part>.
		link := filepath.Join(o.reader.Root, "dev", "block", fmt.Sprintf("%d:%d", dev.Major, dev.Minor))
		target, err := os.Readlink(link)
		if err != nil {
			return false
		}
		primaryName = filepath.Base(filepath.Dir(target))
	}
	holders, ok := o.reader.ListHolders(primaryName)
	if !ok {
		return false
	}
	for _, holder := range holders {
		hMajor, hMinor, ok := o.reader.BlockDevNumbers(holder)
		if !ok || hMajor != o.majors.DM {
			continue
		}
		if isMPath, cached := o.cachedHolder(hMinor); cached {
			if isMPath {
				return true
			}
			continue
		}
		uuid, _ := o.reader.ReadBlockAttr(holder, "dm/uuid")
		isMPath := hasMpathPrefix(uuid)
		o.setCachedHolder(hMinor, isMPath)
		if isMPath {
			return true
		}
	}
	return false
}

func hasMpathPrefix(uuid string) bool {
	const prefix = "mpath-"
	return len(uuid) >= len(prefix) && uuid[:len(prefix)] == prefix
}

func (o *Oracle) cachedHolder(minor int) (isMPath, cached bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.holderCache[minor]
	return v, ok
}

func (o *Oracle) setCachedHolder(minor int, isMPath bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.holderCache[minor] = isMPath
}
