package identity

import (
	"errors"
	"strings"

	"github.com/openlvm/devid/pkg/sysfs"
	"k8s.io/klog/v2"
)

// qemuWWIDBanner is the literal substring QEMU's emulated SCSI disk
// reports as its page-0x83 WWID; a device reporting it has no real WWID,
// so sys_wwid must reject it (spec boundary B3) while still leaving
// sys_serial eligible on the same device.
const qemuWWIDBanner = "QEMU HARDDISK"

// deletedSuffix marks a loop device whose backing file has been removed;
// such a device must fall back to devname (spec boundary B4).
const deletedSuffix = "(deleted)"

// ErrUnsupportedMajor is returned by ChooseID when a device's major
// number belongs to a subsystem the probe has no identifier kind for
// (currently: DRBD). The original C implementation silently produced no
// identifier for this case; spec.md section 9 calls that out as a gap
// the reimplementation should resolve by erroring explicitly instead.
var ErrUnsupportedMajor = errors.New("identity: no identifier kind for this device's major number")

// Probe reads device identifiers from sysfs.
type Probe struct {
	Reader *sysfs.Reader
	Majors MajorTable
}

// NewProbe builds a Probe over reader using majors to interpret major
// numbers.
func NewProbe(reader *sysfs.Reader, majors MajorTable) *Probe {
	return &Probe{Reader: reader, Majors: majors}
}

// ProbeKind produces the Id of the given kind for dev, or an absent Id if
// the kind doesn't apply or the backing sysfs attribute is empty/missing.
// It never returns an error: absent-data is never fatal at this layer
// (spec section 7).
func (p *Probe) ProbeKind(d *Dev, kind Kind) Id {
	if existing, ok := d.IdOfKind(kind); ok {
		return existing
	}
	id := p.probeUncached(d, kind)
	d.AddId(id)
	return id
}

func (p *Probe) probeUncached(d *Dev, kind Kind) Id {
	switch kind {
	case KindSysWWID:
		return p.probeSysWWID(d)
	case KindSysSerial:
		return p.probeAttr(d, kind, "device/serial")
	case KindMpathUUID:
		return p.probeDMUUID(d, kind, "mpath-")
	case KindCryptUUID:
		return p.probeDMUUID(d, kind, "CRYPT-")
	case KindLVMLVUUID:
		return p.probeDMUUID(d, kind, "LVM-")
	case KindMDUUID:
		return p.probeAttr(d, kind, "md/uuid")
	case KindLoopFile:
		return p.probeLoopFile(d)
	case KindDevname:
		return p.probeDevname(d)
	default:
		return Id{Kind: kind, Absent: true}
	}
}

func (p *Probe) probeAttr(d *Dev, kind Kind, suffix string) Id {
	val, ok := p.Reader.ReadAttr(d.Major, d.Minor, d.Partition, suffix)
	val = Sanitize(val)
	if !ok || val == "" {
		return Id{Kind: kind, Absent: true}
	}
	return Id{Kind: kind, Value: val}
}

// probeSysWWID reads device/wwid, then wwid, rejecting a QEMU emulated
// disk banner per spec boundary B3.
func (p *Probe) probeSysWWID(d *Dev) Id {
	for _, suffix := range []string{"device/wwid", "wwid"} {
		val, ok := p.Reader.ReadAttr(d.Major, d.Minor, d.Partition, suffix)
		if !ok {
			continue
		}
		if strings.Contains(val, qemuWWIDBanner) {
			klog.V(4).Infof("identity: rejecting QEMU emulated-disk wwid on %s", d.PrimaryAlias)
			continue
		}
		val = Sanitize(val)
		if val != "" {
			return Id{Kind: KindSysWWID, Value: val}
		}
	}
	return Id{Kind: KindSysWWID, Absent: true}
}

// probeDMUUID reads dm/uuid and accepts it only if it carries the given
// prefix (or, for a partition, "partN-"+prefix).
func (p *Probe) probeDMUUID(d *Dev, kind Kind, prefix string) Id {
	val, ok := p.Reader.ReadAttr(d.Major, d.Minor, d.Partition, "dm/uuid")
	if !ok {
		return Id{Kind: kind, Absent: true}
	}
	matches := strings.HasPrefix(val, prefix)
	if !matches && d.Partition > 0 {
		// partN-mpath-... form
		if idx := strings.Index(val, "-"+prefix); idx > 0 && strings.HasPrefix(val[:idx], "part") {
			matches = true
			val = val[idx+1:]
		}
	}
	if !matches {
		return Id{Kind: kind, Absent: true}
	}
	val = Sanitize(val)
	if val == "" {
		return Id{Kind: kind, Absent: true}
	}
	return Id{Kind: kind, Value: val}
}

// probeLoopFile reads loop/backing_file, rejecting a deleted backing
// file per spec boundary B4.
func (p *Probe) probeLoopFile(d *Dev) Id {
	val, ok := p.Reader.ReadAttr(d.Major, d.Minor, d.Partition, "loop/backing_file")
	if !ok || val == "" {
		return Id{Kind: KindLoopFile, Absent: true}
	}
	if strings.HasSuffix(val, deletedSuffix) {
		klog.V(4).Infof("identity: loop backing file deleted, falling back to devname: %s", val)
		return Id{Kind: KindLoopFile, Absent: true}
	}
	val = Sanitize(val)
	if val == "" {
		return Id{Kind: KindLoopFile, Absent: true}
	}
	return Id{Kind: KindLoopFile, Value: val}
}

// probeDevname always succeeds if the device has at least one path
// alias; it is the only kind guaranteed non-absent.
func (p *Probe) probeDevname(d *Dev) Id {
	if d.PrimaryAlias == "" {
		return Id{Kind: KindDevname, Absent: true}
	}
	return Id{Kind: KindDevname, Value: Sanitize(d.PrimaryAlias)}
}

// ChooseID selects dev's identifier per the priority order in spec
// section 4.2: an explicit override, then the kind implied by the
// device's major number, then sys_wwid, then sys_serial, then devname.
// It enforces invariant I2: devname is never chosen while any stable
// kind is present and non-absent on the device.
func (p *Probe) ChooseID(d *Dev, override Kind) (Id, error) {
	if override != KindUnknown {
		id := p.ProbeKind(d, override)
		if !id.Absent {
			d.SetChosen(id)
			return id, nil
		}
	}

	if kind, ok := p.impliedByMajor(d); ok {
		if kind == KindUnknown {
			return Id{}, ErrUnsupportedMajor
		}
		id := p.ProbeKind(d, kind)
		if !id.Absent {
			d.SetChosen(id)
			return id, nil
		}
	}

	for _, kind := range []Kind{KindSysWWID, KindSysSerial} {
		id := p.ProbeKind(d, kind)
		if !id.Absent {
			d.SetChosen(id)
			return id, nil
		}
	}

	id := p.ProbeKind(d, KindDevname)
	d.SetChosen(id)
	return id, nil
}

// impliedByMajor returns the identifier kind implied by dev's major
// number and whether the major is one this probe has an opinion about.
// A true, KindUnknown result means the major is recognised but
// unsupported (DRBD); the caller turns that into ErrUnsupportedMajor.
func (p *Probe) impliedByMajor(d *Dev) (Kind, bool) {
	switch {
	case d.Major == p.Majors.DM:
		// The specific DM subtype is determined by dm/uuid's prefix;
		// probeDMUUID rejects the wrong prefix, so trying mpath, then
		// crypt, then lvmlv and taking the first hit is equivalent to
		// reading the prefix directly.
		for _, kind := range []Kind{KindMpathUUID, KindCryptUUID, KindLVMLVUUID} {
			id := p.ProbeKind(d, kind)
			if !id.Absent {
				return kind, true
			}
		}
		// DM device with no recognised dm/uuid prefix (e.g. dm-raid,
		// dm-snapshot): no opinion, fall through to sys_wwid/devname.
		return KindUnknown, false
	case d.Major == p.Majors.MD:
		return KindMDUUID, true
	case d.Major == p.Majors.Loop:
		return KindLoopFile, true
	case d.Major == p.Majors.DRBD:
		return KindUnknown, true
	default:
		return KindUnknown, false
	}
}
