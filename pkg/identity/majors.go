package identity

// MajorTable resolves which kernel major numbers back which device
// subsystem. The real numbers vary by kernel build (DM and loop majors
// in particular are allocated dynamically via /proc/devices); callers
// populate a MajorTable once per invocation instead of this package
// hardcoding assumptions that don't hold on every host.
type MajorTable struct {
	DM    int
	MD    int
	Loop  int
	DRBD  int
	SCSI  map[int]bool
	NVMe  map[int]bool
}

// DefaultMajorTable returns the conventional major numbers seen on most
// modern Linux distributions. It is a starting point for tests and for
// hosts where /proc/devices hasn't been consulted yet, not a guarantee.
func DefaultMajorTable() MajorTable {
	return MajorTable{
		DM:   253,
		MD:   9,
		Loop: 7,
		DRBD: 147,
		SCSI: map[int]bool{8: true, 65: true, 66: true, 67: true, 68: true, 69: true, 70: true, 71: true},
		NVMe: map[int]bool{259: true},
	}
}

// IsSCSIOrNVMe reports whether major belongs to a SCSI or NVMe disk
// class, the only classes the Multipath Oracle's sysfs-holders evidence
// path is attempted against.
func (t MajorTable) IsSCSIOrNVMe(major int) bool {
	return t.SCSI[major] || t.NVMe[major]
}
