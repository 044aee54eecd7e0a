package match

import "github.com/openlvm/devid/pkg/identity"

// kindCompatibleWithMajor implements the Matcher's major-number
// compatibility table (spec.md §4.5): devname is universal; the three
// DM-backed kinds require the DM major; md_uuid requires the MD major;
// loop_file requires the loop major; a device whose major belongs to
// DM, MD, or loop may only ever carry its corresponding stable kind or
// devname — a mpath_uuid entry can never bind to an MD device, etc.
func kindCompatibleWithMajor(kind identity.Kind, major int, majors identity.MajorTable) bool {
	if kind == identity.KindDevname {
		return true
	}

	switch major {
	case majors.DM:
		switch kind {
		case identity.KindMpathUUID, identity.KindCryptUUID, identity.KindLVMLVUUID:
			return true
		default:
			return false
		}
	case majors.MD:
		return kind == identity.KindMDUUID
	case majors.Loop:
		return kind == identity.KindLoopFile
	default:
		// sys_wwid and sys_serial are only ever implied on non-stacked
		// majors; mpath_uuid/crypt_uuid/lvmlv_uuid/md_uuid/loop_file
		// cannot apply to a plain SCSI/NVMe major either.
		switch kind {
		case identity.KindMpathUUID, identity.KindCryptUUID, identity.KindLVMLVUUID,
			identity.KindMDUUID, identity.KindLoopFile:
			return false
		default:
			return true
		}
	}
}
