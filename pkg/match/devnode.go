package match

import "syscall"

// statDevNodeMajorMinor resolves the device node at path to the
// major:minor pair the kernel assigned it, decoded from st_rdev using
// the same bit layout as glibc's gnu_dev_major/gnu_dev_minor macros.
// Used only by the DM device-node equivalence rule in bind(): when a
// registry entry's id_value is itself a /dev/dm-N or /dev/mapper/...
// path rather than a dm/uuid value, stat-ing it is the only way to
// learn which major:minor it names.
func statDevNodeMajorMinor(path string) (major, minor int, ok bool) {
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		return 0, 0, false
	}
	rdev := uint64(st.Rdev)
	major = int((rdev >> 8) & 0xfff)
	major |= int((rdev >> 32) & 0xfffff000)
	minor = int(rdev & 0xff)
	minor |= int((rdev >> 12) & 0xffffff00)
	return major, minor, true
}
