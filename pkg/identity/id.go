// Package identity models device identifiers and the probes that produce
// them: the typed (kind, value) pairs a device can be recognised by, and
// the in-memory handle for a live block device that accumulates them.
package identity

import (
	"strings"
)

// Kind discriminates the source of an identifier. Every Kind other than
// KindDevname is a stable identifier: it survives reboots and /dev
// renumbering.
type Kind int

// The closed set of identifier kinds the subsystem understands. Keep this
// in sync with String and with the major-number compatibility table in
// pkg/match — a Kind added here without matching entries there is a
// latent bug, not a supported extension.
const (
	KindUnknown Kind = iota
	KindSysWWID
	KindSysSerial
	KindMpathUUID
	KindCryptUUID
	KindLVMLVUUID
	KindMDUUID
	KindLoopFile
	KindDevname
)

// String renders a Kind using the registry file's on-disk token, so
// fmt.Sprintf("%s", kind) and the registry file grammar never drift apart.
func (k Kind) String() string {
	switch k {
	case KindSysWWID:
		return "sys_wwid"
	case KindSysSerial:
		return "sys_serial"
	case KindMpathUUID:
		return "mpath_uuid"
	case KindCryptUUID:
		return "crypt_uuid"
	case KindLVMLVUUID:
		return "lvmlv_uuid"
	case KindMDUUID:
		return "md_uuid"
	case KindLoopFile:
		return "loop_file"
	case KindDevname:
		return "devname"
	default:
		return "unknown"
	}
}

// Stable reports whether the kind is trustworthy without PVID
// corroboration. KindDevname is the only unstable kind.
func (k Kind) Stable() bool {
	return k != KindDevname && k != KindUnknown
}

// KindFromString parses the on-disk token back into a Kind. It returns
// KindUnknown for anything it doesn't recognise rather than an error, so
// a registry line with a bad IDTYPE is not fatal to the whole read; the
// registry parser keeps such a line as an entry of KindUnknown.
func KindFromString(s string) Kind {
	switch s {
	case "sys_wwid":
		return KindSysWWID
	case "sys_serial":
		return KindSysSerial
	case "mpath_uuid":
		return KindMpathUUID
	case "crypt_uuid":
		return KindCryptUUID
	case "lvmlv_uuid":
		return KindLVMLVUUID
	case "md_uuid":
		return KindMDUUID
	case "loop_file":
		return KindLoopFile
	case "devname":
		return KindDevname
	default:
		return KindUnknown
	}
}

// Id is a single (kind, value) identifier probed from, or recorded
// against, a device. Absent is true for a kind that was probed and came
// back empty — distinct from a kind that was never probed at all, so the
// matcher doesn't re-probe a kind it already knows is absent.
type Id struct {
	Value  string
	Kind   Kind
	Absent bool
}

// Sanitize replaces whitespace and control characters with "_", the
// normalisation every probed or persisted identifier value goes through
// (spec section 4.2). It never returns an empty string for a non-empty
// input unless the input was entirely blank.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= ' ' || r == 0x7f {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
