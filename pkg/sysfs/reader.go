// Package sysfs reads attributes from the kernel's device information
// tree. It is a pure I/O layer: no caching, no interpretation of the
// values it returns beyond the whitespace/NUL normalisation the kernel
// interface itself requires.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// DefaultRoot is the real kernel sysfs mount point. Tests override Reader.Root
// to point at a fixture tree instead.
const DefaultRoot = "/sys"

// Reader reads block device attributes under a sysfs root. The zero value
// is not usable; construct with NewReader.
type Reader struct {
	Root string
}

// NewReader returns a Reader rooted at root, or at DefaultRoot if root is
// empty.
func NewReader(root string) *Reader {
	if root == "" {
		root = DefaultRoot
	}
	return &Reader{Root: root}
}

// blockDir returns the sysfs directory for major:minor, e.g.
// <root>/dev/block/8:0.
func (r *Reader) blockDir(major, minor int) string {
	return filepath.Join(r.Root, "dev", "block", fmt.Sprintf("%d:%d", major, minor))
}

// ReadAttr reads <root>/dev/block/<major>:<minor>/<suffix>. If that read
// fails and the device is a partition (partition != 0), it retries
// against the partition's primary whole-disk device, which primaryOf
// finds by following the partition's dev/block/<major>:<minor> symlink
// and reading the "dev" file of the directory it sits in.
//
// A successful read of an empty file is reported as ("", true): absent,
// not failed. A read that errors (ENOENT, EACCES, ...) is reported as
// ("", false): the Identity Probe treats both the same way.
func (r *Reader) ReadAttr(major, minor, partition int, suffix string) (string, bool) {
	val, ok := r.readOnce(major, minor, suffix)
	if ok {
		return val, true
	}
	if partition == 0 {
		return "", false
	}
	pmajor, pminor, ok := r.primaryOf(major, minor)
	if !ok {
		return "", false
	}
	return r.readOnce(pmajor, pminor, suffix)
}

func (r *Reader) readOnce(major, minor int, suffix string) (string, bool) {
	path := filepath.Join(r.blockDir(major, minor), suffix)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			klog.V(4).Infof("sysfs: read %s: %v", path, err)
		}
		return "", false
	}
	return normalize(data), true
}

// normalize strips the trailing newline and any NUL bytes the kernel may
// have padded the attribute with, and reports "absent" for an
// all-whitespace read.
func normalize(data []byte) string {
	s := strings.TrimRight(string(data), "\x00")
	s = strings.TrimRight(s, "\n")
	return strings.TrimSpace(s)
}

// primaryOf resolves a partition's primary whole-disk major:minor by
// following its dev/block/<major>:<minor> symlink to the parent block
// device. A device that is not a partition, or whose primary can't be
// resolved, reports ok=false.
func (r *Reader) primaryOf(major, minor int) (int, int, bool) {
	dir := r.blockDir(major, minor)
	// Under /sys/dev/block/<M>:<m>, a partition is a symlink into
	// .../block/<primary>/<partname>; its parent directory's "dev" file
	// holds the primary device's own major:minor.
	target, err := os.Readlink(dir)
	if err != nil {
		klog.V(4).Infof("sysfs: readlink %s: %v", dir, err)
		return 0, 0, false
	}
	parent := filepath.Dir(filepath.Join(filepath.Dir(dir), target))
	devFile := filepath.Join(parent, "dev")
	raw, err := os.ReadFile(devFile)
	if err != nil {
		return 0, 0, false
	}
	return parseMajorMinor(normalize(raw))
}

func parseMajorMinor(s string) (int, int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	maj, err1 := strconv.Atoi(parts[0])
	min, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return maj, min, true
}

// BlockName returns the sysfs leaf name (e.g. "sda", "dm-3") for a
// major:minor pair, used to build /sys/block/<name>/... paths that the
// Multipath Oracle needs (holders/, slaves/) which are not addressed via
// dev/block/<M>:<m>.
func (r *Reader) BlockName(major, minor int) (string, bool) {
	dir := r.blockDir(major, minor)
	target, err := os.Readlink(dir)
	if err != nil {
		return "", false
	}
	return filepath.Base(target), true
}

// ListHolders returns the names of the entries under
// /sys/block/<name>/holders/, the kernel's record of which higher-level
// devices (typically device-mapper targets) are built on top of name.
func (r *Reader) ListHolders(name string) ([]string, bool) {
	dir := filepath.Join(r.Root, "block", name, "holders")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, true
}

// BlockDevNumbers reads /sys/block/<name>/dev and parses it as
// "major:minor".
func (r *Reader) BlockDevNumbers(name string) (int, int, bool) {
	raw, err := os.ReadFile(filepath.Join(r.Root, "block", name, "dev"))
	if err != nil {
		return 0, 0, false
	}
	return parseMajorMinor(normalize(raw))
}

// ReadBlockAttr reads /sys/block/<name>/<suffix> directly, for callers
// that already have a sysfs leaf name (e.g. from ListHolders) rather
// than a major:minor pair.
func (r *Reader) ReadBlockAttr(name, suffix string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(r.Root, "block", name, suffix))
	if err != nil {
		return "", false
	}
	return normalize(data), true
}
