// Package registry implements the Registry Store: the persistent
// on-disk devices file listing the block devices a volume manager
// invocation is allowed to use, its header, its atomic rewrite, and the
// advisory whole-file lock that coordinates concurrent invocations.
package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openlvm/devid/pkg/identity"
	"k8s.io/klog/v2"
)

// codeMinor is this implementation's own minor version, written into
// every file this code produces.
const codeMinor = 1

const preamble = "# devid devices file\n# This file is automatically maintained.\n"

// File is an in-memory copy of a devices file: its header fields and
// ordered entry list.
//
//nolint:govet // fieldalignment: field order optimized for readability over memory layout
type File struct {
	Path     string
	SystemID string
	Version  Version
	Entries  []*Entry

	// Invalid is set by a caller (typically the Validator) on detecting
	// an internal invariant violation. When true, Write refuses,
	// matching spec section 7's "suppresses writing derived hint files
	// for this invocation."
	Invalid bool

	// versionParseErr holds the reason the on-disk VERSION line could
	// not be parsed (non-numeric, or major newer than this code). A
	// non-nil value prevents Write: the read itself is still permitted
	// (spec section 4.4/7, "parse-refusal ... permits read").
	versionParseErr error
}

// HostSystemID identifies the host this process runs on, compared
// against a loaded file's SYSTEMID header (spec section 4.4).
var HostSystemID = func() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}

// Read loads a devices file from path. A missing file is not an error:
// it returns an empty File ready to be populated and written for the
// first time, matching the Registry Store's role as the source of truth
// that comes into existence on first use.
func Read(path string) (*File, error) {
	f := &File{Path: path, Version: Version{Major: 1, Minor: codeMinor, Counter: 0}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "SYSTEMID="):
			f.SystemID = strings.TrimPrefix(line, "SYSTEMID=")
		case strings.HasPrefix(line, "VERSION="):
			v, verr := ParseVersion(strings.TrimPrefix(line, "VERSION="))
			if verr != nil {
				klog.Warningf("Devices file %s: %v", path, verr)
				f.versionParseErr = verr
				continue
			}
			f.Version = v
		default:
			entry, ok := parseEntryLine(line)
			if ok {
				f.Entries = append(f.Entries, entry)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("registry: scan %s: %w", path, err)
	}

	if f.SystemID != "" && f.SystemID != HostSystemID() {
		klog.Warningf("WARNING: devices file %s SYSTEMID %q does not match this host (%q)", path, f.SystemID, HostSystemID())
	}

	return f, nil
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// parseEntryLine extracts IDTYPE, IDNAME, DEVNAME, PVID, PART from a
// record line by locating each "KEY=" substring and reading up to the
// next whitespace, per spec section 4.4 ("order irrelevant"). A line
// missing both IDTYPE and IDNAME is skipped.
func parseEntryLine(line string) (*Entry, bool) {
	idtype, hasType := extractField(line, "IDTYPE=")
	idname, hasName := extractField(line, "IDNAME=")
	if !hasType && !hasName {
		return nil, false
	}
	devname, _ := extractField(line, "DEVNAME=")
	pvid, _ := extractField(line, "PVID=")
	partStr, hasPart := extractField(line, "PART=")

	e := &Entry{
		IDKind:      identity.KindFromString(idtype),
		IDValue:     valueOrEmpty(idname),
		DevnameHint: valueOrEmpty(devname),
		PVID:        valueOrEmpty(pvid),
	}
	if hasPart {
		var part int
		if _, err := fmt.Sscanf(partStr, "%d", &part); err == nil {
			e.Partition = part
		}
	}
	return e, true
}

func valueOrEmpty(v string) string {
	if v == "." {
		return ""
	}
	return v
}

// extractField finds key (e.g. "IDTYPE=") in line and returns the
// substring up to the next whitespace.
func extractField(line, key string) (string, bool) {
	idx := strings.Index(line, key)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(key):]
	end := strings.IndexFunc(rest, func(r rune) bool { return r == ' ' || r == '\t' })
	if end < 0 {
		end = len(rest)
	}
	return rest[:end], true
}

// VersionUnchanged re-opens the file on disk and compares only its
// VERSION line, byte for byte, against f's in-memory version. Used by
// the opportunistic-update path (spec section 4.4) to detect that
// another process wrote the file since f was loaded.
func (f *File) VersionUnchanged() (bool, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return f.Version.Counter == 0, nil
		}
		return false, fmt.Errorf("registry: read %s: %w", f.Path, err)
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if strings.HasPrefix(line, "VERSION=") {
			onDisk := strings.TrimPrefix(line, "VERSION=")
			return onDisk == f.Version.String(), nil
		}
	}
	return false, nil
}

// Write atomically replaces the devices file: write to "<path>_new",
// fsync and close it, rename over the target, then fsync the containing
// directory (spec section 4.4). The in-memory VERSION is only updated on
// success (invariant I6).
func (f *File) Write() error {
	if f.Invalid {
		return fmt.Errorf("registry: refusing to write %s: invalid state from a prior pass", f.Path)
	}
	if f.versionParseErr != nil {
		return fmt.Errorf("registry: refusing to write %s: %w", f.Path, f.versionParseErr)
	}

	next := f.Version.Next()

	tmpPath := f.Path + "_new"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("registry: create %s: %w", tmpPath, err)
	}

	w := bufio.NewWriter(file)
	fmt.Fprint(w, preamble)
	if f.SystemID != "" {
		fmt.Fprintf(w, "SYSTEMID=%s\n", f.SystemID)
	}
	fmt.Fprintf(w, "VERSION=%s\n", next.String())
	for _, e := range f.Entries {
		fmt.Fprintln(w, encodeEntryLine(e))
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("registry: write %s: %w", tmpPath, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("registry: fsync %s: %w", tmpPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("registry: close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("registry: rename %s to %s: %w", tmpPath, f.Path, err)
	}

	if err := fsyncDir(filepath.Dir(f.Path)); err != nil {
		klog.Warningf("registry: fsync directory for %s: %v", f.Path, err)
	}

	f.Version = next
	return nil
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func encodeEntryLine(e *Entry) string {
	pvid := e.PVID
	if pvid == "" {
		pvid = "."
	}
	idname := e.IDValue
	if idname == "" {
		idname = "."
	}
	devname := e.DevnameHint
	if devname == "" {
		devname = "."
	}
	line := fmt.Sprintf("IDTYPE=%s IDNAME=%s DEVNAME=%s PVID=%s", e.IDKind.String(), idname, devname, pvid)
	if e.Partition != 0 {
		line += fmt.Sprintf(" PART=%d", e.Partition)
	}
	return line
}

// FindByKey returns the entry matching key, if any.
func (f *File) FindByKey(k Key) (*Entry, bool) {
	for _, e := range f.Entries {
		if e.Key() == k {
			return e, true
		}
	}
	return nil, false
}

// Add appends e to the registry, after checking invariant I3 (no two
// entries may share the same (kind, value, partition) key).
func (f *File) Add(e *Entry) error {
	if _, exists := f.FindByKey(e.Key()); exists {
		return fmt.Errorf("registry: entry with key %+v already present", e.Key())
	}
	f.Entries = append(f.Entries, e)
	return nil
}

// Remove deletes the entry matching key, reporting whether one was
// found.
func (f *File) Remove(k Key) bool {
	for i, e := range f.Entries {
		if e.Key() == k {
			f.Entries = append(f.Entries[:i], f.Entries[i+1:]...)
			return true
		}
	}
	return false
}
