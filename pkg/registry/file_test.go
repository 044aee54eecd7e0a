package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openlvm/devid/pkg/identity"
)

func TestRoundTripTwoEntryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.devices")
	content := "SYSTEMID=hostA\nVERSION=1.1.5\n" +
		"IDTYPE=sys_wwid IDNAME=naa.5000abcd DEVNAME=/dev/sda PVID=aaaaaaaaaaaaaaaa\n" +
		"IDTYPE=devname IDNAME=/dev/sdb DEVNAME=/dev/sdb PVID=bbbbbbbbbbbbbbbb\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	orig := HostSystemID
	HostSystemID = func() string { return "hostA" }
	defer func() { HostSystemID = orig }()

	f, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(f.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(f.Entries))
	}
	if f.Version != (Version{1, 1, 5}) {
		t.Fatalf("Version = %+v, want 1.1.5", f.Version)
	}

	if err := f.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if f.Version != (Version{1, 1, 6}) {
		t.Fatalf("Version after write = %+v, want 1.1.6", f.Version)
	}

	reread, err := Read(path)
	if err != nil {
		t.Fatalf("Read after write: %v", err)
	}
	if len(reread.Entries) != 2 {
		t.Fatalf("len(Entries) after round trip = %d, want 2", len(reread.Entries))
	}
	for i, e := range reread.Entries {
		want := f.Entries[i]
		if e.IDKind != want.IDKind || e.IDValue != want.IDValue || e.DevnameHint != want.DevnameHint || e.PVID != want.PVID {
			t.Fatalf("entry %d round trip mismatch: got %+v, want %+v", i, e, want)
		}
	}
}

func TestReadMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.devices")
	f, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(f.Entries) != 0 {
		t.Fatalf("len(Entries) = %d, want 0", len(f.Entries))
	}
}

func TestWriteRefusesOnUnparseableVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.devices")
	content := "VERSION=garbage\nIDTYPE=devname IDNAME=/dev/sda DEVNAME=/dev/sda PVID=.\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := Read(path)
	if err != nil {
		t.Fatalf("Read should succeed despite an unparseable VERSION: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.Write(); err == nil {
		t.Fatal("Write should refuse when the on-disk VERSION was unparseable")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("refused write must leave the original file untouched")
	}
}

func TestVersionUnchangedDetectsConcurrentWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.devices")

	f, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Write(); err != nil {
		t.Fatal(err)
	}
	unchanged, err := f.VersionUnchanged()
	if err != nil {
		t.Fatal(err)
	}
	if !unchanged {
		t.Fatal("VersionUnchanged should be true immediately after our own write")
	}

	// Simulate another writer bumping the counter.
	other, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Write(); err != nil {
		t.Fatal(err)
	}

	unchanged, err = f.VersionUnchanged()
	if err != nil {
		t.Fatal(err)
	}
	if unchanged {
		t.Fatal("VersionUnchanged should be false once another writer incremented the counter")
	}
}

func TestAddRejectsDuplicateKey(t *testing.T) {
	f := &File{}
	e1 := &Entry{IDKind: identity.KindDevname, IDValue: "/dev/sda"}
	e2 := &Entry{IDKind: identity.KindDevname, IDValue: "/dev/sda"}
	if err := f.Add(e1); err != nil {
		t.Fatalf("Add(e1): %v", err)
	}
	if err := f.Add(e2); err == nil {
		t.Fatal("Add(e2) should fail: duplicate (kind, value, partition) key violates invariant I3")
	}
}

func TestRemoveDeletesMatchingEntry(t *testing.T) {
	f := &File{}
	e := &Entry{IDKind: identity.KindDevname, IDValue: "/dev/sda"}
	if err := f.Add(e); err != nil {
		t.Fatal(err)
	}
	if !f.Remove(e.Key()) {
		t.Fatal("Remove should report found")
	}
	if len(f.Entries) != 0 {
		t.Fatalf("len(Entries) = %d, want 0", len(f.Entries))
	}
}

func TestEncodeEntryLineAbsentFieldsAreDot(t *testing.T) {
	e := &Entry{IDKind: identity.KindDevname, IDValue: "/dev/sda"}
	line := encodeEntryLine(e)
	if !strings.Contains(line, "PVID=.") {
		t.Fatalf("line = %q, want PVID=.", line)
	}
	if !strings.Contains(line, "DEVNAME=.") {
		t.Fatalf("line = %q, want DEVNAME=.", line)
	}
}

func TestParseEntryLineSkipsLineMissingIdentifier(t *testing.T) {
	_, ok := parseEntryLine("DEVNAME=/dev/sda PVID=aaaa")
	if ok {
		t.Fatal("line with neither IDTYPE nor IDNAME should be skipped")
	}
}
