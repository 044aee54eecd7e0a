package event

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEventFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileEventProviderIndexesMultipathComponents(t *testing.T) {
	path := writeEventFile(t, `[
		{"major": 8, "minor": 16, "multipath_component": true},
		{"major": 8, "minor": 32, "multipath_component": false}
	]`)

	p := LoadFileEventProvider(path)
	if !p.IsMultipathComponent(8, 16) {
		t.Error("IsMultipathComponent(8, 16) = false, want true")
	}
	if p.IsMultipathComponent(8, 32) {
		t.Error("IsMultipathComponent(8, 32) = true, want false")
	}
	if p.IsMultipathComponent(8, 0) {
		t.Error("IsMultipathComponent(8, 0) = true, want false for unlisted pair")
	}
}

func TestLoadFileEventProviderIndexesAppearedPVIDs(t *testing.T) {
	path := writeEventFile(t, `[
		{"pvid": "abc123", "appeared": true},
		{"pvid": "def456", "appeared": false}
	]`)

	p := LoadFileEventProvider(path)
	if !p.DeviceAppeared("abc123") {
		t.Error("DeviceAppeared(abc123) = false, want true")
	}
	if p.DeviceAppeared("def456") {
		t.Error("DeviceAppeared(def456) = true, want false")
	}
	if p.DeviceAppeared("unknown") {
		t.Error("DeviceAppeared(unknown) = true, want false")
	}
}

func TestLoadFileEventProviderMissingFileYieldsNoEvidence(t *testing.T) {
	p := LoadFileEventProvider(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if p.IsMultipathComponent(8, 0) {
		t.Error("IsMultipathComponent = true on empty provider, want false")
	}
	if p.DeviceAppeared("anything") {
		t.Error("DeviceAppeared = true on empty provider, want false")
	}
}

func TestLoadFileEventProviderMalformedJSONYieldsNoEvidence(t *testing.T) {
	path := writeEventFile(t, `not json`)
	p := LoadFileEventProvider(path)
	if p.IsMultipathComponent(8, 0) {
		t.Error("IsMultipathComponent = true on malformed file, want false")
	}
}

func TestNoOpProviderHasNoEvidence(t *testing.T) {
	var p NoOp
	if p.IsMultipathComponent(8, 0) {
		t.Error("NoOp.IsMultipathComponent = true, want false")
	}
	if p.DeviceAppeared("anything") {
		t.Error("NoOp.DeviceAppeared = true, want false")
	}
}
