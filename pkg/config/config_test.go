package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatal("Load(\"\") should return Default()")
	}
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devid.toml")
	content := "sysfs_root = \"/custom/sys\"\nsearch_for_devnames = \"all\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SysfsRoot != "/custom/sys" {
		t.Fatalf("SysfsRoot = %q", cfg.SysfsRoot)
	}
	if cfg.SearchForDevnames != "all" {
		t.Fatalf("SearchForDevnames = %q", cfg.SearchForDevnames)
	}
	if cfg.DevicesFile != Default().DevicesFile {
		t.Fatal("unset fields should keep their Default() value")
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devid.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load should return an error for malformed TOML")
	}
}
