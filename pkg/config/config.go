// Package config implements the CLI's concrete ConfigSource
// (spec.md §1(d)): a small TOML file describing the paths and policy
// knobs the Device Identity Subsystem needs. Of the DIS packages only
// pkg/devid imports this package, and only for the Config struct it
// produces; none imports the TOML library, keeping "configuration source
// is an external collaborator" an actual boundary rather than a fiction.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds every path and policy knob cmd/devid needs to build a
// DisContext.
//
//nolint:govet // fieldalignment: field order optimized for readability over memory layout
type Config struct {
	SysfsRoot   string `toml:"sysfs_root"`
	DevicesFile string `toml:"devices_file"`
	LockDir     string `toml:"lock_dir"`
	RunDir      string `toml:"run_dir"`

	// SearchForDevnames is one of "none", "auto", "all" (spec.md §4.6).
	SearchForDevnames string `toml:"search_for_devnames"`

	MultipathConfig     string `toml:"multipath_config"`
	MultipathConfigDir  string `toml:"multipath_config_dir"`
	MultipathKnownWWIDs string `toml:"multipath_known_wwids"`
	EventsFile          string `toml:"events_file"`
}

// Default returns the configuration devid uses when no file is given,
// matching the paths a real LVM2 installation would use.
func Default() Config {
	return Config{
		SysfsRoot:           "/sys",
		DevicesFile:         "/etc/lvm/devices/system.devices",
		LockDir:             "/run/lock/lvm",
		RunDir:              "/run/lvm",
		SearchForDevnames:   "auto",
		MultipathConfig:     "/etc/multipath.conf",
		MultipathConfigDir:  "/etc/multipath/conf.d",
		MultipathKnownWWIDs: "/etc/multipath/wwids",
		EventsFile:          "",
	}
}

// Load reads a TOML file at path, starting from Default() so a partial
// file only overrides the fields it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
