package validate

import "os"

// TouchSentinel creates (or refreshes) the sentinel file, short-circuiting
// future Phase C searches until ClearSentinel removes it. Mirrors
// original_source/lib/device/device_id.c's _touch_searched_devnames.
func (v *Validator) TouchSentinel() error {
	if v.SentinelPath == "" {
		return nil
	}
	f, err := os.OpenFile(v.SentinelPath, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}

// ClearSentinel removes the sentinel file, invalidating a prior failed
// search, as original_source/lib/device/device_id.c's
// unlink_searched_devnames does. OpportunisticWrite calls it after a
// successful write of the devices file. No device-event source calls it:
// event.Provider's DeviceAppeared is not consulted anywhere in this module.
func (v *Validator) ClearSentinel() error {
	if v.SentinelPath == "" {
		return nil
	}
	err := os.Remove(v.SentinelPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SentinelExists reports whether a previous search already failed.
func (v *Validator) SentinelExists() bool {
	if v.SentinelPath == "" {
		return false
	}
	_, err := os.Stat(v.SentinelPath)
	return err == nil
}
