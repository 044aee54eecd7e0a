package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// codeMajor is this implementation's own major version; a devices file
// whose VERSION major exceeds it is from a newer, possibly incompatible
// writer and must not be rewritten (spec section 4.4, "Parse-refusal").
const codeMajor = 1

// ErrVersionUnparseable is returned when a devices file's VERSION line
// cannot be parsed as three dot-separated unsigned integers.
var ErrVersionUnparseable = errors.New("registry: VERSION line unparseable")

// ErrVersionTooNew is returned when a devices file's VERSION major
// exceeds codeMajor.
var ErrVersionTooNew = errors.New("registry: VERSION major is newer than this implementation understands")

// Version is the devices file's MAJOR.MINOR.COUNTER header value.
// Invariant I5: Counter is monotonically non-decreasing across
// successful writes of the same file.
type Version struct {
	Major   int
	Minor   int
	Counter int
}

// String renders the version in its on-disk form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Counter)
}

// ParseVersion parses a VERSION value of the form "MAJOR.MINOR.COUNTER".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, ErrVersionUnparseable
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q", ErrVersionUnparseable, s)
		}
		nums[i] = n
	}
	v := Version{Major: nums[0], Minor: nums[1], Counter: nums[2]}
	if v.Major > codeMajor {
		return Version{}, fmt.Errorf("%w: file is %s, this implementation understands up to major %d", ErrVersionTooNew, s, codeMajor)
	}
	return v, nil
}

// Next returns the version to write for the next successful write of
// the same file: same major/minor, counter incremented by one.
func (v Version) Next() Version {
	return Version{Major: v.Major, Minor: v.Minor, Counter: v.Counter + 1}
}
