// Package enumerate implements the default Device enumerator: the
// collaborator that turns a live system into the slice of
// *identity.Dev values every other DIS component operates on.
package enumerate

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/openlvm/devid/pkg/identity"
	"k8s.io/klog/v2"
)

// DefaultClassBlock is the kernel's class directory for block devices.
const DefaultClassBlock = "/sys/class/block"

// DefaultDiskByID is where udev publishes stable by-id device-node
// aliases.
const DefaultDiskByID = "/dev/disk/by-id"

// DefaultDiskByPath is where udev publishes by-path device-node
// aliases.
const DefaultDiskByPath = "/dev/disk/by-path"

// DefaultDevDir is where the kernel's canonical device nodes live.
const DefaultDevDir = "/dev"

// Enumerator walks a sysfs class-block tree and builds one *identity.Dev
// per device, with every alias (/dev/<name>, by-id, by-path entries) this
// system knows for it attached.
//
//nolint:govet // fieldalignment: field order optimized for readability over memory layout
type Enumerator struct {
	ClassBlock string
	DiskByID   string
	DiskByPath string
	DevDir     string
}

// New returns an Enumerator rooted at the real kernel paths. sysfsRoot,
// if non-empty, replaces "/sys" as the root for ClassBlock (tests point
// this at a fixture tree); an empty sysfsRoot uses the real mount.
func New(sysfsRoot string) *Enumerator {
	root := "/sys"
	if sysfsRoot != "" {
		root = sysfsRoot
	}
	return &Enumerator{
		ClassBlock: filepath.Join(root, "class", "block"),
		DiskByID:   DefaultDiskByID,
		DiskByPath: DefaultDiskByPath,
		DevDir:     DefaultDevDir,
	}
}

// Enumerate walks ClassBlock and returns one *identity.Dev per entry,
// skipping names whose dev numbers fail to resolve (a racing hot-unplug
// between readdir and the individual attribute reads, which the Sysfs
// Reader and Identity Probe downstream both already tolerate as "this
// device vanished"). A missing or unreadable partition number is not a
// skip: the device is kept with partition 0.
func (en *Enumerator) Enumerate() []*identity.Dev {
	entries, err := os.ReadDir(en.ClassBlock)
	if err != nil {
		klog.Warningf("enumerate: read %s: %v", en.ClassBlock, err)
		return nil
	}

	aliasByNumbers := en.aliasIndex()

	devs := make([]*identity.Dev, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		major, minor, ok := en.devNumbers(name)
		if !ok {
			klog.V(4).Infof("enumerate: skipping %s, no dev numbers", name)
			continue
		}
		partition := en.partitionNumber(name)

		aliases := []string{filepath.Join(en.DevDir, name)}
		aliases = append(aliases, aliasByNumbers[numberKey(major, minor)]...)

		devs = append(devs, identity.NewDev(major, minor, partition, dedupe(aliases)))
	}
	return devs
}

func (en *Enumerator) devNumbers(name string) (int, int, bool) {
	raw, err := os.ReadFile(filepath.Join(en.ClassBlock, name, "dev"))
	if err != nil {
		return 0, 0, false
	}
	s := strings.TrimSpace(string(raw))
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// partitionNumber reads <ClassBlock>/<name>/partition, present only for
// partition devices. A whole-disk device has no such file, so it reports
// partition 0.
func (en *Enumerator) partitionNumber(name string) int {
	raw, err := os.ReadFile(filepath.Join(en.ClassBlock, name, "partition"))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0
	}
	return n
}

// aliasIndex maps a "major:minor" key to every /dev/disk/by-id and
// /dev/disk/by-path symlink that resolves to it, the way
// FindMultipathDevicePath walks /dev/disk/by-id/dm-uuid-mpath-* to
// recover a stable alias for a device-mapper node.
func (en *Enumerator) aliasIndex() map[string][]string {
	index := make(map[string][]string)
	for _, dir := range []string{en.DiskByID, en.DiskByPath} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			linkPath := filepath.Join(dir, entry.Name())
			major, minor, ok := en.resolveLinkNumbers(linkPath)
			if !ok {
				continue
			}
			key := numberKey(major, minor)
			index[key] = append(index[key], linkPath)
		}
	}
	return index
}

// resolveLinkNumbers stats the target of a /dev/disk/... symlink against
// the kernel's own record of that name's dev numbers, so a stale or
// dangling alias is quietly dropped rather than mis-attributed.
func (en *Enumerator) resolveLinkNumbers(linkPath string) (int, int, bool) {
	target, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		return 0, 0, false
	}
	name := filepath.Base(target)
	return en.devNumbers(name)
}

func numberKey(major, minor int) string {
	return strconv.Itoa(major) + ":" + strconv.Itoa(minor)
}

func dedupe(aliases []string) []string {
	seen := make(map[string]bool, len(aliases))
	out := aliases[:0]
	for _, a := range aliases {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
