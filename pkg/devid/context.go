// Package devid wires the Sysfs Reader, Identity Probe, Multipath
// Oracle, Registry Store, Matcher, and Validator/Repairer into the
// single DisContext a front-end command drives (spec.md §9's
// "module-wide state" resolved as a constructed-and-torn-down context
// rather than process globals).
package devid

import (
	"fmt"

	"github.com/openlvm/devid/pkg/config"
	"github.com/openlvm/devid/pkg/enumerate"
	"github.com/openlvm/devid/pkg/event"
	"github.com/openlvm/devid/pkg/filter"
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/label"
	"github.com/openlvm/devid/pkg/match"
	"github.com/openlvm/devid/pkg/metrics"
	"github.com/openlvm/devid/pkg/multipath"
	"github.com/openlvm/devid/pkg/registry"
	"github.com/openlvm/devid/pkg/sysfs"
	"github.com/openlvm/devid/pkg/validate"
)

// DisContext is the constructed-once-per-invocation home for every DIS
// collaborator and the live scan state a single invocation produces.
//
//nolint:govet // fieldalignment: field order optimized for readability over memory layout
type DisContext struct {
	Config config.Config

	sysfsReader *sysfs.Reader
	probe       *identity.Probe
	oracle      *multipath.Oracle
	matcher     *match.Matcher
	labels      *label.Reader
	nonContent  *filter.Chain
	validator   *validate.Validator
	enumerator  *enumerate.Enumerator

	lock *registry.Lock

	// File is the loaded registry; nil until Load runs.
	File *registry.File
	// Devs is the live device set from the last Scan; nil until Scan runs.
	Devs []*identity.Dev
}

// New constructs a DisContext from cfg. It wires every collaborator; its
// only I/O is reading the multipath config and known-WWIDs files and,
// when cfg.EventsFile is set, the events file. The registry and the
// devices are left to Load and Scan.
func New(cfg config.Config) *DisContext {
	majors := identity.DefaultMajorTable()
	sysfsReader := sysfs.NewReader(cfg.SysfsRoot)
	probe := identity.NewProbe(sysfsReader, majors)

	wwids := multipath.NewWWIDSet()
	wwids.LoadConfigFiles(cfg.MultipathConfig, cfg.MultipathConfigDir)
	wwids.LoadKnownWWIDs(cfg.MultipathKnownWWIDs)

	var events event.Provider = event.NoOp{}
	if cfg.EventsFile != "" {
		events = event.LoadFileEventProvider(cfg.EventsFile)
	}

	oracle := multipath.NewOracle(sysfsReader, majors, wwids, events)

	nonContent := filter.NewChain()
	nonContent.AddStage(filter.StageSysfsReadable, identity.FilterUnreadable, filter.SysfsReadableStage(sysfsReader))
	nonContent.AddStage(filter.StageNotMultipathComponent, identity.FilterMultipathComponent, filter.NotMultipathComponentStage(oracle))

	labels := label.NewReader()
	matcher := match.NewMatcher(probe, majors)

	sentinelPath := ""
	if cfg.RunDir != "" {
		sentinelPath = cfg.RunDir + "/searched_devnames"
	}
	validator := validate.NewValidator(probe, labels, nonContent, sentinelPath, validate.SearchPolicy(cfg.SearchForDevnames))

	return &DisContext{
		Config:      cfg,
		sysfsReader: sysfsReader,
		probe:       probe,
		oracle:      oracle,
		matcher:     matcher,
		labels:      labels,
		nonContent:  nonContent,
		validator:   validator,
		enumerator:  enumerate.New(cfg.SysfsRoot),
		lock:        registry.NewLock(cfg.LockDir, cfg.DevicesFile),
	}
}

// Load reads the registry file under the given lock mode, populating
// ctx.File. Load does not release the lock; the caller decides when to
// call Release (read-only commands right after Load, mutating commands
// after their write).
func (ctx *DisContext) Load(mode registry.LockMode, blocking bool) error {
	if _, err := ctx.lock.Acquire(mode, blocking); err != nil {
		return fmt.Errorf("devid: acquire registry lock: %w", err)
	}
	f, err := registry.Read(ctx.Config.DevicesFile)
	if err != nil {
		metrics.RecordRegistryRead("error")
		return fmt.Errorf("devid: load registry: %w", err)
	}
	metrics.RecordRegistryRead("ok")
	ctx.File = f
	return nil
}

// Release drops the registry lock this context holds, if any.
func (ctx *DisContext) Release() error {
	return ctx.lock.Release()
}

// EnumerateOnly runs just the enumerator's (pkg/enumerate) device walk, populating
// ctx.Devs without matching, filtering, or reading labels. Mutating
// commands (add, import) use this instead of Scan: they need a live
// Dev to build a registry entry from, not a full reconciliation pass.
func (ctx *DisContext) EnumerateOnly() []*identity.Dev {
	ctx.Devs = ctx.enumerator.Enumerate()
	metrics.RecordDevicesScanned(len(ctx.Devs))
	return ctx.Devs
}

// Scan runs the full read-only control flow described in spec.md §2:
// enumerate devices, match them against the loaded registry, run the
// non-content filter chain, read PVID labels on devices that pass it,
// then run the Validator.
func (ctx *DisContext) Scan() {
	ctx.EnumerateOnly()

	ctx.matcher.MatchAll(ctx.File.Entries, ctx.Devs)
	for _, e := range ctx.File.Entries {
		if e.Bound() {
			metrics.RecordDeviceMatched()
		}
	}

	for _, d := range ctx.Devs {
		if ctx.nonContent.Run(d) {
			continue
		}
		if d.FilteredMask&identity.FilterMultipathComponent != 0 {
			metrics.RecordMultipathComponent()
			metrics.RecordDeviceExcluded(string(filter.StageNotMultipathComponent))
		}
		if d.FilteredMask&identity.FilterUnreadable != 0 {
			metrics.RecordDeviceExcluded(string(filter.StageSysfsReadable))
		}
	}

	for _, d := range ctx.Devs {
		if d.Filtered() {
			continue
		}
		pvid, ok := ctx.labels.ReadPVID(d.PrimaryAlias)
		if ok {
			d.PVID = pvid
			d.PVIDStatus = identity.PVIDScanned
		} else {
			d.PVIDStatus = identity.PVIDScanFailed
		}
	}

	if ctx.validator.Run(ctx.File, ctx.Devs) {
		ctx.validator.OpportunisticWrite(ctx.File, ctx.lock)
	}
}

// IsApproved is the DIS predicate spec.md §1 exposes to the filter
// chain: whether dev is paired with a registry entry and not excluded
// by any filter stage.
func (ctx *DisContext) IsApproved(dev *identity.Dev) bool {
	return dev.MatchedRegistry && !dev.Filtered()
}

// ResolveByPVID is the DIS resolver spec.md §1 exposes: which device
// currently carries PVID p, if any, among the last Scan's devices.
func (ctx *DisContext) ResolveByPVID(pvid string) (*identity.Dev, bool) {
	for _, d := range ctx.Devs {
		if d.PVID == pvid {
			return d, true
		}
	}
	return nil, false
}
