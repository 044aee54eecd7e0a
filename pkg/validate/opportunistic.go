package validate

import (
	"time"

	"github.com/openlvm/devid/pkg/metrics"
	"github.com/openlvm/devid/pkg/registry"
	"k8s.io/klog/v2"
)

// OpportunisticWrite attempts to persist f under a non-blocking exclusive
// lock (spec.md §4.6/§5): if the lock can't be acquired, or the on-disk
// VERSION has moved since f was read, the update is silently deferred —
// correctness is preserved because the next invocation redoes the same
// analysis. Never returns an error to the caller; a denied lock or a
// moved VERSION is debug-logged, matching the "Lock-denied in
// non-blocking mode: silently skips" classification in spec.md §7, and a
// failed write is logged as a warning. A successful write clears the
// searched-devnames sentinel.
func (v *Validator) OpportunisticWrite(f *registry.File, lock *registry.Lock) {
	if v.Invalid || f.Invalid {
		klog.V(4).Infof("validate: skipping opportunistic write, invalid state from this pass")
		return
	}

	start := time.Now()
	alreadyHeld, err := lock.Acquire(registry.LockExclusive, false)
	metrics.ObserveLockWait("exclusive", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordLockContention()
		metrics.RecordRegistryWrite("deferred")
		klog.V(4).Infof("validate: opportunistic lock denied: %v", err)
		return
	}
	if !alreadyHeld {
		defer lock.Release()
	}

	unchanged, err := f.VersionUnchanged()
	if err != nil {
		metrics.RecordRegistryWrite("error")
		klog.V(4).Infof("validate: version check failed, deferring write: %v", err)
		return
	}
	if !unchanged {
		metrics.RecordRegistryWrite("deferred")
		klog.V(4).Infof("validate: devices file changed since read, deferring write")
		return
	}

	if err := f.Write(); err != nil {
		metrics.RecordRegistryWrite("error")
		klog.Warningf("validate: opportunistic write of %s failed: %v", f.Path, err)
		return
	}
	metrics.RecordRegistryWrite("ok")
	if err := v.ClearSentinel(); err != nil {
		klog.Warningf("validate: clear sentinel %s: %v", v.SentinelPath, err)
	}
}
