package main

import (
	"fmt"

	"github.com/openlvm/devid/pkg/config"
	"github.com/openlvm/devid/pkg/devid"
	"github.com/openlvm/devid/pkg/identity"
	"github.com/openlvm/devid/pkg/registry"
)

// buildContext loads the TOML config at configPath (or the built-in
// defaults, if empty) and wires a fresh DisContext over it.
func buildContext(configPath string) (*devid.DisContext, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("devid: %w", err)
	}
	return devid.New(cfg), nil
}

// loadReadOnly implements the read-only command shape: take the shared
// lock, load the registry, release immediately, and leave the rest of
// the pipeline (enumerate/match/filter/label/validate) to run in
// memory with no lock held. The Validator's own opportunistic write, if
// it runs during Scan, takes and releases its own non-blocking
// exclusive lock on the same file.
func loadReadOnly(ctx *devid.DisContext) error {
	if err := ctx.Load(registry.LockShared, true); err != nil {
		return err
	}
	return ctx.Release()
}

// withMutatingLock implements the mutating command shape: take the
// exclusive lock before reading, run fn against the loaded registry,
// and release after fn returns regardless of outcome.
func withMutatingLock(ctx *devid.DisContext, fn func() error) error {
	if err := ctx.Load(registry.LockExclusive, true); err != nil {
		return err
	}
	defer ctx.Release()
	return fn()
}

// findByDevnode returns the device among ctx.Devs carrying devnode as
// one of its aliases.
func findByDevnode(ctx *devid.DisContext, devnode string) (*identity.Dev, bool) {
	for _, d := range ctx.Devs {
		for _, a := range d.Aliases {
			if a == devnode {
				return d, true
			}
		}
	}
	return nil, false
}
