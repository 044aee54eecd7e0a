package main

import (
	"fmt"

	"github.com/openlvm/devid/pkg/registry"
	"github.com/spf13/cobra"
)

func newRemoveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <devnode>",
		Short: "Remove the registry entry whose devname hint matches devnode",
		Long: `remove deletes the entry carrying devnode as its advisory devname
hint. It operates purely on the registry file: no live device lookup is
needed. Takes the exclusive lock for the whole operation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(*configPath, args[0])
		},
	}
}

func runRemove(configPath, devnode string) error {
	ctx, err := buildContext(configPath)
	if err != nil {
		return err
	}

	return withMutatingLock(ctx, func() error {
		e, ok := findEntryByDevnameHint(ctx.File, devnode)
		if !ok {
			return fmt.Errorf("devid: no registry entry with devname hint %s", devnode)
		}
		if !ctx.RemoveDevice(e.Key()) {
			return fmt.Errorf("devid: entry for %s disappeared before removal", devnode)
		}
		if err := ctx.Persist(); err != nil {
			return err
		}
		fmt.Printf("removed %s=%s\n", e.IDKind, e.IDValue)
		return nil
	})
}

func findEntryByDevnameHint(f *registry.File, devnode string) (*registry.Entry, bool) {
	for _, e := range f.Entries {
		if e.DevnameHint == devnode {
			return e, true
		}
	}
	return nil, false
}
