package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <devnode>",
		Short: "Add a live device to the registry under its strongest identifier",
		Long: `add enumerates the system, finds the device currently presenting
devnode as an alias, chooses the best available identifier for it
(falling back to devname if nothing stable is present), and persists a
new registry entry. Takes the exclusive lock for the whole operation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(*configPath, args[0])
		},
	}
}

func runAdd(configPath, devnode string) error {
	ctx, err := buildContext(configPath)
	if err != nil {
		return err
	}

	return withMutatingLock(ctx, func() error {
		ctx.EnumerateOnly()
		d, ok := findByDevnode(ctx, devnode)
		if !ok {
			return fmt.Errorf("devid: no live device found for %s", devnode)
		}
		e, err := ctx.AddDevice(d)
		if err != nil {
			return err
		}
		if err := ctx.Persist(); err != nil {
			return err
		}
		fmt.Printf("added %s as %s=%s\n", devnode, e.IDKind, e.IDValue)
		return nil
	})
}
