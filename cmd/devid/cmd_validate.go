package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Force a Validator/Repairer pass over the registry",
		Long: `validate loads the registry, scans the system, and runs the three
reconciliation phases (refresh the PVID and devname hint of entries
with a stable identifier, unbind devname entries whose device no longer
carries their PVID, recover renamed devices by PVID),
writing the result back under a non-blocking exclusive lock if anything
changed. This is the same pass every read-only command already runs as
part of Scan; validate exists to invoke it on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(*configPath)
		},
	}
}

func runValidate(configPath string) error {
	ctx, err := buildContext(configPath)
	if err != nil {
		return err
	}
	if err := loadReadOnly(ctx); err != nil {
		return err
	}
	ctx.Scan()
	fmt.Println(colorSuccess.Sprint("validation pass complete"))
	return nil
}
