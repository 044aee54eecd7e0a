package main

import (
	"fmt"

	"github.com/openlvm/devid/pkg/config"
	"github.com/openlvm/devid/pkg/devid"
	"github.com/openlvm/devid/pkg/validate"
	"github.com/spf13/cobra"
)

func newScanRenamesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan-renames",
		Short: "Force Phase C (rename recovery) regardless of search_for_devnames",
		Long: `scan-renames overrides the configured search policy to "all" for
this invocation, so every device not already claimed by an entry is
probed for a matching PVID, and runs the Validator. Phase C still does
not run when no devname entry is unresolved, or when the sentinel left
by an earlier failed search is present. Use this after a bulk rename
(e.g. after replacing a multipath-aware initiator) rather than waiting
for the configured policy to pick it up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScanRenames(*configPath)
		},
	}
}

func runScanRenames(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("devid: %w", err)
	}
	cfg.SearchForDevnames = string(validate.SearchAll)

	ctx := devid.New(cfg)
	if err := loadReadOnly(ctx); err != nil {
		return err
	}
	ctx.Scan()
	fmt.Println(colorSuccess.Sprint("rename scan complete"))
	return nil
}
