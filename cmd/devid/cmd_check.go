package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errUnknownOutputFormat is shared by every subcommand's output switch.
var errUnknownOutputFormat = errors.New("unknown output format")

type checkResult struct {
	Devnode  string `json:"devnode"`
	Approved bool   `json:"approved"`
	Filtered bool   `json:"filtered"`
	Matched  bool   `json:"matched"`
}

func newCheckCmd(configPath, outputFormat *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <devnode>",
		Short: "Report whether a device node is in the approved set",
		Long: `check implements the DIS predicate: is this device in the approved
set? A device is approved when it is paired with a registry entry and
was not excluded by any filter stage. Exits 1 when the device is not
approved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(*configPath, *outputFormat, args[0])
		},
	}
}

func runCheck(configPath, outputFormat, devnode string) error {
	ctx, err := buildContext(configPath)
	if err != nil {
		return err
	}
	if err := loadReadOnly(ctx); err != nil {
		return err
	}
	ctx.Scan()

	res := checkResult{Devnode: devnode}
	if d, ok := findByDevnode(ctx, devnode); ok {
		res.Matched = d.MatchedRegistry
		res.Filtered = d.Filtered()
		res.Approved = ctx.IsApproved(d)
	}

	if err := outputCheck(res, outputFormat); err != nil {
		return err
	}
	if !res.Approved {
		os.Exit(1)
	}
	return nil
}

func outputCheck(res checkResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "table", "":
		fmt.Printf("%s: %s\n", res.Devnode, statusBadge(res.Approved, res.Filtered))
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownOutputFormat, format)
	}
}
