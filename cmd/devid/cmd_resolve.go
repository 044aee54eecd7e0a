package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type resolveResult struct {
	PVID    string `json:"pvid"`
	Devnode string `json:"devnode"`
	Found   bool   `json:"found"`
}

func newResolveCmd(configPath, outputFormat *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <pvid>",
		Short: "Report which device currently carries a PVID",
		Long: `resolve implements the DIS resolver: which device currently carries
PVID p, if any, among the devices seen by the scan this invocation
performs. Exits 1 when no device carries it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(*configPath, *outputFormat, args[0])
		},
	}
}

func runResolve(configPath, outputFormat, pvid string) error {
	ctx, err := buildContext(configPath)
	if err != nil {
		return err
	}
	if err := loadReadOnly(ctx); err != nil {
		return err
	}
	ctx.Scan()

	res := resolveResult{PVID: pvid}
	if d, ok := ctx.ResolveByPVID(pvid); ok {
		res.Found = true
		res.Devnode = d.PrimaryAlias
	}

	if err := outputResolve(res, outputFormat); err != nil {
		return err
	}
	if !res.Found {
		os.Exit(1)
	}
	return nil
}

func outputResolve(res resolveResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "table", "":
		if !res.Found {
			fmt.Println(colorMuted.Sprintf("no device carries PVID %s", res.PVID))
			return nil
		}
		fmt.Println(res.Devnode)
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownOutputFormat, format)
	}
}
