package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openlvm/devid/pkg/identity"
	"github.com/spf13/cobra"
)

type listRow struct {
	IDKind   string `json:"idKind"`
	IDValue  string `json:"idValue"`
	Devname  string `json:"devname"`
	PVID     string `json:"pvid"`
	Bound    bool   `json:"bound"`
	Approved bool   `json:"approved"`
}

func newListCmd(configPath, outputFormat *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registry's entries and their current binding state",
		Long: `list loads the registry, scans the system, and reports every
entry together with whether it is currently bound to a live device and
whether that device is approved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(*configPath, *outputFormat)
		},
	}
}

func runList(configPath, outputFormat string) error {
	ctx, err := buildContext(configPath)
	if err != nil {
		return err
	}
	if err := loadReadOnly(ctx); err != nil {
		return err
	}
	ctx.Scan()

	rows := make([]listRow, 0, len(ctx.File.Entries))
	for _, e := range ctx.File.Entries {
		row := listRow{
			IDKind:  e.IDKind.String(),
			IDValue: e.IDValue,
			Devname: e.DevnameHint,
			PVID:    e.PVID,
			Bound:   e.Bound(),
		}
		if e.Bound() {
			row.Approved = ctx.IsApproved(e.Dev)
			if e.Dev.PrimaryAlias != "" {
				row.Devname = e.Dev.PrimaryAlias
			}
		}
		rows = append(rows, row)
	}

	return outputList(rows, outputFormat)
}

func outputList(rows []listRow, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "table", "":
		t := newStyledTable()
		t.AppendHeader(table.Row{"Devname", "Kind", "ID", "PVID", "Status"})
		for _, r := range rows {
			filtered := r.Bound && !r.Approved
			stable := identity.KindFromString(r.IDKind).Stable()
			t.AppendRow(table.Row{r.Devname, kindBadge(r.IDKind, stable), r.IDValue, r.PVID, statusBadge(r.Approved, filtered)})
		}
		renderTable(t)
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownOutputFormat, format)
	}
}
