package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openlvm/devid/pkg/registry"
	"github.com/spf13/cobra"
)

func newImportCmd(configPath, outputFormat *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Admit every currently unclaimed device into the registry",
		Long: `import enumerates the system and adds a registry entry for every
device not already claimed by an existing entry, matching the bulk
admission behaviour a fresh installation needs. Takes the exclusive
lock for the whole operation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(*configPath, *outputFormat)
		},
	}
}

func runImport(configPath, outputFormat string) error {
	ctx, err := buildContext(configPath)
	if err != nil {
		return err
	}

	var added []*registry.Entry
	err = withMutatingLock(ctx, func() error {
		ctx.EnumerateOnly()
		a, importErr := ctx.Import(ctx.Devs)
		added = a
		if importErr != nil {
			return importErr
		}
		return ctx.Persist()
	})
	if err != nil {
		return err
	}

	return outputImport(added, outputFormat)
}

func outputImport(added []*registry.Entry, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		type row struct {
			IDKind  string `json:"idKind"`
			IDValue string `json:"idValue"`
			Devname string `json:"devname"`
		}
		rows := make([]row, 0, len(added))
		for _, e := range added {
			rows = append(rows, row{IDKind: e.IDKind.String(), IDValue: e.IDValue, Devname: e.DevnameHint})
		}
		return enc.Encode(rows)
	case "table", "":
		t := newStyledTable()
		t.AppendHeader(table.Row{"Devname", "Kind", "ID"})
		for _, e := range added {
			t.AppendRow(table.Row{e.DevnameHint, e.IDKind.String(), e.IDValue})
		}
		renderTable(t)
		fmt.Printf("%d device(s) added\n", len(added))
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownOutputFormat, format)
	}
}
