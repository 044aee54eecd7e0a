package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Color variables for consistent styling across all subcommands.
var (
	colorSuccess = color.New(color.FgGreen)
	colorWarning = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed)
	colorMuted   = color.New(color.Faint)
)

// statusBadge colors a device's approval state the way a status column
// would read at a glance: green for approved, yellow for filtered,
// dim for anything else (unmatched, or matched but not yet scanned).
func statusBadge(approved, filtered bool) string {
	switch {
	case approved:
		return colorSuccess.Sprint("approved")
	case filtered:
		return colorWarning.Sprint("excluded")
	default:
		return colorMuted.Sprint("unbound")
	}
}

// kindBadge colors an identifier kind's label the same way statusBadge
// colors approval: green for a stable identifier, yellow for a bare
// devname that will break across a rename.
func kindBadge(kind string, stable bool) string {
	if stable {
		return colorSuccess.Sprint(kind)
	}
	return colorWarning.Sprint(kind)
}

// newStyledTable creates a pre-configured go-pretty table with
// StyleLight base, upper-case headers, and no row separators.
func newStyledTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	style := table.StyleLight
	style.Options.SeparateRows = false
	style.Options.DrawBorder = false
	style.Options.SeparateColumns = true
	style.Format.Header = text.FormatUpper
	style.Format.HeaderAlign = text.AlignLeft
	t.SetStyle(style)

	return t
}

func renderTable(t table.Writer) {
	t.Render()
}
