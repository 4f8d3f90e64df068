package commands

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newTable returns a table writer mirrored to stdout in the shared CLI style
func newTable(header ...interface{}) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

// num formats an optional metric
func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// printSummary prints a two-column key/value table
func printSummary(title string, rows [][2]interface{}) {
	tw := newTable("item", "value")
	tw.SetTitle("%s", title)
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1]})
	}
	tw.Render()
}

// printErrors lists per-stock failures, sorted by code
func printErrors(errs map[string]string) {
	if len(errs) == 0 {
		return
	}

	codes := make([]string, 0, len(errs))
	for code := range errs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	tw := newTable("code", "error")
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 80}})
	for _, code := range codes {
		tw.AppendRow(table.Row{code, text.FgRed.Sprint(errs[code])})
	}
	tw.Render()
}

func duration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
