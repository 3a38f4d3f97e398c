package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Render writes rows to w in the given format.
func Render(w io.Writer, format string, rows []Row) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		_, err := io.WriteString(w, RenderTable(rows))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown stats format %q (want table, json or yaml)", format)
	}
}

// RenderTable draws rows in a bordered ASCII table:
//
//	+------+----------+
//	| name | time     |
//	+------+----------+
//	| a    | 00:00:01 |
//	+------+----------+
func RenderTable(rows []Row) string {
	b := &strings.Builder{}
	table := tablewriter.NewWriter(b)
	table.SetHeader(Headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rows {
		table.Append(row.Cells())
	}
	table.Render()
	return b.String()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
