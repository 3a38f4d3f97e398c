// Package stats renders execution stats diffed against a reference job.
package stats

import (
	"sort"

	"github.com/me/jobrun/pkg/model"
)

const (
	noDiff       = "-"
	infiniteDiff = "+∞"
	diffSuffix   = "×"
)

// Headers are the column names of the stats table.
var Headers = []string{"name", "time", "time_diff", "size", "size_diff", "return_code"}

// Row is one formatted stats line.
type Row struct {
	Name       string `json:"name" yaml:"name"`
	Time       string `json:"time" yaml:"time"`
	TimeDiff   string `json:"time_diff" yaml:"time_diff"`
	Size       string `json:"size" yaml:"size"`
	SizeDiff   string `json:"size_diff" yaml:"size_diff"`
	ReturnCode int    `json:"return_code" yaml:"return_code"`
}

// Cells returns the row values in Headers order.
func (r Row) Cells() []string {
	return []string{r.Name, r.Time, r.TimeDiff, r.Size, r.SizeDiff, itoa(r.ReturnCode)}
}

// Formatter turns a stats map into rows diffed against ReferenceName.
type Formatter struct {
	Stats         map[string]model.Stat
	ReferenceName string

	// Order lists job names in the order their rows should appear.
	// Stats for names not listed follow, sorted by name.
	Order []string
}

// Reference returns the reference stat and whether it is present.
func (f Formatter) Reference() (model.Stat, bool) {
	if f.ReferenceName == "" {
		return model.Stat{}, false
	}
	ref, ok := f.Stats[f.ReferenceName]
	return ref, ok
}

// Rows formats every stat. Without a reference every diff column shows "-".
func (f Formatter) Rows() []Row {
	ref, hasRef := f.Reference()

	rows := make([]Row, 0, len(f.Stats))
	for _, name := range f.names() {
		st := f.Stats[name]
		row := Row{
			Name:       st.Name,
			Time:       st.FormatTime(),
			TimeDiff:   noDiff,
			Size:       st.FormatSize(),
			SizeDiff:   noDiff,
			ReturnCode: st.ReturnCode,
		}
		if row.Name == "" {
			row.Name = name
		}
		if hasRef && name != f.ReferenceName {
			row.TimeDiff = Diff(st.Time, ref.Time)
			row.SizeDiff = Diff(float64(st.Size), float64(ref.Size))
		}
		rows = append(rows, row)
	}
	return rows
}

// Run renders the rows as a table.
func (f Formatter) Run() string {
	return RenderTable(f.Rows())
}

// Diff returns round(1 - value/reference, 2) followed by "×",
// or "+∞" when the reference is zero.
func Diff(value, reference float64) string {
	if reference == 0 {
		return infiniteDiff
	}
	return model.FormatFloat(model.Round(1-value/reference, 2)) + diffSuffix
}

func (f Formatter) names() []string {
	seen := make(map[string]bool, len(f.Stats))
	names := make([]string, 0, len(f.Stats))
	for _, name := range f.Order {
		if _, ok := f.Stats[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range f.Stats {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
