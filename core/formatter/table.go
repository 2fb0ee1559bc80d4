package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// TableFormatter prints aligned columns for lists and "Label: value" lines
// for single records.
type TableFormatter struct{}

func NewTableFormatter() *TableFormatter { return &TableFormatter{} }

func (*TableFormatter) Name() string        { return "table" }
func (*TableFormatter) Description() string { return "Aligned text table (default)" }

func (*TableFormatter) FormatList(w io.Writer, l Listing, records []map[string]any, opts FormatOptions) error {
	if len(records) == 0 {
		name := l.Name
		if name == "" {
			name = "records"
		}
		_, err := fmt.Fprintf(w, "No %s found.\n", name)
		return err
	}

	columns := columnsFor(l, opts.Columns, records[0])
	tw := newTabWriter(w)

	if !opts.NoHeader {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = strings.ToUpper(col)
		}
		writeRow(tw, row)
	}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = truncate(cell(rec[col]), opts.MaxWidth)
		}
		writeRow(tw, row)
	}
	return tw.Flush()
}

func (*TableFormatter) FormatRecord(w io.Writer, l Listing, record map[string]any, opts FormatOptions) error {
	if record == nil {
		_, err := fmt.Fprintln(w, "Not found.")
		return err
	}

	tw := newTabWriter(w)
	for _, col := range columnsFor(l, opts.Columns, record) {
		fmt.Fprintf(tw, "%s:\t%s\n", label(col), cell(record[col]))
	}
	return tw.Flush()
}

func (*TableFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeRow(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

// columnsFor picks requested columns, then the listing's, then the sample
// record's keys sorted.
func columnsFor(l Listing, requested []string, sample map[string]any) []string {
	switch {
	case len(requested) > 0:
		return requested
	case len(l.Columns) > 0:
		return l.Columns
	}
	keys := make([]string, 0, len(sample))
	for k := range sample {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// label turns snake_case into Title Case.
func label(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// cell renders one value. Missing and empty values print as "-".
func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	case []string:
		return strings.Join(v, ", ")
	case fmt.Stringer:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// truncate cuts s to width with a "..." tail. Widths of 3 or less are
// ignored.
func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
