// Package print renders lookup results and listings as fixed-width text
// tables for the terminal.
package print

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"dictlookup/internal/array"
	"dictlookup/internal/reader"
)

type tableCol struct {
	name string
	// cell is nil for the elision column.
	cell func(row int) string
}

func tableOverhead(idxWidth int, nDataCols int) int {
	// 1 idx column + nDataCols columns, each cell adds 2 spaces and 1
	// separator, plus a leading separator.
	m := 1 + nDataCols
	return 1 + 3*m + idxWidth
}

func tableLineWidth(widths []int) int {
	sum := 0
	for i := range widths {
		sum += widths[i]
	}
	return 1 + 3*len(widths) + sum
}

func enforceTableWidth(widths []int, maxWidth int) {
	if maxWidth <= 0 || len(widths) == 0 {
		return
	}
	minCell := 4
	// Keep shrinking the widest non-index column until we fit.
	for tableLineWidth(widths) > maxWidth {
		best := -1
		bestW := 0
		for i := 1; i < len(widths); i++ {
			if widths[i] > bestW && widths[i] > minCell {
				best = i
				bestW = widths[i]
			}
		}
		if best < 0 {
			return
		}
		widths[best]--
	}
}

type TableOptions struct {
	Head int
	Tail int

	MaxCols       int
	MaxColWidth   int
	MaxTableWidth int

	// Stats prints per-attribute statistics over the found rows.
	Stats bool
}

func DefaultTableOptions() TableOptions {
	return TableOptions{
		Head:          5,
		Tail:          5,
		MaxCols:       12,
		MaxColWidth:   20,
		MaxTableWidth: 0, // auto
		Stats:         true,
	}
}

// Lookup renders one row per input key: the key, whether it was found, its
// dense position and the fetched attributes. Attributes of keys that were
// not found print as null.
func Lookup(title string, keys array.Column, res reader.Result, opts TableOptions) string {
	nrows := len(res.Found)
	cols := []tableCol{
		{name: "key", cell: func(r int) string {
			if r >= keys.Len() || keys.IsNull(r) {
				return "null"
			}
			return keys.ValueString(r)
		}},
		{name: "found", cell: func(r int) string { return strconv.FormatBool(res.Found[r]) }},
		{name: "pos", cell: func(r int) string {
			if !res.Found[r] {
				return "null"
			}
			return strconv.Itoa(res.Positions[r])
		}},
	}
	var attrs []array.Column
	if res.Block != nil {
		attrs = res.Block.Columns()
	}
	for _, col := range attrs {
		col := col
		cols = append(cols, tableCol{name: col.Name(), cell: func(r int) string {
			if !res.Found[r] {
				return "null"
			}
			return cellString(col, res.Positions[r])
		}})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d of %d keys found\n", title, res.Rows(), nrows)
	if opts.Stats && len(attrs) > 0 {
		b.WriteString(renderStats(attrs, res.Rows(), opts.MaxTableWidth))
	}
	b.WriteString(render(cols, nrows, opts))
	return b.String()
}

// Records renders a plain table of string cells, one slice per row.
func Records(title string, header []string, rows [][]string, opts TableOptions) string {
	cols := make([]tableCol, len(header))
	for j := range header {
		j := j
		cols[j] = tableCol{name: header[j], cell: func(r int) string {
			if j >= len(rows[r]) {
				return ""
			}
			return rows[r][j]
		}}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n", title, len(rows))
	b.WriteString(render(cols, len(rows), opts))
	return b.String()
}

func render(cols []tableCol, nrows int, opts TableOptions) string {
	if opts.Head < 0 {
		opts.Head = 0
	}
	if opts.Tail < 0 {
		opts.Tail = 0
	}
	rowIdx := previewRowIndices(nrows, opts.Head, opts.Tail)

	maxColWidth := opts.MaxColWidth
	if maxColWidth <= 0 {
		maxColWidth = 20
	}
	maxTableWidth := opts.MaxTableWidth
	if maxTableWidth <= 0 {
		maxTableWidth = detectStdoutWidth(120)
	}

	idxWidth := 3
	for _, r := range rowIdx {
		idxWidth = max(idxWidth, len(strconv.Itoa(r)))
	}

	show := selectTableCols(cols, maxTableWidth, idxWidth, maxColWidth, opts.MaxCols)

	// Cap per-column width to fit the table budget.
	if len(show) > 0 {
		avail := maxTableWidth - tableOverhead(idxWidth, len(show))
		if avail > 0 {
			if per := avail / len(show); per < maxColWidth {
				maxColWidth = max(4, per)
			}
		}
	}

	widths := make([]int, 1+len(show))
	widths[0] = idxWidth
	for j := range show {
		widths[1+j] = min(len(show[j].name), maxColWidth)
	}
	for _, r := range rowIdx {
		if r < 0 {
			for j := range widths {
				widths[j] = max(widths[j], 3)
			}
			continue
		}
		for j := range show {
			widths[1+j] = max(widths[1+j], len(truncate(showCell(show[j], r), maxColWidth)))
		}
	}
	enforceTableWidth(widths, maxTableWidth)

	var b strings.Builder
	if countRealCols(show) != len(cols) {
		fmt.Fprintf(&b, "Preview columns: %d of %d\n", countRealCols(show), len(cols))
	}
	b.WriteString(renderTable(show, widths, rowIdx))
	return b.String()
}

func detectStdoutWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		// Many terminals wrap when a line hits exactly the limit.
		if w, _, err := term.GetSize(fd); err == nil && w >= 40 {
			return w - 1
		}
	}
	if v := strings.TrimSpace(os.Getenv("COLUMNS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 40 {
			return n
		}
	}
	return fallback
}

func countRealCols(cols []tableCol) int {
	n := 0
	for i := range cols {
		if cols[i].cell != nil {
			n++
		}
	}
	return n
}

func selectTableCols(cols []tableCol, maxTableWidth, idxWidth, maxColWidth, maxCols int) []tableCol {
	if len(cols) == 0 {
		return nil
	}
	if maxCols <= 0 || maxCols > len(cols) {
		maxCols = len(cols)
	}
	minColWidth := max(4, min(6, maxColWidth))

	fits := func(n int) bool {
		return n <= 0 || tableOverhead(idxWidth, n)+n*minColWidth <= maxTableWidth
	}
	if !fits(1) {
		return cols[:1]
	}
	n := maxCols
	for n > 1 && !fits(n) {
		n--
	}
	if n >= len(cols) {
		return cols
	}
	if n <= 2 {
		return cols[:n]
	}

	// Elide the middle: left ... right.
	left := max(1, (n-1)/2)
	right := max(1, n-1-left)
	out := make([]tableCol, 0, left+right+1)
	out = append(out, cols[:left]...)
	out = append(out, tableCol{name: "..."})
	out = append(out, cols[len(cols)-right:]...)
	return out
}

func previewRowIndices(nrows, head, tail int) []int {
	if nrows <= 0 || head+tail <= 0 {
		return nil
	}
	if head+tail >= nrows {
		idx := make([]int, nrows)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, head+tail+1)
	for i := 0; i < head; i++ {
		idx = append(idx, i)
	}
	// -1 marks the ellipsis row.
	idx = append(idx, -1)
	for i := max(nrows-tail, head); i < nrows; i++ {
		idx = append(idx, i)
	}
	return idx
}

func renderTable(cols []tableCol, widths []int, rowIdx []int) string {
	var b strings.Builder
	if len(cols) == 0 {
		b.WriteString("(no columns)\n")
		return b.String()
	}

	border := func() {
		b.WriteByte('+')
		for i := range widths {
			b.WriteString(strings.Repeat("-", widths[i]+2))
			b.WriteByte('+')
		}
		b.WriteByte('\n')
	}
	cell := func(s string, w int) {
		b.WriteByte(' ')
		b.WriteString(pad(truncate(s, w), w))
		b.WriteString(" |")
	}

	border()
	b.WriteByte('|')
	cell("idx", widths[0])
	for j := range cols {
		cell(cols[j].name, widths[1+j])
	}
	b.WriteByte('\n')
	border()

	for _, r := range rowIdx {
		b.WriteByte('|')
		if r < 0 {
			cell("...", widths[0])
		} else {
			cell(strconv.Itoa(r), widths[0])
		}
		for j := range cols {
			if r < 0 {
				cell("...", widths[1+j])
				continue
			}
			cell(showCell(cols[j], r), widths[1+j])
		}
		b.WriteByte('\n')
	}
	border()
	return b.String()
}

func showCell(col tableCol, row int) string {
	if col.cell == nil {
		return "..."
	}
	return col.cell(row)
}

func cellString(col array.Column, row int) string {
	if col.IsNull(row) {
		return "null"
	}
	s := col.ValueString(row)
	if s == "" {
		if _, ok := col.(*array.Utf8Column); ok {
			return `""`
		}
	}
	return s
}

func renderStats(cols []array.Column, n int, maxWidth int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Attributes:\n")
	for _, c := range cols {
		line := "- " + c.Name() + ": " + c.DType().String() + "  " + statsForColumn(c, n)
		if maxWidth > 0 {
			line = truncate(line, maxWidth)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

func statsForColumn(col array.Column, n int) string {
	nulls := 0
	nonNull := 0

	switch c := col.(type) {
	case *array.Int64Column:
		var lo, hi int64
		sum := 0.0
		for i := 0; i < n; i++ {
			if c.IsNull(i) {
				nulls++
				continue
			}
			v := c.Value(i)
			if nonNull == 0 || v < lo {
				lo = v
			}
			if nonNull == 0 || v > hi {
				hi = v
			}
			nonNull++
			sum += float64(v)
		}
		if nonNull == 0 {
			return fmt.Sprintf("nulls=%d/%d", nulls, n)
		}
		return fmt.Sprintf("nulls=%d/%d min=%d max=%d mean=%.4g", nulls, n, lo, hi, sum/float64(nonNull))

	case *array.Float64Column:
		var lo, hi, sum float64
		for i := 0; i < n; i++ {
			if c.IsNull(i) {
				nulls++
				continue
			}
			v := c.Value(i)
			if nonNull == 0 || v < lo {
				lo = v
			}
			if nonNull == 0 || v > hi {
				hi = v
			}
			nonNull++
			sum += v
		}
		if nonNull == 0 {
			return fmt.Sprintf("nulls=%d/%d", nulls, n)
		}
		// Avoid printing -0.
		if lo == 0 {
			lo = math.Abs(lo)
		}
		if hi == 0 {
			hi = math.Abs(hi)
		}
		return fmt.Sprintf("nulls=%d/%d min=%.4g max=%.4g mean=%.4g", nulls, n, lo, hi, sum/float64(nonNull))

	case *array.BoolColumn:
		trues := 0
		for i := 0; i < n; i++ {
			if c.IsNull(i) {
				nulls++
				continue
			}
			nonNull++
			if c.Value(i) {
				trues++
			}
		}
		return fmt.Sprintf("nulls=%d/%d true=%d/%d", nulls, n, trues, nonNull)

	case *array.Utf8Column:
		var lo, hi int
		for i := 0; i < n; i++ {
			if c.IsNull(i) {
				nulls++
				continue
			}
			l := c.ValueLen(i)
			if nonNull == 0 || l < lo {
				lo = l
			}
			if nonNull == 0 || l > hi {
				hi = l
			}
			nonNull++
		}
		if nonNull == 0 {
			return fmt.Sprintf("nulls=%d/%d", nulls, n)
		}
		return fmt.Sprintf("nulls=%d/%d len=[%d,%d]", nulls, n, lo, hi)

	default:
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				nulls++
			}
		}
		return fmt.Sprintf("nulls=%d/%d", nulls, n)
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
