// Package csv loads dictionaries from delimited text files with a header row.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"dictlookup/internal/array"
	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/source/loader"
)

const typeSampleRows = 8192

type NullMatcher struct {
	single string
	set    map[string]struct{}
}

func NewNullMatcher(values []string) NullMatcher {
	if len(values) == 1 {
		return NullMatcher{single: values[0]}
	}
	set := make(map[string]struct{}, len(values))
	for i := range values {
		set[values[i]] = struct{}{}
	}
	return NullMatcher{set: set}
}

func (m NullMatcher) IsNull(raw string) bool {
	if m.set == nil {
		return raw == m.single
	}
	_, ok := m.set[raw]
	return ok
}

// Read loads spec.Path. Attributes without a declared type are inferred from
// the first rows.
func Read(ctx context.Context, spec config.Dictionary) (*dictionary.Dictionary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Avoid paying per-row cancellation checks when the context cannot be canceled.
	cancellable := ctx.Done() != nil
	if cancellable {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	if spec.Delimiter != "" {
		r.Comma = []rune(spec.Delimiter)[0]
	}

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, err
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty csv header")
	}
	headerIdx := make(map[string]int, len(header))
	for i := range header {
		headerIdx[header[i]] = i
	}
	keyIdx, ok := headerIdx[spec.Key]
	if !ok {
		return nil, fmt.Errorf("key column %s not in csv header", spec.Key)
	}
	attrIdx := make([]int, len(spec.Attributes))
	for i, a := range spec.Attributes {
		idx, ok := headerIdx[a.SourceColumn()]
		if !ok {
			return nil, fmt.Errorf("attribute column %s not in csv header", a.SourceColumn())
		}
		attrIdx[i] = idx
	}

	nulls := NewNullMatcher(spec.NullValues)
	types, declared, err := loader.DeclaredTypes(spec)
	if err != nil {
		return nil, err
	}

	const ctxCheckMask = 1024 - 1
	records := make([][]string, 0, typeSampleRows)
	iter := 0
	for len(records) < typeSampleRows {
		iter++
		if cancellable && (iter&ctxCheckMask) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("csv row has %d columns expected %d", len(rec), len(header))
		}
		records = append(records, append([]string(nil), rec...))
	}

	for i := range types {
		if declared[i] {
			continue
		}
		samples := make([]string, len(records))
		for j := range records {
			samples[j] = records[j][attrIdx[i]]
		}
		types[i] = inferType(samples, nulls)
	}

	table, err := loader.NewTable(spec, types, len(records))
	if err != nil {
		return nil, err
	}
	row := 1
	for i := range records {
		if err := appendRecord(table, records[i], keyIdx, attrIdx, nulls, row); err != nil {
			return nil, err
		}
		row++
	}
	for {
		iter++
		if cancellable && (iter&ctxCheckMask) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("csv row has %d columns expected %d", len(rec), len(header))
		}
		if err := appendRecord(table, rec, keyIdx, attrIdx, nulls, row); err != nil {
			return nil, err
		}
		row++
	}
	return table.Build()
}

func appendRecord(t *loader.Table, rec []string, keyIdx int, attrIdx []int, nulls NullMatcher, row int) error {
	raw := rec[keyIdx]
	if nulls.IsNull(raw) {
		t.Keys().AppendNull()
	} else if k, ok := fastParseKey(raw); ok {
		if err := t.Keys().Append(k); err != nil {
			return fmt.Errorf("row %d key: %w", row, err)
		}
	} else if err := t.Keys().Parse(raw); err != nil {
		return fmt.Errorf("row %d parse key: %w", row, err)
	}
	for i, idx := range attrIdx {
		b := t.Attribute(i)
		if nulls.IsNull(rec[idx]) {
			b.AppendNull()
			continue
		}
		if err := b.Parse(rec[idx]); err != nil {
			return fmt.Errorf("row %d parse %s: %w", row, t.Spec().Attributes[i].Name, err)
		}
	}
	return nil
}

func inferType(values []string, nulls NullMatcher) array.DataType {
	allInt := true
	allFloat := true
	allBool := true
	for i := range values {
		if nulls.IsNull(values[i]) {
			continue
		}
		if _, err := strconv.ParseInt(values[i], 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(values[i], 64); err != nil {
			allFloat = false
		}
		if _, err := strconv.ParseBool(strings.ToLower(values[i])); err != nil {
			allBool = false
		}
		if !allInt && !allFloat && !allBool {
			return array.Utf8()
		}
	}
	if allInt {
		return array.Int(64)
	}
	if allFloat {
		return array.Float(64)
	}
	if allBool {
		return array.Bool()
	}
	return array.Utf8()
}

// fastParseKey handles the common all-digit key without strconv. It reports
// false for anything else, including values that would overflow.
func fastParseKey(raw string) (uint64, bool) {
	if raw == "" || len(raw) > 19 {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	return n, true
}
