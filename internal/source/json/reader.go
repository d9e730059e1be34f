// Package json loads dictionaries from a JSON array of objects or from
// newline-delimited JSON objects.
package json

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/source/loader"
)

// Read loads spec.Path. Every attribute must carry a declared type. A field
// that is absent or null in an object becomes a null row.
func Read(ctx context.Context, spec config.Dictionary) (*dictionary.Dictionary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cancellable := ctx.Done() != nil
	if cancellable {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	types, declared, err := loader.DeclaredTypes(spec)
	if err != nil {
		return nil, err
	}
	for i := range declared {
		if !declared[i] {
			return nil, fmt.Errorf("dictionary %s attribute %s: json sources need a declared type", spec.Name, spec.Attributes[i].Name)
		}
	}

	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	first, err := peekFirstNonSpaceByte(br)
	if err == io.EOF {
		return nil, fmt.Errorf("empty json")
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var rows []map[string]any
	if first == '[' {
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("decoding json array: %w", err)
		}
	} else {
		// One object per line.
		for {
			if cancellable {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			var obj map[string]any
			err := dec.Decode(&obj)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decoding json object %d: %w", len(rows)+1, err)
			}
			rows = append(rows, obj)
		}
	}

	table, err := loader.NewTable(spec, types, len(rows))
	if err != nil {
		return nil, err
	}
	const ctxCheckMask = 1024 - 1
	for i, obj := range rows {
		if cancellable && (i&ctxCheckMask) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := appendObject(table, obj, i+1); err != nil {
			return nil, err
		}
	}
	return table.Build()
}

func appendObject(t *loader.Table, obj map[string]any, row int) error {
	spec := t.Spec()
	if obj == nil {
		return fmt.Errorf("row %d: expected json object", row)
	}
	if err := t.Keys().Append(obj[spec.Key]); err != nil {
		return fmt.Errorf("row %d key: %w", row, err)
	}
	for i, a := range spec.Attributes {
		if err := t.Attribute(i).Append(obj[a.SourceColumn()]); err != nil {
			return fmt.Errorf("row %d %s: %w", row, a.Name, err)
		}
	}
	return nil
}

func peekFirstNonSpaceByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
