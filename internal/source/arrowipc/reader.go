// Package arrowipc loads dictionaries from Arrow IPC files, in either the
// random-access file format or the streaming format.
package arrowipc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v18/arrow"
	arrowarray "github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"dictlookup/internal/array"
	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/source/loader"
)

// Read loads spec.Path. Attributes without a declared type take the type of
// their Arrow field.
func Read(ctx context.Context, spec config.Dictionary) (*dictionary.Dictionary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	var (
		table *loader.Table
		cols  columns
	)
	visit := func(schema *arrow.Schema, rec arrow.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if table == nil {
			cols, err = resolveColumns(spec, schema)
			if err != nil {
				return err
			}
			table, err = loader.NewTable(spec, cols.types, int(rec.NumRows()))
			if err != nil {
				return err
			}
		}
		return appendRecord(table, cols, rec)
	}

	if fr, ferr := ipc.NewFileReader(f, ipc.WithAllocator(mem)); ferr == nil {
		defer fr.Close()
		for i := 0; i < fr.NumRecords(); i++ {
			rec, err := fr.Record(i)
			if err != nil {
				return nil, fmt.Errorf("reading record batch %d: %w", i, err)
			}
			if err := visit(fr.Schema(), rec); err != nil {
				return nil, err
			}
		}
		if table == nil {
			return emptyTable(spec, fr.Schema())
		}
		return table.Build()
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	sr, err := ipc.NewReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("%s is not an arrow ipc file or stream: %w", spec.Path, err)
	}
	defer sr.Release()
	for sr.Next() {
		if err := visit(sr.Schema(), sr.Record()); err != nil {
			return nil, err
		}
	}
	if err := sr.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	if table == nil {
		return emptyTable(spec, sr.Schema())
	}
	return table.Build()
}

type columns struct {
	key   int
	attrs []int
	types []array.DataType
}

func resolveColumns(spec config.Dictionary, schema *arrow.Schema) (columns, error) {
	key, err := fieldIndex(schema, spec.Key)
	if err != nil {
		return columns{}, err
	}
	types, declared, err := loader.DeclaredTypes(spec)
	if err != nil {
		return columns{}, err
	}
	cols := columns{key: key, attrs: make([]int, len(spec.Attributes)), types: types}
	for i, a := range spec.Attributes {
		idx, err := fieldIndex(schema, a.SourceColumn())
		if err != nil {
			return columns{}, err
		}
		cols.attrs[i] = idx
		if declared[i] {
			continue
		}
		cols.types[i], err = fromArrowType(schema.Field(idx).Type)
		if err != nil {
			return columns{}, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
	}
	return cols, nil
}

func emptyTable(spec config.Dictionary, schema *arrow.Schema) (*dictionary.Dictionary, error) {
	cols, err := resolveColumns(spec, schema)
	if err != nil {
		return nil, err
	}
	table, err := loader.NewTable(spec, cols.types, 0)
	if err != nil {
		return nil, err
	}
	return table.Build()
}

func fieldIndex(schema *arrow.Schema, name string) (int, error) {
	idx := schema.FieldIndices(name)
	switch len(idx) {
	case 0:
		return 0, fmt.Errorf("column %s not in arrow schema", name)
	case 1:
		return idx[0], nil
	default:
		return 0, fmt.Errorf("column %s appears %d times in arrow schema", name, len(idx))
	}
}

func fromArrowType(t arrow.DataType) (array.DataType, error) {
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return array.Int(64), nil
	case arrow.UINT8:
		return array.UInt(8), nil
	case arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return array.UInt(64), nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return array.Float(64), nil
	case arrow.BOOL:
		return array.Bool(), nil
	case arrow.STRING, arrow.LARGE_STRING:
		return array.Utf8(), nil
	default:
		return array.DataType{}, fmt.Errorf("unsupported arrow type %s", t)
	}
}

func appendRecord(t *loader.Table, cols columns, rec arrow.Record) error {
	n := int(rec.NumRows())
	if err := appendColumn(t.Keys(), rec.Column(cols.key), n); err != nil {
		return fmt.Errorf("key %s: %w", t.Spec().Key, err)
	}
	for i, idx := range cols.attrs {
		if err := appendColumn(t.Attribute(i), rec.Column(idx), n); err != nil {
			return fmt.Errorf("attribute %s: %w", t.Spec().Attributes[i].Name, err)
		}
	}
	return nil
}

func appendColumn(b array.Builder, arr arrow.Array, n int) error {
	for i := 0; i < n; i++ {
		if arr.IsNull(i) {
			b.AppendNull()
			continue
		}
		v, err := valueAt(arr, i)
		if err != nil {
			return err
		}
		if err := b.Append(v); err != nil {
			return err
		}
	}
	return nil
}

func valueAt(arr arrow.Array, i int) (any, error) {
	switch a := arr.(type) {
	case *arrowarray.Int8:
		return a.Value(i), nil
	case *arrowarray.Int16:
		return a.Value(i), nil
	case *arrowarray.Int32:
		return a.Value(i), nil
	case *arrowarray.Int64:
		return a.Value(i), nil
	case *arrowarray.Uint8:
		return a.Value(i), nil
	case *arrowarray.Uint16:
		return a.Value(i), nil
	case *arrowarray.Uint32:
		return a.Value(i), nil
	case *arrowarray.Uint64:
		return a.Value(i), nil
	case *arrowarray.Float32:
		return a.Value(i), nil
	case *arrowarray.Float64:
		return a.Value(i), nil
	case *arrowarray.Boolean:
		return a.Value(i), nil
	case *arrowarray.String:
		return a.Value(i), nil
	case *arrowarray.LargeString:
		return a.Value(i), nil
	default:
		return nil, fmt.Errorf("unsupported arrow type %s", arr.DataType())
	}
}
