// Package dictionary holds immutable, in-memory key/value dictionaries keyed
// by uint64 and the catalog that publishes them by name.
package dictionary

import (
	"errors"
	"fmt"

	"dictlookup/internal/array"
)

var (
	ErrUnknownDictionary   = errors.New("unknown dictionary")
	ErrUnknownAttribute    = errors.New("unknown dictionary attribute")
	ErrDuplicateKey        = errors.New("duplicate dictionary key")
	ErrDuplicateDictionary = errors.New("dictionary already exists")
)

// KeyType is the only supported key type.
var KeyType = array.UInt(64)

// Dictionary maps keys to rows of attribute columns.
type Dictionary struct {
	name   string
	keys   *array.UInt64Column
	index  map[uint64]int
	attrs  []array.Column
	schema array.Schema
}

// New indexes keys and adopts attrs. Keys must be unique and non-null; every
// attribute column must have one row per key.
func New(name string, keys array.Column, attrs ...array.Column) (*Dictionary, error) {
	if name == "" {
		return nil, fmt.Errorf("dictionary name required")
	}
	kc, ok := keys.(*array.UInt64Column)
	if !ok {
		return nil, fmt.Errorf("dictionary %s: key column must be %s, got %s", name, KeyType, keys.DType())
	}
	fields := make([]array.Field, len(attrs))
	for i := range attrs {
		if attrs[i].Len() != kc.Len() {
			return nil, fmt.Errorf("dictionary %s: attribute %s has %d rows, expected %d", name, attrs[i].Name(), attrs[i].Len(), kc.Len())
		}
		fields[i] = array.Field{Name: attrs[i].Name(), Type: attrs[i].DType()}
	}
	schema, err := array.NewSchema(fields)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", name, err)
	}
	index := make(map[uint64]int, kc.Len())
	for i := 0; i < kc.Len(); i++ {
		if kc.IsNull(i) {
			return nil, fmt.Errorf("dictionary %s: null key at row %d", name, i)
		}
		k := kc.Value(i)
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("%w: dictionary %s key %d", ErrDuplicateKey, name, k)
		}
		index[k] = i
	}
	return &Dictionary{name: name, keys: kc, index: index, attrs: attrs, schema: schema}, nil
}

func (d *Dictionary) Name() string         { return d.name }
func (d *Dictionary) Len() int             { return d.keys.Len() }
func (d *Dictionary) Schema() array.Schema { return d.schema }

func (d *Dictionary) Attribute(name string) (array.Field, error) {
	f, ok := d.schema.Lookup(name)
	if !ok {
		return array.Field{}, fmt.Errorf("%w: %s in dictionary %s", ErrUnknownAttribute, name, d.name)
	}
	return f, nil
}

func (d *Dictionary) attribute(name string) (array.Column, error) {
	for i := range d.attrs {
		if d.attrs[i].Name() == name {
			return d.attrs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s in dictionary %s", ErrUnknownAttribute, name, d.name)
}

// Has reports, for each of the first rows keys, whether the dictionary holds
// it. Null keys are never found.
func (d *Dictionary) Has(keys *array.UInt64Column, rows int) []bool {
	out := make([]bool, rows)
	for i := 0; i < rows; i++ {
		if keys.IsNull(i) {
			continue
		}
		_, out[i] = d.index[keys.Value(i)]
	}
	return out
}

// Get gathers one attribute for the first rows keys. Keys the dictionary does
// not hold yield null rows.
func (d *Dictionary) Get(attribute string, keys *array.UInt64Column, rows int) (array.Column, error) {
	col, err := d.attribute(attribute)
	if err != nil {
		return nil, err
	}
	order := make([]int, rows)
	complete := true
	for i := 0; i < rows; i++ {
		row, ok := -1, false
		if !keys.IsNull(i) {
			row, ok = d.index[keys.Value(i)]
		}
		if !ok {
			row = -1
			complete = false
		}
		order[i] = row
	}
	if complete {
		return col.Take(order), nil
	}
	b, err := array.NewBuilder(col.DType(), rows)
	if err != nil {
		return nil, err
	}
	for _, row := range order {
		if row < 0 {
			b.AppendNull()
			continue
		}
		if err := b.Append(col.Any(row)); err != nil {
			return nil, fmt.Errorf("dictionary %s attribute %s: %w", d.name, attribute, err)
		}
	}
	return b.Build(col.Name()), nil
}
