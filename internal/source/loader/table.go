// Package loader accumulates decoded source rows into a dictionary.
package loader

import (
	"fmt"

	"dictlookup/internal/array"
	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
)

// Table collects one key column and one builder per configured attribute.
type Table struct {
	spec  config.Dictionary
	keys  array.Builder
	attrs []array.Builder
}

// NewTable prepares builders; types[i] is the physical type of attribute i.
func NewTable(spec config.Dictionary, types []array.DataType, rowsCap int) (*Table, error) {
	if len(types) != len(spec.Attributes) {
		return nil, fmt.Errorf("dictionary %s: %d types for %d attributes", spec.Name, len(types), len(spec.Attributes))
	}
	keys, err := array.NewBuilder(dictionary.KeyType, rowsCap)
	if err != nil {
		return nil, err
	}
	t := &Table{spec: spec, keys: keys, attrs: make([]array.Builder, len(types))}
	for i := range types {
		t.attrs[i], err = array.NewBuilder(types[i], rowsCap)
		if err != nil {
			return nil, fmt.Errorf("dictionary %s attribute %s: %w", spec.Name, spec.Attributes[i].Name, err)
		}
	}
	return t, nil
}

// DeclaredTypes returns the configured attribute types; ok[i] is false when
// attribute i must be inferred.
func DeclaredTypes(spec config.Dictionary) ([]array.DataType, []bool, error) {
	types := make([]array.DataType, len(spec.Attributes))
	ok := make([]bool, len(spec.Attributes))
	for i, a := range spec.Attributes {
		t, declared, err := a.DataType()
		if err != nil {
			return nil, nil, fmt.Errorf("dictionary %s attribute %s: %w", spec.Name, a.Name, err)
		}
		types[i], ok[i] = t.StripNullable(), declared
	}
	return types, ok, nil
}

func (t *Table) Keys() array.Builder             { return t.keys }
func (t *Table) Attribute(i int) array.Builder   { return t.attrs[i] }
func (t *Table) Spec() config.Dictionary         { return t.spec }
func (t *Table) Rows() int                       { return t.keys.Len() }

// Build indexes the collected rows.
func (t *Table) Build() (*dictionary.Dictionary, error) {
	cols := make([]array.Column, len(t.attrs))
	for i := range t.attrs {
		cols[i] = t.attrs[i].Build(t.spec.Attributes[i].Name)
	}
	return dictionary.New(t.spec.Name, t.keys.Build(t.spec.Key), cols...)
}
