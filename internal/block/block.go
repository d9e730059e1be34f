// Package block holds the positional, named and typed column container that
// lookup functions read their arguments from and write their results into.
package block

import (
	"fmt"

	"dictlookup/internal/array"
)

// Slot is one positional entry of a Block. Column may be nil while the slot
// is only a placeholder for a result that has not been computed yet.
type Slot struct {
	Name   string
	Type   array.DataType
	Column array.Column
}

// Block is an ordered list of slots addressed by position. Names need not be
// unique; the name index resolves to the first occurrence.
type Block struct {
	slots []Slot
	index map[string]int
}

func New(slots ...Slot) (*Block, error) {
	b := &Block{slots: make([]Slot, 0, len(slots)), index: make(map[string]int, len(slots))}
	for i := range slots {
		if _, err := b.Insert(slots[i]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// FromSchema returns a block with one empty slot per field.
func FromSchema(s array.Schema) *Block {
	b := &Block{slots: make([]Slot, len(s.Fields)), index: make(map[string]int, len(s.Fields))}
	for i, f := range s.Fields {
		b.slots[i] = Slot{Name: f.Name, Type: f.Type}
		if _, ok := b.index[f.Name]; !ok {
			b.index[f.Name] = i
		}
	}
	return b
}

// Insert appends a slot and returns its position.
func (b *Block) Insert(s Slot) (int, error) {
	if s.Name == "" {
		return 0, fmt.Errorf("slot name required")
	}
	if s.Column != nil && !s.Column.DType().Equal(s.Type.StripNullable()) {
		return 0, fmt.Errorf("slot %s declared %s but column is %s", s.Name, s.Type, s.Column.DType())
	}
	pos := len(b.slots)
	b.slots = append(b.slots, s)
	if _, ok := b.index[s.Name]; !ok {
		b.index[s.Name] = pos
	}
	return pos, nil
}

func (b *Block) Width() int { return len(b.slots) }

// At returns a copy of the slot at pos.
func (b *Block) At(pos int) Slot { return b.slots[pos] }

func (b *Block) Column(pos int) array.Column { return b.slots[pos].Column }

func (b *Block) Position(name string) (int, bool) {
	i, ok := b.index[name]
	return i, ok
}

// Set installs col at pos. The column must match the slot's physical type.
func (b *Block) Set(pos int, col array.Column) error {
	if pos < 0 || pos >= len(b.slots) {
		return fmt.Errorf("slot position %d out of range [0,%d)", pos, len(b.slots))
	}
	want := b.slots[pos].Type.StripNullable()
	if col != nil && !col.DType().Equal(want) {
		return fmt.Errorf("slot %s expects %s, got %s", b.slots[pos].Name, want, col.DType())
	}
	b.slots[pos].Column = col
	return nil
}

// Detach moves the column out of pos and leaves the slot empty.
func (b *Block) Detach(pos int) array.Column {
	col := b.slots[pos].Column
	b.slots[pos].Column = nil
	return col
}

// Clone returns a block with the same slots. Columns are shared, which is
// safe because they are immutable.
func (b *Block) Clone() *Block {
	out := &Block{}
	out.ResetFrom(b)
	return out
}

// CloneEmpty returns a block with the same names and types but no columns.
func (b *Block) CloneEmpty() *Block {
	out := b.Clone()
	for i := range out.slots {
		out.slots[i].Column = nil
	}
	return out
}

// ResetFrom overwrites b with the slots of src, reusing b's storage.
func (b *Block) ResetFrom(src *Block) {
	b.slots = append(b.slots[:0], src.slots...)
	if b.index == nil {
		b.index = make(map[string]int, len(src.index))
	}
	clear(b.index)
	for k, v := range src.index {
		b.index[k] = v
	}
}

// Rows is the length of the first populated slot, or 0 when none is set.
func (b *Block) Rows() int {
	for i := range b.slots {
		if b.slots[i].Column != nil {
			return b.slots[i].Column.Len()
		}
	}
	return 0
}

// Columns returns the populated columns in slot order.
func (b *Block) Columns() []array.Column {
	out := make([]array.Column, 0, len(b.slots))
	for i := range b.slots {
		if b.slots[i].Column != nil {
			out = append(out, b.slots[i].Column)
		}
	}
	return out
}

// ColumnByName resolves the first slot called name.
func (b *Block) ColumnByName(name string) (array.Column, bool) {
	i, ok := b.index[name]
	if !ok || b.slots[i].Column == nil {
		return nil, false
	}
	return b.slots[i].Column, true
}

func (b *Block) Schema() array.Schema {
	fields := make([]array.Field, len(b.slots))
	for i := range b.slots {
		fields[i] = array.Field{Name: b.slots[i].Name, Type: b.slots[i].Type}
	}
	s, err := array.NewSchema(fields)
	if err != nil {
		return array.Schema{Fields: fields}
	}
	return s
}
