package array

import (
	"fmt"
	"strconv"
)

// Column is the internal column interface used by lookup kernels.
// It is intentionally small: no mutating access is exposed.
type Column interface {
	Name() string
	DType() DataType
	Len() int
	IsNull(i int) bool
	ValueString(i int) string
	// Any returns the row value boxed, or nil when the row is null.
	Any(i int) any
	// Filter keeps rows whose mask entry is true, preserving order.
	Filter(mask []bool) Column
	Take(order []int) Column
	// Resized copies the first n rows, padding with valid zero values.
	Resized(n int) Column
}

type typeOps[T any] struct {
	dtype    DataType
	toString func(T) string
}

type typedColumn[T any] struct {
	name  string
	data  []T
	valid Bitmap
	ops   typeOps[T]
	build func(name string, data []T, valid Bitmap) Column
}

func (c *typedColumn[T]) Name() string      { return c.name }
func (c *typedColumn[T]) DType() DataType   { return c.ops.dtype }
func (c *typedColumn[T]) Len() int          { return len(c.data) }
func (c *typedColumn[T]) IsNull(i int) bool { return !c.valid.Get(i) }
func (c *typedColumn[T]) ValueString(i int) string {
	if c.IsNull(i) {
		return ""
	}
	return c.ops.toString(c.data[i])
}

func (c *typedColumn[T]) Any(i int) any {
	if c.IsNull(i) {
		return nil
	}
	return c.data[i]
}

func (c *typedColumn[T]) Filter(mask []bool) Column {
	n := 0
	for i := range mask {
		if mask[i] {
			n++
		}
	}
	out := make([]T, n)
	valid := BitmapBuilder{}
	valid.Reserve(n)
	idx := 0
	for i := range c.data {
		if !mask[i] {
			continue
		}
		out[idx] = c.data[i]
		valid.Append(!c.IsNull(i))
		idx++
	}
	return c.build(c.name, out, valid.Build())
}

func (c *typedColumn[T]) Take(order []int) Column {
	out := make([]T, len(order))
	valid := BitmapBuilder{}
	valid.Reserve(len(order))
	for i := range order {
		row := order[i]
		out[i] = c.data[row]
		valid.Append(!c.IsNull(row))
	}
	return c.build(c.name, out, valid.Build())
}

func (c *typedColumn[T]) Resized(n int) Column {
	out := make([]T, n)
	copy(out, c.data)
	return c.build(c.name, out, c.valid.Resize(len(c.data), n))
}

type (
	Int64Column   struct{ typedColumn[int64] }
	UInt64Column  struct{ typedColumn[uint64] }
	UInt8Column   struct{ typedColumn[uint8] }
	Float64Column struct{ typedColumn[float64] }
	BoolColumn    struct{ typedColumn[bool] }
)

func (c *Int64Column) Value(i int) int64     { return c.data[i] }
func (c *UInt64Column) Value(i int) uint64   { return c.data[i] }
func (c *UInt8Column) Value(i int) uint8     { return c.data[i] }
func (c *Float64Column) Value(i int) float64 { return c.data[i] }
func (c *BoolColumn) Value(i int) bool       { return c.data[i] }

func (c *Int64Column) Values() []int64     { return append([]int64(nil), c.data...) }
func (c *UInt64Column) Values() []uint64   { return append([]uint64(nil), c.data...) }
func (c *UInt8Column) Values() []uint8     { return append([]uint8(nil), c.data...) }
func (c *Float64Column) Values() []float64 { return append([]float64(nil), c.data...) }
func (c *BoolColumn) Values() []bool       { return append([]bool(nil), c.data...) }

// TakeData moves the backing slice out of the column. The column is left
// empty and must not be used afterwards.
func (c *BoolColumn) TakeData() []bool {
	d := c.data
	if d == nil {
		d = []bool{}
	}
	c.data = nil
	c.valid = Bitmap{}
	return d
}

type Utf8Column struct {
	name    string
	offsets []int32
	bytes   []byte
	valid   Bitmap
}

func (c *Utf8Column) Name() string      { return c.name }
func (c *Utf8Column) DType() DataType   { return Utf8() }
func (c *Utf8Column) Len() int          { return len(c.offsets) - 1 }
func (c *Utf8Column) IsNull(i int) bool { return !c.valid.Get(i) }
func (c *Utf8Column) Values() []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}
func (c *Utf8Column) byteRange(i int) (int, int) { return int(c.offsets[i]), int(c.offsets[i+1]) }
func (c *Utf8Column) Value(i int) string {
	s, e := c.byteRange(i)
	return string(c.bytes[s:e])
}

func (c *Utf8Column) ValueString(i int) string {
	if c.IsNull(i) {
		return ""
	}
	return c.Value(i)
}

func (c *Utf8Column) Any(i int) any {
	if c.IsNull(i) {
		return nil
	}
	return c.Value(i)
}

func (c *Utf8Column) ValueLen(i int) int {
	s, e := c.byteRange(i)
	return e - s
}

func (c *Utf8Column) Filter(mask []bool) Column {
	n := 0
	for i := range mask {
		if mask[i] {
			n++
		}
	}
	offsets := make([]int32, 1, n+1)
	bytesOut := make([]byte, 0, len(c.bytes)/2)
	valid := BitmapBuilder{}
	valid.Reserve(n)
	for i := 0; i < c.Len(); i++ {
		if !mask[i] {
			continue
		}
		s, e := c.byteRange(i)
		bytesOut = append(bytesOut, c.bytes[s:e]...)
		offsets = append(offsets, int32(len(bytesOut)))
		valid.Append(!c.IsNull(i))
	}
	return NewUtf8ColumnOwned(c.name, offsets, bytesOut, valid.Build())
}

func (c *Utf8Column) Take(order []int) Column {
	offsets := make([]int32, 1, len(order)+1)
	bytesOut := make([]byte, 0, len(c.bytes))
	valid := BitmapBuilder{}
	valid.Reserve(len(order))
	for i := range order {
		row := order[i]
		s, e := c.byteRange(row)
		bytesOut = append(bytesOut, c.bytes[s:e]...)
		offsets = append(offsets, int32(len(bytesOut)))
		valid.Append(!c.IsNull(row))
	}
	return NewUtf8ColumnOwned(c.name, offsets, bytesOut, valid.Build())
}

func (c *Utf8Column) Resized(n int) Column {
	have := c.Len()
	keep := min(have, n)
	end := c.offsets[keep]
	offsets := make([]int32, n+1)
	copy(offsets, c.offsets[:keep+1])
	for i := keep + 1; i <= n; i++ {
		offsets[i] = end
	}
	bytesOut := append([]byte(nil), c.bytes[:end]...)
	return NewUtf8ColumnOwned(c.name, offsets, bytesOut, c.valid.Resize(have, n))
}

func validityFor(n int, valid []bool) (Bitmap, error) {
	if valid == nil {
		return NewBitmap(n, true), nil
	}
	if len(valid) != n {
		return Bitmap{}, fmt.Errorf("valid length %d != data length %d", len(valid), n)
	}
	return NewBitmapFromBools(valid), nil
}

func NewInt64Column(name string, data []int64, valid []bool) (*Int64Column, error) {
	v, err := validityFor(len(data), valid)
	if err != nil {
		return nil, err
	}
	return NewInt64ColumnOwned(name, append([]int64(nil), data...), v).(*Int64Column), nil
}

func NewUInt64Column(name string, data []uint64, valid []bool) (*UInt64Column, error) {
	v, err := validityFor(len(data), valid)
	if err != nil {
		return nil, err
	}
	return NewUInt64ColumnOwned(name, append([]uint64(nil), data...), v).(*UInt64Column), nil
}

func NewUInt8Column(name string, data []uint8, valid []bool) (*UInt8Column, error) {
	v, err := validityFor(len(data), valid)
	if err != nil {
		return nil, err
	}
	return NewUInt8ColumnOwned(name, append([]uint8(nil), data...), v).(*UInt8Column), nil
}

func NewFloat64Column(name string, data []float64, valid []bool) (*Float64Column, error) {
	v, err := validityFor(len(data), valid)
	if err != nil {
		return nil, err
	}
	return NewFloat64ColumnOwned(name, append([]float64(nil), data...), v).(*Float64Column), nil
}

func NewBoolColumn(name string, data []bool, valid []bool) (*BoolColumn, error) {
	v, err := validityFor(len(data), valid)
	if err != nil {
		return nil, err
	}
	return NewBoolColumnOwned(name, append([]bool(nil), data...), v).(*BoolColumn), nil
}

func NewUtf8Column(name string, data []string, valid []bool) (*Utf8Column, error) {
	v, err := validityFor(len(data), valid)
	if err != nil {
		return nil, err
	}
	offsets := make([]int32, 1, len(data)+1)
	buf := make([]byte, 0, len(data)*8)
	for i := range data {
		if valid == nil || valid[i] {
			buf = append(buf, data[i]...)
		}
		offsets = append(offsets, int32(len(buf)))
	}
	return &Utf8Column{name: name, offsets: offsets, bytes: buf, valid: v}, nil
}

func MustNewInt64Column(name string, data []int64, valid []bool) *Int64Column {
	c, err := NewInt64Column(name, data, valid)
	if err != nil {
		panic(err)
	}
	return c
}

func MustNewUInt64Column(name string, data []uint64, valid []bool) *UInt64Column {
	c, err := NewUInt64Column(name, data, valid)
	if err != nil {
		panic(err)
	}
	return c
}

func MustNewFloat64Column(name string, data []float64, valid []bool) *Float64Column {
	c, err := NewFloat64Column(name, data, valid)
	if err != nil {
		panic(err)
	}
	return c
}

func MustNewBoolColumn(name string, data []bool, valid []bool) *BoolColumn {
	c, err := NewBoolColumn(name, data, valid)
	if err != nil {
		panic(err)
	}
	return c
}

func MustNewUtf8Column(name string, data []string, valid []bool) *Utf8Column {
	c, err := NewUtf8Column(name, data, valid)
	if err != nil {
		panic(err)
	}
	return c
}

// Owned constructors: avoid copying input slices. These are internal APIs used
// by sources and lookup kernels.
func NewInt64ColumnOwned(name string, data []int64, valid Bitmap) Column {
	return &Int64Column{typedColumn[int64]{name: name, data: data, valid: valid, ops: int64Ops, build: NewInt64ColumnOwned}}
}

func NewUInt64ColumnOwned(name string, data []uint64, valid Bitmap) Column {
	return &UInt64Column{typedColumn[uint64]{name: name, data: data, valid: valid, ops: uint64Ops, build: NewUInt64ColumnOwned}}
}

func NewUInt8ColumnOwned(name string, data []uint8, valid Bitmap) Column {
	return &UInt8Column{typedColumn[uint8]{name: name, data: data, valid: valid, ops: uint8Ops, build: NewUInt8ColumnOwned}}
}

func NewFloat64ColumnOwned(name string, data []float64, valid Bitmap) Column {
	return &Float64Column{typedColumn[float64]{name: name, data: data, valid: valid, ops: float64Ops, build: NewFloat64ColumnOwned}}
}

func NewBoolColumnOwned(name string, data []bool, valid Bitmap) Column {
	return &BoolColumn{typedColumn[bool]{name: name, data: data, valid: valid, ops: boolOps, build: NewBoolColumnOwned}}
}

func NewUtf8ColumnOwned(name string, offsets []int32, bytes []byte, valid Bitmap) Column {
	return &Utf8Column{name: name, offsets: offsets, bytes: bytes, valid: valid}
}

// NewEmptyColumn returns a zero-row column of the given physical type.
func NewEmptyColumn(name string, dtype DataType) (Column, error) {
	switch dtype.StripNullable() {
	case Int(64):
		return NewInt64ColumnOwned(name, []int64{}, Bitmap{}), nil
	case UInt(64):
		return NewUInt64ColumnOwned(name, []uint64{}, Bitmap{}), nil
	case UInt(8):
		return NewUInt8ColumnOwned(name, []uint8{}, Bitmap{}), nil
	case Float(64):
		return NewFloat64ColumnOwned(name, []float64{}, Bitmap{}), nil
	case Bool():
		return NewBoolColumnOwned(name, []bool{}, Bitmap{}), nil
	case Utf8():
		return NewUtf8ColumnOwned(name, []int32{0}, nil, Bitmap{}), nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", dtype)
	}
}

var int64Ops = typeOps[int64]{
	dtype:    Int(64),
	toString: func(v int64) string { return strconv.FormatInt(v, 10) },
}

var uint64Ops = typeOps[uint64]{
	dtype:    UInt(64),
	toString: func(v uint64) string { return strconv.FormatUint(v, 10) },
}

var uint8Ops = typeOps[uint8]{
	dtype:    UInt(8),
	toString: func(v uint8) string { return strconv.FormatUint(uint64(v), 10) },
}

var float64Ops = typeOps[float64]{
	dtype:    Float(64),
	toString: func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) },
}

var boolOps = typeOps[bool]{
	dtype:    Bool(),
	toString: strconv.FormatBool,
}
