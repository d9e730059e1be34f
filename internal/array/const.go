package array

import "fmt"

// ConstColumn repeats a single value n times without materializing it.
type ConstColumn struct {
	name  string
	value Column
	n     int
}

func NewConstColumn(name string, value Column, n int) (*ConstColumn, error) {
	if value == nil || value.Len() != 1 {
		return nil, fmt.Errorf("constant column %s requires a single-row value", name)
	}
	if n < 0 {
		return nil, fmt.Errorf("constant column %s length must be >= 0", name)
	}
	return &ConstColumn{name: name, value: value, n: n}, nil
}

// NewConstUtf8 is the common case: a string constant such as a dictionary or
// attribute name.
func NewConstUtf8(name, value string, n int) *ConstColumn {
	return &ConstColumn{name: name, value: MustNewUtf8Column(name, []string{value}, nil), n: n}
}

func (c *ConstColumn) Name() string             { return c.name }
func (c *ConstColumn) DType() DataType          { return c.value.DType() }
func (c *ConstColumn) Len() int                 { return c.n }
func (c *ConstColumn) IsNull(int) bool          { return c.value.IsNull(0) }
func (c *ConstColumn) ValueString(int) string   { return c.value.ValueString(0) }
func (c *ConstColumn) Any(int) any              { return c.value.Any(0) }
func (c *ConstColumn) Value() Column            { return c.value }
func (c *ConstColumn) Take(order []int) Column  { return c.Resized(len(order)) }
func (c *ConstColumn) Resized(n int) Column     { return &ConstColumn{name: c.name, value: c.value, n: n} }
func (c *ConstColumn) Filter(mask []bool) Column {
	n := 0
	for i := range mask {
		if mask[i] {
			n++
		}
	}
	return c.Resized(n)
}

// ConstString returns the string held by a utf8 constant column.
func ConstString(col Column) (string, bool) {
	c, ok := col.(*ConstColumn)
	if !ok || c.DType() != Utf8() || c.IsNull(0) {
		return "", false
	}
	return c.ValueString(0), true
}
