package array

import "testing"

func TestNewColumnValidityLengthMismatch(t *testing.T) {
	if _, err := NewInt64Column("x", []int64{1, 2}, []bool{true}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewUInt64Column("x", []uint64{1, 2}, []bool{true}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewBoolColumn("x", []bool{true, false}, []bool{true}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewUtf8Column("x", []string{"a", "b"}, []bool{true}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValuesAreCopy(t *testing.T) {
	c := MustNewUInt64Column("x", []uint64{10, 20, 30}, nil)
	v := c.Values()
	v[0] = 999
	if got := c.Value(0); got != 10 {
		t.Fatalf("expected column to remain immutable, got %d", got)
	}
}

func TestFilterIsStable(t *testing.T) {
	c := MustNewUtf8Column("city", []string{"a", "b", "c", "d"}, []bool{true, false, true, true})
	out := c.Filter([]bool{false, true, true, true}).(*Utf8Column)
	if out.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.Len())
	}
	if !out.IsNull(0) {
		t.Fatalf("expected row 0 to stay null")
	}
	if out.Value(1) != "c" || out.Value(2) != "d" {
		t.Fatalf("unexpected order %v", out.Values())
	}
}

func TestResizedTruncatesAndPads(t *testing.T) {
	c := MustNewUInt64Column("key", []uint64{1, 2, 3}, []bool{true, false, true})
	short := c.Resized(2).(*UInt64Column)
	if short.Len() != 2 || short.Value(0) != 1 || !short.IsNull(1) {
		t.Fatalf("unexpected truncation %v", short.Values())
	}
	long := c.Resized(5).(*UInt64Column)
	if long.Len() != 5 {
		t.Fatalf("expected 5 rows, got %d", long.Len())
	}
	if long.IsNull(4) || long.Value(4) != 0 {
		t.Fatalf("expected padded row to be a valid zero")
	}

	s := MustNewUtf8Column("s", []string{"ab", "cd"}, nil)
	sr := s.Resized(3).(*Utf8Column)
	if sr.Value(1) != "cd" || sr.Value(2) != "" {
		t.Fatalf("unexpected utf8 resize %v", sr.Values())
	}
	if got := s.Resized(0).Len(); got != 0 {
		t.Fatalf("expected empty column, got %d", got)
	}
}

func TestBoolTakeDataMovesSlice(t *testing.T) {
	c := MustNewBoolColumn("has", []bool{true, false}, nil)
	data := c.TakeData()
	if len(data) != 2 || !data[0] || data[1] {
		t.Fatalf("unexpected data %v", data)
	}
	if c.Len() != 0 {
		t.Fatalf("expected column to be emptied, got %d", c.Len())
	}
	empty := MustNewBoolColumn("has", nil, nil)
	if got := empty.TakeData(); got == nil {
		t.Fatalf("expected non-nil empty slice")
	}
}

func TestConstColumn(t *testing.T) {
	c := NewConstUtf8("dict", "geo", 1)
	if s, ok := ConstString(c); !ok || s != "geo" {
		t.Fatalf("expected geo, got %q", s)
	}
	r := c.Resized(7)
	if r.Len() != 7 || r.ValueString(6) != "geo" {
		t.Fatalf("unexpected resized constant")
	}
	f := r.Filter([]bool{true, false, true, false, false, false, true})
	if f.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.Len())
	}
	if _, ok := ConstString(MustNewUtf8Column("x", []string{"geo"}, nil)); ok {
		t.Fatalf("plain column is not a constant")
	}
	if _, err := NewConstColumn("x", MustNewInt64Column("x", []int64{1, 2}, nil), 3); err == nil {
		t.Fatalf("expected error for multi-row value")
	}
}

func TestWithNameSharesData(t *testing.T) {
	c := MustNewFloat64Column("get_price", []float64{1.5}, nil)
	r, err := WithName(c, "price")
	if err != nil {
		t.Fatalf("WithName: %v", err)
	}
	if r.Name() != "price" || c.Name() != "get_price" {
		t.Fatalf("unexpected names %s %s", r.Name(), c.Name())
	}
	if _, err := WithName(c, ""); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestColumnFromAny(t *testing.T) {
	col, err := ColumnFromAny("k", []uint64{5, 6})
	if err != nil {
		t.Fatalf("ColumnFromAny: %v", err)
	}
	if col.DType() != UInt(64) {
		t.Fatalf("expected uint64, got %s", col.DType())
	}
	a, b := "x", "y"
	col, err = ColumnFromAny("s", []*string{&a, nil, &b})
	if err != nil {
		t.Fatalf("ColumnFromAny: %v", err)
	}
	if col.Len() != 3 || !col.IsNull(1) || col.ValueString(2) != "y" {
		t.Fatalf("unexpected pointer slice column")
	}
	if _, err := ColumnFromAny("bad", []struct{}{{}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuilderConversions(t *testing.T) {
	b, err := NewBuilder(UInt(64), 0)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if err := b.Append(float64(3)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Parse(" 18446744073709551615 "); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := b.Append(int64(-1)); err == nil {
		t.Fatalf("expected negative value to fail")
	}
	b.AppendNull()
	col := b.Build("k").(*UInt64Column)
	if col.Len() != 3 || col.Value(1) != ^uint64(0) || !col.IsNull(2) {
		t.Fatalf("unexpected column %v", col.Values())
	}
}
