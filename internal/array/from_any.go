package array

import (
	"fmt"
	"reflect"
	"slices"
)

// ColumnFromAny builds a column from a Go slice. Slices of pointers map nil
// entries to null rows.
func ColumnFromAny(name string, values any) (Column, error) {
	switch v := values.(type) {
	case []uint64:
		return NewUInt64ColumnOwned(name, slices.Clone(v), NewBitmap(len(v), true)), nil
	case []int64:
		return NewInt64ColumnOwned(name, slices.Clone(v), NewBitmap(len(v), true)), nil
	case []uint8:
		return NewUInt8ColumnOwned(name, slices.Clone(v), NewBitmap(len(v), true)), nil
	case []float64:
		return NewFloat64ColumnOwned(name, slices.Clone(v), NewBitmap(len(v), true)), nil
	case []bool:
		return NewBoolColumnOwned(name, slices.Clone(v), NewBitmap(len(v), true)), nil
	case []string:
		return MustNewUtf8Column(name, v, nil), nil
	case []int:
		data := make([]int64, len(v))
		for i := range v {
			data[i] = int64(v[i])
		}
		return NewInt64ColumnOwned(name, data, NewBitmap(len(v), true)), nil
	case []uint:
		data := make([]uint64, len(v))
		for i := range v {
			data[i] = uint64(v[i])
		}
		return NewUInt64ColumnOwned(name, data, NewBitmap(len(v), true)), nil
	case []uint32:
		data := make([]uint64, len(v))
		for i := range v {
			data[i] = uint64(v[i])
		}
		return NewUInt64ColumnOwned(name, data, NewBitmap(len(v), true)), nil
	}
	rv := reflect.ValueOf(values)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("unsupported column values type %T", values)
	}
	return columnFromAnyReflect(name, rv)
}

func columnFromAnyReflect(name string, rv reflect.Value) (Column, error) {
	et := rv.Type().Elem()
	ptr := et.Kind() == reflect.Pointer
	if ptr {
		et = et.Elem()
	}
	var dtype DataType
	switch et.Kind() {
	case reflect.String:
		dtype = Utf8()
	case reflect.Bool:
		dtype = Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dtype = Int(64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dtype = UInt(64)
	case reflect.Float32, reflect.Float64:
		dtype = Float(64)
	default:
		return nil, fmt.Errorf("unsupported slice element type %s", rv.Type().Elem())
	}
	b, err := NewBuilder(dtype, rv.Len())
	if err != nil {
		return nil, err
	}
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i)
		if ptr {
			if e.IsNil() {
				b.AppendNull()
				continue
			}
			e = e.Elem()
		}
		var v any
		switch dtype.Kind {
		case KindUtf8:
			v = e.String()
		case KindBool:
			v = e.Bool()
		case KindInt:
			v = e.Int()
		case KindUInt:
			v = e.Uint()
		default:
			v = e.Convert(reflect.TypeOf(float64(0))).Float()
		}
		if err := b.Append(v); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.Build(name), nil
}
