package array

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindUInt
	KindFloat
	KindBool
	KindUtf8
)

// DataType describes a column's logical type.
//
// It is a small value type: Kind + parameters rather than a wide interface
// hierarchy. Nullable marks a declared wrapper that readers strip before
// comparing physical types.
type DataType struct {
	Kind     Kind
	Bits     uint8
	Nullable bool
}

func (t DataType) String() string {
	var s string
	switch t.Kind {
	case KindInt:
		s = fmt.Sprintf("int%d", t.Bits)
	case KindUInt:
		s = fmt.Sprintf("uint%d", t.Bits)
	case KindFloat:
		s = fmt.Sprintf("float%d", t.Bits)
	case KindBool:
		s = "bool"
	case KindUtf8:
		s = "utf8"
	default:
		return "invalid"
	}
	if t.Nullable {
		return "nullable(" + s + ")"
	}
	return s
}

// StripNullable returns the physical type underneath a nullable wrapper.
func (t DataType) StripNullable() DataType {
	t.Nullable = false
	return t
}

// Equal reports whether two types have the same kind, width and nullability.
func (t DataType) Equal(other DataType) bool {
	return t == other
}

func Int(bits uint8) DataType   { return DataType{Kind: KindInt, Bits: bits} }
func UInt(bits uint8) DataType  { return DataType{Kind: KindUInt, Bits: bits} }
func Float(bits uint8) DataType { return DataType{Kind: KindFloat, Bits: bits} }
func Bool() DataType            { return DataType{Kind: KindBool} }
func Utf8() DataType            { return DataType{Kind: KindUtf8} }

func Nullable(t DataType) DataType {
	t.Nullable = true
	return t
}

// ParseDataType accepts the names printed by DataType.String plus a few
// common aliases ("string", "int", "float", "double", "boolean").
func ParseDataType(s string) (DataType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if inner, ok := strings.CutPrefix(v, "nullable("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return DataType{}, fmt.Errorf("unterminated nullable type %q", s)
		}
		t, err := ParseDataType(inner)
		if err != nil {
			return DataType{}, err
		}
		if t.Nullable {
			return DataType{}, fmt.Errorf("nested nullable type %q", s)
		}
		return Nullable(t), nil
	}
	switch v {
	case "int64", "int":
		return Int(64), nil
	case "uint64", "uint":
		return UInt(64), nil
	case "uint8":
		return UInt(8), nil
	case "float64", "float", "double":
		return Float(64), nil
	case "bool", "boolean":
		return Bool(), nil
	case "utf8", "string", "str":
		return Utf8(), nil
	default:
		return DataType{}, fmt.Errorf("unsupported data type %q", s)
	}
}
