package array

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Builder accumulates row values of one type. Sources feed it raw text
// (Parse) or already-decoded values (Append).
type Builder interface {
	AppendNull()
	Parse(raw string) error
	Append(v any) error
	Len() int
	Build(name string) Column
}

type genericBuilder[T any] struct {
	data      []T
	valid     BitmapBuilder
	parse     func(string) (T, error)
	convert   func(any) (T, error)
	construct func(name string, data []T, valid Bitmap) Column
}

func (b *genericBuilder[T]) AppendNull() {
	var zero T
	b.data = append(b.data, zero)
	b.valid.Append(false)
}

func (b *genericBuilder[T]) Parse(raw string) error {
	v, err := b.parse(raw)
	if err != nil {
		return err
	}
	b.data = append(b.data, v)
	b.valid.Append(true)
	return nil
}

func (b *genericBuilder[T]) Append(v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	if s, ok := v.(string); ok {
		return b.Parse(s)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return b.Parse(s.String())
	}
	x, err := b.convert(v)
	if err != nil {
		return err
	}
	b.data = append(b.data, x)
	b.valid.Append(true)
	return nil
}

func (b *genericBuilder[T]) Len() int { return len(b.data) }

func (b *genericBuilder[T]) Build(name string) Column {
	return b.construct(name, b.data, b.valid.Build())
}

type utf8Builder struct {
	offsets []int32
	bytes   []byte
	valid   BitmapBuilder
}

func (b *utf8Builder) AppendNull() {
	b.valid.Append(false)
	b.offsets = append(b.offsets, int32(len(b.bytes)))
}

func (b *utf8Builder) Parse(raw string) error {
	b.valid.Append(true)
	b.bytes = append(b.bytes, raw...)
	b.offsets = append(b.offsets, int32(len(b.bytes)))
	return nil
}

func (b *utf8Builder) Append(v any) error {
	switch x := v.(type) {
	case nil:
		b.AppendNull()
		return nil
	case string:
		return b.Parse(x)
	case fmt.Stringer:
		return b.Parse(x.String())
	case bool:
		return b.Parse(strconv.FormatBool(x))
	default:
		return b.Parse(fmt.Sprint(x))
	}
}

func (b *utf8Builder) Len() int { return len(b.offsets) - 1 }

func (b *utf8Builder) Build(name string) Column {
	return NewUtf8ColumnOwned(name, b.offsets, b.bytes, b.valid.Build())
}

// NewBuilder returns a builder for the physical type underneath dtype.
func NewBuilder(dtype DataType, rowsCap int) (Builder, error) {
	if rowsCap < 16 {
		rowsCap = 16
	}
	switch dtype.StripNullable() {
	case Int(64):
		return &genericBuilder[int64]{
			data:      make([]int64, 0, rowsCap),
			parse:     func(raw string) (int64, error) { return strconv.ParseInt(strings.TrimSpace(raw), 10, 64) },
			convert:   toInt64,
			construct: func(name string, data []int64, valid Bitmap) Column { return NewInt64ColumnOwned(name, data, valid) },
		}, nil
	case UInt(64):
		return &genericBuilder[uint64]{
			data:      make([]uint64, 0, rowsCap),
			parse:     ParseUInt64,
			convert:   toUInt64,
			construct: func(name string, data []uint64, valid Bitmap) Column { return NewUInt64ColumnOwned(name, data, valid) },
		}, nil
	case UInt(8):
		return &genericBuilder[uint8]{
			data: make([]uint8, 0, rowsCap),
			parse: func(raw string) (uint8, error) {
				v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 8)
				return uint8(v), err
			},
			convert: func(v any) (uint8, error) {
				u, err := toUInt64(v)
				if err != nil {
					return 0, err
				}
				if u > math.MaxUint8 {
					return 0, fmt.Errorf("value %d overflows uint8", u)
				}
				return uint8(u), nil
			},
			construct: func(name string, data []uint8, valid Bitmap) Column { return NewUInt8ColumnOwned(name, data, valid) },
		}, nil
	case Float(64):
		return &genericBuilder[float64]{
			data:      make([]float64, 0, rowsCap),
			parse:     func(raw string) (float64, error) { return strconv.ParseFloat(strings.TrimSpace(raw), 64) },
			convert:   toFloat64,
			construct: func(name string, data []float64, valid Bitmap) Column { return NewFloat64ColumnOwned(name, data, valid) },
		}, nil
	case Bool():
		return &genericBuilder[bool]{
			data:  make([]bool, 0, rowsCap),
			parse: func(raw string) (bool, error) { return strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw))) },
			convert: func(v any) (bool, error) {
				if b, ok := v.(bool); ok {
					return b, nil
				}
				return false, fmt.Errorf("cannot use %T as bool", v)
			},
			construct: func(name string, data []bool, valid Bitmap) Column { return NewBoolColumnOwned(name, data, valid) },
		}, nil
	case Utf8():
		return &utf8Builder{offsets: slices.Grow([]int32{0}, rowsCap), bytes: make([]byte, 0, rowsCap*8)}, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", dtype)
	}
}

// ParseUInt64 parses a decimal key, tolerating surrounding whitespace.
func ParseUInt64(raw string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("value %v is not an integer", x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("cannot use %T as int64", v)
	}
}

func toUInt64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case float64:
		if x < 0 || x != math.Trunc(x) {
			return 0, fmt.Errorf("value %v is not an unsigned integer", x)
		}
		return uint64(x), nil
	default:
		i, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("cannot use %T as uint64", v)
		}
		if i < 0 {
			return 0, fmt.Errorf("negative value %d for uint64", i)
		}
		return uint64(i), nil
	}
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	default:
		i, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("cannot use %T as float64", v)
		}
		return float64(i), nil
	}
}
