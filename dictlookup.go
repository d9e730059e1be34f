package dictlookup

import (
	"context"

	"github.com/rs/zerolog"

	"dictlookup/internal/array"
	"dictlookup/internal/block"
	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/function"
	"dictlookup/internal/reader"
	"dictlookup/internal/source"
)

// This package is the public API surface.
//
// Implementation lives in internal packages:
// - internal/array: columns, bitmaps, schema, builders
// - internal/block: positional column blocks
// - internal/function: callable contract and registry
// - internal/dictionary: dictionaries, catalog, dictHas/dictGet
// - internal/reader: bindings, batched lookup, pools, metrics
// - internal/source: csv, json and arrow dictionary loaders

type Kind = array.Kind
type DataType = array.DataType
type Field = array.Field
type Schema = array.Schema
type Column = array.Column

type Block = block.Block
type Dictionary = dictionary.Dictionary
type Catalog = dictionary.Catalog

type Reader = reader.Reader
type ReaderOption = reader.Option
type Result = reader.Result
type Pool = reader.Pool
type Resolver = reader.Resolver
type Metrics = reader.Metrics
type TypeMismatchError = reader.TypeMismatchError

// DictionarySource describes a dictionary file, as in the config file.
type DictionarySource = config.Dictionary
type Attribute = config.Attribute

const (
	KindInvalid = array.KindInvalid
	KindInt     = array.KindInt
	KindUInt    = array.KindUInt
	KindFloat   = array.KindFloat
	KindBool    = array.KindBool
	KindUtf8    = array.KindUtf8
)

const (
	FormatCSV   = config.FormatCSV
	FormatJSON  = config.FormatJSON
	FormatArrow = config.FormatArrow
)

var (
	ErrArityMismatch       = reader.ErrArityMismatch
	ErrTypeMismatch        = reader.ErrTypeMismatch
	ErrUnsupportedKeyArity = reader.ErrUnsupportedKeyArity
	ErrInvalidKeyArity     = reader.ErrInvalidKeyArity
	ErrUnknownDictionary   = dictionary.ErrUnknownDictionary
	ErrUnknownAttribute    = dictionary.ErrUnknownAttribute
	ErrDuplicateKey        = dictionary.ErrDuplicateKey
)

func Int(bits uint8) DataType      { return array.Int(bits) }
func UInt(bits uint8) DataType     { return array.UInt(bits) }
func Float(bits uint8) DataType    { return array.Float(bits) }
func Bool() DataType               { return array.Bool() }
func Utf8() DataType               { return array.Utf8() }
func Nullable(t DataType) DataType { return array.Nullable(t) }

func ParseDataType(s string) (DataType, error) { return array.ParseDataType(s) }

func NewUInt64Column(name string, data []uint64, valid []bool) (*array.UInt64Column, error) {
	return array.NewUInt64Column(name, data, valid)
}
func NewInt64Column(name string, data []int64, valid []bool) (*array.Int64Column, error) {
	return array.NewInt64Column(name, data, valid)
}
func NewFloat64Column(name string, data []float64, valid []bool) (*array.Float64Column, error) {
	return array.NewFloat64Column(name, data, valid)
}
func NewBoolColumn(name string, data []bool, valid []bool) (*array.BoolColumn, error) {
	return array.NewBoolColumn(name, data, valid)
}
func NewUtf8Column(name string, data []string, valid []bool) (*array.Utf8Column, error) {
	return array.NewUtf8Column(name, data, valid)
}

// NewColumn builds a column from a Go slice such as []uint64 or []string.
func NewColumn(name string, values any) (Column, error) { return array.ColumnFromAny(name, values) }

// NewDictionary indexes keys, which must be a non-null uint64 column without
// duplicates, and adopts one attribute column per name.
func NewDictionary(name string, keys Column, attrs ...Column) (*Dictionary, error) {
	return dictionary.New(name, keys, attrs...)
}

func WithLogger(l zerolog.Logger) ReaderOption { return reader.WithLogger(l) }
func WithMetrics(m *Metrics) ReaderOption      { return reader.WithMetrics(m) }
func WithKeyArity(n int) ReaderOption          { return reader.WithKeyArity(n) }

// Engine pairs a dictionary catalog with the registry resolving dictHas and
// dictGet against it.
type Engine struct {
	catalog *dictionary.Catalog
	funcs   *function.Registry
	logger  zerolog.Logger
}

func NewEngine() (*Engine, error) {
	e := &Engine{
		catalog: dictionary.NewCatalog(),
		funcs:   function.NewRegistry(),
		logger:  zerolog.Nop(),
	}
	if err := dictionary.Register(e.funcs, e.catalog); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLogger sets the logger used for loading and by readers from NewReader.
func (e *Engine) SetLogger(l zerolog.Logger) { e.logger = l }

func (e *Engine) Catalog() *Catalog  { return e.catalog }
func (e *Engine) Resolver() Resolver { return reader.FromRegistry(e.funcs) }

// Add publishes d under its name.
func (e *Engine) Add(d *Dictionary) error { return e.catalog.Add(d) }

// Load reads the sources concurrently and publishes them. Nothing is
// published when any source fails.
func (e *Engine) Load(ctx context.Context, sources ...DictionarySource) error {
	return source.LoadAll(ctx, e.catalog, sources, e.logger)
}

// NewReader binds a reader fetching sourceColumns[i] of dictionary into
// result[i].
func (e *Engine) NewReader(dictionary string, sourceColumns []string, result []Field, opts ...ReaderOption) (*Reader, error) {
	opts = append([]ReaderOption{reader.WithLogger(e.logger)}, opts...)
	return reader.New(dictionary, sourceColumns, result, e.Resolver(), opts...)
}

// NewPool shares up to size readers built like NewReader.
func (e *Engine) NewPool(size int, dictionary string, sourceColumns []string, result []Field, opts ...ReaderOption) (*Pool, error) {
	return reader.NewPool(size, func() (*Reader, error) {
		return e.NewReader(dictionary, sourceColumns, result, opts...)
	})
}
