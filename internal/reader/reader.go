// Package reader performs batched key lookups against a named dictionary.
//
// A Reader checks key existence for a whole batch, compacts the batch to the
// keys that exist, fetches every requested attribute for that compacted set
// and returns the dense result together with a per-row found flag and the
// row's position in the dense result.
package reader

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dictlookup/internal/array"
	"dictlookup/internal/block"
)

const (
	dictSlot = "dict"
	keySlot  = "key"
	hasSlot  = "has"
)

// Result is the outcome of one Lookup.
//
// Block holds one row per found key, in input order. Positions[i] is the row
// of input key i in Block and is only meaningful when Found[i] is true.
type Result struct {
	Block     *block.Block
	Found     []bool
	Positions []int

	rows int
}

// Rows is the number of found keys, which is also the height of Block.
func (r Result) Rows() int { return r.rows }

// Reader looks up attributes of one dictionary. The scratch block is reused
// across calls, so a Reader must not be used by more than one goroutine at a
// time; use a Pool to share readers.
type Reader struct {
	dictionary string
	result     array.Schema
	sample     *block.Block
	scratch    *block.Block
	keyPos     int
	has        *FunctionBinding
	gets       []*FunctionBinding
	logger     zerolog.Logger
	metrics    *Metrics
}

type Option func(*options)

type options struct {
	keyArity int
	logger   zerolog.Logger
	metrics  *Metrics
}

// WithKeyArity declares how many key columns lookups will supply. Only one
// is supported.
func WithKeyArity(n int) Option { return func(o *options) { o.keyArity = n } }

func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

func WithMetrics(m *Metrics) Option { return func(o *options) { o.metrics = m } }

// New binds a reader for dictionary. sourceColumns[i] names the dictionary
// attribute read into result[i]; result types may be nullable, the wrapper is
// stripped before the type check.
func New(dictionary string, sourceColumns []string, result []array.Field, resolver Resolver, opts ...Option) (*Reader, error) {
	o := options{keyArity: 1, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if len(sourceColumns) != len(result) {
		return nil, fmt.Errorf("%w: %d source columns, %d result columns", ErrArityMismatch, len(sourceColumns), len(result))
	}
	if o.keyArity > 1 {
		return nil, fmt.Errorf("%w: got %d key columns", ErrUnsupportedKeyArity, o.keyArity)
	}
	if o.keyArity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyArity, o.keyArity)
	}
	if resolver == nil {
		return nil, fmt.Errorf("dictionary reader %s: resolver required", dictionary)
	}

	fields := make([]array.Field, len(result))
	for i := range result {
		fields[i] = array.Field{Name: result[i].Name, Type: result[i].Type.StripNullable()}
	}
	schema, err := array.NewSchema(fields)
	if err != nil {
		return nil, fmt.Errorf("dictionary reader %s: %w", dictionary, err)
	}

	existence, err := resolver.ExistenceCheck()
	if err != nil {
		return nil, err
	}
	retrieval, err := resolver.ValueRetrieval()
	if err != nil {
		return nil, err
	}

	sample, err := block.New(block.Slot{Name: dictSlot, Type: array.Utf8(), Column: array.NewConstUtf8(dictSlot, dictionary, 1)})
	if err != nil {
		return nil, err
	}
	sourcePos := make([]int, len(sourceColumns))
	for i, src := range sourceColumns {
		name := "col_" + src
		sourcePos[i], err = sample.Insert(block.Slot{Name: name, Type: array.Utf8(), Column: array.NewConstUtf8(name, src, 1)})
		if err != nil {
			return nil, err
		}
	}
	keyPos, err := sample.Insert(block.Slot{Name: keySlot, Type: array.UInt(64)})
	if err != nil {
		return nil, err
	}

	has, err := newFunctionBinding(existence, sample, []int{0, keyPos}, hasSlot, "", array.Bool())
	if err != nil {
		return nil, err
	}
	gets := make([]*FunctionBinding, len(fields))
	for i := range fields {
		gets[i], err = newFunctionBinding(retrieval, sample, []int{0, sourcePos[i], keyPos}, "get_"+fields[i].Name, fields[i].Name, fields[i].Type)
		if err != nil {
			return nil, err
		}
	}

	r := &Reader{
		dictionary: dictionary,
		result:     schema,
		sample:     sample,
		scratch:    sample.Clone(),
		keyPos:     keyPos,
		has:        has,
		gets:       gets,
		logger:     o.logger.With().Str("dictionary", dictionary).Logger(),
		metrics:    o.metrics,
	}
	r.logger.Debug().
		Strs("sources", sourceColumns).
		Int("attributes", len(gets)).
		Msg("dictionary reader bound")
	return r, nil
}

func (r *Reader) Dictionary() string   { return r.dictionary }
func (r *Reader) Schema() array.Schema { return r.result }

// Lookup resolves the first rows keys. Errors from the bound callables are
// returned unchanged.
func (r *Reader) Lookup(keys array.Column, rows int) (Result, error) {
	start := time.Now()
	res, err := r.lookup(keys, rows)
	r.metrics.observe(r.dictionary, rows, res, err, time.Since(start))
	if err != nil {
		r.logger.Debug().Err(err).Int("rows", rows).Msg("lookup failed")
	}
	return res, err
}

func (r *Reader) lookup(keys array.Column, rows int) (Result, error) {
	if keys == nil {
		return Result{}, fmt.Errorf("dictionary reader %s: nil key column", r.dictionary)
	}
	if rows < 0 {
		return Result{}, fmt.Errorf("dictionary reader %s: rows must be >= 0, got %d", r.dictionary, rows)
	}
	work := r.scratch
	work.ResetFrom(r.sample)
	defer work.ResetFrom(r.sample)

	if err := work.Set(r.keyPos, keys.Resized(rows)); err != nil {
		return Result{}, fmt.Errorf("dictionary reader %s: %w", r.dictionary, err)
	}
	if err := r.has.Execute(work, rows); err != nil {
		return Result{}, err
	}
	flags, ok := work.Detach(r.has.Result()).(*array.BoolColumn)
	if !ok {
		return Result{}, fmt.Errorf("dictionary reader %s: existence check produced no bool column", r.dictionary)
	}
	found := flags.TakeData()
	if len(found) != rows {
		return Result{}, fmt.Errorf("dictionary reader %s: existence check returned %d flags for %d keys", r.dictionary, len(found), rows)
	}

	positions := make([]int, rows)
	pos := 0
	for i := range found {
		if found[i] {
			positions[i] = pos
			pos++
		}
	}

	if err := work.Set(r.keyPos, work.Column(r.keyPos).Filter(found)); err != nil {
		return Result{}, err
	}
	for _, g := range r.gets {
		if err := g.Execute(work, pos); err != nil {
			return Result{}, err
		}
	}

	out := block.FromSchema(r.result)
	for i, g := range r.gets {
		col := work.Detach(g.Result())
		if col == nil {
			return Result{}, fmt.Errorf("dictionary reader %s: attribute %s produced no column", r.dictionary, r.result.Fields[i].Name)
		}
		col, err := array.WithName(col, r.result.Fields[i].Name)
		if err != nil {
			return Result{}, err
		}
		if err := out.Set(i, col); err != nil {
			return Result{}, err
		}
	}
	return Result{Block: out, Found: found, Positions: positions, rows: pos}, nil
}
