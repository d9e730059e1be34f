package dictionary

import (
	"fmt"

	"dictlookup/internal/array"
	"dictlookup/internal/block"
	"dictlookup/internal/function"
)

const (
	HasFunctionName = function.DictHas
	GetFunctionName = function.DictGet
)

// Register installs dictHas and dictGet bound to c.
func Register(reg *function.Registry, c *Catalog) error {
	if err := reg.Register(NewHasFunction(c)); err != nil {
		return err
	}
	return reg.Register(NewGetFunction(c))
}

// HasFunction is dictHas(dictionary, key) -> bool.
type HasFunction struct {
	catalog *Catalog
}

func NewHasFunction(c *Catalog) *HasFunction { return &HasFunction{catalog: c} }

func (f *HasFunction) Name() string { return HasFunctionName }

func (f *HasFunction) Build(args []block.Slot) (function.Base, error) {
	if err := function.CheckArity(HasFunctionName, args, 2); err != nil {
		return nil, err
	}
	if _, err := function.ConstArgument(HasFunctionName, args, 0); err != nil {
		return nil, err
	}
	if err := function.CheckType(HasFunctionName, args, 1, KeyType); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *HasFunction) ReturnType() array.DataType { return array.Bool() }

func (f *HasFunction) Prepare(sample *block.Block, args []int, result int) (function.Executable, error) {
	if err := checkPositions(HasFunctionName, sample, args, result, 2); err != nil {
		return nil, err
	}
	return function.ExecutableFunc(f.execute), nil
}

func (f *HasFunction) execute(b *block.Block, args []int, result int, rows int) error {
	d, err := f.dictionary(b, args[0])
	if err != nil {
		return err
	}
	keys, err := keyColumn(b, args[1], rows)
	if err != nil {
		return err
	}
	found := d.Has(keys, rows)
	return b.Set(result, array.NewBoolColumnOwned(b.At(result).Name, found, array.NewBitmap(rows, true)))
}

func (f *HasFunction) dictionary(b *block.Block, pos int) (*Dictionary, error) {
	return dictionaryArgument(f.catalog, HasFunctionName, b, pos)
}

// GetFunction is dictGet(dictionary, attribute, key) -> attribute type. The
// return type is read from the catalog when the function is built.
type GetFunction struct {
	catalog *Catalog
}

func NewGetFunction(c *Catalog) *GetFunction { return &GetFunction{catalog: c} }

func (f *GetFunction) Name() string { return GetFunctionName }

func (f *GetFunction) Build(args []block.Slot) (function.Base, error) {
	if err := function.CheckArity(GetFunctionName, args, 3); err != nil {
		return nil, err
	}
	dictName, err := function.ConstArgument(GetFunctionName, args, 0)
	if err != nil {
		return nil, err
	}
	attrName, err := function.ConstArgument(GetFunctionName, args, 1)
	if err != nil {
		return nil, err
	}
	if err := function.CheckType(GetFunctionName, args, 2, KeyType); err != nil {
		return nil, err
	}
	d, err := f.catalog.Get(dictName)
	if err != nil {
		return nil, err
	}
	field, err := d.Attribute(attrName)
	if err != nil {
		return nil, err
	}
	return &getBase{catalog: f.catalog, returnType: field.Type}, nil
}

type getBase struct {
	catalog    *Catalog
	returnType array.DataType
}

func (g *getBase) ReturnType() array.DataType { return g.returnType }

func (g *getBase) Prepare(sample *block.Block, args []int, result int) (function.Executable, error) {
	if err := checkPositions(GetFunctionName, sample, args, result, 3); err != nil {
		return nil, err
	}
	return function.ExecutableFunc(g.execute), nil
}

func (g *getBase) execute(b *block.Block, args []int, result int, rows int) error {
	d, err := dictionaryArgument(g.catalog, GetFunctionName, b, args[0])
	if err != nil {
		return err
	}
	attr, ok := array.ConstString(b.Column(args[1]))
	if !ok {
		return fmt.Errorf("%w: attribute name of %s must be a constant string", function.ErrArgumentType, GetFunctionName)
	}
	keys, err := keyColumn(b, args[2], rows)
	if err != nil {
		return err
	}
	col, err := d.Get(attr, keys, rows)
	if err != nil {
		return err
	}
	if !col.DType().Equal(g.returnType) {
		return fmt.Errorf("dictionary %s attribute %s changed type from %s to %s", d.Name(), attr, g.returnType, col.DType())
	}
	col, err = array.WithName(col, b.At(result).Name)
	if err != nil {
		return err
	}
	return b.Set(result, col)
}

func dictionaryArgument(c *Catalog, fn string, b *block.Block, pos int) (*Dictionary, error) {
	name, ok := array.ConstString(b.Column(pos))
	if !ok {
		return nil, fmt.Errorf("%w: dictionary name of %s must be a constant string", function.ErrArgumentType, fn)
	}
	return c.Get(name)
}

func keyColumn(b *block.Block, pos int, rows int) (*array.UInt64Column, error) {
	col := b.Column(pos)
	keys, ok := col.(*array.UInt64Column)
	if !ok {
		if col == nil {
			return nil, fmt.Errorf("%w: key column is not set", function.ErrArgumentType)
		}
		return nil, fmt.Errorf("%w: key column must be %s, got %s", function.ErrArgumentType, KeyType, col.DType())
	}
	if keys.Len() < rows {
		return nil, fmt.Errorf("key column has %d rows, expected at least %d", keys.Len(), rows)
	}
	return keys, nil
}

func checkPositions(fn string, sample *block.Block, args []int, result int, arity int) error {
	if len(args) != arity {
		return fmt.Errorf("%w: function %s takes %d arguments, got %d", function.ErrArgumentCount, fn, arity, len(args))
	}
	inRange := func(p int) bool { return p >= 0 && p < sample.Width() }
	for _, p := range args {
		if !inRange(p) {
			return fmt.Errorf("function %s: argument position %d outside block of width %d", fn, p, sample.Width())
		}
	}
	if !inRange(result) {
		return fmt.Errorf("function %s: result position %d outside block of width %d", fn, result, sample.Width())
	}
	return nil
}
