// Package function defines the three-phase callable contract used by lookup
// readers: an Overload is built against argument templates into a Base with a
// known return type, and a Base is prepared into an Executable bound to block
// positions.
package function

import (
	"errors"
	"fmt"

	"dictlookup/internal/array"
	"dictlookup/internal/block"
)

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrArgumentCount   = errors.New("wrong number of arguments")
	ErrArgumentType    = errors.New("illegal argument type")
)

// Overload resolves a callable for a concrete argument list. Argument slots
// carry a name and type; constant arguments also carry their column.
type Overload interface {
	Name() string
	Build(args []block.Slot) (Base, error)
}

// Base is a callable whose return type is known.
type Base interface {
	ReturnType() array.DataType
	Prepare(sample *block.Block, args []int, result int) (Executable, error)
}

// Executable computes rows of the result slot from the argument slots.
type Executable interface {
	Execute(b *block.Block, args []int, result int, rows int) error
}

// ExecutableFunc adapts an ordinary function to Executable.
type ExecutableFunc func(b *block.Block, args []int, result int, rows int) error

func (f ExecutableFunc) Execute(b *block.Block, args []int, result int, rows int) error {
	return f(b, args, result, rows)
}

// CheckArity fails with ErrArgumentCount unless len(args) == want.
func CheckArity(name string, args []block.Slot, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: function %s takes %d arguments, got %d", ErrArgumentCount, name, want, len(args))
	}
	return nil
}

// ConstArgument returns the string value of a constant utf8 argument.
func ConstArgument(name string, args []block.Slot, i int) (string, error) {
	s, ok := array.ConstString(args[i].Column)
	if !ok {
		return "", fmt.Errorf("%w: argument %d of function %s must be a constant string", ErrArgumentType, i+1, name)
	}
	return s, nil
}

// CheckType fails with ErrArgumentType unless the argument has type want.
func CheckType(name string, args []block.Slot, i int, want array.DataType) error {
	if got := args[i].Type.StripNullable(); !got.Equal(want) {
		return fmt.Errorf("%w: argument %d of function %s must be %s, got %s", ErrArgumentType, i+1, name, want, got)
	}
	return nil
}

// Names under which the dictionary callables are registered.
const (
	DictHas = "dictHas"
	DictGet = "dictGet"
)
