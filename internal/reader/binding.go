package reader

import (
	"dictlookup/internal/array"
	"dictlookup/internal/block"
	"dictlookup/internal/function"
)

// FunctionBinding is a callable resolved against the sample block: its
// argument positions, its result slot and its return type are fixed once
// built.
type FunctionBinding struct {
	exec       function.Executable
	args       []int
	result     int
	returnType array.DataType
}

// newFunctionBinding builds o over the sample slots at args, checks the
// return type against expected and appends a result slot named resultName.
func newFunctionBinding(o function.Overload, sample *block.Block, args []int, resultName, attribute string, expected array.DataType) (*FunctionBinding, error) {
	tmpl := make([]block.Slot, len(args))
	for i, p := range args {
		tmpl[i] = sample.At(p)
	}
	base, err := o.Build(tmpl)
	if err != nil {
		return nil, err
	}
	rt := base.ReturnType()
	if !rt.Equal(expected) {
		return nil, &TypeMismatchError{Attribute: attribute, Expected: expected, Actual: rt}
	}
	result, err := sample.Insert(block.Slot{Name: resultName, Type: rt})
	if err != nil {
		return nil, err
	}
	exec, err := base.Prepare(sample, args, result)
	if err != nil {
		return nil, err
	}
	return &FunctionBinding{exec: exec, args: append([]int(nil), args...), result: result, returnType: rt}, nil
}

// Execute computes the first rows rows of the result slot in b.
func (f *FunctionBinding) Execute(b *block.Block, rows int) error {
	return f.exec.Execute(b, f.args, f.result, rows)
}

func (f *FunctionBinding) Result() int                { return f.result }
func (f *FunctionBinding) ReturnType() array.DataType { return f.returnType }
func (f *FunctionBinding) Arguments() []int           { return append([]int(nil), f.args...) }
