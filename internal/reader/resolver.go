package reader

import "dictlookup/internal/function"

// ExistenceCheck is built over (dictionary name, key) and returns bool.
type ExistenceCheck interface {
	function.Overload
}

// ValueRetrieval is built over (dictionary name, attribute name, key) and
// returns the attribute's type. It is only run on keys known to exist.
type ValueRetrieval interface {
	function.Overload
}

// Resolver supplies the two callables a reader binds.
type Resolver interface {
	ExistenceCheck() (ExistenceCheck, error)
	ValueRetrieval() (ValueRetrieval, error)
}

type registryResolver struct {
	reg *function.Registry
}

// FromRegistry resolves dictHas and dictGet by name.
func FromRegistry(reg *function.Registry) Resolver {
	return registryResolver{reg: reg}
}

func (r registryResolver) ExistenceCheck() (ExistenceCheck, error) {
	return r.reg.Resolve(function.DictHas)
}

func (r registryResolver) ValueRetrieval() (ValueRetrieval, error) {
	return r.reg.Resolve(function.DictGet)
}
