package dictionary

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog publishes dictionaries by name. It is safe for concurrent use;
// published dictionaries are immutable.
type Catalog struct {
	mu   sync.RWMutex
	dict map[string]*Dictionary
}

func NewCatalog() *Catalog {
	return &Catalog{dict: make(map[string]*Dictionary)}
}

func (c *Catalog) Add(d *Dictionary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.dict[d.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDictionary, d.Name())
	}
	c.dict[d.Name()] = d
	return nil
}

// Replace publishes d, swapping out any dictionary of the same name.
func (c *Catalog) Replace(d *Dictionary) {
	c.mu.Lock()
	c.dict[d.Name()] = d
	c.mu.Unlock()
}

func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.dict[name]
	delete(c.dict, name)
	return ok
}

func (c *Catalog) Get(name string) (*Dictionary, error) {
	c.mu.RLock()
	d, ok := c.dict[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDictionary, name)
	}
	return d, nil
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.dict))
	for name := range c.dict {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
