package reader

import (
	"context"
	"fmt"

	"dictlookup/internal/array"
)

// Pool hands out readers to concurrent callers. At most size readers are
// ever built; callers beyond that wait for one to be released.
type Pool struct {
	factory func() (*Reader, error)
	idle    chan *Reader
	slots   chan struct{}
	schema  array.Schema
}

// NewPool builds the first reader eagerly so construction errors such as a
// type mismatch surface here rather than on the first lookup.
func NewPool(size int, factory func() (*Reader, error)) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("reader pool size must be >= 1, got %d", size)
	}
	first, err := factory()
	if err != nil {
		return nil, err
	}
	p := &Pool{
		factory: factory,
		idle:    make(chan *Reader, size),
		slots:   make(chan struct{}, size),
		schema:  first.Schema(),
	}
	p.slots <- struct{}{}
	p.idle <- first
	return p, nil
}

func (p *Pool) Schema() array.Schema { return p.schema }

// Acquire checks out a reader, building a new one while under the size limit.
func (p *Pool) Acquire(ctx context.Context) (*Reader, error) {
	select {
	case r := <-p.idle:
		return r, nil
	default:
	}
	select {
	case r := <-p.idle:
		return r, nil
	case p.slots <- struct{}{}:
		r, err := p.factory()
		if err != nil {
			<-p.slots
			return nil, err
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns r to the pool. r must not be used afterwards.
func (p *Pool) Release(r *Reader) {
	if r == nil {
		return
	}
	p.idle <- r
}

// Lookup runs one lookup on a checked-out reader.
func (p *Pool) Lookup(ctx context.Context, keys array.Column, rows int) (Result, error) {
	r, err := p.Acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer p.Release(r)
	return r.Lookup(keys, rows)
}
