package pool

import (
	"errors"
	"sync"
)

// Resettable values are cleared on Put so nothing leaks between users
type Resettable interface {
	Reset()
}

// Pool is a typed sync.Pool. The constructor is checked once up front, which
// is what makes the assertion in Get safe.
type Pool[T any] struct {
	pool sync.Pool
}

var errNilConstructor = errors.New("pool: constructor must return a value")

func NewLitePool[T any](newFn func() T) (*Pool[T], error) {
	if newFn == nil || any(newFn()) == nil {
		return nil, errNilConstructor
	}
	return &Pool[T]{
		pool: sync.Pool{New: func() any { return newFn() }},
	}, nil
}

func (p *Pool[T]) Get() T {
	//nolint:forcetypeassert // New is validated in NewLitePool
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resettable); ok {
		r.Reset()
	}
	p.pool.Put(v)
}
