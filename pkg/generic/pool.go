package generic

import "sync"

// Pool is a typed sync.Pool. Values handed back through Put are passed through
// reset first, so a Get never sees state left by a previous user.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T) T
}

func NewPool[T any](generate func() T, reset func(T) T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
		reset: reset,
	}
}

// NewSlicePool pools slices of capacity at least size, handed out empty.
func NewSlicePool[T any](size int) *Pool[[]T] {
	return NewPool(
		func() []T { return make([]T, 0, size) },
		func(s []T) []T { return s[:0] },
	)
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		value = p.reset(value)
	}
	p.pool.Put(value)
}
