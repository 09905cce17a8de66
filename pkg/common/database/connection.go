package database

import "sync"

// connection memoizes the first open attempt. A failed attempt is cached
// too, so every caller sees the same error instead of a nil handle.
type connection[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (c *connection[T]) get(open func() (T, error)) (T, error) {
	c.once.Do(func() {
		c.val, c.err = open()
	})
	return c.val, c.err
}
