// Package container provides an ordered, name-indexed registry used to carry
// per-well payloads across report steps.
package container

import (
	"errors"
	"fmt"
	"iter"
	"maps"
)

var (
	ErrDuplicate  = errors.New("container: name already exists")
	ErrNotFound   = errors.New("container: name not found")
	ErrOutOfRange = errors.New("container: index out of range")
)

// Cloner is implemented by payloads holding slices or maps so that copies
// between containers do not alias.
type Cloner[T any] interface {
	Clone() T
}

// Container keeps values in insertion order with a name to index map. An
// index assigned by Add is stable until Clear.
type Container[T any] struct {
	data  []T
	names []string
	index map[string]int
}

func New[T any]() *Container[T] {
	return &Container[T]{index: make(map[string]int)}
}

func (c *Container[T]) Size() int { return len(c.data) }

func (c *Container[T]) Add(name string, value T) error {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if _, ok := c.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	c.index[name] = len(c.data)
	c.data = append(c.data, value)
	c.names = append(c.names, name)
	return nil
}

func (c *Container[T]) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

func (c *Container[T]) Index(name string) (int, error) {
	i, ok := c.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return i, nil
}

func (c *Container[T]) Update(name string, value T) error {
	i, err := c.Index(name)
	if err != nil {
		return err
	}
	c.data[i] = value
	return nil
}

func (c *Container[T]) UpdateAt(i int, value T) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.data[i] = value
	return nil
}

func (c *Container[T]) Get(name string) (T, error) {
	i, err := c.Index(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.data[i], nil
}

func (c *Container[T]) At(i int) (T, error) {
	if err := c.check(i); err != nil {
		var zero T
		return zero, err
	}
	return c.data[i], nil
}

// Ref returns a pointer into the container for in-place mutation. The
// pointer is invalidated by the next Add or Clear.
func (c *Container[T]) Ref(i int) (*T, error) {
	if err := c.check(i); err != nil {
		return nil, err
	}
	return &c.data[i], nil
}

func (c *Container[T]) RefByName(name string) (*T, error) {
	i, err := c.Index(name)
	if err != nil {
		return nil, err
	}
	return &c.data[i], nil
}

func (c *Container[T]) Name(i int) (string, error) {
	if err := c.check(i); err != nil {
		return "", err
	}
	return c.names[i], nil
}

// Names returns the names in insertion order.
func (c *Container[T]) Names() []string {
	return append([]string(nil), c.names...)
}

// Clear empties both the payloads and the name map.
func (c *Container[T]) Clear() {
	c.data = c.data[:0]
	c.names = c.names[:0]
	clear(c.index)
}

// All iterates in insertion order.
func (c *Container[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range c.data {
			if !yield(i, v) {
				return
			}
		}
	}
}

// CopyWellData merges payloads from other by name. When both containers
// share the same name to index map the payloads are copied in bulk;
// otherwise only names present in both are copied and the rest of c is left
// untouched.
func (c *Container[T]) CopyWellData(other *Container[T]) {
	if maps.Equal(c.index, other.index) {
		for i := range other.data {
			c.data[i] = cloneOf(other.data[i])
		}
		return
	}
	for name, i := range c.index {
		j, ok := other.index[name]
		if !ok {
			continue
		}
		c.data[i] = cloneOf(other.data[j])
	}
}

// CopyWellDataFor copies a single named payload. The name must exist in
// both containers.
func (c *Container[T]) CopyWellDataFor(other *Container[T], name string) error {
	i, err := c.Index(name)
	if err != nil {
		return err
	}
	j, err := other.Index(name)
	if err != nil {
		return err
	}
	c.data[i] = cloneOf(other.data[j])
	return nil
}

func (c *Container[T]) check(i int) error {
	if i < 0 || i >= len(c.data) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, len(c.data))
	}
	return nil
}

func cloneOf[T any](v T) T {
	if cl, ok := any(v).(Cloner[T]); ok {
		return cl.Clone()
	}
	return v
}
