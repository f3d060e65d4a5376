package scene

import "fmt"

// Indexed is an append-only table that maps unique keys to dense,
// zero-based slots in insertion order.
type Indexed[K comparable, V any] struct {
	slots  map[K]int
	keys   []K
	values []V
}

// NewIndexed returns an empty table.
func NewIndexed[K comparable, V any]() *Indexed[K, V] {
	return &Indexed[K, V]{slots: make(map[K]int)}
}

// Add appends value under key and returns its slot.
func (c *Indexed[K, V]) Add(key K, value V) (int, error) {
	if _, ok := c.slots[key]; ok {
		return -1, fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	return c.push(key, value), nil
}

// Intern returns the slot of key, appending value first if key is new.
func (c *Indexed[K, V]) Intern(key K, value V) int {
	if i, ok := c.slots[key]; ok {
		return i
	}
	return c.push(key, value)
}

func (c *Indexed[K, V]) push(key K, value V) int {
	i := len(c.values)
	c.slots[key] = i
	c.keys = append(c.keys, key)
	c.values = append(c.values, value)
	return i
}

// Find returns the slot of key.
func (c *Indexed[K, V]) Find(key K) (int, error) {
	i, ok := c.slots[key]
	if !ok {
		return -1, fmt.Errorf("%w: %v", ErrMissingKey, key)
	}
	return i, nil
}

// Contains reports whether key has been added.
func (c *Indexed[K, V]) Contains(key K) bool {
	_, ok := c.slots[key]
	return ok
}

// Get returns the value stored under key.
func (c *Indexed[K, V]) Get(key K) (V, error) {
	i, err := c.Find(key)
	if err != nil {
		var zero V
		return zero, err
	}
	return c.values[i], nil
}

// At returns the value in slot i.
func (c *Indexed[K, V]) At(i int) V {
	return c.values[i]
}

// Set replaces the value in slot i. The key is unchanged.
func (c *Indexed[K, V]) Set(i int, value V) {
	c.values[i] = value
}

// KeyAt returns the key of slot i.
func (c *Indexed[K, V]) KeyAt(i int) K {
	return c.keys[i]
}

// Len returns the number of slots.
func (c *Indexed[K, V]) Len() int {
	return len(c.values)
}

// Values returns the values in slot order. The slice is owned by the caller.
func (c *Indexed[K, V]) Values() []V {
	out := make([]V, len(c.values))
	copy(out, c.values)
	return out
}
