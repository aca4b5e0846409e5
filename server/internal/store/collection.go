package store

// Finder is the read capability shared by every entity collection.
type Finder[T any] interface {
	// FindAll returns every entity in insertion order. The slice is a copy.
	FindAll() []T
	// FindByID returns the entity with the given id and whether it exists.
	FindByID(id string) (T, bool)
	// Len returns the number of distinct ids.
	Len() int
}

// Collection is an id-keyed set of entities that remembers insertion order.
// Re-inserting an existing id replaces the value but keeps its position.
type Collection[T any] struct {
	ids  []string
	byID map[string]T
}

var _ Finder[struct{}] = (*Collection[struct{}])(nil)

func newCollection[T any](capacity int) *Collection[T] {
	return &Collection[T]{
		ids:  make([]string, 0, capacity),
		byID: make(map[string]T, capacity),
	}
}

// put stores v under id and reports whether an earlier value was replaced.
func (c *Collection[T]) put(id string, v T) bool {
	_, exists := c.byID[id]
	if !exists {
		c.ids = append(c.ids, id)
	}
	c.byID[id] = v
	return exists
}

// FindAll implements Finder.
func (c *Collection[T]) FindAll() []T {
	out := make([]T, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

// FindByID implements Finder.
func (c *Collection[T]) FindByID(id string) (T, bool) {
	v, ok := c.byID[id]
	return v, ok
}

// Len implements Finder.
func (c *Collection[T]) Len() int { return len(c.ids) }

// Where returns the entities of f for which keep returns true, in
// insertion order.
func Where[T any](f Finder[T], keep func(T) bool) []T {
	all := f.FindAll()
	out := all[:0]
	for _, v := range all {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
