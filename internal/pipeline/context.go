package pipeline

// Context is the shared mutable key-value store for one pipeline run.
//
// A Context is created once per run and passed by reference to every hook.
// There is no phase-local isolation: a value written by a preflight hook is
// visible to every later hook, including finalize.
//
// Thread-safety: a Context is exclusively owned by one runner invocation
// for that invocation's duration. The runner drives hooks strictly one at
// a time, so no internal locking is needed. Never share one Context across
// concurrently-executing pipelines.
type Context struct {
	values map[string]any
}

// NewContext creates an empty pipeline context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Get returns the value for key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value under key, overwriting any previous value.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// Delete removes key from the context. Deleting an absent key is a no-op.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Len returns the number of stored keys.
func (c *Context) Len() int {
	return len(c.values)
}

// Values returns a shallow copy of the stored key-value pairs.
// Mutating the returned map does not affect the context, though shared
// reference values (slices, maps) remain shared.
func (c *Context) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
