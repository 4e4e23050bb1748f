package core

// Store is a variable store: the story variables or the temporary
// variables.
//
// Has distinguishes a missing key from a key holding Undefined.
type Store map[string]interface{}

// NewStore makes an empty Store.
func NewStore() Store {
	return make(Store)
}

// Has reports whether the store holds key at all.
func (s Store) Has(key string) bool {
	_, have := s[key]
	return have
}

// Get returns the value at key or Undefined.
func (s Store) Get(key string) interface{} {
	x, have := s[key]
	if !have {
		return Undefined
	}
	return x
}

// Set assigns key.
func (s Store) Set(key string, x interface{}) {
	s[key] = x
}

// Delete removes key and reports whether it was present.
func (s Store) Delete(key string) bool {
	_, have := s[key]
	delete(s, key)
	return have
}

// Clear removes every key.
func (s Store) Clear() {
	for k := range s {
		delete(s, k)
	}
}

// Replace makes s hold exactly the contents of m.
//
// The Store keeps its identity, so anything holding s sees the new
// contents.
func (s Store) Replace(m map[string]interface{}) {
	s.Clear()
	for k, v := range m {
		s[k] = v
	}
}

// Copy returns a deep copy of s.
func (s Store) Copy() Store {
	acc := make(Store, len(s))
	for k, v := range s {
		acc[k] = Clone(v)
	}
	return acc
}

// Map returns s as a plain map without copying.
func (s Store) Map() map[string]interface{} {
	return map[string]interface{}(s)
}
