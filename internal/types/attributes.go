package types

// Attributes is an insertion-ordered string map used for company attributes
// whose names are only known at scrape time ("Size", "Founded", ...).
// The zero value is ready to use.
type Attributes struct {
	keys   []string
	values map[string]string
}

// Set stores value under key. Re-setting an existing key keeps its position.
func (a *Attributes) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of stored keys.
func (a *Attributes) Len() int {
	return len(a.keys)
}

// Map returns a copy of the attributes as a plain map.
func (a *Attributes) Map() map[string]string {
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}
