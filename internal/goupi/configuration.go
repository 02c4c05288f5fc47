package goupi

// Configuration maps case-sensitive keys to parsed values. A build holds
// two of them, site and post, which are never merged.
type Configuration map[string]Value

// Lookup returns the value stored under key.
func (c Configuration) Lookup(key string) (Value, bool) {
	v, ok := c[key]
	return v, ok
}

// Has reports whether key is present.
func (c Configuration) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// LookupText returns the template text of key, or "" when it is absent.
func (c Configuration) LookupText(key string) string {
	if v, ok := c[key]; ok {
		return v.String()
	}
	return ""
}

// ResolveKey looks key up in post first and site second.
func ResolveKey(key string, post, site Configuration) (Value, bool) {
	if v, ok := post.Lookup(key); ok {
		return v, true
	}
	return site.Lookup(key)
}
