// Package header implements the wire representation of HTTP headers used by
// the writer, the parser, and the client engine: byte pairs rather than
// strings, since header values are 8-bit clean and the engine avoids
// charset conversions on the hot path.
package header

// Header is a single name/value pair. Names are compared case-insensitively
// (ASCII only) when semantics matter, but both name and value are preserved
// verbatim for transmission and surfacing.
type Header struct {
	Name  []byte
	Value []byte
}

// Collection is an ordered sequence of Headers. Order of caller-supplied
// headers is preserved on the wire; callers may still end up with duplicate
// names (e.g. two Accept headers) — last one does not silently win, server
// side precedence applies, matching spec.md §6.
type Collection []Header

// Add appends a header, preserving duplicates.
func (c *Collection) Add(name, value []byte) {
	*c = append(*c, Header{Name: name, Value: value})
}

// AddString is the string convenience form of Add.
func (c *Collection) AddString(name, value string) {
	c.Add([]byte(name), []byte(value))
}

// Get returns the value of the first header matching name (case-insensitive),
// or nil if none is present.
func (c Collection) Get(name []byte) []byte {
	for i := range c {
		if EqualFold(c[i].Name, name) {
			return c[i].Value
		}
	}
	return nil
}

// GetString is the string convenience form of Get.
func (c Collection) GetString(name string) string {
	v := c.Get([]byte(name))
	if v == nil {
		return ""
	}
	return string(v)
}

// Has reports whether a header with the given name (case-insensitive) is
// present.
func (c Collection) Has(name []byte) bool {
	for i := range c {
		if EqualFold(c[i].Name, name) {
			return true
		}
	}
	return false
}

// Set replaces the value of the first header matching name, or appends one
// if none exists.
func (c *Collection) Set(name, value []byte) {
	for i := range *c {
		if EqualFold((*c)[i].Name, name) {
			(*c)[i].Value = value
			return
		}
	}
	c.Add(name, value)
}

// Del removes every header matching name (case-insensitive).
func (c *Collection) Del(name []byte) {
	out := (*c)[:0]
	for _, h := range *c {
		if !EqualFold(h.Name, name) {
			out = append(out, h)
		}
	}
	*c = out
}

// Len returns the number of headers, including duplicates.
func (c Collection) Len() int { return len(c) }

// Clone returns a deep-ish copy: a fresh slice of Headers, sharing the
// underlying name/value byte slices (they are treated as immutable once
// attached to a header).
func (c Collection) Clone() Collection {
	if len(c) == 0 {
		return nil
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

var colonSpace = []byte(": ")
var crlf = []byte("\r\n")

// WriteTo appends every header in the collection to dst in wire format
// ("Name: Value\r\n" per header) and returns the grown slice.
func (c Collection) WriteTo(dst []byte) []byte {
	for _, h := range c {
		dst = append(dst, h.Name...)
		dst = append(dst, colonSpace...)
		dst = append(dst, h.Value...)
		dst = append(dst, crlf...)
	}
	return dst
}

// EqualFold reports whether a and b are equal under ASCII case-insensitive
// comparison. It never consults locale data: bit 5 is OR'd onto each byte
// (the distance between 'A'-'Z' and 'a'-'z' in ASCII), which folds letters
// to lowercase and leaves digits and most punctuation unaffected. A few
// non-letter pairs also compare equal under this fold: '@' and '`', '['
// and '{', '\\' and '|', ']' and '}', '^' and '~', '_' and DEL.
func EqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i]|0x20 != b[i]|0x20 {
			return false
		}
	}
	return true
}
