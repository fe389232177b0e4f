package value

import "github.com/dolthub/swiss"

// Interner deduplicates heap String objects by their byte content so that
// two occurrences of the same identifier share one *String (the compiler
// interns identifier names only; each string literal constant gets its own
// *String) rather than each allocating a fresh heap object, the way the
// reference implementation does (spec §9 Open Question (c): "reference
// allocates a fresh string for every identifier occurrence, which leaks;
// interning is recommended"). It is backed by a swiss table rather than the
// bespoke chained-hash Table type: interning has none of the Table's
// required collision semantics (no duplicate chains, no "earliest insert
// wins"), so an open-addressing map is a strictly better fit here (see
// DESIGN.md).
type Interner struct {
	m *swiss.Map[string, *String]
}

// NewInterner returns an Interner with initial capacity for at least size
// distinct strings.
func NewInterner(size int) *Interner {
	if size < 8 {
		size = 8
	}
	return &Interner{m: swiss.NewMap[string, *String](uint32(size))}
}

// Intern returns the canonical *String for s, allocating and caching one on
// first use.
func (in *Interner) Intern(s string) *String {
	if existing, ok := in.m.Get(s); ok {
		return existing
	}
	str := NewString(s)
	in.m.Put(s, str)
	return str
}
