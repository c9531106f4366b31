package scripture

import "strings"

// Catalog exposes book lookup for the chapter reader.
type Catalog interface {
	List() []Book
	FindByAbbrev(abbrev string) (Book, bool)
}

// MemoryCatalog implements Catalog with an in-memory slice.
type MemoryCatalog struct {
	items    []Book
	byAbbrev map[string]int
}

// NewMemoryCatalog returns a MemoryCatalog preloaded with the supplied books.
func NewMemoryCatalog(items []Book) *MemoryCatalog {
	c := &MemoryCatalog{
		items:    append([]Book(nil), items...),
		byAbbrev: make(map[string]int, len(items)),
	}
	for i, b := range c.items {
		c.byAbbrev[normalizeAbbrev(b.Abbrev)] = i
	}
	return c
}

// List returns the books in canonical order.
func (c *MemoryCatalog) List() []Book {
	return append([]Book(nil), c.items...)
}

// FindByAbbrev looks up a book by abbreviation, ignoring case and surrounding space.
func (c *MemoryCatalog) FindByAbbrev(abbrev string) (Book, bool) {
	idx, ok := c.byAbbrev[normalizeAbbrev(abbrev)]
	if !ok {
		return Book{}, false
	}
	return c.items[idx], true
}

func normalizeAbbrev(abbrev string) string {
	return strings.ToLower(strings.TrimSpace(abbrev))
}
