package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// defaultData is the bundled dataset used when no data file is configured.
//
//go:embed data/products.json
var defaultData []byte

// Store is the read-only view of the product catalog.
// Abstracted so that surfaces can be tested against fixtures.
type Store interface {
	// Products returns every product in source order. The returned
	// slice and its change lists are copies owned by the caller.
	Products() []Product
	// Product looks up a single product by ID.
	Product(id string) (Product, bool)
}

// MemoryStore is an immutable, in-memory catalog.
type MemoryStore struct {
	products []Product
	index    map[string]int
}

// New builds a MemoryStore from products. Product IDs must be unique
// across the collection and each product must pass Validate.
func New(products []Product) (*MemoryStore, error) {
	s := &MemoryStore{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		s.index[p.ID] = len(s.products)
		s.products = append(s.products, p.Clone())
	}
	return s, nil
}

// Decode reads a JSON array of products and builds a MemoryStore.
func Decode(r io.Reader) (*MemoryStore, error) {
	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("parsing products: %w", err)
	}
	return New(products)
}

// LoadFile reads a products JSON file from disk.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("products file %q not found", path)
		}
		return nil, fmt.Errorf("reading products file: %w", err)
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Default returns the bundled catalog.
func Default() (*MemoryStore, error) {
	return Decode(bytes.NewReader(defaultData))
}

// Open returns the catalog at path, or the bundled catalog when path
// is empty.
func Open(path string) (*MemoryStore, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Products implements Store.
func (s *MemoryStore) Products() []Product {
	out := make([]Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

// Product implements Store.
func (s *MemoryStore) Product(id string) (Product, bool) {
	i, ok := s.index[id]
	if !ok {
		return Product{}, false
	}
	return s.products[i].Clone(), true
}

// Len returns the number of products.
func (s *MemoryStore) Len() int {
	return len(s.products)
}

// Encode writes products as indented JSON, the format Decode reads.
func Encode(w io.Writer, products []Product) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("encoding products: %w", err)
	}
	return nil
}
