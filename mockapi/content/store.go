package content

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotFound          = errors.New("not found")
)

// Item is one stored JSON object. The store owns "id", "created_at" and
// "updated_at".
type Item map[string]any

// FieldErrors maps a field to its validation messages, the shape the
// platform API uses for 400 responses.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	fields := slices.Sorted(maps.Keys(e))
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], " ")))
	}
	return "invalid item: " + strings.Join(parts, "; ")
}

type collection struct {
	required []string
	items    map[int64]Item
	nextID   int64
}

// Store is an in-memory set of named collections with auto-increment ids.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Register adds a collection whose items must carry the required fields.
// Registering an existing name keeps its items and replaces the rules.
func (s *Store) Register(name string, required ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		c.required = required
		return
	}
	s.collections[name] = &collection{required: required, items: make(map[int64]Item), nextID: 1}
}

// Collections returns the registered names, sorted.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.collections))
}

func (s *Store) List(name string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(c.items))
	for _, id := range slices.Sorted(maps.Keys(c.items)) {
		items = append(items, maps.Clone(c.items[id]))
	}
	return items, nil
}

func (s *Store) Get(name string, id int64) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	item, ok := c.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(item), nil
}

func (s *Store) Create(name string, body Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if err := c.validate(body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := stripManaged(body)
	item["id"] = c.nextID
	item["created_at"] = now
	item["updated_at"] = now
	c.items[c.nextID] = item
	c.nextID++
	return maps.Clone(item), nil
}

// Replace overwrites every client field of an existing item (PUT).
func (s *Store) Replace(name string, id int64, body Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	existing, ok := c.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := c.validate(body); err != nil {
		return nil, err
	}

	item := stripManaged(body)
	item["id"] = id
	item["created_at"] = existing["created_at"]
	item["updated_at"] = time.Now().UTC()
	c.items[id] = item
	return maps.Clone(item), nil
}

// Patch merges the given fields into an existing item (PATCH).
func (s *Store) Patch(name string, id int64, fields Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	existing, ok := c.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	merged := maps.Clone(existing)
	maps.Copy(merged, stripManaged(fields))
	if err := c.validate(merged); err != nil {
		return nil, err
	}
	merged["updated_at"] = time.Now().UTC()
	c.items[id] = merged
	return maps.Clone(merged), nil
}

func (s *Store) Delete(name string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return err
	}
	if _, ok := c.items[id]; !ok {
		return ErrNotFound
	}
	delete(c.items, id)
	return nil
}

func (s *Store) collection(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

func (c *collection) validate(body Item) error {
	errs := FieldErrors{}
	for _, field := range c.required {
		v, ok := body[field]
		if !ok || v == nil {
			errs[field] = []string{"This field is required."}
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			errs[field] = []string{"This field may not be blank."}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func stripManaged(body Item) Item {
	item := maps.Clone(body)
	if item == nil {
		item = Item{}
	}
	delete(item, "id")
	delete(item, "created_at")
	delete(item, "updated_at")
	return item
}
