package items

import (
	"errors"
	"sync"
)

// ErrItemNotFound signals the item does not exist.
var ErrItemNotFound = errors.New("items: not found")

// Item is a front-end work item. This package is an isolated collaborator of
// the UI and shares nothing with the request lifecycle engine.
type Item struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Store is an in-memory item list. Identifier allocation is centralized
// behind the store's mutex; callers never supply ids.
type Store struct {
	mu     sync.Mutex
	items  []Item
	nextID int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// List returns a copy of all items.
func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with the given id.
func (s *Store) Get(id int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// Create allocates an id for the item and appends it.
func (s *Store) Create(item Item) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Status == "" {
		item.Status = "active"
	}
	item.ID = s.nextID
	s.nextID++
	s.items = append(s.items, item)
	return item
}

// Delete removes the item with the given id.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}
