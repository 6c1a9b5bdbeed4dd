package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is a Store kept in process memory. Items are returned in insertion
// order.
type Memory struct {
	mu    sync.Mutex
	items map[string][]Item
	now   func() time.Time
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]Item), now: time.Now}
}

// FetchItems returns up to limit items of itemType. A limit <= 0 means no limit.
func (m *Memory) FetchItems(ctx context.Context, itemType string, limit int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[itemType]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

// CreateItem stores a new item. Ids are unique per item type.
func (m *Memory) CreateItem(ctx context.Context, itemType, id, body string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range m.items[itemType] {
		if it.ID == id {
			return Item{}, fmt.Errorf("%s %q: %w", itemType, id, ErrDuplicateID)
		}
	}
	now := m.now().UTC()
	it := Item{ID: id, Body: body, CreatedAt: now, UpdatedAt: now}
	m.items[itemType] = append(m.items[itemType], it)
	return it, nil
}

// DeleteItem removes an item.
func (m *Memory) DeleteItem(ctx context.Context, itemType, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[itemType]
	for i, it := range items {
		if it.ID == id {
			m.items[itemType] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s %q: %w", itemType, id, ErrNotFound)
}
