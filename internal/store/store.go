// Package store defines the encrypted item store the host platform provides
// and an in-memory implementation of it.
package store

import (
	"context"
	"errors"
	"time"
)

// Item types used by this module.
const (
	TypeDocument        = "document"
	TypeChartOfAccounts = "chartOfAccounts"
)

var (
	// ErrNotFound is returned when deleting an item that does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicateID is returned when creating an item whose id is taken.
	ErrDuplicateID = errors.New("duplicate item id")
)

// Item is one stored record. Body holds the encrypted payload as written.
type Item struct {
	ID        string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the item storage collaborator. Implementations return items in a
// stable storage order.
type Store interface {
	FetchItems(ctx context.Context, itemType string, limit int) ([]Item, error)
	CreateItem(ctx context.Context, itemType, id, body string) (Item, error)
	DeleteItem(ctx context.Context, itemType, id string) error
}
