// Package documents stores accounting documents as encrypted items and
// reads them back for listing and reporting.
package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/model"
	"github.com/open-kbs/ai-invoice/internal/store"
	"github.com/open-kbs/ai-invoice/internal/vault"
)

// ErrMissingID is returned when saving a document without a DocumentId.
var ErrMissingID = errors.New("document must have a DocumentId field")

// Repository reads and writes documents through the item store.
type Repository struct {
	store  store.Store
	cipher vault.Cipher
	logger *zap.Logger
}

// NewRepository creates a document Repository.
func NewRepository(st store.Store, cipher vault.Cipher, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: st, cipher: cipher, logger: logger}
}

// Save encrypts doc and stores it under its DocumentId. A second save with
// the same id fails with store.ErrDuplicateID.
func (r *Repository) Save(ctx context.Context, doc model.Document) (store.Item, error) {
	if doc.DocumentID == "" {
		return store.Item{}, ErrMissingID
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return store.Item{}, fmt.Errorf("marshaling document: %w", err)
	}
	blob, err := r.cipher.Encrypt(data)
	if err != nil {
		return store.Item{}, fmt.Errorf("encrypting document: %w", err)
	}
	item, err := r.store.CreateItem(ctx, store.TypeDocument, doc.DocumentID, blob)
	if err != nil {
		return store.Item{}, fmt.Errorf("saving document %s: %w", doc.DocumentID, err)
	}
	r.logger.Info("document saved", zap.String("document_id", doc.DocumentID))
	return item, nil
}

// Record is one fetched item: either a decoded document or the reason it
// could not be read.
type Record struct {
	ItemID    string
	Document  model.Document
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fetch reads up to limit items in storage order and decodes each one.
// Items that fail to decrypt or parse are returned with Err set.
func (r *Repository) Fetch(ctx context.Context, limit int) ([]Record, error) {
	items, err := r.store.FetchItems(ctx, store.TypeDocument, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching documents: %w", err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		rec := Record{ItemID: item.ID, CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt}
		rec.Document, rec.Err = r.decode(item.Body)
		if rec.Err != nil {
			r.logger.Warn("skipping unreadable document", zap.String("item_id", item.ID), zap.Error(rec.Err))
		}
		records = append(records, rec)
	}
	return records, nil
}

// Documents returns the readable documents among the first limit items and
// the number of items that were skipped.
func (r *Repository) Documents(ctx context.Context, limit int) ([]model.Document, int, error) {
	records, err := r.Fetch(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	docs := make([]model.Document, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec.Err != nil {
			skipped++
			continue
		}
		docs = append(docs, rec.Document)
	}
	return docs, skipped, nil
}

func (r *Repository) decode(blob string) (model.Document, error) {
	plain, err := r.cipher.Decrypt(blob)
	if err != nil {
		return model.Document{}, err
	}
	var doc model.Document
	if err := json.Unmarshal(plain, &doc); err != nil {
		return model.Document{}, fmt.Errorf("parsing document: %w", err)
	}
	return doc, nil
}
