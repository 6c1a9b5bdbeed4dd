package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// dirHeader is the CSV header of each item file.
const dirHeader = "id,body,created_at,updated_at"

const (
	dirFields    = 4
	colItemID    = 0
	colItemBody  = 1
	colCreatedAt = 2
	colUpdatedAt = 3
)

// Dir is a Store that keeps one CSV file per item type under a directory.
// Rows are kept in insertion order. Safe for use by one process at a time.
// Malformed rows are logged and skipped; a delete rewrites the file without
// them.
type Dir struct {
	mu     sync.Mutex
	root   string
	now    func() time.Time
	logger *zap.Logger
}

// NewDir returns a Dir rooted at root, creating the directory if needed.
func NewDir(root string, logger *zap.Logger) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dir{root: root, now: time.Now, logger: logger}, nil
}

func (d *Dir) path(itemType string) string {
	return filepath.Join(d.root, itemType+".csv")
}

// FetchItems returns up to limit items of itemType. A limit <= 0 means no limit.
func (d *Dir) FetchItems(ctx context.Context, itemType string, limit int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := d.read(itemType)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// CreateItem appends a new item. Ids are unique per item type.
func (d *Dir) CreateItem(ctx context.Context, itemType, id, body string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := d.read(itemType)
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return Item{}, fmt.Errorf("%s %q: %w", itemType, id, ErrDuplicateID)
		}
	}

	f, err := os.OpenFile(d.path(itemType), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Item{}, fmt.Errorf("opening %s: %w", itemType, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Item{}, fmt.Errorf("stat %s: %w", itemType, err)
	}

	now := d.now().UTC().Truncate(time.Second)
	it := Item{ID: id, Body: body, CreatedAt: now, UpdatedAt: now}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(strings.Split(dirHeader, ",")); err != nil {
			return Item{}, fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(marshalItem(it)); err != nil {
		return Item{}, fmt.Errorf("writing item: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return Item{}, fmt.Errorf("flushing %s: %w", itemType, err)
	}
	return it, nil
}

// DeleteItem removes an item by rewriting the file without it.
func (d *Dir) DeleteItem(ctx context.Context, itemType, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := d.read(itemType)
	if err != nil {
		return err
	}
	kept := items[:0]
	found := false
	for _, it := range items {
		if it.ID == id {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return fmt.Errorf("%s %q: %w", itemType, id, ErrNotFound)
	}
	return d.rewrite(itemType, kept)
}

func (d *Dir) read(itemType string) ([]Item, error) {
	f, err := os.Open(d.path(itemType))
	if errors.Is(err, fs.ErrNotExist) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", itemType, err)
	}
	defer f.Close()

	items, err := readItems(f, func(row int, err error) {
		d.logger.Warn("skipping malformed store row",
			zap.String("item_type", itemType), zap.Int("row", row), zap.Error(err))
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", itemType, err)
	}
	return items, nil
}

// rewrite replaces the item file through a temp file and rename.
func (d *Dir) rewrite(itemType string, items []Item) error {
	tmp, err := os.CreateTemp(d.root, itemType+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(strings.Split(dirHeader, ",")); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for i, it := range items {
		if err := cw.Write(marshalItem(it)); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing %s: %w", itemType, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path(itemType)); err != nil {
		return fmt.Errorf("replacing %s: %w", itemType, err)
	}
	return nil
}

// readItems decodes item rows, passing each malformed row to skip. A first
// row equal to the header is not an item.
func readItems(r io.Reader, skip func(row int, err error)) ([]Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	items := []Item{}
	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skip(perr.StartLine, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if first && strings.Join(rec, ",") == dirHeader {
			continue
		}
		row, _ := cr.FieldPos(0)
		if len(rec) != dirFields {
			skip(row, fmt.Errorf("want %d fields, got %d", dirFields, len(rec)))
			continue
		}
		it, err := unmarshalItem(rec)
		if err != nil {
			skip(row, err)
			continue
		}
		items = append(items, it)
	}
}

func marshalItem(it Item) []string {
	row := make([]string, dirFields)
	row[colItemID] = it.ID
	row[colItemBody] = it.Body
	row[colCreatedAt] = it.CreatedAt.UTC().Format(time.RFC3339)
	row[colUpdatedAt] = it.UpdatedAt.UTC().Format(time.RFC3339)
	return row
}

func unmarshalItem(rec []string) (Item, error) {
	created, err := time.Parse(time.RFC3339, rec[colCreatedAt])
	if err != nil {
		return Item{}, fmt.Errorf("parsing created_at %q: %w", rec[colCreatedAt], err)
	}
	updated, err := time.Parse(time.RFC3339, rec[colUpdatedAt])
	if err != nil {
		return Item{}, fmt.Errorf("parsing updated_at %q: %w", rec[colUpdatedAt], err)
	}
	return Item{ID: rec[colItemID], Body: rec[colItemBody], CreatedAt: created, UpdatedAt: updated}, nil
}
