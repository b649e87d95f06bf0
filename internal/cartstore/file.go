package cartstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// FileStore implements Store using one JSON file per cart on the local
// filesystem. This is the MVP backend for development and single-node
// deployments.
type FileStore struct {
	basePath string // Root directory for cart files (e.g., "./data/carts")
}

// NewFileStore creates a filesystem-backed cart store.
//
// basePath is the directory where cart files will be stored (created if it
// doesn't exist).
func NewFileStore(basePath string) (*FileStore, error) {
	if basePath == "" {
		basePath = "data/carts"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cart store directory: %w", err)
	}

	return &FileStore{basePath: basePath}, nil
}

// path maps a cart ID to its file. Cart IDs are server-issued UUIDs, but
// the ID still arrives in a cookie, so anything that could escape the base
// directory is rejected.
func (s *FileStore) path(cartID string) (string, error) {
	if cartID == "" || strings.ContainsAny(cartID, "/\\") || strings.Contains(cartID, "..") {
		return "", domain.Invalid("cartstore.path", "invalid cart id")
	}
	return filepath.Join(s.basePath, cartID+".json"), nil
}

// Load reads a cart's items from disk. A missing file or an undecodable
// payload both load as an empty cart; corrupt payloads are removed so the
// next save starts clean.
func (s *FileStore) Load(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	p, err := s.path(cartID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.CartItem{}, nil
		}
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		// Stored payload is unusable. Discard it rather than wedging the
		// cart forever.
		_ = os.Remove(p)
		return []domain.CartItem{}, nil
	}
	return items, nil
}

// Save writes the cart's items to disk. The write goes through a temp file
// and rename so a crash mid-write cannot leave a truncated cart behind.
func (s *FileStore) Save(ctx context.Context, cartID string, items []domain.CartItem) error {
	p, err := s.path(cartID)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.CartItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cart file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to replace cart file: %w", err)
	}
	return nil
}

// Delete removes the cart file from disk.
func (s *FileStore) Delete(ctx context.Context, cartID string) error {
	p, err := s.path(cartID)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cart file: %w", err)
	}
	return nil
}
