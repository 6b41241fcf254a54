package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/asadk95/estore/internal/models"
)

// fileSnapshot is the on-disk shape of one collection. Relaxed extended JSON
// keeps the files readable while preserving fields hidden from the API, such
// as password hashes.
type fileSnapshot[T any] struct {
	Records []T `bson:"records"`
}

// OpenFile returns a memory store mirrored to one JSON file per collection
// under dir. Missing files start empty, except products which are seeded
// with the demo catalog.
func OpenFile(dir string, opts ...MemoryOption) (*Memory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	m := NewMemory(opts...)

	seed := false
	var err error
	if m.products.records, seed, err = loadFile[models.Product](filepath.Join(dir, "products.json")); err != nil {
		return nil, err
	}
	if m.users.records, _, err = loadFile[models.User](filepath.Join(dir, "users.json")); err != nil {
		return nil, err
	}
	if m.orders.records, _, err = loadFile[models.Order](filepath.Join(dir, "orders.json")); err != nil {
		return nil, err
	}
	if m.carts.records, _, err = loadFile[models.Cart](filepath.Join(dir, "carts.json")); err != nil {
		return nil, err
	}

	m.persist = func() error {
		var pending []pendingFile
		stage := func(f pendingFile, err error) error {
			if err != nil {
				return err
			}
			pending = append(pending, f)
			return nil
		}

		var err error
		if m.products.dirty {
			err = stage(stageFile(filepath.Join(dir, "products.json"), m.products.records))
		}
		if err == nil && m.users.dirty {
			err = stage(stageFile(filepath.Join(dir, "users.json"), m.users.records))
		}
		if err == nil && m.orders.dirty {
			err = stage(stageFile(filepath.Join(dir, "orders.json"), m.orders.records))
		}
		if err == nil && m.carts.dirty {
			err = stage(stageFile(filepath.Join(dir, "carts.json"), m.carts.records))
		}
		if err != nil {
			discard(pending)
			return err
		}
		return commit(pending)
	}

	if seed {
		now := m.now()
		for i, p := range DefaultProducts() {
			p.ID = int64(i + 1)
			p.CreatedAt = now
			m.products.records = append(m.products.records, p)
		}
		m.mu.Lock()
		m.products.dirty = true
		err := m.persist()
		m.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("store: seed products: %w", err)
		}
	}

	return m, nil
}

// loadFile reads a collection file. missing reports that the file did not
// exist yet.
func loadFile[T any](path string) (records []T, missing bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %s: %w", path, err)
	}

	var snap fileSnapshot[T]
	if err := bson.UnmarshalExtJSON(data, false, &snap); err != nil {
		return nil, false, fmt.Errorf("store: decode %s: %w", path, err)
	}
	return snap.Records, false, nil
}

// pendingFile is a collection already encoded to tmp, waiting to replace path.
type pendingFile struct {
	path string
	tmp  string
}

// stageFile writes records next to path without touching path itself.
func stageFile[T any](path string, records []T) (pendingFile, error) {
	if records == nil {
		records = []T{}
	}
	data, err := bson.MarshalExtJSONIndent(fileSnapshot[T]{Records: records}, false, false, "", "  ")
	if err != nil {
		return pendingFile{}, fmt.Errorf("store: encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return pendingFile{}, fmt.Errorf("store: write %s: %w", path, err)
	}
	return pendingFile{path: path, tmp: tmp}, nil
}

// commit renames staged files into place. It starts only once every
// collection of the transaction has been staged.
func commit(pending []pendingFile) error {
	for i, f := range pending {
		if err := os.Rename(f.tmp, f.path); err != nil {
			discard(pending[i:])
			return fmt.Errorf("store: replace %s: %w", f.path, err)
		}
	}
	return nil
}

func discard(pending []pendingFile) {
	for _, f := range pending {
		_ = os.Remove(f.tmp)
	}
}
