package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tuannm99/microdb/internal/alias/util"
	"github.com/tuannm99/microdb/internal/dberr"
	"github.com/tuannm99/microdb/internal/record"
	"github.com/tuannm99/microdb/internal/storage"
)

const (
	DefaultCacheSize = 128
	MaxTableName     = 64
)

var (
	ErrTableExists   = fmt.Errorf("%w: catalog: table already exists", dberr.ErrAlreadyExists)
	ErrTableNotFound = fmt.Errorf("%w: catalog: table not found", dberr.ErrNotFound)
	ErrInvalidName   = fmt.Errorf("%w: catalog: invalid table name", dberr.ErrSchemaMismatch)
	ErrCatalogIO     = fmt.Errorf("%w: catalog", dberr.ErrIO)
)

// Catalog binds table names to schemas. Each table owns a `<name>.def`
// schema file next to its `<name>.dat` data file in the store directory.
// Decoded schemas are kept in a bounded cache.
type Catalog struct {
	store *storage.PageStore
	cache *ristretto.Cache[string, record.Schema]
}

// New opens the catalog over the store's directory. cacheSize <= 0 means
// DefaultCacheSize.
func New(store *storage.PageStore, cacheSize int) (*Catalog, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, record.Schema]{
		NumCounters: int64(cacheSize) * 10,
		MaxCost:     int64(cacheSize),
		BufferItems: 64,

		// every schema costs 1, so MaxCost counts entries
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: schema cache: %w", err)
	}
	return &Catalog{store: store, cache: cache}, nil
}

func (c *Catalog) Close() {
	c.cache.Close()
}

// ValidName reports whether name can be used as a table name: an ASCII
// identifier of at most MaxTableName bytes.
func ValidName(name string) bool {
	return len(name) <= MaxTableName && record.ValidIdent(name)
}

func (c *Catalog) defPath(name string) string {
	return filepath.Join(c.store.Dir(), DefFileName(name))
}

func (c *Catalog) Exists(name string) bool {
	if !ValidName(name) {
		return false
	}
	_, err := os.Stat(c.defPath(name))
	return err == nil
}

// CreateTable persists the schema and allocates an empty data file.
func (c *Catalog) CreateTable(name string, s record.Schema) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	if err := c.writeDef(name, s); err != nil {
		return err
	}
	if err := c.store.Create(storage.DataFileName(name)); err != nil {
		if rmErr := os.Remove(c.defPath(name)); rmErr != nil {
			slog.Warn("catalog: remove schema after failed create", "table", name, "err", rmErr)
		}
		return err
	}

	c.cache.Set(name, s.Clone(), 1)
	c.cache.Wait()
	return nil
}

// DropTable forgets the table and removes its data file.
func (c *Catalog) DropTable(name string) error {
	if !c.Exists(name) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	c.cache.Del(name)
	if err := os.Remove(c.defPath(name)); err != nil {
		return fmt.Errorf("%w: drop %s: %v", ErrCatalogIO, name, err)
	}
	if err := c.store.Delete(storage.DataFileName(name)); err != nil {
		if !errors.Is(err, storage.ErrFileNotFound) {
			return err
		}
		slog.Warn("catalog: data file already gone", "table", name)
	}
	return nil
}

// GetTableInfo returns a copy of the table's schema; callers may keep or
// modify it freely.
func (c *Catalog) GetTableInfo(name string) (record.Schema, error) {
	if !ValidName(name) {
		return record.Schema{}, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	if s, ok := c.cache.Get(name); ok {
		return s.Clone(), nil
	}

	s, err := c.readDef(name)
	if err != nil {
		return record.Schema{}, err
	}
	c.cache.Set(name, s, 1)
	c.cache.Wait()
	return s.Clone(), nil
}

// ListTables returns every table name in sorted order.
func (c *Catalog) ListTables() ([]string, error) {
	entries, err := os.ReadDir(c.store.Dir())
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrCatalogIO, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(e.Name(), DefFileExt)
		if !ok || !ValidName(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (c *Catalog) writeDef(name string, s record.Schema) error {
	path := c.defPath(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, storage.FileMode0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrTableExists, name)
		}
		return fmt.Errorf("%w: create %s: %v", ErrCatalogIO, name, err)
	}

	_, err = f.Write(encodeDef(s))
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("%w: write %s: %v", ErrCatalogIO, name, err)
	}
	return nil
}

func (c *Catalog) readDef(name string) (record.Schema, error) {
	path := c.defPath(name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record.Schema{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
		}
		return record.Schema{}, fmt.Errorf("%w: open %s: %v", ErrCatalogIO, name, err)
	}
	defer util.CloseFunc(f, path)

	buf, err := io.ReadAll(io.LimitReader(f, maxDefSize+1))
	if err != nil {
		return record.Schema{}, fmt.Errorf("%w: read %s: %v", ErrCatalogIO, name, err)
	}
	s, err := decodeDef(buf)
	if err != nil {
		return record.Schema{}, fmt.Errorf("table %s: %w", name, err)
	}
	return s, nil
}
