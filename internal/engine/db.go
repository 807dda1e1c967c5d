package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tuannm99/microdb/internal/bufferpool"
	"github.com/tuannm99/microdb/internal/catalog"
	"github.com/tuannm99/microdb/internal/executor"
	"github.com/tuannm99/microdb/internal/heap"
	"github.com/tuannm99/microdb/internal/record"
	"github.com/tuannm99/microdb/internal/storage"
)

var ErrDatabaseClosed = errors.New("microdb: database is closed")

type Options struct {
	// Dir holds every table's .def and .dat file. Created if missing.
	Dir string
	// CacheCapacity is the number of page frames shared by all tables.
	CacheCapacity int
	// CatalogCacheSize bounds the number of decoded schemas kept in memory.
	CatalogCacheSize int
}

// tableHandle is an open data file and its heap view.
type tableHandle struct {
	file *storage.File
	tbl  *heap.Table
}

// DB is one database instance: a directory of tables, a shared page
// cache and the catalog. Instances are independent of each other.
//
// Operations are not transactional; callers serialize concurrent use.
type DB struct {
	dir     string
	store   *storage.PageStore
	pool    *bufferpool.Pool
	catalog *catalog.Catalog
	exec    *executor.Executor

	mu     sync.Mutex
	tables map[string]*tableHandle
	closed bool
}

type Stats struct {
	Pool       bufferpool.Stats
	Capacity   int
	OpenTables int
}

type TableStats struct {
	Name   string
	Fields int
	Pages  uint32
	Bytes  uint64
}

var _ executor.TableSource = (*DB)(nil)

func Open(opts Options) (*DB, error) {
	store, err := storage.NewPageStore(opts.Dir)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(store, opts.CatalogCacheSize)
	if err != nil {
		return nil, err
	}

	db := &DB{
		dir:     opts.Dir,
		store:   store,
		pool:    bufferpool.NewPool(store, opts.CacheCapacity),
		catalog: cat,
		tables:  make(map[string]*tableHandle),
	}
	db.exec = executor.New(db)

	slog.Info("microdb: open", "dir", opts.Dir, "frames", db.pool.Capacity())
	return db, nil
}

func (db *DB) Dir() string { return db.dir }

func (db *DB) checkOpen() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}
	return nil
}

// ---- catalog ----

func (db *DB) CreateTable(name string, schema record.Schema) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if err := db.catalog.CreateTable(name, schema); err != nil {
		return err
	}
	slog.Info("microdb: create table", "table", name, "fields", schema.NumFields())
	return nil
}

// DropTable writes back the table's cached pages, closes its file and
// removes it from the catalog along with its data. Rows stay on disk if
// the catalog removal fails.
func (db *DB) DropTable(name string) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if !db.catalog.Exists(name) {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, name)
	}
	if err := db.closeTable(name, true); err != nil {
		return err
	}
	if err := db.catalog.DropTable(name); err != nil {
		return err
	}
	slog.Info("microdb: drop table", "table", name)
	return nil
}

// TableInfo returns a copy of the table's schema.
func (db *DB) TableInfo(name string) (record.Schema, error) {
	if err := db.checkOpen(); err != nil {
		return record.Schema{}, err
	}
	return db.catalog.GetTableInfo(name)
}

func (db *DB) ListTables() ([]string, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	return db.catalog.ListTables()
}

// OpenTable returns the heap view of a table, opening its data file on
// first use. Handles stay open until DropTable or Close.
func (db *DB) OpenTable(name string) (*heap.Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	if h, ok := db.tables[name]; ok {
		return h.tbl, nil
	}

	schema, err := db.catalog.GetTableInfo(name)
	if err != nil {
		return nil, err
	}
	f, err := db.store.Open(storage.DataFileName(name))
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}

	h := &tableHandle{file: f, tbl: heap.NewTable(name, schema, db.pool.View(f))}
	db.tables[name] = h
	slog.Debug("microdb: open table", "table", name, "pages", f.PageCount())
	return h.tbl, nil
}

// closeTable releases the handle of an open table, if any. Without flush
// its cached pages are discarded.
func (db *DB) closeTable(name string, flush bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, ok := db.tables[name]
	if !ok {
		return nil
	}
	if err := db.pool.DropFile(h.file, flush); err != nil {
		return err
	}
	delete(db.tables, name)
	return db.store.Close(h.file)
}

// ---- data ----

func (db *DB) InsertRecord(table string, rec record.Record) (heap.TID, error) {
	return db.exec.InsertRecord(table, rec)
}

func (db *DB) SelectRecord(
	table string,
	fields executor.FieldList,
	cond *executor.Condition,
	distinct bool,
) (*executor.ResultSet, error) {
	return db.exec.SelectRecord(table, fields, cond, distinct)
}

func (db *DB) DeleteRecord(table string, cond *executor.Condition) (int, error) {
	return db.exec.DeleteRecord(table, cond)
}

// ---- introspection ----

func (db *DB) Stats() Stats {
	db.mu.Lock()
	open := len(db.tables)
	db.mu.Unlock()

	return Stats{
		Pool:       db.pool.Stats(),
		Capacity:   db.pool.Capacity(),
		OpenTables: open,
	}
}

func (db *DB) TableStats(name string) (TableStats, error) {
	tbl, err := db.OpenTable(name)
	if err != nil {
		return TableStats{}, err
	}
	pages := tbl.BP.PageCount()
	return TableStats{
		Name:   name,
		Fields: tbl.Schema.NumFields(),
		Pages:  pages,
		Bytes:  uint64(pages) * storage.PageSize,
	}, nil
}

// DumpPages writes the slot directory of every page of a table to w.
func (db *DB) DumpPages(name string, w io.Writer) error {
	tbl, err := db.OpenTable(name)
	if err != nil {
		return err
	}
	for pageID := uint32(0); pageID < tbl.BP.PageCount(); pageID++ {
		p, err := tbl.BP.GetPage(pageID)
		if err != nil {
			return err
		}
		err = p.Debug(w)
		_ = tbl.BP.Unpin(p, false)
		if err != nil {
			return err
		}
	}
	return nil
}

// ---- lifecycle ----

// Flush writes every dirty cached page to disk.
func (db *DB) Flush() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	return db.pool.FlushAll()
}

// Close flushes all dirty pages and closes every table file. If the flush
// fails the database stays open so Close can be retried.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}

	if err := db.pool.FlushAll(); err != nil {
		return fmt.Errorf("microdb: close: %w", err)
	}

	var errs []error
	for name, h := range db.tables {
		if err := db.pool.DropFile(h.file, true); err != nil {
			errs = append(errs, err)
		}
		if err := db.store.Close(h.file); err != nil {
			errs = append(errs, fmt.Errorf("close table %s: %w", name, err))
		}
	}
	db.tables = nil
	db.catalog.Close()
	db.closed = true

	slog.Info("microdb: close", "dir", db.dir)
	return errors.Join(errs...)
}
