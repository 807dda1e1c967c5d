package heap

import (
	"errors"
	"fmt"

	"github.com/tuannm99/microdb/internal/bufferpool"
	"github.com/tuannm99/microdb/internal/dberr"
	"github.com/tuannm99/microdb/internal/record"
	"github.com/tuannm99/microdb/internal/storage"
)

var ErrRecordTooLarge = fmt.Errorf("%w: heap: record exceeds page capacity", dberr.ErrValueTooLarge)

// Table represent for heap file logic: name, schema and the buffer pool
// view over its data file.
type Table struct {
	Name   string
	Schema record.Schema
	BP     bufferpool.Manager
}

func NewTable(name string, schema record.Schema, bp bufferpool.Manager) *Table {
	return &Table{Name: name, Schema: schema, BP: bp}
}

// fetch pins a page and validates its slot directory.
func (t *Table) fetch(pageID uint32) (HeapPage, error) {
	p, err := t.BP.GetPage(pageID)
	if err != nil {
		return HeapPage{}, err
	}
	if err := p.Check(); err != nil {
		_ = t.BP.Unpin(p, false)
		return HeapPage{}, fmt.Errorf("heap: table %s page %d: %w", t.Name, pageID, err)
	}
	return HeapPage{Page: p, Schema: t.Schema}, nil
}

// Insert places rec in the first page (index order) with room for it,
// appending a fresh page when none has.
func (t *Table) Insert(rec record.Record) (TID, error) {
	data, err := record.Encode(t.Schema, rec)
	if err != nil {
		return TID{}, err
	}
	if len(data) > storage.MaxTupleSize {
		return TID{}, fmt.Errorf("%w: %d > %d bytes", ErrRecordTooLarge, len(data), storage.MaxTupleSize)
	}

	for pageID := uint32(0); pageID < t.BP.PageCount(); pageID++ {
		hp, err := t.fetch(pageID)
		if err != nil {
			return TID{}, err
		}

		slot, err := hp.Page.InsertTuple(data)
		if errors.Is(err, storage.ErrNoSpace) {
			// Current page is full, unpin without dirty flag and try next page
			_ = t.BP.Unpin(hp.Page, false)
			continue
		}
		if err != nil {
			_ = t.BP.Unpin(hp.Page, false)
			return TID{}, err
		}
		if err := t.BP.Unpin(hp.Page, true); err != nil {
			return TID{}, err
		}
		return TID{PageID: pageID, Slot: uint16(slot)}, nil
	}

	p, err := t.BP.NewPage()
	if err != nil {
		return TID{}, err
	}
	slot, err := p.InsertTuple(data)
	if err != nil {
		_ = t.BP.Unpin(p, false)
		return TID{}, err
	}
	if err := t.BP.Unpin(p, true); err != nil {
		return TID{}, err
	}
	return TID{PageID: p.PageID(), Slot: uint16(slot)}, nil
}

// Scan visits every used slot, pages in index order and slots in
// directory order.
func (t *Table) Scan(fn func(id TID, rec record.Record) error) error {
	for pageID := uint32(0); pageID < t.BP.PageCount(); pageID++ {
		hp, err := t.fetch(pageID)
		if err != nil {
			return err
		}
		err = hp.Rows(func(slot int, rec record.Record) error {
			return fn(TID{PageID: pageID, Slot: uint16(slot)}, rec)
		})
		_ = t.BP.Unpin(hp.Page, false)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteFunc frees every used slot whose record satisfies match and
// returns how many were freed. Pages already modified stay modified if a
// later page fails.
func (t *Table) DeleteFunc(match func(rec record.Record) (bool, error)) (int, error) {
	deleted := 0
	for pageID := uint32(0); pageID < t.BP.PageCount(); pageID++ {
		hp, err := t.fetch(pageID)
		if err != nil {
			return deleted, err
		}

		dirty := false
		err = hp.Rows(func(slot int, rec record.Record) error {
			ok, err := match(rec)
			if err != nil || !ok {
				return err
			}
			if err := hp.DeleteRow(slot); err != nil {
				return err
			}
			dirty = true
			deleted++
			return nil
		})
		if uerr := t.BP.Unpin(hp.Page, dirty); err == nil {
			err = uerr
		}
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}
