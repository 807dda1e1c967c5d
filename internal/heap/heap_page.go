package heap

import (
	"fmt"

	"github.com/tuannm99/microdb/internal/record"
	"github.com/tuannm99/microdb/internal/storage"
)

// HeapPage = Page + Schema, row-level wrapper on top of a slotted page:
// operations take and return records instead of raw []byte.
type HeapPage struct {
	Page   *storage.Page
	Schema record.Schema
}

func (hp HeapPage) ReadRow(slot int) (record.Record, error) {
	data, err := hp.Page.ReadTuple(slot)
	if err != nil {
		return nil, err
	}
	rec, err := record.Decode(hp.Schema, data)
	if err != nil {
		return nil, fmt.Errorf("heap: page %d slot %d: %w", hp.Page.PageID(), slot, err)
	}
	return rec, nil
}

func (hp HeapPage) DeleteRow(slot int) error {
	return hp.Page.MarkFree(slot)
}

// Rows calls fn for every used slot in directory order.
func (hp HeapPage) Rows(fn func(slot int, rec record.Record) error) error {
	for slot := 0; slot < hp.Page.NumSlots(); slot++ {
		used, err := hp.Page.IsUsed(slot)
		if err != nil {
			return err
		}
		if !used {
			continue
		}
		rec, err := hp.ReadRow(slot)
		if err != nil {
			return err
		}
		if err := fn(slot, rec); err != nil {
			return err
		}
	}
	return nil
}
