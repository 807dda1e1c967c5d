package bufferpool

import "github.com/tuannm99/microdb/internal/storage"

// PageIO is the slice of the page store the pool needs. *storage.PageStore
// satisfies it; tests substitute a failing writer.
type PageIO interface {
	ReadPage(f *storage.File, pageID uint32, dst []byte) error
	WritePage(f *storage.File, pageID uint32, src []byte) error
}

// Replacer picks the victim frame when the pool is full.
type Replacer interface {
	RecordAccess(frameID int)
	SetEvictable(frameID int, evictable bool)
	Evict() (frameID int, ok bool)
	Remove(frameID int)
	Size() int
}

// Manager is a file-scoped view of the pool used by heap tables.
type Manager interface {
	GetPage(pageID uint32) (*storage.Page, error)
	NewPage() (*storage.Page, error)
	Unpin(page *storage.Page, dirty bool) error
	PageCount() uint32
	FlushAll() error
}
