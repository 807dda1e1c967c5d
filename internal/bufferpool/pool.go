package bufferpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tuannm99/microdb/internal/storage"
)

var (
	DefaultCapacity = 64

	ErrNoFreeFrame = errors.New("bufferpool: no free frame available (all pinned)")
	ErrPagePinned  = errors.New("bufferpool: page is pinned")
)

// PageTag uniquely identifies a page in the pool.
type PageTag struct {
	File   string
	PageID uint32
}

// Frame holds one cached page. File is kept so the frame can be flushed
// without the caller's help on eviction.
type Frame struct {
	Tag   PageTag
	File  *storage.File
	Page  *storage.Page
	Dirty bool
	Pin   int32
}

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Flushes   uint64
}

// Pool is a single write-back page cache shared by every open file of a
// database. Victims are chosen least-recently-used among unpinned frames.
type Pool struct {
	io PageIO

	mu     sync.Mutex
	frames []*Frame        // len == capacity, nil == free slot
	table  map[PageTag]int // (file,pageID) -> frame index
	repl   Replacer
	stats  Stats
}

func NewPool(io PageIO, capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		io:     io,
		frames: make([]*Frame, capacity),
		table:  make(map[PageTag]int),
		repl:   newLRUReplacer(),
	}
}

func (p *Pool) Capacity() int { return len(p.frames) }

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// GetPage pins and returns page pageID of f, reading it on a miss.
func (p *Pool) GetPage(f *storage.File, pageID uint32) (*storage.Page, error) {
	tag := PageTag{File: f.Name(), PageID: pageID}

	p.mu.Lock()
	defer p.mu.Unlock()

	// 1) HIT
	if idx, ok := p.table[tag]; ok {
		fr := p.frames[idx]
		fr.Pin++
		p.repl.RecordAccess(idx)
		p.repl.SetEvictable(idx, false)
		p.stats.Hits++
		return fr.Page, nil
	}
	p.stats.Misses++

	// 2) MISS: find a frame, then load
	idx, err := p.acquireFrame()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, storage.PageSize)
	if err := p.io.ReadPage(f, pageID, buf); err != nil {
		return nil, err
	}
	page, err := storage.WrapPage(buf, pageID)
	if err != nil {
		return nil, err
	}
	p.install(idx, tag, f, page)
	return page, nil
}

// NewPage appends an empty page to f and returns it pinned. The empty page
// is written through so the file's page count and the cache agree.
func (p *Pool) NewPage(f *storage.File) (*storage.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, err := p.acquireFrame()
	if err != nil {
		return nil, err
	}

	pageID := f.PageCount()
	page, err := storage.NewPage(make([]byte, storage.PageSize), pageID)
	if err != nil {
		return nil, err
	}
	if err := p.io.WritePage(f, pageID, page.Buf); err != nil {
		return nil, err
	}
	p.install(idx, PageTag{File: f.Name(), PageID: pageID}, f, page)
	slog.Debug("bufferpool: page appended", "file", f.Name(), "page", pageID)
	return page, nil
}

func (p *Pool) install(idx int, tag PageTag, f *storage.File, page *storage.Page) {
	p.frames[idx] = &Frame{Tag: tag, File: f, Page: page, Pin: 1}
	p.table[tag] = idx
	p.repl.RecordAccess(idx)
	p.repl.SetEvictable(idx, false)
}

// acquireFrame returns an empty frame index, evicting if needed. A dirty
// victim is flushed first; if that fails the victim stays cached and dirty.
func (p *Pool) acquireFrame() (int, error) {
	for i, fr := range p.frames {
		if fr == nil {
			return i, nil
		}
	}

	victimIdx, ok := p.repl.Evict()
	if !ok {
		return -1, ErrNoFreeFrame
	}
	victim := p.frames[victimIdx]

	if victim.Dirty {
		if err := p.flushFrame(victim); err != nil {
			// Put victim back as evictable
			p.repl.RecordAccess(victimIdx)
			p.repl.SetEvictable(victimIdx, true)
			return -1, fmt.Errorf("bufferpool: evict %s page %d: %w", victim.Tag.File, victim.Tag.PageID, err)
		}
	}

	slog.Debug("bufferpool: evict", "file", victim.Tag.File, "page", victim.Tag.PageID)
	delete(p.table, victim.Tag)
	p.frames[victimIdx] = nil
	p.stats.Evictions++
	return victimIdx, nil
}

func (p *Pool) flushFrame(fr *Frame) error {
	if err := p.io.WritePage(fr.File, fr.Tag.PageID, fr.Page.Buf); err != nil {
		return err
	}
	fr.Dirty = false
	p.stats.Flushes++
	return nil
}

// Unpin decreases pin count and marks dirty optionally.
func (p *Pool) Unpin(f *storage.File, page *storage.Page, dirty bool) error {
	if page == nil {
		return nil
	}
	tag := PageTag{File: f.Name(), PageID: page.PageID()}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.table[tag]
	if !ok {
		return fmt.Errorf("bufferpool: unpin of uncached page %s/%d", tag.File, tag.PageID)
	}
	fr := p.frames[idx]
	if dirty {
		fr.Dirty = true
	}
	if fr.Pin > 0 {
		fr.Pin--
		if fr.Pin == 0 {
			p.repl.SetEvictable(idx, true)
		}
	}
	return nil
}

// FlushAll flushes all dirty pages in the pool.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, fr := range p.frames {
		if fr == nil || !fr.Dirty {
			continue
		}
		if err := p.flushFrame(fr); err != nil {
			return err
		}
	}
	return nil
}

// FlushFile flushes dirty pages belonging to a single file.
func (p *Pool) FlushFile(f *storage.File) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushFileLocked(f.Name())
}

func (p *Pool) flushFileLocked(name string) error {
	for _, fr := range p.frames {
		if fr == nil || !fr.Dirty || fr.Tag.File != name {
			continue
		}
		if err := p.flushFrame(fr); err != nil {
			return err
		}
	}
	return nil
}

// DropFile removes ALL pages of f from the pool. With flush set, dirty
// pages are written first and nothing is dropped if a write fails. Without
// it dirty pages are discarded, which is only valid for a file about to
// be deleted.
func (p *Pool) DropFile(f *storage.File, flush bool) error {
	name := f.Name()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, fr := range p.frames {
		if fr != nil && fr.Tag.File == name && fr.Pin != 0 {
			return fmt.Errorf("%w: %s page %d", ErrPagePinned, name, fr.Tag.PageID)
		}
	}

	if flush {
		if err := p.flushFileLocked(name); err != nil {
			return err
		}
	}

	for i, fr := range p.frames {
		if fr == nil || fr.Tag.File != name {
			continue
		}
		delete(p.table, fr.Tag)
		p.frames[i] = nil
		p.repl.Remove(i)
	}
	return nil
}
