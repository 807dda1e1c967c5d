package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File is an open page sequence. The page count is tracked in memory and
// only grows through WritePage appends.
type File struct {
	name  string
	f     *os.File
	pages uint32
}

func (f *File) Name() string { return f.name }

func (f *File) PageCount() uint32 { return f.pages }

// PageStore owns the files of one storage directory and moves whole pages
// between them and memory.
type PageStore struct {
	dir string
}

func NewPageStore(dir string) (*PageStore, error) {
	if err := os.MkdirAll(dir, FileMode0755); err != nil {
		return nil, fmt.Errorf("%w: create dir %s: %v", ErrStorageIO, dir, err)
	}
	return &PageStore{dir: dir}, nil
}

func (s *PageStore) Dir() string { return s.dir }

func (s *PageStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Create allocates an empty page sequence. It fails if the file exists.
func (s *PageStore) Create(name string) error {
	f, err := os.OpenFile(s.path(name), os.O_RDWR|os.O_CREATE|os.O_EXCL, FileMode0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, name)
		}
		return fmt.Errorf("%w: create %s: %v", ErrStorageIO, name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

func (s *PageStore) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return fmt.Errorf("%w: delete %s: %v", ErrStorageIO, name, err)
	}
	return nil
}

func (s *PageStore) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Open returns a handle to an existing page sequence.
func (s *PageStore) Open(name string) (*File, error) {
	f, err := os.OpenFile(s.path(name), os.O_RDWR, FileMode0644)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageIO, name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrStorageIO, name, err)
	}
	if info.Size()%PageSize != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrPartialPage, name, info.Size())
	}
	return &File{
		name:  name,
		f:     f,
		pages: uint32(info.Size() / PageSize),
	}, nil
}

func (s *PageStore) Close(f *File) error {
	if f == nil || f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrStorageIO, f.name, err)
	}
	return nil
}

// ReadPage reads exactly one page (PageSize bytes) into dst.
func (s *PageStore) ReadPage(f *File, pageID uint32, dst []byte) error {
	if len(dst) != PageSize {
		return ErrWrongSize
	}
	if f.f == nil {
		return ErrFileClosed
	}
	if pageID >= f.pages {
		return fmt.Errorf("%w: %s page %d (count %d)", ErrPageOutOfRange, f.name, pageID, f.pages)
	}
	n, err := f.f.ReadAt(dst, int64(pageID)*PageSize)
	if n == PageSize {
		return nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read %s page %d: %v", ErrStorageIO, f.name, pageID, err)
	}
	return fmt.Errorf("%w: %s page %d: read %d bytes", ErrPartialPage, f.name, pageID, n)
}

// WritePage writes exactly one page. pageID may equal the page count, in
// which case the sequence grows by one page.
func (s *PageStore) WritePage(f *File, pageID uint32, src []byte) error {
	if len(src) != PageSize {
		return ErrWrongSize
	}
	if f.f == nil {
		return ErrFileClosed
	}
	if pageID > f.pages {
		return fmt.Errorf("%w: %s page %d (count %d)", ErrPageOutOfRange, f.name, pageID, f.pages)
	}
	n, err := f.f.WriteAt(src, int64(pageID)*PageSize)
	if err != nil {
		return fmt.Errorf("%w: write %s page %d: %v", ErrStorageIO, f.name, pageID, err)
	}
	if n != PageSize {
		return fmt.Errorf("%w: write %s page %d: %v", ErrStorageIO, f.name, pageID, io.ErrShortWrite)
	}
	if pageID == f.pages {
		f.pages++
	}
	return nil
}

// PageCount reports the number of pages of a file that need not be open.
func (s *PageStore) PageCount(name string) (uint32, error) {
	info, err := os.Stat(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return 0, fmt.Errorf("%w: stat %s: %v", ErrStorageIO, name, err)
	}
	return uint32(info.Size() / PageSize), nil
}
