package bufferpool

import "github.com/tuannm99/microdb/internal/storage"

// FileView binds the shared Pool to one open file (one table).
// It implements Manager so heap code never passes the file around.
type FileView struct {
	p *Pool
	f *storage.File
}

func (v *FileView) GetPage(pageID uint32) (*storage.Page, error) {
	return v.p.GetPage(v.f, pageID)
}

func (v *FileView) NewPage() (*storage.Page, error) {
	return v.p.NewPage(v.f)
}

func (v *FileView) Unpin(page *storage.Page, dirty bool) error {
	return v.p.Unpin(v.f, page, dirty)
}

func (v *FileView) PageCount() uint32 {
	return v.f.PageCount()
}

// FlushAll flushes dirty pages for THIS file only.
func (v *FileView) FlushAll() error {
	return v.p.FlushFile(v.f)
}

// View returns a file-scoped Manager backed by the shared Pool.
func (p *Pool) View(f *storage.File) Manager {
	return &FileView{p: p, f: f}
}
