package storage

import (
	"fmt"

	"github.com/tuannm99/microdb/internal/dberr"
)

const (
	OneKB = 1 << 10

	PageSize       = 4 * OneKB // 4,096
	PageHeaderSize = 4         // u32 slot count
	SlotSize       = 9         // u8 flag, u32 offset, u32 size
	// MaxTupleSize is the largest payload an empty page can take,
	// leaving room for the header and a single slot entry.
	MaxTupleSize = PageSize - PageHeaderSize - SlotSize

	DataFileExt = ".dat"
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	ErrFileExists     = fmt.Errorf("%w: storage: file already exists", dberr.ErrAlreadyExists)
	ErrFileNotFound   = fmt.Errorf("%w: storage: file not found", dberr.ErrNotFound)
	ErrPageOutOfRange = fmt.Errorf("%w: storage: page index out of range", dberr.ErrNotFound)
	ErrPartialPage    = fmt.Errorf("%w: storage: partial page", dberr.ErrCorruption)
	ErrStorageIO      = fmt.Errorf("%w: storage", dberr.ErrIO)
	ErrFileClosed     = fmt.Errorf("%w: storage: file is closed", dberr.ErrIO)
)

// DataFileName returns the on-disk name of a table's page file.
func DataFileName(table string) string {
	return table + DataFileExt
}
